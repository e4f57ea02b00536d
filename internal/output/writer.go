// Package output serializes export tables for the command line tools.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/a3tai/mcp-pdf-regions/internal/export"
)

// SourceColumn is the leading column holding the document base name.
const SourceColumn = "Source File"

// DefaultNoMatch is written for cells that had nothing to resolve against.
// Empty regions are written as empty fields.
const DefaultNoMatch = "[no match]"

// Format is an output encoding.
type Format string

const (
	CSV  Format = "csv"
	TSV  Format = "tsv"
	JSON Format = "json"
)

// ParseFormat accepts a format name or a file extension.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")); f {
	case CSV, TSV, JSON:
		return f, nil
	case "txt", "tab":
		return TSV, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use csv, tsv or json)", s)
	}
}

// Writer writes tables in one format.
type Writer struct {
	format  Format
	noMatch string
}

// NewWriter creates a Writer. An empty noMatch selects DefaultNoMatch.
func NewWriter(format Format, noMatch string) *Writer {
	if noMatch == "" {
		noMatch = DefaultNoMatch
	}
	return &Writer{format: format, noMatch: noMatch}
}

// Records returns the header and data rows as plain strings.
func (w *Writer) Records(t *export.Table) [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, append([]string{SourceColumn}, t.Columns...))
	for _, row := range t.Rows {
		rec := make([]string, 0, len(row.Cells)+1)
		rec = append(rec, baseName(row.Document))
		for _, c := range row.Cells {
			rec = append(rec, w.value(c))
		}
		out = append(out, rec)
	}
	return out
}

func (w *Writer) value(c export.Cell) string {
	switch c.Status {
	case export.Match:
		return c.Text
	case export.Empty:
		return ""
	default:
		return w.noMatch
	}
}

// Write encodes t to dst.
func (w *Writer) Write(dst io.Writer, t *export.Table) error {
	switch w.format {
	case CSV, TSV:
		cw := csv.NewWriter(dst)
		if w.format == TSV {
			cw.Comma = '\t'
		}
		if err := cw.WriteAll(w.Records(t)); err != nil {
			return fmt.Errorf("failed to write %s: %w", w.format, err)
		}
		return nil
	case JSON:
		enc := json.NewEncoder(dst)
		enc.SetIndent("", "  ")
		if err := enc.Encode(w.jsonView(t)); err != nil {
			return fmt.Errorf("failed to write json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format %q", w.format)
	}
}

type jsonRow struct {
	SourceFile string         `json:"source_file"`
	Document   string         `json:"document"`
	Values     map[string]any `json:"values"`
	Cells      []export.Cell  `json:"cells"`
}

type jsonTable struct {
	RunID   string        `json:"run_id"`
	Columns []string      `json:"columns"`
	Rows    []jsonRow     `json:"rows"`
	Stats   export.Stats  `json:"stats"`
	Issues  export.Issues `json:"issues"`
}

// jsonView keys values by column; no match is null so it stays distinct
// from an empty region.
func (w *Writer) jsonView(t *export.Table) jsonTable {
	view := jsonTable{
		RunID:   t.RunID,
		Columns: t.Columns,
		Rows:    make([]jsonRow, 0, len(t.Rows)),
		Stats:   t.Stats(),
		Issues:  t.Issues,
	}
	for _, row := range t.Rows {
		jr := jsonRow{
			SourceFile: baseName(row.Document),
			Document:   row.Document,
			Values:     make(map[string]any, len(row.Cells)),
			Cells:      row.Cells,
		}
		for i, c := range row.Cells {
			if i >= len(t.Columns) {
				break
			}
			if c.Status == export.NoMatch {
				jr.Values[t.Columns[i]] = nil
				continue
			}
			jr.Values[t.Columns[i]] = c.Text
		}
		view.Rows = append(view.Rows, jr)
	}
	return view
}

func baseName(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Base(path)
}
