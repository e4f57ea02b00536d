// Package export replays an export order against a set of documents and
// produces the result table.
package export

import (
	"strings"
	"unicode/utf8"
)

// Status is the kind of value held by a cell.
type Status int

const (
	// NoMatch means the selector had nothing to resolve against.
	NoMatch Status = iota
	// Match means text was found.
	Match
	// Empty means a region resolved to zero tokens. It is not NoMatch.
	Empty
)

func (s Status) String() string {
	switch s {
	case Match:
		return "match"
	case Empty:
		return "empty"
	default:
		return "no_match"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Cell is the result for one (document, selector) pair.
type Cell struct {
	Text   string `json:"text"`
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Row holds one document's cells in export order.
type Row struct {
	Document string `json:"document"`
	Cells    []Cell `json:"cells"`
}

// Table is the output of a run: one row per document, one column per
// selector.
type Table struct {
	RunID   string   `json:"run_id"`
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
	Issues  Issues   `json:"issues"`
}

// Cell returns the cell at (row, col) or false when out of range.
func (t *Table) Cell(row, col int) (Cell, bool) {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row].Cells) {
		return Cell{}, false
	}
	return t.Rows[row].Cells[col], true
}

// Stats counts cells by status.
type Stats struct {
	Documents int `json:"documents"`
	Matched   int `json:"matched"`
	Empty     int `json:"empty"`
	NoMatch   int `json:"no_match"`
}

// Stats summarizes the table.
func (t *Table) Stats() Stats {
	st := Stats{Documents: len(t.Rows)}
	for _, r := range t.Rows {
		for _, c := range r.Cells {
			switch c.Status {
			case Match:
				st.Matched++
			case Empty:
				st.Empty++
			default:
				st.NoMatch++
			}
		}
	}
	return st
}

// Placeholder shown by Preview for cells without text.
const NoTextPlaceholder = "[No text]"

// Preview renders a cell for display: line breaks are flattened and text
// longer than maxChars is cut and suffixed with "...". maxChars <= 0 disables
// truncation.
func Preview(c Cell, maxChars int) string {
	if c.Status != Match || strings.TrimSpace(c.Text) == "" {
		return NoTextPlaceholder
	}
	text := strings.ReplaceAll(c.Text, "\r\n", " ")
	text = strings.ReplaceAll(text, "\n", " ")
	if maxChars > 0 && utf8.RuneCountInString(text) > maxChars {
		runes := []rune(text)
		text = string(runes[:maxChars]) + "..."
	}
	return text
}
