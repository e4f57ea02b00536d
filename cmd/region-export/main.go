// Command region-export replays a selector template across a batch of PDFs
// and writes one row per document.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/a3tai/mcp-pdf-regions/internal/config"
	"github.com/a3tai/mcp-pdf-regions/internal/export"
	"github.com/a3tai/mcp-pdf-regions/internal/layout"
	"github.com/a3tai/mcp-pdf-regions/internal/output"
	"github.com/a3tai/mcp-pdf-regions/internal/pdf"
	"github.com/a3tai/mcp-pdf-regions/internal/query"
	"github.com/a3tai/mcp-pdf-regions/internal/selector"
	"github.com/a3tai/mcp-pdf-regions/internal/template"
)

var errUsage = errors.New("usage")

type options struct {
	Template      string
	Output        string
	Format        string
	NoMatch       string
	Workers       int
	LineTolerance float64
	MaxFileSize   int64
	Verbose       bool
	Inputs        []string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := pflag.NewFlagSet("region-export", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVarP(&opts.Template, "template", "t", "", "Selector template (YAML, or legacy regions.json)")
	fs.StringVarP(&opts.Output, "output", "o", "", "Output file (default stdout)")
	fs.StringVarP(&opts.Format, "format", "f", "", "Output format: csv, tsv, json (default from output extension, else csv)")
	fs.StringVar(&opts.NoMatch, "no-match", output.DefaultNoMatch, "Cell text for selectors that do not resolve")
	fs.IntVarP(&opts.Workers, "workers", "w", config.DefaultWorkers, "Documents resolved concurrently")
	fs.Float64Var(&opts.LineTolerance, "line-tolerance", config.DefaultLineTolerance, "Vertical overlap in points for tokens to share a line")
	fs.Int64Var(&opts.MaxFileSize, "maxfilesize", config.DefaultMaxFileSize, "Maximum PDF file size in bytes")
	fs.BoolVarP(&opts.Verbose, "verbose", "v", false, "Log progress to stderr")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: region-export --template FILE [OPTIONS] <pdf or directory>...\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.Inputs = fs.Args()
	if opts.Template == "" || len(opts.Inputs) == 0 {
		fs.Usage()
		return nil, errUsage
	}
	if opts.Workers < 1 {
		return nil, errors.New("workers must be at least 1")
	}
	if opts.Format == "" {
		opts.Format = string(output.CSV)
		if opts.Output != "" {
			if f, err := output.ParseFormat(filepath.Ext(opts.Output)); err == nil {
				opts.Format = string(f)
			}
		}
	}
	return opts, nil
}

// summary counts the files an export run handled.
type summary struct {
	Processed int
	Errors    int
	Stats     export.Stats
}

// collect expands directories into the PDFs they contain. Plain files are
// kept as given and validated when loaded.
func collect(v *pdf.Validator, inputs []string) ([]string, error) {
	var files []string
	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", in, err)
		}
		if !info.IsDir() {
			files = append(files, in)
			continue
		}
		found, err := v.Discover(in)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

// runExport loads every file, replays the template and writes the table to w.
// A file that fails to load is counted and left out of the table.
func runExport(ctx context.Context, opts *options, loader *pdf.Loader, files []string, w io.Writer, logger *slog.Logger) (summary, error) {
	var sum summary

	format, err := output.ParseFormat(opts.Format)
	if err != nil {
		return sum, err
	}
	tmpl, err := template.LoadFile(opts.Template)
	if err != nil {
		return sum, err
	}
	order := selector.NewExportOrder()
	applied := template.Apply(order, tmpl)
	for _, e := range applied.Skipped {
		logger.Warn("template entry skipped", "path", opts.Template, "error", e)
	}

	docs := make([]*layout.Document, 0, len(files))
	for _, f := range files {
		doc, err := loader.Load(ctx, f)
		if err != nil {
			if ctx.Err() != nil {
				return sum, ctx.Err()
			}
			sum.Errors++
			logger.Warn("document skipped", "path", f, "error", err)
			continue
		}
		sum.Processed++
		docs = append(docs, doc)
	}

	pipeline := export.NewPipeline(query.NewEngine(opts.LineTolerance), export.WithWorkers(opts.Workers), export.WithLogger(logger))
	table, err := pipeline.Run(ctx, docs, order.Snapshot())
	if err != nil {
		return sum, err
	}
	sum.Stats = table.Stats()

	if err := output.NewWriter(format, opts.NoMatch).Write(w, table); err != nil {
		return sum, err
	}
	return sum, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 2
	}

	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	validator := pdf.NewValidator(opts.MaxFileSize)
	files, err := collect(validator, opts.Inputs)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	loader := pdf.NewLoader(validator,
		pdf.NewDecoder(pdf.WithDecoderLogger(logger)),
		layout.NewBuilder(layout.WithLineTolerance(opts.LineTolerance), layout.WithLogger(logger)))

	sum, err := exportTo(ctx, opts, loader, files, stdout, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stderr, "Processed %d file(s), %d error(s)\n", sum.Processed, sum.Errors)
	if sum.Errors > 0 {
		return 1
	}
	return 0
}

// exportTo writes to opts.Output when set, stdout otherwise.
func exportTo(ctx context.Context, opts *options, loader *pdf.Loader, files []string, stdout io.Writer, logger *slog.Logger) (summary, error) {
	if opts.Output == "" {
		return runExport(ctx, opts, loader, files, stdout, logger)
	}
	f, err := os.Create(opts.Output)
	if err != nil {
		return summary{}, fmt.Errorf("failed to create output: %w", err)
	}
	sum, err := runExport(ctx, opts, loader, files, f, logger)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to write output: %w", cerr)
	}
	return sum, err
}
