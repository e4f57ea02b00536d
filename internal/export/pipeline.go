package export

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/a3tai/mcp-pdf-regions/internal/layout"
	"github.com/a3tai/mcp-pdf-regions/internal/query"
	"github.com/a3tai/mcp-pdf-regions/internal/selector"
)

// DefaultWorkers is the number of documents resolved concurrently.
const DefaultWorkers = 4

// Resolver resolves one selector against one document.
type Resolver interface {
	Resolve(sel selector.Selector, doc *layout.Document) query.Resolution
}

// Pipeline runs export orders. Documents are read only during a run and the
// selectors are passed by value, so rows can be built concurrently.
type Pipeline struct {
	resolver Resolver
	workers  int
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWorkers bounds how many documents are resolved at once.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithLogger sets the run logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPipeline creates a Pipeline around r.
func NewPipeline(r Resolver, opts ...Option) *Pipeline {
	p := &Pipeline{
		resolver: r,
		workers:  DefaultWorkers,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run builds a table with one row per document and one column per selector,
// in the given orders. A failing cell degrades to NoMatch and never aborts
// the run. When ctx is cancelled the remaining cells are skipped and the
// partial table is returned together with ctx.Err().
func (p *Pipeline) Run(ctx context.Context, docs []*layout.Document, sels []selector.Selector) (*Table, error) {
	runID := uuid.NewString()
	log := p.logger.With("run_id", runID)

	table := &Table{
		RunID:   runID,
		Columns: make([]string, len(sels)),
		Rows:    make([]Row, len(docs)),
	}
	for i, s := range sels {
		table.Columns[i] = s.Name
	}

	log.Info("export run started", "documents", len(docs), "selectors", len(sels), "workers", p.workers)

	rowIssues := make([]Issues, len(docs))
	g := new(errgroup.Group)
	g.SetLimit(p.workers)
	for i, doc := range docs {
		g.Go(func() error {
			table.Rows[i], rowIssues[i] = p.row(ctx, log, doc, sels)
			return nil
		})
	}
	_ = g.Wait()

	for _, iss := range rowIssues {
		table.Issues.Merge(iss)
	}

	st := table.Stats()
	log.Info("export run finished",
		"matched", st.Matched, "empty", st.Empty, "no_match", st.NoMatch,
		"summary", table.Issues.Summary())

	return table, ctx.Err()
}

func (p *Pipeline) row(ctx context.Context, log *slog.Logger, doc *layout.Document, sels []selector.Selector) (Row, Issues) {
	var issues Issues
	row := Row{Cells: make([]Cell, len(sels))}
	if doc == nil {
		for j, s := range sels {
			row.Cells[j] = Cell{Status: NoMatch, Reason: "document not loaded"}
			issues.Add(Issue{Type: IssueMissingDocument, Selector: s.Name, Message: "document not loaded"})
		}
		return row, issues
	}
	row.Document = doc.ID

	for j, s := range sels {
		if err := ctx.Err(); err != nil {
			row.Cells[j] = Cell{Status: NoMatch, Reason: "cancelled"}
			issues.Add(Issue{Type: IssueCancelled, Document: doc.ID, Selector: s.Name, Message: err.Error()})
			continue
		}
		cell, issue := p.cell(doc, s)
		row.Cells[j] = cell
		if issue != nil {
			issues.Add(*issue)
			if issue.Type.Severity() >= SeverityWarning {
				log.Warn("export cell degraded",
					"document", doc.ID, "selector", s.Name, "type", issue.Type.String(), "reason", issue.Message)
			}
		}
	}
	return row, issues
}

// cell resolves one pair. A panicking resolver is contained to its cell.
func (p *Pipeline) cell(doc *layout.Document, s selector.Selector) (cell Cell, issue *Issue) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("resolver panic: %v", r)
			cell = Cell{Status: NoMatch, Reason: msg}
			issue = &Issue{Type: IssueResolverPanic, Document: doc.ID, Selector: s.Name, Message: msg}
		}
	}()

	if doc.Page(s.Page) == nil {
		msg := fmt.Sprintf("page %d not in document (%d pages)", s.Page, doc.PageCount())
		return Cell{Status: NoMatch, Reason: msg},
			&Issue{Type: IssueMissingPage, Document: doc.ID, Selector: s.Name, Message: msg}
	}
	if s.Mode != selector.WordPick && s.Mode != selector.BoxRegion {
		msg := "unknown mode " + s.Mode.String()
		return Cell{Status: NoMatch, Reason: msg},
			&Issue{Type: IssueUnknownMode, Document: doc.ID, Selector: s.Name, Message: msg}
	}

	res := p.resolver.Resolve(s, doc)
	switch {
	case !res.Matched:
		return Cell{Status: NoMatch, Reason: "no word at point"},
			&Issue{Type: IssueNoWord, Document: doc.ID, Selector: s.Name, Message: "no word at point"}
	case res.Text == "":
		return Cell{Status: Empty},
			&Issue{Type: IssueEmptyRegion, Document: doc.ID, Selector: s.Name, Message: "region contains no text"}
	default:
		return Cell{Text: res.Text, Status: Match}, nil
	}
}
