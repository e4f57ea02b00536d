package layout

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultLineTolerance is the vertical overlap, in points, two token bands
// must exceed to be treated as one visual line. SharesLine lowers it for
// bands too short to ever reach it.
const DefaultLineTolerance = 0.5

// RawToken is decoder output for a single word: text plus its bounding box
// in page space. Index is the decoder's creation order.
type RawToken struct {
	Text  string
	X0    float64
	Y0    float64
	X1    float64
	Y1    float64
	Index int
}

// Box returns the raw token rectangle as given by the decoder.
func (r RawToken) Box() Box {
	return Box{X0: r.X0, Y0: r.Y0, X1: r.X1, Y1: r.Y1}
}

// LayoutError reports malformed decoder output for one page.
type LayoutError struct {
	Page   int
	Index  int // offending raw token, -1 when not token specific
	Reason string
}

func (e *LayoutError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("layout error on page %d, token %d: %s", e.Page, e.Index, e.Reason)
	}
	return fmt.Sprintf("layout error on page %d: %s", e.Page, e.Reason)
}

// Builder turns raw decoder tokens into PageLayouts.
type Builder struct {
	lineTolerance float64
	logger        *slog.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLineTolerance sets the vertical overlap threshold used to group tokens
// into lines for reading order.
func WithLineTolerance(tol float64) BuilderOption {
	return func(b *Builder) {
		if tol >= 0 {
			b.lineTolerance = tol
		}
	}
}

// WithLogger sets the logger used for pages that fail to build.
func WithLogger(l *slog.Logger) BuilderOption {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBuilder creates a Builder with the default line tolerance.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		lineTolerance: DefaultLineTolerance,
		logger:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// LineTolerance returns the configured line grouping tolerance.
func (b *Builder) LineTolerance() float64 {
	return b.lineTolerance
}

// Build creates the layout for one page. Whitespace-only tokens are dropped.
// Any other token with a non-finite or degenerate box fails the whole page.
// The result is deterministic for identical input.
func (b *Builder) Build(page int, width, height float64, raw []RawToken) (*PageLayout, error) {
	if !isFinite(width) || !isFinite(height) || width < 0 || height < 0 {
		return nil, &LayoutError{Page: page, Index: -1, Reason: fmt.Sprintf("invalid page size %gx%g", width, height)}
	}

	kept := make([]Token, 0, len(raw))
	creation := make([]int, 0, len(raw))
	for i, r := range raw {
		text := strings.TrimSpace(norm.NFKC.String(r.Text))
		if text == "" {
			continue
		}
		box := r.Box()
		if !box.IsFinite() {
			return nil, &LayoutError{Page: page, Index: i, Reason: "unbounded bounding box"}
		}
		if box.IsEmpty() {
			return nil, &LayoutError{Page: page, Index: i, Reason: "degenerate bounding box " + box.String()}
		}
		kept = append(kept, Token{Text: text, Box: box, Page: page})
		creation = append(creation, r.Index)
	}

	order := b.readingOrder(kept, creation)
	tokens := make([]Token, len(order))
	for i, idx := range order {
		t := kept[idx]
		t.Order = i
		tokens[i] = t
	}

	return &PageLayout{Index: page, Width: width, Height: height, tokens: tokens}, nil
}

// BuildDocument builds every page of a document. A page that fails is logged
// and kept as an empty page so page indices stay aligned with the source.
func (b *Builder) BuildDocument(id string, pages []PageInput) *Document {
	doc := &Document{ID: id, Pages: make([]*PageLayout, len(pages))}
	for i, p := range pages {
		pl, err := b.Build(i, p.Width, p.Height, p.Tokens)
		if err != nil {
			b.logger.Warn("page layout rejected, treating page as empty",
				"document", id, "page", i, "error", err)
			pl = &PageLayout{Index: i, Width: p.Width, Height: p.Height}
		}
		doc.Pages[i] = pl
	}
	return doc
}

// PageInput is the decoded content of one page.
type PageInput struct {
	Width  float64
	Height float64
	Tokens []RawToken
}

// line is a band of tokens that share a visual line.
type line struct {
	top, bottom float64
	members     []int
}

// readingOrder returns indices into tokens sorted top-to-bottom by line and
// left-to-right within a line. Ties fall back to the decoder creation order
// and then to input position so the order is total.
func (b *Builder) readingOrder(tokens []Token, creation []int) []int {
	idx := make([]int, len(tokens))
	for i := range idx {
		idx[i] = i
	}
	less := func(i, j int) bool {
		if creation[i] != creation[j] {
			return creation[i] < creation[j]
		}
		return i < j
	}

	sort.SliceStable(idx, func(a, c int) bool {
		ta, tc := tokens[idx[a]].Box, tokens[idx[c]].Box
		if ta.Y0 != tc.Y0 {
			return ta.Y0 < tc.Y0
		}
		if ta.X0 != tc.X0 {
			return ta.X0 < tc.X0
		}
		return less(idx[a], idx[c])
	})

	var lines []*line
	for _, i := range idx {
		box := tokens[i].Box
		var target *line
		for _, ln := range lines {
			if SharesLine(Box{Y0: ln.top, Y1: ln.bottom}, box, b.lineTolerance) {
				target = ln
				break
			}
		}
		if target == nil {
			lines = append(lines, &line{top: box.Y0, bottom: box.Y1, members: []int{i}})
			continue
		}
		target.members = append(target.members, i)
		target.top = min(target.top, box.Y0)
		target.bottom = max(target.bottom, box.Y1)
	}

	sort.SliceStable(lines, func(a, c int) bool {
		return lines[a].top < lines[c].top
	})

	out := make([]int, 0, len(tokens))
	for _, ln := range lines {
		sort.SliceStable(ln.members, func(a, c int) bool {
			ta, tc := tokens[ln.members[a]].Box, tokens[ln.members[c]].Box
			if ta.X0 != tc.X0 {
				return ta.X0 < tc.X0
			}
			return less(ln.members[a], ln.members[c])
		})
		out = append(out, ln.members...)
	}
	return out
}
