// Package query resolves geometric selections against a page layout.
package query

import (
	"math"
	"strings"

	"github.com/a3tai/mcp-pdf-regions/internal/layout"
	"github.com/a3tai/mcp-pdf-regions/internal/selector"
)

// Engine resolves points and boxes against page layouts. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	lineTolerance float64
}

// NewEngine creates an Engine. lineTolerance is the vertical overlap two
// tokens must exceed to be joined on one line by AssembleText; negative
// values select layout.DefaultLineTolerance.
func NewEngine(lineTolerance float64) *Engine {
	if lineTolerance < 0 || math.IsNaN(lineTolerance) {
		lineTolerance = layout.DefaultLineTolerance
	}
	return &Engine{lineTolerance: lineTolerance}
}

// ResolveWordPick returns the token under p. When several token boxes
// contain p (shared edges) the one whose center is closest wins. When p
// falls in a gap, the token whose horizontal span contains p.X and whose
// vertical band is nearest is returned. Remaining ties go to the lower
// reading-order index.
func (e *Engine) ResolveWordPick(p layout.Point, page *layout.PageLayout) (layout.Token, bool) {
	if page == nil || !p.IsFinite() {
		return layout.Token{}, false
	}

	var (
		hit      layout.Token
		found    bool
		bestDist = math.Inf(1)
	)
	page.Each(func(t layout.Token) bool {
		if !t.Box.Contains(p) {
			return true
		}
		c := t.Box.Center()
		d := math.Hypot(c.X-p.X, c.Y-p.Y)
		if d < bestDist {
			hit, bestDist, found = t, d, true
		}
		return true
	})
	if found {
		return hit, true
	}

	bestDist = math.Inf(1)
	page.Each(func(t layout.Token) bool {
		if !t.Box.SpansX(p.X) {
			return true
		}
		d := t.Box.VerticalDistance(p.Y)
		if d < bestDist {
			hit, bestDist, found = t, d, true
		}
		return true
	})
	return hit, found
}

// PreviewHover reports what a word pick at p would return. It is the same
// computation as ResolveWordPick so hover and click always agree.
func (e *Engine) PreviewHover(p layout.Point, page *layout.PageLayout) (layout.Token, bool) {
	return e.ResolveWordPick(p, page)
}

// ResolveBoxRegion returns every token whose box overlaps b by a non-zero
// area, in reading order. b is clamped to the page first; an empty result is
// not an error.
func (e *Engine) ResolveBoxRegion(b layout.Box, page *layout.PageLayout) []layout.Token {
	if page == nil || !b.IsFinite() {
		return nil
	}
	b = b.Normalize()
	if bounds := page.Bounds(); !bounds.IsEmpty() {
		b = b.Clamp(bounds)
	}
	if b.IsEmpty() {
		return nil
	}

	var out []layout.Token
	page.Each(func(t layout.Token) bool {
		if t.Box.Overlaps(b) {
			out = append(out, t)
		}
		return true
	})
	return out
}

// AssembleText joins tokens with a single space when consecutive tokens share
// a visual line and with a newline otherwise.
func (e *Engine) AssembleText(tokens []layout.Token) string {
	var sb strings.Builder
	for i, t := range tokens {
		if i > 0 {
			if e.SameLine(tokens[i-1], t) {
				sb.WriteByte(' ')
			} else {
				sb.WriteByte('\n')
			}
		}
		sb.WriteString(t.Text)
	}
	return sb.String()
}

// SameLine reports whether two tokens sit on the same visual line.
func (e *Engine) SameLine(a, b layout.Token) bool {
	return layout.SharesLine(a.Box, b.Box, e.lineTolerance)
}

// Resolution is the outcome of replaying one selector against one document.
// Matched is false for "no match", which is distinct from a region that
// matched zero tokens (Matched true, Text empty).
type Resolution struct {
	Text    string
	Tokens  []layout.Token
	Matched bool
}

// Resolve dispatches sel by mode against the page it targets in doc. A page
// index the document does not have yields no match.
func (e *Engine) Resolve(sel selector.Selector, doc *layout.Document) Resolution {
	page := doc.Page(sel.Page)
	if page == nil {
		return Resolution{}
	}
	switch sel.Mode {
	case selector.WordPick:
		tok, ok := e.ResolveWordPick(sel.Geometry.Point, page)
		if !ok {
			return Resolution{}
		}
		return Resolution{Text: tok.Text, Tokens: []layout.Token{tok}, Matched: true}
	case selector.BoxRegion:
		tokens := e.ResolveBoxRegion(sel.Geometry.Box, page)
		return Resolution{Text: e.AssembleText(tokens), Tokens: tokens, Matched: true}
	default:
		return Resolution{}
	}
}
