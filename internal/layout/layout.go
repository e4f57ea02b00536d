// Package layout holds the immutable per-page text layout index that every
// selection is resolved against.
package layout

// Token is a single positioned unit of text on a page. Tokens are created by
// Build and never modified afterwards.
type Token struct {
	Text  string `json:"text"`
	Box   Box    `json:"box"`
	Page  int    `json:"page"`
	Order int    `json:"order"` // reading-order index, unique within a page
}

// PageLayout is the reading-ordered token sequence of one page.
type PageLayout struct {
	Index  int
	Width  float64
	Height float64
	tokens []Token
}

// Tokens returns the page tokens in reading order. The returned slice is a
// copy; the layout itself stays immutable.
func (p *PageLayout) Tokens() []Token {
	if p == nil {
		return nil
	}
	out := make([]Token, len(p.tokens))
	copy(out, p.tokens)
	return out
}

// Len returns the number of tokens on the page.
func (p *PageLayout) Len() int {
	if p == nil {
		return 0
	}
	return len(p.tokens)
}

// TokenAt returns the token with reading-order index i.
func (p *PageLayout) TokenAt(i int) (Token, bool) {
	if p == nil || i < 0 || i >= len(p.tokens) {
		return Token{}, false
	}
	return p.tokens[i], true
}

// Bounds returns the page rectangle. A page without a known size reports
// the union of its token boxes instead.
func (p *PageLayout) Bounds() Box {
	if p == nil {
		return Box{}
	}
	if p.Width > 0 && p.Height > 0 {
		return Box{X0: 0, Y0: 0, X1: p.Width, Y1: p.Height}
	}
	var b Box
	for i, t := range p.tokens {
		if i == 0 {
			b = t.Box
			continue
		}
		b.X0 = min(b.X0, t.Box.X0)
		b.Y0 = min(b.Y0, t.Box.Y0)
		b.X1 = max(b.X1, t.Box.X1)
		b.Y1 = max(b.Y1, t.Box.Y1)
	}
	return b
}

// Each calls fn for every token in reading order until fn returns false.
func (p *PageLayout) Each(fn func(Token) bool) {
	if p == nil {
		return
	}
	for _, t := range p.tokens {
		if !fn(t) {
			return
		}
	}
}

// Document is a loaded source file and its page layouts.
type Document struct {
	ID    string // source path
	Pages []*PageLayout
}

// Page returns the layout at index i, or nil when the document has no such page.
func (d *Document) Page(i int) *PageLayout {
	if d == nil || i < 0 || i >= len(d.Pages) {
		return nil
	}
	return d.Pages[i]
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int {
	if d == nil {
		return 0
	}
	return len(d.Pages)
}
