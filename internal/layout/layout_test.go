package layout

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raw(text string, x0, y0, x1, y1 float64, idx int) RawToken {
	return RawToken{Text: text, X0: x0, Y0: y0, X1: x1, Y1: y1, Index: idx}
}

func texts(p *PageLayout) []string {
	var out []string
	p.Each(func(t Token) bool {
		out = append(out, t.Text)
		return true
	})
	return out
}

func TestBuild_ReadingOrder(t *testing.T) {
	b := NewBuilder()

	// Second line given first, first line out of x order, baseline jitter on "Boy".
	input := []RawToken{
		raw("over", 0, 20, 20, 30, 0),
		raw("Boy", 12, 0.2, 22, 10.1, 1),
		raw("The", 0, 0, 10, 10, 2),
		raw("there", 22, 20, 40, 30, 3),
		raw("Ran", 24, 0, 34, 10, 4),
	}

	page, err := b.Build(0, 100, 100, input)
	require.NoError(t, err)
	assert.Equal(t, []string{"The", "Boy", "Ran", "over", "there"}, texts(page))

	for i, tok := range page.Tokens() {
		assert.Equal(t, i, tok.Order, "order index must match position")
		assert.Equal(t, 0, tok.Page)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	b := NewBuilder()
	input := []RawToken{
		raw("b", 10, 0, 20, 10, 1),
		raw("a", 10, 0, 20, 10, 0),
		raw("c", 0, 0, 5, 10, 2),
	}

	first, err := b.Build(0, 50, 50, input)
	require.NoError(t, err)
	second, err := b.Build(0, 50, 50, input)
	require.NoError(t, err)

	assert.Equal(t, first.Tokens(), second.Tokens())
	// identical boxes fall back to decoder creation order
	assert.Equal(t, []string{"c", "a", "b"}, texts(first))
}

func TestBuild_DropsWhitespaceTokens(t *testing.T) {
	b := NewBuilder()
	page, err := b.Build(0, 50, 50, []RawToken{
		raw("  ", 0, 0, 0, 0, 0),
		raw("\n", math.NaN(), 0, 1, 1, 1),
		raw("word", 0, 0, 10, 10, 2),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"word"}, texts(page))
}

func TestBuild_NormalizesText(t *testing.T) {
	b := NewBuilder()
	page, err := b.Build(0, 50, 50, []RawToken{raw("ﬁle", 0, 0, 10, 10, 0)})
	require.NoError(t, err)
	assert.Equal(t, []string{"file"}, texts(page))
}

func TestBuild_LayoutErrors(t *testing.T) {
	tests := []struct {
		name  string
		input []RawToken
		index int
	}{
		{"infinite box", []RawToken{raw("x", 0, 0, math.Inf(1), 10, 0)}, 0},
		{"nan box", []RawToken{raw("ok", 0, 0, 5, 5, 0), raw("x", math.NaN(), 0, 1, 1, 1)}, 1},
		{"zero width", []RawToken{raw("x", 5, 0, 5, 10, 0)}, 0},
		{"inverted", []RawToken{raw("x", 10, 10, 0, 0, 0)}, 0},
	}
	b := NewBuilder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Build(3, 100, 100, tt.input)
			require.Error(t, err)
			var le *LayoutError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, 3, le.Page)
			assert.Equal(t, tt.index, le.Index)
		})
	}
}

func TestBuild_InvalidPageSize(t *testing.T) {
	_, err := NewBuilder().Build(0, -1, 10, nil)
	var le *LayoutError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, -1, le.Index)
}

func TestBuildDocument_BadPageBecomesEmpty(t *testing.T) {
	b := NewBuilder()
	doc := b.BuildDocument("a.pdf", []PageInput{
		{Width: 100, Height: 100, Tokens: []RawToken{raw("fine", 0, 0, 10, 10, 0)}},
		{Width: 100, Height: 100, Tokens: []RawToken{raw("bad", 0, 0, 0, 10, 0)}},
	})

	require.Equal(t, 2, doc.PageCount())
	assert.Equal(t, 1, doc.Page(0).Len())
	assert.Equal(t, 0, doc.Page(1).Len())
	assert.Equal(t, 1, doc.Page(1).Index)
	assert.Nil(t, doc.Page(2))
	assert.Nil(t, doc.Page(-1))
}

func TestPageLayout_TokensIsCopy(t *testing.T) {
	page, err := NewBuilder().Build(0, 10, 10, []RawToken{raw("a", 0, 0, 1, 1, 0)})
	require.NoError(t, err)

	toks := page.Tokens()
	toks[0].Text = "mutated"
	got, ok := page.TokenAt(0)
	require.True(t, ok)
	assert.Equal(t, "a", got.Text)
}

func TestPageLayout_Bounds(t *testing.T) {
	b := NewBuilder()
	sized, err := b.Build(0, 612, 792, nil)
	require.NoError(t, err)
	assert.Equal(t, Box{X1: 612, Y1: 792}, sized.Bounds())

	unsized, err := b.Build(0, 0, 0, []RawToken{raw("a", 5, 5, 10, 10, 0), raw("b", 20, 30, 25, 40, 1)})
	require.NoError(t, err)
	assert.Equal(t, Box{X0: 5, Y0: 5, X1: 25, Y1: 40}, unsized.Bounds())
}

func TestBox_Geometry(t *testing.T) {
	a := NewBox(10, 10, 0, 0)
	assert.Equal(t, Box{X0: 0, Y0: 0, X1: 10, Y1: 10}, a)

	touching := Box{X0: 10, Y0: 0, X1: 20, Y1: 10}
	assert.False(t, a.Overlaps(touching), "shared edge is not an overlap")
	assert.True(t, a.Intersection(touching).IsEmpty())

	inside := Box{X0: 5, Y0: 5, X1: 15, Y1: 15}
	assert.True(t, a.Overlaps(inside))
	assert.Equal(t, 25.0, a.Intersection(inside).Area())

	assert.True(t, a.Contains(Point{X: 10, Y: 10}), "edges are inside")
	assert.False(t, a.Contains(Point{X: 10.01, Y: 10}))

	clamped := Box{X0: -5, Y0: -5, X1: 5, Y1: 5}.Clamp(a)
	assert.Equal(t, Box{X0: 0, Y0: 0, X1: 5, Y1: 5}, clamped)
	assert.True(t, Box{X0: 20, Y0: 20, X1: 30, Y1: 30}.Clamp(a).IsEmpty())

	assert.Equal(t, 0.0, a.VerticalDistance(5))
	assert.Equal(t, 3.0, a.VerticalDistance(13))
	assert.Equal(t, 2.0, a.VerticalDistance(-2))
	assert.Equal(t, -5.0, a.VerticalOverlap(Box{Y0: 15, Y1: 20}))
}

func TestSharesLine(t *testing.T) {
	tall := Box{X0: 0, Y0: 0, X1: 10, Y1: 10}
	assert.True(t, SharesLine(tall, Box{Y0: 0.2, Y1: 10.1}, DefaultLineTolerance))
	assert.False(t, SharesLine(tall, Box{Y0: 9.8, Y1: 19.8}, DefaultLineTolerance))

	short := Box{X0: 0, Y0: 10, X1: 2, Y1: 10.4}
	assert.True(t, SharesLine(short, short, DefaultLineTolerance))
	assert.False(t, SharesLine(short, Box{Y0: 10.3, Y1: 10.7}, DefaultLineTolerance))
}

func TestBuild_ShortTokensShareLine(t *testing.T) {
	page, err := NewBuilder().Build(0, 100, 100, []RawToken{
		raw("b", 3, 10, 5, 10.4, 0),
		raw("a", 0, 10.05, 2, 10.45, 1),
		raw("x", 0, 0, 2, 0.4, 2),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "a", "b"}, texts(page))
}
