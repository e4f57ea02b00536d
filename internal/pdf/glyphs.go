package pdf

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/a3tai/mcp-pdf-regions/internal/layout"
)

// Glyph is one positioned text run as reported by the PDF content stream, in
// PDF user space (origin bottom-left, Y is the baseline).
type Glyph struct {
	S        string
	X        float64
	Y        float64
	W        float64
	FontSize float64
}

// MergeConfig controls how glyphs are merged into words.
type MergeConfig struct {
	RowTolerance        float64 // baseline distance still treated as the same row
	WordSpaceMultiplier float64 // gap, as a fraction of font size, that starts a new word
	FallbackGap         float64 // gap used when the font size is unknown
	DefaultHeight       float64 // glyph height when the font size is unknown
}

// DefaultMergeConfig returns the merge settings used by the decoder.
func DefaultMergeConfig() MergeConfig {
	return MergeConfig{
		RowTolerance:        2.0,
		WordSpaceMultiplier: 0.3,
		FallbackGap:         3.0,
		DefaultHeight:       12.0,
	}
}

type word struct {
	text       strings.Builder
	x0, x1     float64
	baseline   float64
	fontSize   float64
	height     float64
	firstIndex int
}

type indexedGlyph struct {
	Glyph
	index int
}

// MergeGlyphs groups glyphs into rows by baseline and then into words by
// horizontal gap. Whitespace glyphs always end a word. The returned tokens
// are in page space with a top-left origin; pageHeight is used to flip the
// y axis and falls back to the highest glyph top when unknown.
func MergeGlyphs(glyphs []Glyph, pageHeight float64, cfg MergeConfig) []layout.RawToken {
	if len(glyphs) == 0 {
		return nil
	}
	if pageHeight <= 0 || math.IsNaN(pageHeight) || math.IsInf(pageHeight, 0) {
		for _, g := range glyphs {
			pageHeight = max(pageHeight, g.Y+glyphHeight(g, cfg))
		}
	}

	var out []layout.RawToken
	for _, row := range groupIntoRows(glyphs, cfg.RowTolerance) {
		sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })

		var cur *word
		flush := func() {
			if cur == nil {
				return
			}
			out = append(out, layout.RawToken{
				Text:  cur.text.String(),
				X0:    cur.x0,
				X1:    cur.x1,
				Y0:    pageHeight - (cur.baseline + cur.height),
				Y1:    pageHeight - cur.baseline,
				Index: cur.firstIndex,
			})
			cur = nil
		}

		for _, g := range row {
			if strings.TrimFunc(g.S, unicode.IsSpace) == "" {
				flush()
				continue
			}
			w := g.W
			if w <= 0 || math.IsNaN(w) {
				w = glyphHeight(g.Glyph, cfg) * 0.5
			}
			if cur != nil {
				threshold := cfg.WordSpaceMultiplier * cur.fontSize
				if cur.fontSize <= 0 {
					threshold = cfg.FallbackGap
				}
				if g.X-cur.x1 > threshold {
					flush()
				}
			}
			if cur == nil {
				cur = &word{
					x0:         g.X,
					x1:         g.X + w,
					baseline:   g.Y,
					fontSize:   g.FontSize,
					height:     glyphHeight(g.Glyph, cfg),
					firstIndex: g.index,
				}
				cur.text.WriteString(g.S)
				continue
			}
			cur.text.WriteString(g.S)
			cur.x1 = max(cur.x1, g.X+w)
			cur.baseline = min(cur.baseline, g.Y)
			cur.height = max(cur.height, glyphHeight(g.Glyph, cfg))
			cur.firstIndex = min(cur.firstIndex, g.index)
		}
		flush()
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

func glyphHeight(g Glyph, cfg MergeConfig) float64 {
	if g.FontSize > 0 {
		return g.FontSize
	}
	return cfg.DefaultHeight
}

// groupIntoRows buckets glyphs whose baselines are within tol of a row's
// baseline range. Rows are returned top to bottom.
func groupIntoRows(glyphs []Glyph, tol float64) [][]indexedGlyph {
	type rowBucket struct {
		yMin, yMax float64
		glyphs     []indexedGlyph
	}

	var buckets []*rowBucket
	for i, g := range glyphs {
		ig := indexedGlyph{Glyph: g, index: i}
		var target *rowBucket
		for _, b := range buckets {
			if g.Y >= b.yMin-tol && g.Y <= b.yMax+tol {
				target = b
				break
			}
		}
		if target == nil {
			buckets = append(buckets, &rowBucket{yMin: g.Y, yMax: g.Y, glyphs: []indexedGlyph{ig}})
			continue
		}
		target.glyphs = append(target.glyphs, ig)
		target.yMin = min(target.yMin, g.Y)
		target.yMax = max(target.yMax, g.Y)
	}

	// higher baseline is higher on the page
	sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].yMax > buckets[j].yMax })

	rows := make([][]indexedGlyph, len(buckets))
	for i, b := range buckets {
		rows[i] = b.glyphs
	}
	return rows
}
