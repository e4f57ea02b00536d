// Package pdf turns PDF files into page layouts: it validates files, decodes
// positioned glyphs with ledongthuc/pdf, merges them into word tokens and
// reads page sizes with pdfcpu.
package pdf

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/a3tai/mcp-pdf-regions/internal/layout"
)

// PageSource is an opened document that yields glyphs and sizes per page.
// Page indices are 0-based.
type PageSource interface {
	NumPage() int
	Glyphs(page int) ([]Glyph, error)
	Size(page int) (width, height float64, ok bool)
	Close() error
}

// Opener opens a PageSource for a path.
type Opener func(path string) (PageSource, error)

// Decoder produces layout input for every page of a document.
type Decoder struct {
	open   Opener
	merge  MergeConfig
	logger *slog.Logger
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithOpener replaces the PDF backend, mainly for tests.
func WithOpener(o Opener) DecoderOption {
	return func(d *Decoder) {
		if o != nil {
			d.open = o
		}
	}
}

// WithMergeConfig sets the glyph merge settings.
func WithMergeConfig(cfg MergeConfig) DecoderOption {
	return func(d *Decoder) { d.merge = cfg }
}

// WithDecoderLogger sets the logger.
func WithDecoderLogger(l *slog.Logger) DecoderOption {
	return func(d *Decoder) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDecoder creates a Decoder backed by ledongthuc/pdf and pdfcpu.
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{
		merge:  DefaultMergeConfig(),
		logger: slog.New(slog.DiscardHandler),
	}
	d.open = d.openFile
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode reads every page of path. A page whose content cannot be decoded
// is returned without tokens so page indices stay aligned.
func (d *Decoder) Decode(ctx context.Context, path string) ([]layout.PageInput, error) {
	src, err := d.open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	n := src.NumPage()
	pages := make([]layout.PageInput, n)
	for i := range n {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		w, h, ok := src.Size(i)
		if !ok {
			d.logger.Debug("page size unknown, using text bounds", "path", path, "page", i)
			w, h = 0, 0
		}
		glyphs, err := src.Glyphs(i)
		if err != nil {
			d.logger.Warn("page content could not be decoded", "path", path, "page", i, "error", err)
			pages[i] = layout.PageInput{Width: w, Height: h}
			continue
		}
		pages[i] = layout.PageInput{Width: w, Height: h, Tokens: MergeGlyphs(glyphs, h, d.merge)}
	}
	return pages, nil
}

func (d *Decoder) openFile(path string) (PageSource, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	dims, err := pageDims(path)
	if err != nil {
		d.logger.Debug("pdfcpu could not read page sizes, falling back to MediaBox", "path", path, "error", err)
	}
	return &ledongthucSource{file: f, reader: r, dims: dims}, nil
}

// pageDims reads the page dimensions with pdfcpu in relaxed validation mode.
func pageDims(path string) ([]types.Dim, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return api.PageDims(f, conf)
}

type ledongthucSource struct {
	file   *os.File
	reader *pdf.Reader
	dims   []types.Dim
}

func (s *ledongthucSource) NumPage() int {
	return s.reader.NumPage()
}

func (s *ledongthucSource) Glyphs(page int) (glyphs []Glyph, err error) {
	p := s.reader.Page(page + 1)
	if p.V.IsNull() {
		return nil, nil
	}
	// the content stream parser panics on malformed input
	defer func() {
		if r := recover(); r != nil {
			glyphs, err = nil, fmt.Errorf("malformed content stream: %v", r)
		}
	}()
	for _, t := range p.Content().Text {
		glyphs = append(glyphs, Glyph{S: t.S, X: t.X, Y: t.Y, W: t.W, FontSize: t.FontSize})
	}
	return glyphs, nil
}

func (s *ledongthucSource) Size(page int) (float64, float64, bool) {
	if page >= 0 && page < len(s.dims) && s.dims[page].Width > 0 && s.dims[page].Height > 0 {
		return s.dims[page].Width, s.dims[page].Height, true
	}
	p := s.reader.Page(page + 1)
	if p.V.IsNull() {
		return 0, 0, false
	}
	box := p.V.Key("MediaBox")
	if box.IsNull() {
		box = p.V.Key("Parent").Key("MediaBox")
	}
	if box.Len() != 4 {
		return 0, 0, false
	}
	w := box.Index(2).Float64() - box.Index(0).Float64()
	h := box.Index(3).Float64() - box.Index(1).Float64()
	if w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}

func (s *ledongthucSource) Close() error {
	return s.file.Close()
}
