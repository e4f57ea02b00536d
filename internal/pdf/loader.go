package pdf

import (
	"context"
	"fmt"

	"github.com/a3tai/mcp-pdf-regions/internal/layout"
)

// Loader validates, decodes and indexes a PDF into a layout.Document.
type Loader struct {
	validator *Validator
	decoder   *Decoder
	builder   *layout.Builder
}

// NewLoader wires the three stages together. A nil validator skips
// validation, which tests use with fake openers.
func NewLoader(validator *Validator, decoder *Decoder, builder *layout.Builder) *Loader {
	return &Loader{validator: validator, decoder: decoder, builder: builder}
}

// Load reads path and builds its text layout index. The document ID is the
// given path.
func (l *Loader) Load(ctx context.Context, path string) (*layout.Document, error) {
	if l.validator != nil {
		if err := l.validator.ValidateFile(path); err != nil {
			return nil, err
		}
	}
	pages, err := l.decoder.Decode(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return l.builder.BuildDocument(path, pages), nil
}
