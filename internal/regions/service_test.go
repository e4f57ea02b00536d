package regions

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-regions/internal/config"
	"github.com/a3tai/mcp-pdf-regions/internal/editor"
	"github.com/a3tai/mcp-pdf-regions/internal/export"
	"github.com/a3tai/mcp-pdf-regions/internal/layout"
	"github.com/a3tai/mcp-pdf-regions/internal/pdf"
	"github.com/a3tai/mcp-pdf-regions/internal/selector"
)

type memSource struct {
	pages [][]pdf.Glyph
}

func (m *memSource) NumPage() int                         { return len(m.pages) }
func (m *memSource) Glyphs(page int) ([]pdf.Glyph, error) { return m.pages[page], nil }
func (m *memSource) Size(int) (float64, float64, bool)    { return 612, 792, true }
func (m *memSource) Close() error                         { return nil }

// word places s so that its token box starts at (x, top) with 10pt glyphs
// 5pt wide.
func word(s string, x, top float64) []pdf.Glyph {
	var out []pdf.Glyph
	for _, r := range s {
		out = append(out, pdf.Glyph{S: string(r), X: x, Y: 792 - top - 10, W: 5, FontSize: 10})
		x += 5
	}
	return out
}

func line(words ...[]pdf.Glyph) []pdf.Glyph {
	var out []pdf.Glyph
	for _, w := range words {
		out = append(out, w...)
	}
	return out
}

// invoices maps base names to single page documents:
// "Invoice" at x 10..45 and a number at x 60, both on y 10..20.
var invoices = map[string]*memSource{
	"a.pdf":     {pages: [][]pdf.Glyph{line(word("Invoice", 10, 10), word("12345", 60, 10))}},
	"b.pdf":     {pages: [][]pdf.Glyph{line(word("Invoice", 10, 10), word("999", 60, 10))}},
	"blank.pdf": {pages: [][]pdf.Glyph{nil}},
}

func memOpener(path string) (pdf.PageSource, error) {
	src, ok := invoices[filepath.Base(path)]
	if !ok {
		return nil, errors.New("not a PDF")
	}
	return src, nil
}

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.PDFDirectory = root

	loader := pdf.NewLoader(nil,
		pdf.NewDecoder(pdf.WithOpener(memOpener)),
		layout.NewBuilder(layout.WithLineTolerance(cfg.LineTolerance)))
	s, err := NewService(cfg, WithLoader(loader))
	require.NoError(t, err)
	return s, root
}

func importAll(t *testing.T, s *Service, names ...string) {
	t.Helper()
	for _, n := range names {
		_, err := s.Import(context.Background(), ImportRequest{Path: n})
		require.NoError(t, err, n)
	}
}

func TestService_ImportAndDocuments(t *testing.T) {
	s, root := newTestService(t)

	res, err := s.Import(context.Background(), ImportRequest{Path: "a.pdf"})
	require.NoError(t, err)
	require.Len(t, res.Loaded, 1)
	assert.Equal(t, filepath.Join(root, "a.pdf"), res.Loaded[0].ID)
	assert.Equal(t, "a.pdf", res.Loaded[0].Name)
	assert.Equal(t, 1, res.Loaded[0].Pages)
	assert.Equal(t, 2, res.Loaded[0].Tokens)

	// same file through an absolute path is a duplicate
	_, err = s.Import(context.Background(), ImportRequest{Path: filepath.Join(root, "a.pdf")})
	var dup *DuplicateDocumentError
	require.ErrorAs(t, err, &dup)

	_, err = s.Import(context.Background(), ImportRequest{Path: "../outside.pdf"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "security validation failed")

	importAll(t, s, "b.pdf")
	docs := s.Documents()
	require.Len(t, docs, 2)
	assert.Equal(t, "b.pdf", docs[1].Name)

	require.NoError(t, s.RemoveDocument("a.pdf"))
	assert.ErrorIs(t, s.RemoveDocument("a.pdf"), ErrUnknownDocument)
	assert.Len(t, s.Documents(), 1)
	assert.Equal(t, 1, s.ClearDocuments())
	assert.Empty(t, s.Documents())
}

func TestService_ImportDirectory(t *testing.T) {
	s, root := newTestService(t)
	for _, n := range []string{"a.pdf", "b.pdf", "broken.pdf", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, n), []byte("%PDF-1.4"), 0o600))
	}

	res, err := s.Import(context.Background(), ImportRequest{Path: ".", Directory: true})
	require.NoError(t, err)
	require.Len(t, res.Loaded, 2)
	assert.Equal(t, "a.pdf", res.Loaded[0].Name)
	assert.Equal(t, "b.pdf", res.Loaded[1].Name)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, filepath.Join(root, "broken.pdf"), res.Skipped[0].Path)

	info, err := s.Info()
	require.NoError(t, err)
	assert.Equal(t, root, info.Directory)
	assert.Equal(t, 2, info.Documents)
	assert.Equal(t, []string{"a.pdf", "b.pdf", "broken.pdf"}, info.Available)
}

func TestService_Selectors(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.CreateSelector(CreateSelectorRequest{
		Name: "Number", Mode: selector.WordPick,
		Geometry: selector.PointGeometry(layout.Point{X: 62, Y: 15}),
	})
	require.NoError(t, err)
	_, err = s.CreateSelector(CreateSelectorRequest{
		Name: "Header", Mode: selector.BoxRegion,
		Geometry: selector.BoxGeometry(layout.Box{X0: 0, Y0: 0, X1: 200, Y1: 30}),
	})
	require.NoError(t, err)

	_, err = s.CreateSelector(CreateSelectorRequest{Name: "Number", Mode: selector.WordPick})
	var dup *selector.DuplicateNameError
	require.ErrorAs(t, err, &dup)

	sel, err := s.RenameSelector("Header", "Title")
	require.NoError(t, err)
	assert.Equal(t, "Title", sel.Name)

	names, err := s.MoveSelector(1, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Title", "Number"}, names)

	names, err = s.ReorderSelectors([]string{"Number", "Title"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Number", "Title"}, names)

	hit, ok := s.SelectorAt(0, layout.Point{X: 100, Y: 10})
	require.True(t, ok)
	assert.Equal(t, "Title", hit.Name)

	_, err = s.UpdateSelector("Title", selector.BoxGeometry(layout.Box{X0: 50, Y0: 5, X1: 100, Y1: 25}))
	require.NoError(t, err)
	_, ok = s.SelectorAt(0, layout.Point{X: 20, Y: 10})
	assert.False(t, ok)

	require.NoError(t, s.RemoveSelector("Number"))
	assert.ErrorIs(t, s.RemoveSelector("Number"), selector.ErrNotFound)
	assert.Len(t, s.Selectors(), 1)
	assert.Equal(t, 1, s.ClearSelectors())
	assert.Empty(t, s.Selectors())
}

func TestService_RunExport(t *testing.T) {
	s, _ := newTestService(t)
	importAll(t, s, "a.pdf", "b.pdf", "blank.pdf")

	_, err := s.CreateSelector(CreateSelectorRequest{
		Name: "Number", Mode: selector.WordPick,
		Geometry: selector.PointGeometry(layout.Point{X: 62, Y: 15}),
	})
	require.NoError(t, err)
	_, err = s.CreateSelector(CreateSelectorRequest{
		Name: "Line", Mode: selector.BoxRegion,
		Geometry: selector.BoxGeometry(layout.Box{X0: 0, Y0: 0, X1: 200, Y1: 30}),
	})
	require.NoError(t, err)

	table, err := s.RunExport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Number", "Line"}, table.Columns)
	require.Len(t, table.Rows, 3)

	assert.Equal(t, "12345", table.Rows[0].Cells[0].Text)
	assert.Equal(t, "Invoice 12345", table.Rows[0].Cells[1].Text)
	assert.Equal(t, "999", table.Rows[1].Cells[0].Text)
	assert.Equal(t, export.NoMatch, table.Rows[2].Cells[0].Status)
	assert.Equal(t, export.Empty, table.Rows[2].Cells[1].Status)
}

func TestService_Preview(t *testing.T) {
	s, _ := newTestService(t)
	s.previewChars = 8
	importAll(t, s, "a.pdf")

	_, err := s.CreateSelector(CreateSelectorRequest{
		Name: "Line", Mode: selector.BoxRegion,
		Geometry: selector.BoxGeometry(layout.Box{X0: 0, Y0: 0, X1: 200, Y1: 30}),
	})
	require.NoError(t, err)
	_, err = s.CreateSelector(CreateSelectorRequest{
		Name: "Footer", Mode: selector.BoxRegion, Page: 3,
		Geometry: selector.BoxGeometry(layout.Box{X0: 0, Y0: 0, X1: 10, Y1: 10}),
	})
	require.NoError(t, err)

	items, err := s.Preview(context.Background(), "a.pdf")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, PreviewItem{Selector: "Line", Text: "Invoice ...", Status: "match"}, items[0])
	assert.Equal(t, PreviewItem{Selector: "Footer", Text: export.NoTextPlaceholder, Status: "no_match"}, items[1])

	_, err = s.Preview(context.Background(), "missing.pdf")
	assert.ErrorIs(t, err, ErrUnknownDocument)
}

func TestService_HoverAndPickWord(t *testing.T) {
	s, _ := newTestService(t)
	importAll(t, s, "a.pdf")

	hover, err := s.PreviewHover(HoverRequest{Document: "a.pdf", Point: layout.Point{X: 20, Y: 12}})
	require.NoError(t, err)
	require.True(t, hover.Found)
	assert.Equal(t, "Invoice", hover.Token.Text)

	picked, err := s.PickWord(PickWordRequest{Name: "Label", Document: "a.pdf", Point: layout.Point{X: 20, Y: 12}})
	require.NoError(t, err)
	require.NotNil(t, picked.Selector)
	assert.Equal(t, selector.WordPick, picked.Selector.Mode)

	_, err = s.PickWord(PickWordRequest{Name: "Nothing", Document: "a.pdf", Point: layout.Point{X: 300, Y: 400}})
	assert.ErrorIs(t, err, editor.ErrNoToken)

	_, err = s.PreviewHover(HoverRequest{Document: "a.pdf", Page: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page 2")
}

func TestService_EditorEvents(t *testing.T) {
	s, _ := newTestService(t)

	step := func(ev EditorEvent) *EditorResult {
		t.Helper()
		res, err := s.HandleEditorEvent(ev)
		require.NoError(t, err, ev.Type)
		return res
	}

	step(EditorEvent{Type: EventBeginDrag, Point: layout.Point{X: 100, Y: 100}})
	step(EditorEvent{Type: EventDrag, Point: layout.Point{X: 40, Y: 60}})
	res := step(EditorEvent{Type: EventRelease})
	assert.Equal(t, editor.Placed, res.State.Phase)
	assert.Equal(t, layout.Box{X0: 40, Y0: 60, X1: 100, Y1: 100}, res.State.Box)

	res = step(EditorEvent{Type: EventCommit, Name: "Region"})
	require.NotNil(t, res.Selector)
	assert.Equal(t, "Region", res.State.Target)

	step(EditorEvent{Type: EventResizeMode, On: true})
	res = step(EditorEvent{Type: EventGrabCorner, Point: layout.Point{X: 101, Y: 101}})
	assert.Equal(t, editor.BottomRight.String(), res.Corner)
	step(EditorEvent{Type: EventDrag, Point: layout.Point{X: 20, Y: 30}})
	res = step(EditorEvent{Type: EventRelease})
	assert.Equal(t, layout.Box{X0: 20, Y0: 30, X1: 40, Y1: 60}, res.State.Box)

	sels := s.Selectors()
	require.Len(t, sels, 1)
	assert.Equal(t, layout.Box{X0: 20, Y0: 30, X1: 40, Y1: 60}, sels[0].Geometry.Box)

	_, err := s.HandleEditorEvent(EditorEvent{Type: EventBeginDrag})
	assert.ErrorIs(t, err, editor.ErrInvalidTransition)
	_, err = s.HandleEditorEvent(EditorEvent{Type: "wiggle"})
	assert.Error(t, err)

	// removing the edited selector drops the session
	require.NoError(t, s.RemoveSelector("Region"))
	assert.Equal(t, editor.Idle, step(EditorEvent{Type: EventCancel}).State.Phase)
	assert.False(t, s.editor.State().HasBox)
}

func TestService_Templates(t *testing.T) {
	s, root := newTestService(t)
	_, err := s.CreateSelector(CreateSelectorRequest{
		Name: "Line", Mode: selector.BoxRegion,
		Geometry: selector.BoxGeometry(layout.Box{X0: 0, Y0: 0, X1: 200, Y1: 30}),
	})
	require.NoError(t, err)

	saved, err := s.SaveTemplate("invoice.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "invoice.yaml"), saved.Path)
	assert.Equal(t, 1, saved.Loaded)

	s.ClearSelectors()
	loaded, err := s.LoadTemplate("invoice.yaml")
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Loaded)
	assert.Empty(t, loaded.Skipped)
	assert.Equal(t, []string{"Line"}, namesOf(s.Selectors()))

	legacy := `{"regions": {"B": {"coords": [0, 0, 10, 10]}, "A": {"coords": [5, 5, 5, 9]}}, "order": ["A", "B"]}`
	require.NoError(t, os.WriteFile(filepath.Join(root, "regions.json"), []byte(legacy), 0o600))
	loaded, err = s.LoadTemplate("regions.json")
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Loaded)
	assert.Len(t, loaded.Skipped, 1)
	assert.Equal(t, []string{"B"}, namesOf(s.Selectors()))

	_, err = s.SaveTemplate("../escape.yaml")
	assert.Error(t, err)
}

func namesOf(sels []selector.Selector) []string {
	out := make([]string, len(sels))
	for i, s := range sels {
		out[i] = s.Name
	}
	return out
}
