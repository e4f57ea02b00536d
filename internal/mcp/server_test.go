package mcp

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-regions/internal/config"
	"github.com/a3tai/mcp-pdf-regions/internal/layout"
	"github.com/a3tai/mcp-pdf-regions/internal/pdf"
	"github.com/a3tai/mcp-pdf-regions/internal/regions"
)

type pageSource struct {
	glyphs []pdf.Glyph
}

func (p pageSource) NumPage() int                      { return 1 }
func (p pageSource) Glyphs(int) ([]pdf.Glyph, error)   { return p.glyphs, nil }
func (p pageSource) Size(int) (float64, float64, bool) { return 612, 792, true }
func (p pageSource) Close() error                      { return nil }

// text lays out words on one line with a 10pt top, 10pt glyphs 5pt wide
// and 15pt between words.
func text(words ...string) pageSource {
	var src pageSource
	x := 10.0
	for _, w := range words {
		for _, r := range w {
			src.glyphs = append(src.glyphs, pdf.Glyph{S: string(r), X: x, Y: 772, W: 5, FontSize: 10})
			x += 5
		}
		x += 15
	}
	return src
}

var fixtures = map[string]pageSource{
	"a.pdf": text("Invoice", "12345"),
	"b.pdf": text("Invoice", "999"),
}

func newTestServer(t *testing.T) (*Server, *config.Config) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.PDFDirectory = t.TempDir()
	cfg.ServerName = "test-server"

	opener := func(path string) (pdf.PageSource, error) {
		src, ok := fixtures[filepath.Base(path)]
		if !ok {
			return nil, errors.New("no such fixture")
		}
		return src, nil
	}
	loader := pdf.NewLoader(nil, pdf.NewDecoder(pdf.WithOpener(opener)), layout.NewBuilder())
	svc, err := regions.NewService(cfg, regions.WithLoader(loader))
	require.NoError(t, err)

	s, err := NewServer(cfg, svc, nil)
	require.NoError(t, err)
	return s, cfg
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) (string, bool) {
	t.Helper()
	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: args},
	}
	result, err := handler(context.Background(), request)
	require.NoError(t, err)
	require.NotNil(t, result)
	return extractTextFromResult(result), result.IsError
}

func TestNewServer(t *testing.T) {
	s, cfg := newTestServer(t)
	assert.Same(t, cfg, s.config)
	assert.NotNil(t, s.mcpServer)

	_, err := NewServer(cfg, nil, nil)
	assert.Error(t, err)
}

func TestHandleImportAndDocuments(t *testing.T) {
	s, _ := newTestServer(t)

	text, isErr := call(t, s.handleImport, map[string]interface{}{"path": "a.pdf"})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Loaded 1 document(s)")
	assert.Contains(t, text, "a.pdf (1 page(s), 2 word(s))")

	text, isErr = call(t, s.handleImport, map[string]interface{}{"path": "a.pdf"})
	assert.True(t, isErr)
	assert.Contains(t, text, "already loaded")

	text, isErr = call(t, s.handleImport, map[string]interface{}{})
	assert.True(t, isErr, text)

	text, _ = call(t, s.handleDocuments, nil)
	assert.Contains(t, text, "1 document(s) loaded")

	text, isErr = call(t, s.handleRemoveDocument, map[string]interface{}{"document": "a.pdf"})
	require.False(t, isErr, text)
	text, _ = call(t, s.handleDocuments, nil)
	assert.Equal(t, "No documents loaded", text)
}

func TestHandleSelectorsAndExport(t *testing.T) {
	s, _ := newTestServer(t)
	for _, p := range []string{"a.pdf", "b.pdf"} {
		_, isErr := call(t, s.handleImport, map[string]interface{}{"path": p})
		require.False(t, isErr)
	}

	text, isErr := call(t, s.handleCreateSelector, map[string]interface{}{
		"name": "Number", "mode": "word", "x": 62.0, "y": 15.0,
	})
	require.False(t, isErr, text)
	text, isErr = call(t, s.handleCreateSelector, map[string]interface{}{
		"name": "Label", "mode": "box", "x0": 0.0, "y0": 0.0, "x1": 50.0, "y1": 30.0,
	})
	require.False(t, isErr, text)

	text, isErr = call(t, s.handleCreateSelector, map[string]interface{}{"name": "Broken", "mode": "box", "x0": 1.0})
	assert.True(t, isErr, text)
	text, isErr = call(t, s.handleCreateSelector, map[string]interface{}{"name": "Number", "mode": "word", "x": 1.0, "y": 1.0})
	assert.True(t, isErr)
	assert.Contains(t, text, "Number")

	text, isErr = call(t, s.handleReorderSelectors, map[string]interface{}{"names": []interface{}{"Label", "Number"}})
	require.False(t, isErr, text)
	assert.Equal(t, "Export order: Label, Number", text)

	text, isErr = call(t, s.handleReorderSelectors, map[string]interface{}{"from": 1.0, "to": 0.0})
	require.False(t, isErr, text)
	assert.Equal(t, "Export order: Number, Label", text)

	_, isErr = call(t, s.handleReorderSelectors, map[string]interface{}{})
	assert.True(t, isErr)

	text, _ = call(t, s.handleListSelectors, nil)
	assert.Contains(t, text, "2 selector(s) in export order")

	text, isErr = call(t, s.handleRunExport, map[string]interface{}{"format": "csv"})
	require.False(t, isErr, text)
	assert.Contains(t, text, "2 document(s) x 2 selector(s)")
	assert.Contains(t, text, "Source File,Number,Label\n")
	assert.Contains(t, text, "a.pdf,12345,Invoice\n")
	assert.Contains(t, text, "b.pdf,999,Invoice\n")

	text, isErr = call(t, s.handleRunExport, map[string]interface{}{"format": "pdf"})
	assert.True(t, isErr, text)

	text, isErr = call(t, s.handlePreview, map[string]interface{}{"document": "b.pdf"})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Number: 999")

	text, isErr = call(t, s.handleSelectorAt, map[string]interface{}{"x": 20.0, "y": 12.0})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Label")

	text, isErr = call(t, s.handleRenameSelector, map[string]interface{}{"name": "Label", "new_name": "Heading"})
	require.False(t, isErr, text)
	text, isErr = call(t, s.handleUpdateSelector, map[string]interface{}{"name": "Number", "x": 12.0, "y": 12.0})
	require.False(t, isErr, text)
	text, isErr = call(t, s.handleUpdateSelector, map[string]interface{}{
		"name": "Number", "x0": 10.0, "y0": 10.0, "x1": 50.0, "y1": 50.0,
	})
	assert.True(t, isErr)
	assert.Contains(t, text, "box geometry given for a word selector")
	text, _ = call(t, s.handleListSelectors, nil)
	assert.Contains(t, text, "12.00,12.00")
	text, isErr = call(t, s.handleRemoveSelector, map[string]interface{}{"name": "Missing"})
	assert.True(t, isErr, text)

	text, _ = call(t, s.handleClearSelectors, nil)
	assert.Equal(t, "Removed 2 selector(s)", text)
}

func TestHandleHoverAndPickWord(t *testing.T) {
	s, _ := newTestServer(t)
	_, isErr := call(t, s.handleImport, map[string]interface{}{"path": "a.pdf"})
	require.False(t, isErr)

	text, isErr := call(t, s.handleHover, map[string]interface{}{"document": "a.pdf", "x": 65.0, "y": 15.0})
	require.False(t, isErr, text)
	assert.Contains(t, text, `"12345"`)

	text, _ = call(t, s.handleHover, map[string]interface{}{"document": "a.pdf", "x": 500.0, "y": 500.0})
	assert.Contains(t, text, "No word")

	text, isErr = call(t, s.handlePickWord, map[string]interface{}{"name": "Number", "document": "a.pdf", "x": 65.0, "y": 15.0})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Number")

	text, isErr = call(t, s.handleHover, map[string]interface{}{"document": "missing.pdf", "x": 1.0, "y": 1.0})
	assert.True(t, isErr, text)
}

func TestHandleEditorEvent(t *testing.T) {
	s, _ := newTestServer(t)

	steps := []struct {
		args map[string]interface{}
		want string
	}{
		{map[string]interface{}{"type": "begin_drag", "x": 0.0, "y": 0.0}, "Editor: drawing"},
		{map[string]interface{}{"type": "drag", "x": 50.0, "y": 30.0}, "Editor: drawing"},
		{map[string]interface{}{"type": "release"}, "Editor: placed"},
		{map[string]interface{}{"type": "commit", "name": "Header"}, `editing "Header"`},
		{map[string]interface{}{"type": "resize_mode", "on": true}, "resize mode on"},
		{map[string]interface{}{"type": "grab_corner", "x": 49.0, "y": 31.0}, "Grabbed bottom-right corner"},
		{map[string]interface{}{"type": "drag", "x": 80.0, "y": 40.0}, "Editor: resizing"},
		{map[string]interface{}{"type": "release"}, "Editor: placed"},
	}
	for _, step := range steps {
		text, isErr := call(t, s.handleEditorEvent, step.args)
		require.False(t, isErr, "%v: %s", step.args, text)
		assert.Contains(t, text, step.want)
	}

	text, _ := call(t, s.handleListSelectors, nil)
	assert.Contains(t, text, "Header")

	text, isErr := call(t, s.handleEditorEvent, map[string]interface{}{"type": "drag"})
	assert.True(t, isErr, text)
	text, isErr = call(t, s.handleEditorEvent, map[string]interface{}{"type": "begin_drag", "x": 1.0, "y": 1.0})
	assert.True(t, isErr)
	assert.Contains(t, text, "invalid editor transition")
}

func TestHandleTemplates(t *testing.T) {
	s, _ := newTestServer(t)
	_, isErr := call(t, s.handleCreateSelector, map[string]interface{}{
		"name": "Label", "mode": "box", "x0": 0.0, "y0": 0.0, "x1": 50.0, "y1": 30.0,
	})
	require.False(t, isErr)

	text, isErr := call(t, s.handleSaveTemplate, map[string]interface{}{"path": "t.yaml"})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Saved 1 selector(s)")

	call(t, s.handleClearSelectors, nil)
	text, isErr = call(t, s.handleLoadTemplate, map[string]interface{}{"path": "t.yaml"})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Loaded 1 selector(s)")

	text, isErr = call(t, s.handleLoadTemplate, map[string]interface{}{"path": "missing.yaml"})
	assert.True(t, isErr, text)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s, _ := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.serve(ctx, ln) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

// Helper function to extract text from MCP result
func extractTextFromResult(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			return textContent.Text
		}
		if textContentPtr, ok := content.(*mcp.TextContent); ok {
			return textContentPtr.Text
		}
	}
	return ""
}

func TestHandleServerInfo(t *testing.T) {
	s, cfg := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.PDFDirectory, "a.pdf"), []byte("%PDF-1.4"), 0o600))

	text, isErr := call(t, s.handleServerInfo, nil)
	require.False(t, isErr, text)
	assert.Contains(t, text, "test-server v1.0.0")
	assert.Contains(t, text, "Available PDFs (1)")
	assert.Contains(t, text, "1. a.pdf")
}
