package regions

import (
	"github.com/a3tai/mcp-pdf-regions/internal/editor"
	"github.com/a3tai/mcp-pdf-regions/internal/layout"
	"github.com/a3tai/mcp-pdf-regions/internal/selector"
)

// DocumentInfo describes a loaded document
type DocumentInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Pages  int    `json:"pages"`
	Tokens int    `json:"tokens"`
}

// Request Types

// ImportRequest asks for one file or every PDF in a directory to be loaded
type ImportRequest struct {
	Path      string `json:"path"`
	Directory bool   `json:"directory"`
}

// CreateSelectorRequest defines a new selector
type CreateSelectorRequest struct {
	Name     string            `json:"name"`
	Mode     selector.Mode     `json:"mode"`
	Geometry selector.Geometry `json:"geometry"`
	Page     int               `json:"page"`
}

// HoverRequest asks what a word pick at Point would return
type HoverRequest struct {
	Document string       `json:"document"`
	Page     int          `json:"page"`
	Point    layout.Point `json:"point"`
}

// PickWordRequest creates a word selector from a click
type PickWordRequest struct {
	Name     string       `json:"name"`
	Document string       `json:"document"`
	Page     int          `json:"page"`
	Point    layout.Point `json:"point"`
}

// EditorEvent is one pointer or tool event for the selection editor
type EditorEvent struct {
	Type  string       `json:"type"` // begin_drag, drag, release, grab_corner, begin_move, cancel, resize_mode, commit, select, reset
	Page  int          `json:"page"`
	Point layout.Point `json:"point"`
	Name  string       `json:"name,omitempty"`
	On    bool         `json:"on,omitempty"`
}

// Response Types

// ImportResult reports what an import loaded and what it skipped
type ImportResult struct {
	Loaded  []DocumentInfo `json:"loaded"`
	Skipped []ImportError  `json:"skipped,omitempty"`
}

// ImportError is one file an import could not load
type ImportError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// HoverResult is the token a word pick would resolve to
type HoverResult struct {
	Found bool         `json:"found"`
	Token layout.Token `json:"token"`
}

// EditorResult is the editor state after an event
type EditorResult struct {
	State    editor.State       `json:"state"`
	Selector *selector.Selector `json:"selector,omitempty"`
	Corner   string             `json:"corner,omitempty"`
}

// PreviewItem is one selector's text for a single document
type PreviewItem struct {
	Selector string `json:"selector"`
	Text     string `json:"text"`
	Status   string `json:"status"`
}

// TemplateResult reports a template load or save
type TemplateResult struct {
	Path    string   `json:"path"`
	Loaded  int      `json:"loaded"`
	Skipped []string `json:"skipped,omitempty"`
}

// ServerInfo summarizes the session for the server info tool
type ServerInfo struct {
	Directory   string   `json:"directory"`
	MaxFileSize int64    `json:"max_file_size"`
	Documents   int      `json:"documents"`
	Selectors   int      `json:"selectors"`
	Available   []string `json:"available"` // PDFs in Directory that can be imported
}
