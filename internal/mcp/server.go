package mcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/mcp-pdf-regions/internal/config"
	"github.com/a3tai/mcp-pdf-regions/internal/descriptions"
	"github.com/a3tai/mcp-pdf-regions/internal/editor"
	"github.com/a3tai/mcp-pdf-regions/internal/layout"
	"github.com/a3tai/mcp-pdf-regions/internal/output"
	"github.com/a3tai/mcp-pdf-regions/internal/regions"
	"github.com/a3tai/mcp-pdf-regions/internal/selector"
)

const (
	shutdownTimeout = 5 * time.Second
	maxListedFiles  = 10
)

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	service   *regions.Service
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, service *regions.Service, logger *slog.Logger) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		service:   service,
		mcpServer: mcpServer,
		logger:    logger,
	}
	s.registerTools()
	return s, nil
}

func pointOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithNumber("x", mcp.Description("X coordinate in points from the left edge")),
		mcp.WithNumber("y", mcp.Description("Y coordinate in points from the top edge")),
	}
}

func boxOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithNumber("x0", mcp.Description("Left edge of the box")),
		mcp.WithNumber("y0", mcp.Description("Top edge of the box")),
		mcp.WithNumber("x1", mcp.Description("Right edge of the box")),
		mcp.WithNumber("y1", mcp.Description("Bottom edge of the box")),
	}
}

func tool(name, description string, opts ...mcp.ToolOption) mcp.Tool {
	return mcp.NewTool(name, append([]mcp.ToolOption{mcp.WithDescription(description)}, opts...)...)
}

func concat(groups ...[]mcp.ToolOption) []mcp.ToolOption {
	var out []mcp.ToolOption
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

var (
	documentArg = mcp.WithString("document", mcp.Required(), mcp.Description("Document id or path"))
	pageArg     = mcp.WithNumber("page", mcp.Description("Page index, starting at 0"))
	nameArg     = mcp.WithString("name", mcp.Required(), mcp.Description("Selector name"))
)

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	// Documents
	s.mcpServer.AddTool(tool("regions_import", descriptions.ImportDescription,
		mcp.WithString("path", mcp.Required(), mcp.Description("PDF file or directory, relative to the configured directory")),
		mcp.WithBoolean("directory", mcp.Description("Import every PDF directly inside path")),
	), s.handleImport)
	s.mcpServer.AddTool(tool("regions_documents", descriptions.DocumentsDescription), s.handleDocuments)
	s.mcpServer.AddTool(tool("regions_remove_document", descriptions.RemoveDocumentDescription, documentArg), s.handleRemoveDocument)
	s.mcpServer.AddTool(tool("regions_clear_documents", descriptions.ClearDocumentsDescription), s.handleClearDocuments)
	s.mcpServer.AddTool(tool("regions_hover", descriptions.HoverDescription,
		concat([]mcp.ToolOption{documentArg, pageArg}, pointOptions())...,
	), s.handleHover)
	s.mcpServer.AddTool(tool("regions_pick_word", descriptions.PickWordDescription,
		concat([]mcp.ToolOption{nameArg, documentArg, pageArg}, pointOptions())...,
	), s.handlePickWord)

	// Selectors
	s.mcpServer.AddTool(tool("regions_create_selector", descriptions.CreateSelectorDescription,
		concat([]mcp.ToolOption{
			nameArg,
			mcp.WithString("mode", mcp.Required(), mcp.Enum("word", "box"), mcp.Description("Selector mode")),
			pageArg,
		}, pointOptions(), boxOptions())...,
	), s.handleCreateSelector)
	s.mcpServer.AddTool(tool("regions_update_selector", descriptions.UpdateSelectorDescription,
		concat([]mcp.ToolOption{nameArg}, pointOptions(), boxOptions())...,
	), s.handleUpdateSelector)
	s.mcpServer.AddTool(tool("regions_rename_selector", descriptions.RenameSelectorDescription,
		nameArg,
		mcp.WithString("new_name", mcp.Required(), mcp.Description("New selector name")),
	), s.handleRenameSelector)
	s.mcpServer.AddTool(tool("regions_remove_selector", descriptions.RemoveSelectorDescription, nameArg), s.handleRemoveSelector)
	s.mcpServer.AddTool(tool("regions_reorder_selectors", descriptions.ReorderSelectorsDescription,
		mcp.WithArray("names", mcp.Description("Every selector name in the new order"), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithNumber("from", mcp.Description("Current index of the selector to move")),
		mcp.WithNumber("to", mcp.Description("Target index")),
	), s.handleReorderSelectors)
	s.mcpServer.AddTool(tool("regions_clear_selectors", descriptions.ClearSelectorsDescription), s.handleClearSelectors)
	s.mcpServer.AddTool(tool("regions_list_selectors", descriptions.ListSelectorsDescription), s.handleListSelectors)
	s.mcpServer.AddTool(tool("regions_selector_at", descriptions.SelectorAtDescription,
		concat([]mcp.ToolOption{pageArg}, pointOptions())...,
	), s.handleSelectorAt)

	// Editor
	s.mcpServer.AddTool(tool("regions_editor_event", descriptions.EditorEventDescription,
		concat([]mcp.ToolOption{
			mcp.WithString("type", mcp.Required(), mcp.Enum(
				regions.EventBeginDrag, regions.EventDrag, regions.EventRelease, regions.EventGrabCorner,
				regions.EventBeginMove, regions.EventCancel, regions.EventResizeMode, regions.EventCommit,
				regions.EventSelect, regions.EventReset,
			), mcp.Description("Event type")),
			pageArg,
			mcp.WithString("name", mcp.Description("Selector name for commit and select")),
			mcp.WithBoolean("on", mcp.Description("Resize mode state for resize_mode")),
		}, pointOptions())...,
	), s.handleEditorEvent)

	// Export
	s.mcpServer.AddTool(tool("regions_run_export", descriptions.RunExportDescription,
		mcp.WithString("format", mcp.Enum("csv", "tsv", "json"), mcp.Description("Output format (default csv)")),
	), s.handleRunExport)
	s.mcpServer.AddTool(tool("regions_preview", descriptions.PreviewDescription, documentArg), s.handlePreview)
	s.mcpServer.AddTool(tool("regions_save_template", descriptions.SaveTemplateDescription,
		mcp.WithString("path", mcp.Required(), mcp.Description("Template file, relative to the configured directory")),
	), s.handleSaveTemplate)
	s.mcpServer.AddTool(tool("regions_load_template", descriptions.LoadTemplateDescription,
		mcp.WithString("path", mcp.Required(), mcp.Description("Template file, relative to the configured directory")),
	), s.handleLoadTemplate)

	s.mcpServer.AddTool(tool("regions_server_info", descriptions.ServerInfoDescription), s.handleServerInfo)
}

// Argument helpers

func pointFrom(request mcp.CallToolRequest) (layout.Point, error) {
	x, err := request.RequireFloat("x")
	if err != nil {
		return layout.Point{}, err
	}
	y, err := request.RequireFloat("y")
	if err != nil {
		return layout.Point{}, err
	}
	return layout.Point{X: x, Y: y}, nil
}

func boxFrom(request mcp.CallToolRequest) (layout.Box, error) {
	var v [4]float64
	for i, k := range []string{"x0", "y0", "x1", "y1"} {
		f, err := request.RequireFloat(k)
		if err != nil {
			return layout.Box{}, err
		}
		v[i] = f
	}
	return layout.NewBox(v[0], v[1], v[2], v[3]), nil
}

// geometryFrom reads a box when x0 is present and a point otherwise. The
// result carries its kind, so a selector rejects geometry of the other mode.
func geometryFrom(request mcp.CallToolRequest) (selector.Geometry, error) {
	if _, ok := request.GetArguments()["x0"]; ok {
		b, err := boxFrom(request)
		return selector.BoxGeometry(b), err
	}
	p, err := pointFrom(request)
	return selector.PointGeometry(p), err
}

func toolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(err.Error())
}

// Handler functions

func (s *Server) handleImport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return toolError(err), nil
	}
	req := regions.ImportRequest{Path: path, Directory: request.GetBool("directory", false)}
	result, err := s.service.Import(ctx, req)
	if err != nil {
		return toolError(err), nil
	}

	text := fmt.Sprintf("Loaded %d document(s)\n", len(result.Loaded))
	for _, d := range result.Loaded {
		text += formatDocument(d)
	}
	if len(result.Skipped) > 0 {
		text += fmt.Sprintf("\nSkipped %d file(s):\n", len(result.Skipped))
		for _, e := range result.Skipped {
			text += fmt.Sprintf("  %s: %s\n", e.Path, e.Message)
		}
	}
	return mcp.NewToolResultText(text), nil
}

func formatDocument(d regions.DocumentInfo) string {
	return fmt.Sprintf("  %s (%d page(s), %d word(s))\n    id: %s\n", d.Name, d.Pages, d.Tokens, d.ID)
}

func (s *Server) handleDocuments(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs := s.service.Documents()
	if len(docs) == 0 {
		return mcp.NewToolResultText("No documents loaded"), nil
	}
	text := fmt.Sprintf("%d document(s) loaded:\n", len(docs))
	for _, d := range docs {
		text += formatDocument(d)
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleRemoveDocument(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("document")
	if err != nil {
		return toolError(err), nil
	}
	if err := s.service.RemoveDocument(id); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Removed document %s", id)), nil
}

func (s *Server) handleClearDocuments(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n := s.service.ClearDocuments()
	return mcp.NewToolResultText(fmt.Sprintf("Removed %d document(s)", n)), nil
}

func (s *Server) handleHover(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("document")
	if err != nil {
		return toolError(err), nil
	}
	p, err := pointFrom(request)
	if err != nil {
		return toolError(err), nil
	}
	result, err := s.service.PreviewHover(regions.HoverRequest{Document: id, Page: request.GetInt("page", 0), Point: p})
	if err != nil {
		return toolError(err), nil
	}
	if !result.Found {
		return mcp.NewToolResultText(fmt.Sprintf("No word at (%g, %g)", p.X, p.Y)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Word at (%g, %g): %q %s", p.X, p.Y, result.Token.Text, result.Token.Box)), nil
}

func (s *Server) handlePickWord(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return toolError(err), nil
	}
	id, err := request.RequireString("document")
	if err != nil {
		return toolError(err), nil
	}
	p, err := pointFrom(request)
	if err != nil {
		return toolError(err), nil
	}
	result, err := s.service.PickWord(regions.PickWordRequest{Name: name, Document: id, Page: request.GetInt("page", 0), Point: p})
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText("Created " + result.Selector.String()), nil
}

func (s *Server) handleCreateSelector(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return toolError(err), nil
	}
	modeName, err := request.RequireString("mode")
	if err != nil {
		return toolError(err), nil
	}
	mode, err := selector.ParseMode(modeName)
	if err != nil {
		return toolError(err), nil
	}

	var geom selector.Geometry
	if mode == selector.BoxRegion {
		b, err := boxFrom(request)
		if err != nil {
			return toolError(err), nil
		}
		geom = selector.BoxGeometry(b)
	} else {
		p, err := pointFrom(request)
		if err != nil {
			return toolError(err), nil
		}
		geom = selector.PointGeometry(p)
	}

	sel, err := s.service.CreateSelector(regions.CreateSelectorRequest{
		Name: name, Mode: mode, Geometry: geom, Page: request.GetInt("page", 0),
	})
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText("Created " + sel.String()), nil
}

func (s *Server) handleUpdateSelector(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return toolError(err), nil
	}
	geom, err := geometryFrom(request)
	if err != nil {
		return toolError(err), nil
	}
	sel, err := s.service.UpdateSelector(name, geom)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText("Updated " + sel.String()), nil
}

func (s *Server) handleRenameSelector(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return toolError(err), nil
	}
	newName, err := request.RequireString("new_name")
	if err != nil {
		return toolError(err), nil
	}
	sel, err := s.service.RenameSelector(name, newName)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText("Renamed to " + sel.String()), nil
}

func (s *Server) handleRemoveSelector(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return toolError(err), nil
	}
	if err := s.service.RemoveSelector(name); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Removed selector %q", name)), nil
}

func (s *Server) handleReorderSelectors(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var (
		names []string
		err   error
	)
	if list := request.GetStringSlice("names", nil); len(list) > 0 {
		names, err = s.service.ReorderSelectors(list)
	} else {
		args := request.GetArguments()
		_, hasFrom := args["from"]
		_, hasTo := args["to"]
		if !hasFrom || !hasTo {
			return mcp.NewToolResultError("either names or both from and to are required"), nil
		}
		names, err = s.service.MoveSelector(request.GetInt("from", 0), request.GetInt("to", 0))
	}
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText("Export order: " + strings.Join(names, ", ")), nil
}

func (s *Server) handleClearSelectors(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n := s.service.ClearSelectors()
	return mcp.NewToolResultText(fmt.Sprintf("Removed %d selector(s)", n)), nil
}

func (s *Server) handleListSelectors(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sels := s.service.Selectors()
	if len(sels) == 0 {
		return mcp.NewToolResultText("No selectors defined"), nil
	}
	text := fmt.Sprintf("%d selector(s) in export order:\n", len(sels))
	for i, sel := range sels {
		text += fmt.Sprintf("%d. %s\n", i+1, sel.String())
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleSelectorAt(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := pointFrom(request)
	if err != nil {
		return toolError(err), nil
	}
	sel, ok := s.service.SelectorAt(request.GetInt("page", 0), p)
	if !ok {
		return mcp.NewToolResultText(fmt.Sprintf("No box selector at (%g, %g)", p.X, p.Y)), nil
	}
	return mcp.NewToolResultText(sel.String()), nil
}

func (s *Server) handleEditorEvent(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typ, err := request.RequireString("type")
	if err != nil {
		return toolError(err), nil
	}
	ev := regions.EditorEvent{
		Type: typ,
		Page: request.GetInt("page", 0),
		Name: request.GetString("name", ""),
		On:   request.GetBool("on", false),
	}
	switch typ {
	case regions.EventBeginDrag, regions.EventDrag, regions.EventGrabCorner, regions.EventBeginMove:
		if ev.Point, err = pointFrom(request); err != nil {
			return toolError(err), nil
		}
	}

	result, err := s.service.HandleEditorEvent(ev)
	if err != nil {
		return toolError(err), nil
	}

	st := result.State
	text := fmt.Sprintf("Editor: %s", st.Phase)
	if st.HasBox || st.Phase == editor.Drawing {
		text += fmt.Sprintf(", page %d, box %s", st.Page, st.Box)
	}
	if st.Target != "" {
		text += fmt.Sprintf(", editing %q", st.Target)
	}
	if st.ResizeMode {
		text += ", resize mode on"
	}
	if result.Corner != "" {
		text += fmt.Sprintf("\nGrabbed %s corner", result.Corner)
	}
	if result.Selector != nil {
		text += "\nCreated " + result.Selector.String()
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleRunExport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	format, err := output.ParseFormat(request.GetString("format", string(output.CSV)))
	if err != nil {
		return toolError(err), nil
	}
	table, err := s.service.RunExport(ctx)
	if err != nil {
		return toolError(err), nil
	}

	var buf bytes.Buffer
	if err := output.NewWriter(format, "").Write(&buf, table); err != nil {
		return toolError(err), nil
	}
	if format == output.JSON {
		return mcp.NewToolResultText(buf.String()), nil
	}

	stats := table.Stats()
	text := fmt.Sprintf("Exported %d document(s) x %d selector(s): %d matched, %d empty, %d no match\n",
		stats.Documents, len(table.Columns), stats.Matched, stats.Empty, stats.NoMatch)
	text += table.Issues.Summary() + "\n"
	for _, issue := range table.Issues.Errors {
		text += "  " + issue.Error() + "\n"
	}
	for _, issue := range table.Issues.Warnings {
		text += "  " + issue.Error() + "\n"
	}
	text += "\n" + buf.String()
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handlePreview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("document")
	if err != nil {
		return toolError(err), nil
	}
	items, err := s.service.Preview(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultText("No selectors defined"), nil
	}
	text := fmt.Sprintf("Preview for %s:\n", id)
	for _, it := range items {
		text += fmt.Sprintf("  %s: %s\n", it.Selector, it.Text)
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleSaveTemplate(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return toolError(err), nil
	}
	result, err := s.service.SaveTemplate(path)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Saved %d selector(s) to %s", result.Loaded, result.Path)), nil
}

func (s *Server) handleLoadTemplate(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return toolError(err), nil
	}
	result, err := s.service.LoadTemplate(path)
	if err != nil {
		return toolError(err), nil
	}
	text := fmt.Sprintf("Loaded %d selector(s) from %s", result.Loaded, result.Path)
	if len(result.Skipped) > 0 {
		text += fmt.Sprintf("\nSkipped %d entr(ies):\n  %s", len(result.Skipped), strings.Join(result.Skipped, "\n  "))
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleServerInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	info, err := s.service.Info()
	if err != nil {
		return toolError(err), nil
	}

	text := fmt.Sprintf("%s v%s - Server Information\n", s.config.ServerName, s.config.Version)
	text += fmt.Sprintf("Directory: %s\n", info.Directory)
	text += fmt.Sprintf("Max File Size: %d MB\n", info.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("Session: %d document(s) loaded, %d selector(s)\n\n", info.Documents, info.Selectors)

	if len(info.Available) == 0 {
		text += "No PDF files found in the directory\n"
	} else {
		text += fmt.Sprintf("Available PDFs (%d):\n", len(info.Available))
		for i, name := range info.Available {
			if i >= maxListedFiles {
				text += fmt.Sprintf("   ... and %d more files\n", len(info.Available)-maxListedFiles)
				break
			}
			text += fmt.Sprintf("   %d. %s\n", i+1, name)
		}
	}

	text += "\nTypical workflow: regions_import -> regions_create_selector or regions_editor_event -> " +
		"regions_preview -> regions_run_export\n"
	return mcp.NewToolResultText(text), nil
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	s.logger.Debug("starting MCP server in stdio mode", "dir", s.config.PDFDirectory)
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves the SSE transport on the configured address until
// ctx is cancelled.
func (s *Server) runServerMode(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Address(), err)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{ReadHeaderTimeout: 10 * time.Second}
	sse := server.NewSSEServer(s.mcpServer,
		server.WithBaseURL("http://"+ln.Addr().String()),
		server.WithHTTPServer(httpServer),
	)
	httpServer.Handler = sse

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting MCP server in SSE mode", "addr", ln.Addr().String(), "dir", s.config.PDFDirectory)
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve sse: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down MCP server")
		// closes open SSE sessions before shutting the listener down
		if err := sse.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		return nil
	}
}
