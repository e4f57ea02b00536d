// Package regions ties the document set, the export order, the selection
// editor and the export pipeline together behind one lock.
package regions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/a3tai/mcp-pdf-regions/internal/config"
	"github.com/a3tai/mcp-pdf-regions/internal/editor"
	"github.com/a3tai/mcp-pdf-regions/internal/export"
	"github.com/a3tai/mcp-pdf-regions/internal/layout"
	"github.com/a3tai/mcp-pdf-regions/internal/pdf"
	"github.com/a3tai/mcp-pdf-regions/internal/pdf/security"
	"github.com/a3tai/mcp-pdf-regions/internal/query"
	"github.com/a3tai/mcp-pdf-regions/internal/selector"
	"github.com/a3tai/mcp-pdf-regions/internal/template"
)

// ErrUnknownDocument is returned for a document id that is not loaded.
var ErrUnknownDocument = errors.New("document not loaded")

// DuplicateDocumentError reports an import of a path that is already loaded.
type DuplicateDocumentError struct {
	Path string
}

func (e *DuplicateDocumentError) Error() string {
	return fmt.Sprintf("document already loaded: %s", e.Path)
}

// Service handles document and selector operations. All state lives behind
// a single mutex; exports snapshot that state and run without holding it.
type Service struct {
	mu sync.Mutex

	pathValidator *security.PathValidator
	validator     *pdf.Validator
	maxFileSize   int64
	loader        *pdf.Loader
	engine        *query.Engine
	order         *selector.ExportOrder
	editor        *editor.Editor
	pipeline      *export.Pipeline
	previewChars  int
	logger        *slog.Logger

	docs []*layout.Document // import order
}

// Option configures a Service.
type Option func(*Service)

// WithLoader replaces the PDF loader.
func WithLoader(l *pdf.Loader) Option {
	return func(s *Service) {
		if l != nil {
			s.loader = l
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a service rooted at cfg.PDFDirectory
func NewService(cfg *config.Config, opts ...Option) (*Service, error) {
	pathValidator, err := security.NewPathValidator(cfg.PDFDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	s := &Service{
		pathValidator: pathValidator,
		validator:     pdf.NewValidator(cfg.MaxFileSize),
		maxFileSize:   cfg.MaxFileSize,
		previewChars:  cfg.PreviewChars,
		logger:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}

	builder := layout.NewBuilder(layout.WithLineTolerance(cfg.LineTolerance), layout.WithLogger(s.logger))
	if s.loader == nil {
		s.loader = pdf.NewLoader(s.validator, pdf.NewDecoder(pdf.WithDecoderLogger(s.logger)), builder)
	}
	s.engine = query.NewEngine(builder.LineTolerance())
	s.order = selector.NewExportOrder()
	s.editor = editor.New(s.order, s.engine, editor.WithCornerThreshold(cfg.CornerThreshold))
	s.pipeline = export.NewPipeline(s.engine, export.WithWorkers(cfg.Workers), export.WithLogger(s.logger))
	return s, nil
}

// Root returns the directory imports are confined to.
func (s *Service) Root() string {
	return s.pathValidator.Root()
}

// Info reports the import directory, what it contains and the size of the
// current session.
func (s *Service) Info() (*ServerInfo, error) {
	files, err := s.validator.Discover(s.pathValidator.Root())
	if err != nil {
		return nil, err
	}
	info := &ServerInfo{
		Directory:   s.pathValidator.Root(),
		MaxFileSize: s.maxFileSize,
		Available:   make([]string, len(files)),
	}
	for i, f := range files {
		info.Available[i] = filepath.Base(f)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	info.Documents = len(s.docs)
	info.Selectors = s.order.Len()
	return info, nil
}

// Import loads a single PDF, or every PDF directly inside a directory when
// req.Directory is set. A directory import keeps going past files that fail.
func (s *Service) Import(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	path, err := s.pathValidator.Resolve(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}

	if !req.Directory {
		info, err := s.importFile(ctx, path)
		if err != nil {
			return nil, err
		}
		return &ImportResult{Loaded: []DocumentInfo{info}}, nil
	}

	files, err := s.validator.Discover(path)
	if err != nil {
		return nil, err
	}
	res := &ImportResult{Loaded: []DocumentInfo{}}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		info, err := s.importFile(ctx, f)
		if err != nil {
			s.logger.Warn("skipping document", "path", f, "error", err)
			res.Skipped = append(res.Skipped, ImportError{Path: f, Message: err.Error()})
			continue
		}
		res.Loaded = append(res.Loaded, info)
	}
	return res, nil
}

func (s *Service) importFile(ctx context.Context, path string) (DocumentInfo, error) {
	s.mu.Lock()
	dup := s.indexOf(path) >= 0
	s.mu.Unlock()
	if dup {
		return DocumentInfo{}, &DuplicateDocumentError{Path: path}
	}

	doc, err := s.loader.Load(ctx, path)
	if err != nil {
		return DocumentInfo{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// another import may have finished while this one was decoding
	if s.indexOf(path) >= 0 {
		return DocumentInfo{}, &DuplicateDocumentError{Path: path}
	}
	s.docs = append(s.docs, doc)
	s.logger.Info("document loaded", "document", path, "pages", doc.PageCount())
	return describe(doc), nil
}

func (s *Service) indexOf(id string) int {
	for i, d := range s.docs {
		if d.ID == id {
			return i
		}
	}
	return -1
}

// document finds a loaded document by its id or by a path that resolves to it.
// The caller holds s.mu.
func (s *Service) document(id string) (*layout.Document, error) {
	if i := s.indexOf(id); i >= 0 {
		return s.docs[i], nil
	}
	if abs, err := s.pathValidator.Resolve(id); err == nil {
		if i := s.indexOf(abs); i >= 0 {
			return s.docs[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownDocument, id)
}

func describe(doc *layout.Document) DocumentInfo {
	info := DocumentInfo{ID: doc.ID, Name: filepath.Base(doc.ID), Pages: doc.PageCount()}
	for _, p := range doc.Pages {
		info.Tokens += p.Len()
	}
	return info
}

// Documents lists the loaded documents in import order.
func (s *Service) Documents() []DocumentInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]DocumentInfo, len(s.docs))
	for i, d := range s.docs {
		out[i] = describe(d)
	}
	return out
}

// RemoveDocument unloads one document.
func (s *Service) RemoveDocument(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.document(id)
	if err != nil {
		return err
	}
	i := s.indexOf(doc.ID)
	s.docs = append(s.docs[:i], s.docs[i+1:]...)
	return nil
}

// ClearDocuments unloads every document. Selectors are kept.
func (s *Service) ClearDocuments() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.docs)
	s.docs = nil
	return n
}

// CreateSelector appends a selector to the export order.
func (s *Service) CreateSelector(req CreateSelectorRequest) (selector.Selector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel, err := s.order.Create(req.Name, req.Mode, req.Geometry, req.Page)
	if err != nil {
		return selector.Selector{}, err
	}
	return *sel, nil
}

// UpdateSelector replaces the geometry of an existing selector.
func (s *Service) UpdateSelector(name string, geom selector.Geometry) (selector.Selector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel, err := s.order.UpdateGeometry(name, geom)
	if err != nil {
		return selector.Selector{}, err
	}
	return *sel, nil
}

// RenameSelector renames a selector in place.
func (s *Service) RenameSelector(oldName, newName string) (selector.Selector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel, err := s.order.Rename(oldName, newName)
	if err != nil {
		return selector.Selector{}, err
	}
	return *sel, nil
}

// RemoveSelector deletes a selector. An editor session on it is dropped.
func (s *Service) RemoveSelector(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.order.Remove(name); err != nil {
		return err
	}
	if s.editor.State().Target == name {
		s.editor.Reset()
	}
	return nil
}

// MoveSelector moves the selector at index from to index to.
func (s *Service) MoveSelector(from, to int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.order.Move(from, to); err != nil {
		return nil, err
	}
	return s.order.Names(), nil
}

// ReorderSelectors sets the full column order.
func (s *Service) ReorderSelectors(names []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.order.Reorder(names); err != nil {
		return nil, err
	}
	return s.order.Names(), nil
}

// ClearSelectors empties the export order and resets the editor.
func (s *Service) ClearSelectors() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.order.Len()
	s.order.Clear()
	s.editor.Reset()
	return n
}

// Selectors returns a copy of the export order.
func (s *Service) Selectors() []selector.Selector {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Snapshot()
}

// SelectorAt returns the top-most region selector containing p on page.
func (s *Service) SelectorAt(page int, p layout.Point) (selector.Selector, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel, ok := s.order.SelectorAt(page, p)
	if !ok {
		return selector.Selector{}, false
	}
	return *sel, true
}

// PreviewHover reports the word a click at req.Point would pick.
func (s *Service) PreviewHover(req HoverRequest) (*HoverResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	page, err := s.page(req.Document, req.Page)
	if err != nil {
		return nil, err
	}
	tok, ok := s.engine.PreviewHover(req.Point, page)
	return &HoverResult{Found: ok, Token: tok}, nil
}

// PickWord saves the word under req.Point as a word selector.
func (s *Service) PickWord(req PickWordRequest) (*EditorResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	page, err := s.page(req.Document, req.Page)
	if err != nil {
		return nil, err
	}
	sel, _, err := s.editor.PickWord(req.Name, req.Page, req.Point, page)
	if err != nil {
		return nil, err
	}
	c := *sel
	return &EditorResult{State: s.editor.State(), Selector: &c}, nil
}

func (s *Service) page(docID string, index int) (*layout.PageLayout, error) {
	doc, err := s.document(docID)
	if err != nil {
		return nil, err
	}
	page := doc.Page(index)
	if page == nil {
		return nil, fmt.Errorf("page %d not in document %s (%d pages)", index, doc.ID, doc.PageCount())
	}
	return page, nil
}

// Editor event types accepted by HandleEditorEvent.
const (
	EventBeginDrag  = "begin_drag"
	EventDrag       = "drag"
	EventRelease    = "release"
	EventGrabCorner = "grab_corner"
	EventBeginMove  = "begin_move"
	EventCancel     = "cancel"
	EventResizeMode = "resize_mode"
	EventCommit     = "commit"
	EventSelect     = "select"
	EventReset      = "reset"
)

// HandleEditorEvent feeds one event to the selection editor and returns the
// resulting state.
func (s *Service) HandleEditorEvent(ev EditorEvent) (*EditorResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := &EditorResult{}
	var err error
	switch ev.Type {
	case EventBeginDrag:
		err = s.editor.BeginDrag(ev.Page, ev.Point)
	case EventDrag:
		if s.editor.Phase() == editor.Resizing {
			err = s.editor.DragCorner(ev.Point)
		} else {
			err = s.editor.Drag(ev.Point)
		}
	case EventRelease:
		_, err = s.editor.Release()
	case EventGrabCorner:
		var c editor.Corner
		if c, err = s.editor.GrabCorner(ev.Point); err == nil {
			res.Corner = c.String()
		}
	case EventBeginMove:
		err = s.editor.BeginMove(ev.Point)
	case EventCancel:
		s.editor.Cancel()
	case EventResizeMode:
		s.editor.SetResizeMode(ev.On)
	case EventCommit:
		var sel *selector.Selector
		if sel, err = s.editor.Commit(ev.Name); err == nil {
			c := *sel
			res.Selector = &c
		}
	case EventSelect:
		err = s.editor.Select(ev.Name)
	case EventReset:
		s.editor.Reset()
	default:
		err = fmt.Errorf("unknown editor event %q", ev.Type)
	}
	if err != nil {
		return nil, err
	}
	res.State = s.editor.State()
	return res, nil
}

// RunExport replays the export order across every loaded document.
func (s *Service) RunExport(ctx context.Context) (*export.Table, error) {
	s.mu.Lock()
	docs := append([]*layout.Document(nil), s.docs...)
	sels := s.order.Snapshot()
	s.mu.Unlock()

	return s.pipeline.Run(ctx, docs, sels)
}

// Preview resolves every selector against one document and returns text
// shortened for display.
func (s *Service) Preview(ctx context.Context, docID string) ([]PreviewItem, error) {
	s.mu.Lock()
	doc, err := s.document(docID)
	sels := s.order.Snapshot()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	table, err := s.pipeline.Run(ctx, []*layout.Document{doc}, sels)
	if err != nil {
		return nil, err
	}
	items := make([]PreviewItem, len(sels))
	for i, sel := range sels {
		cell, _ := table.Cell(0, i)
		items[i] = PreviewItem{
			Selector: sel.Name,
			Text:     export.Preview(cell, s.previewChars),
			Status:   cell.Status.String(),
		}
	}
	return items, nil
}

// SaveTemplate writes the export order to path inside the import root.
func (s *Service) SaveTemplate(path string) (*TemplateResult, error) {
	abs, err := s.pathValidator.Resolve(path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	sels := s.Selectors()
	if err := template.SaveFile(abs, sels); err != nil {
		return nil, err
	}
	return &TemplateResult{Path: abs, Loaded: len(sels)}, nil
}

// LoadTemplate replaces the export order with the selectors saved at path.
func (s *Service) LoadTemplate(path string) (*TemplateResult, error) {
	abs, err := s.pathValidator.Resolve(path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	t, err := template.LoadFile(abs)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.editor.Reset()
	lr := template.Apply(s.order, t)
	res := &TemplateResult{Path: abs, Loaded: lr.Loaded}
	for _, e := range lr.Skipped {
		s.logger.Warn("template entry skipped", "path", abs, "error", e)
		res.Skipped = append(res.Skipped, e.Error())
	}
	return res, nil
}
