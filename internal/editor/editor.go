// Package editor implements the selection editor: the state machine that
// draws, resizes and moves region boxes and turns them into selectors.
package editor

import (
	"errors"
	"fmt"
	"math"

	"github.com/a3tai/mcp-pdf-regions/internal/layout"
	"github.com/a3tai/mcp-pdf-regions/internal/query"
	"github.com/a3tai/mcp-pdf-regions/internal/selector"
)

// DefaultCornerThreshold is how close, in points, a grab must be to a corner
// to pick up its handle.
const DefaultCornerThreshold = 6.0

// Phase is the editor state.
type Phase int

const (
	// Idle has no box placed.
	Idle Phase = iota
	// Drawing tracks a drag that is creating a new box.
	Drawing
	// Placed holds a finished box, committed or not.
	Placed
	// Resizing follows a grabbed corner of the placed box.
	Resizing
	// Moving translates the placed box with the pointer.
	Moving
)

var phaseNames = map[Phase]string{
	Idle:     "idle",
	Drawing:  "drawing",
	Placed:   "placed",
	Resizing: "resizing",
	Moving:   "moving",
}

func (p Phase) String() string {
	if s, ok := phaseNames[p]; ok {
		return s
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Corner identifies a box corner handle.
type Corner int

// Corner handles, named in page space where y grows downward.
const (
	TopLeft Corner = iota
	TopRight
	BottomLeft
	BottomRight
)

func (c Corner) String() string {
	switch c {
	case TopLeft:
		return "top-left"
	case TopRight:
		return "top-right"
	case BottomLeft:
		return "bottom-left"
	case BottomRight:
		return "bottom-right"
	}
	return fmt.Sprintf("Corner(%d)", int(c))
}

// ErrInvalidTransition is returned when an event is not valid in the
// current phase.
var ErrInvalidTransition = errors.New("invalid editor transition")

// ErrNoToken is returned by PickWord when nothing lies under the point.
var ErrNoToken = errors.New("no word at point")

// State is a read-only view of the editor.
type State struct {
	Phase      Phase      `json:"phase"`
	Box        layout.Box `json:"box"`
	HasBox     bool       `json:"has_box"`
	Page       int        `json:"page"`
	Target     string     `json:"target,omitempty"`
	ResizeMode bool       `json:"resize_mode"`
}

// Editor edits one box at a time against an export order. It is not safe
// for concurrent use.
type Editor struct {
	order           *selector.ExportOrder
	engine          *query.Engine
	cornerThreshold float64

	phase      Phase
	resizeMode bool

	box    layout.Box
	hasBox bool
	page   int
	target *selector.Selector

	anchor   layout.Point // drawing start, fixed corner while resizing, last pointer while moving
	original layout.Box   // geometry before a resize or move began
}

// Option configures an Editor.
type Option func(*Editor)

// WithCornerThreshold sets the corner grab distance.
func WithCornerThreshold(d float64) Option {
	return func(e *Editor) {
		if d > 0 && !math.IsInf(d, 0) {
			e.cornerThreshold = d
		}
	}
}

// New creates an editor that commits into order and resolves word picks
// with engine.
func New(order *selector.ExportOrder, engine *query.Engine, opts ...Option) *Editor {
	e := &Editor{
		order:           order,
		engine:          engine,
		cornerThreshold: DefaultCornerThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the current editor state.
func (e *Editor) State() State {
	s := State{
		Phase:      e.phase,
		Box:        e.box,
		HasBox:     e.hasBox,
		Page:       e.page,
		ResizeMode: e.resizeMode,
	}
	if e.target != nil {
		s.Target = e.target.Name
	}
	return s
}

// Phase returns the current phase.
func (e *Editor) Phase() Phase {
	return e.phase
}

func (e *Editor) invalid(event string) error {
	return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, event, e.phase)
}

// SetResizeMode toggles resize mode. Turning it off in the middle of a resize
// cancels the resize.
func (e *Editor) SetResizeMode(on bool) {
	if !on && e.phase == Resizing {
		e.restore()
	}
	e.resizeMode = on
}

// BeginDrag starts drawing a new box at p. A box placed but not yet
// committed is discarded.
func (e *Editor) BeginDrag(page int, p layout.Point) error {
	if e.phase != Idle && e.phase != Placed {
		return e.invalid("begin drag")
	}
	if e.resizeMode {
		return e.invalid("begin drag in resize mode")
	}
	if page < 0 || !p.IsFinite() {
		return &selector.InvalidGeometryError{Reason: "drag start is outside page space"}
	}
	e.phase = Drawing
	e.page = page
	e.anchor = p
	e.box = layout.BoxFromPoints(p, p)
	e.hasBox = false
	e.target = nil
	return nil
}

// Drag feeds a pointer position. In Drawing the box spans the start point
// and p; in Resizing the grabbed corner follows p; in Moving the box is
// translated by the pointer delta.
func (e *Editor) Drag(p layout.Point) error {
	if !p.IsFinite() {
		return &selector.InvalidGeometryError{Reason: "pointer is not finite"}
	}
	switch e.phase {
	case Drawing, Resizing:
		// opposite corners may cross; BoxFromPoints keeps the box normalized
		e.box = layout.BoxFromPoints(e.anchor, p)
	case Moving:
		e.box = e.box.Translate(p.X-e.anchor.X, p.Y-e.anchor.Y)
		e.anchor = p
	default:
		return e.invalid("drag")
	}
	return nil
}

// DragCorner is Drag restricted to the Resizing phase.
func (e *Editor) DragCorner(p layout.Point) error {
	if e.phase != Resizing {
		return e.invalid("drag corner")
	}
	return e.Drag(p)
}

// Release ends the current drag. A degenerate drawn box is discarded and the
// editor returns to Idle. Releasing a resize or move of a committed selector
// writes the new geometry to it; a resize collapsed to zero area is reverted.
func (e *Editor) Release() (Phase, error) {
	switch e.phase {
	case Drawing:
		if e.box.IsEmpty() {
			e.phase = Idle
			e.box = layout.Box{}
			e.hasBox = false
			return e.phase, nil
		}
		e.phase = Placed
		e.hasBox = true
	case Resizing, Moving:
		if e.box.IsEmpty() {
			e.box = e.original
		}
		if e.target != nil {
			if _, err := e.order.UpdateGeometry(e.target.Name, selector.BoxGeometry(e.box)); err != nil {
				e.box = e.original
				e.phase = Placed
				return e.phase, err
			}
		}
		e.phase = Placed
	default:
		return e.phase, e.invalid("release")
	}
	return e.phase, nil
}

// GrabCorner enters Resizing when resize mode is on, a box is placed and p is
// within the corner threshold of one of its corners.
func (e *Editor) GrabCorner(p layout.Point) (Corner, error) {
	if e.phase != Placed || !e.resizeMode {
		return 0, e.invalid("grab corner")
	}
	corner, ok := e.nearestCorner(p)
	if !ok {
		return 0, fmt.Errorf("%w: no corner within %.1f of (%.2f,%.2f)", ErrInvalidTransition, e.cornerThreshold, p.X, p.Y)
	}
	e.original = e.box
	e.anchor = opposite(e.box, corner)
	e.phase = Resizing
	return corner, nil
}

// BeginMove enters Moving when a box is placed and p lies inside it.
func (e *Editor) BeginMove(p layout.Point) error {
	if e.phase != Placed {
		return e.invalid("begin move")
	}
	if !e.box.Contains(p) {
		return fmt.Errorf("%w: point is outside the placed box", ErrInvalidTransition)
	}
	e.original = e.box
	e.anchor = p
	e.phase = Moving
	return nil
}

// Cancel returns to Idle. An in-progress drawing is discarded; a placed box
// is kept, and a resize or move in progress is undone first.
func (e *Editor) Cancel() {
	switch e.phase {
	case Drawing:
		e.box = layout.Box{}
		e.hasBox = false
		e.target = nil
	case Resizing, Moving:
		e.restore()
	}
	e.phase = Idle
}

// Reset drops everything, including a placed box.
func (e *Editor) Reset() {
	resize := e.resizeMode
	*e = Editor{order: e.order, engine: e.engine, cornerThreshold: e.cornerThreshold, resizeMode: resize}
}

func (e *Editor) restore() {
	e.box = e.original
	e.phase = Placed
}

// Commit saves the placed box as a new region selector named name. The
// editor stays Placed on the new selector so it can be resized.
func (e *Editor) Commit(name string) (*selector.Selector, error) {
	if !e.hasBox || (e.phase != Placed && e.phase != Idle) {
		return nil, e.invalid("commit")
	}
	if e.target != nil {
		return nil, fmt.Errorf("%w: box is already saved as %q", ErrInvalidTransition, e.target.Name)
	}
	s, err := e.order.Create(name, selector.BoxRegion, selector.BoxGeometry(e.box), e.page)
	if err != nil {
		return nil, err
	}
	e.target = s
	e.phase = Placed
	return s, nil
}

// Select places the named region selector for editing.
func (e *Editor) Select(name string) error {
	if e.phase != Idle && e.phase != Placed {
		return e.invalid("select")
	}
	s, err := e.order.Get(name)
	if err != nil {
		return err
	}
	if s.Mode != selector.BoxRegion {
		return fmt.Errorf("%w: %q is a word selector", ErrInvalidTransition, name)
	}
	e.target = s
	e.box = s.Geometry.Box
	e.hasBox = true
	e.page = s.Page
	e.phase = Placed
	return nil
}

// PickWord resolves p against page and saves it as a word selector. It is a
// single Idle to Idle step; nothing is created when no word is under p.
func (e *Editor) PickWord(name string, pageIndex int, p layout.Point, page *layout.PageLayout) (*selector.Selector, layout.Token, error) {
	if e.phase != Idle {
		return nil, layout.Token{}, e.invalid("pick word")
	}
	tok, ok := e.engine.ResolveWordPick(p, page)
	if !ok {
		return nil, layout.Token{}, ErrNoToken
	}
	s, err := e.order.Create(name, selector.WordPick, selector.PointGeometry(p), pageIndex)
	if err != nil {
		return nil, layout.Token{}, err
	}
	return s, tok, nil
}

func (e *Editor) nearestCorner(p layout.Point) (Corner, bool) {
	best, bestDist := TopLeft, math.Inf(1)
	for _, c := range []Corner{TopLeft, TopRight, BottomLeft, BottomRight} {
		q := cornerPoint(e.box, c)
		if d := math.Hypot(q.X-p.X, q.Y-p.Y); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, bestDist <= e.cornerThreshold
}

func cornerPoint(b layout.Box, c Corner) layout.Point {
	switch c {
	case TopRight:
		return layout.Point{X: b.X1, Y: b.Y0}
	case BottomLeft:
		return layout.Point{X: b.X0, Y: b.Y1}
	case BottomRight:
		return layout.Point{X: b.X1, Y: b.Y1}
	default:
		return layout.Point{X: b.X0, Y: b.Y0}
	}
}

func opposite(b layout.Box, c Corner) layout.Point {
	switch c {
	case TopLeft:
		return cornerPoint(b, BottomRight)
	case TopRight:
		return cornerPoint(b, BottomLeft)
	case BottomLeft:
		return cornerPoint(b, TopRight)
	default:
		return cornerPoint(b, TopLeft)
	}
}
