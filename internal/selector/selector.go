// Package selector holds named, document-independent selection definitions
// and the ordered collection that defines export columns.
package selector

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/a3tai/mcp-pdf-regions/internal/layout"
)

// MaxNameLength is the longest accepted selector name, in characters.
const MaxNameLength = 100

// Mode is how a selector resolves against a page.
type Mode int

const (
	// WordPick resolves a point to a single token.
	WordPick Mode = iota
	// BoxRegion resolves a box to every overlapping token.
	BoxRegion
)

func (m Mode) String() string {
	switch m {
	case WordPick:
		return "word"
	case BoxRegion:
		return "box"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts the names produced by Mode.String plus a few aliases.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "word", "wordpick", "word_pick", "point":
		return WordPick, nil
	case "box", "boxregion", "box_region", "region":
		return BoxRegion, nil
	default:
		return 0, fmt.Errorf("unknown selector mode %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if m != WordPick && m != BoxRegion {
		return nil, fmt.Errorf("unknown selector mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Geometry is either a point (word pick) or a box (region). Kind records
// which of the two is meaningful and must match the owning selector's mode.
type Geometry struct {
	Kind  Mode         `json:"kind" yaml:"kind"`
	Point layout.Point `json:"point" yaml:"point,omitempty"`
	Box   layout.Box   `json:"box" yaml:"box,omitempty"`
}

// PointGeometry wraps p as a word-pick geometry.
func PointGeometry(p layout.Point) Geometry {
	return Geometry{Kind: WordPick, Point: p}
}

// BoxGeometry wraps b as a region geometry. The box is normalized.
func BoxGeometry(b layout.Box) Geometry {
	return Geometry{Kind: BoxRegion, Box: b.Normalize()}
}

// Validate checks g against mode. Boxes are normalized by the caller's
// constructor but degenerate or non-finite ones are rejected here, never
// clamped.
func (g Geometry) Validate(mode Mode) error {
	if g.Kind != mode {
		return &InvalidGeometryError{Reason: fmt.Sprintf("%s geometry given for a %s selector", g.Kind, mode)}
	}
	switch mode {
	case WordPick:
		if !g.Point.IsFinite() {
			return &InvalidGeometryError{Reason: "point is not finite"}
		}
		if g.Point.X < 0 || g.Point.Y < 0 {
			return &InvalidGeometryError{Reason: fmt.Sprintf("point (%g,%g) is outside page space", g.Point.X, g.Point.Y)}
		}
	case BoxRegion:
		if !g.Box.IsFinite() {
			return &InvalidGeometryError{Reason: "box is not finite"}
		}
		if g.Box.X0 > g.Box.X1 || g.Box.Y0 > g.Box.Y1 {
			return &InvalidGeometryError{Reason: "box is not normalized " + g.Box.String()}
		}
		if g.Box.IsEmpty() {
			return &InvalidGeometryError{Reason: "box has zero area " + g.Box.String()}
		}
		if g.Box.X1 < 0 || g.Box.Y1 < 0 {
			return &InvalidGeometryError{Reason: "box is outside page space " + g.Box.String()}
		}
	default:
		return &InvalidGeometryError{Reason: "unknown mode " + mode.String()}
	}
	return nil
}

// normalized returns g with its box corners ordered.
func (g Geometry) normalized() Geometry {
	g.Box = g.Box.Normalize()
	return g
}

// Selector is a named selection that can be replayed against any document.
type Selector struct {
	Name     string
	Mode     Mode
	Geometry Geometry
	Page     int
}

// Contains reports whether p hits the selector on page. Word picks never
// contain a point; only regions can be hit tested.
func (s *Selector) Contains(page int, p layout.Point) bool {
	return s.Mode == BoxRegion && s.Page == page && s.Geometry.Box.Contains(p)
}

func (s *Selector) String() string {
	if s.Mode == WordPick {
		return fmt.Sprintf("%s(word p%d %.2f,%.2f)", s.Name, s.Page, s.Geometry.Point.X, s.Geometry.Point.Y)
	}
	return fmt.Sprintf("%s(box p%d %s)", s.Name, s.Page, s.Geometry.Box)
}

// ErrNotFound is returned when a named selector does not exist.
var ErrNotFound = errors.New("selector not found")

// DuplicateNameError is returned when a name is already used in an order.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("selector name %q already exists", e.Name)
}

// InvalidGeometryError is returned for degenerate or out-of-range geometry.
type InvalidGeometryError struct {
	Reason string
}

func (e *InvalidGeometryError) Error() string {
	return "invalid selector geometry: " + e.Reason
}

// InvalidNameError is returned for names that are empty or too long.
type InvalidNameError struct {
	Name   string
	Reason string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid selector name %q: %s", e.Name, e.Reason)
}

// ValidateName trims name and checks it is usable as a column label.
func ValidateName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", &InvalidNameError{Name: name, Reason: "name is empty"}
	}
	if utf8.RuneCountInString(trimmed) > MaxNameLength {
		return "", &InvalidNameError{Name: name, Reason: fmt.Sprintf("name exceeds %d characters", MaxNameLength)}
	}
	return trimmed, nil
}
