package layout

import (
	"fmt"
	"math"
)

// Point is a position in page space (origin top-left, y grows downward).
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// IsFinite reports whether both coordinates are real numbers.
func (p Point) IsFinite() bool {
	return isFinite(p.X) && isFinite(p.Y)
}

// Translate returns p shifted by (dx, dy).
func (p Point) Translate(dx, dy float64) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Box is an axis-aligned rectangle in page space. A well-formed Box has
// X0 <= X1 and Y0 <= Y1; use Normalize on anything built from pointer input.
type Box struct {
	X0 float64 `json:"x0" yaml:"x0"`
	Y0 float64 `json:"y0" yaml:"y0"`
	X1 float64 `json:"x1" yaml:"x1"`
	Y1 float64 `json:"y1" yaml:"y1"`
}

// BoxFromPoints builds the normalized Box spanned by two corners.
func BoxFromPoints(a, b Point) Box {
	return NewBox(a.X, a.Y, b.X, b.Y)
}

// NewBox builds a normalized Box from two corners given in any order.
func NewBox(x0, y0, x1, y1 float64) Box {
	return Box{X0: x0, Y0: y0, X1: x1, Y1: y1}.Normalize()
}

// Normalize swaps coordinates so that X0 <= X1 and Y0 <= Y1.
func (b Box) Normalize() Box {
	if b.X0 > b.X1 {
		b.X0, b.X1 = b.X1, b.X0
	}
	if b.Y0 > b.Y1 {
		b.Y0, b.Y1 = b.Y1, b.Y0
	}
	return b
}

// Width returns the horizontal extent of the box.
func (b Box) Width() float64 { return b.X1 - b.X0 }

// Height returns the vertical extent of the box.
func (b Box) Height() float64 { return b.Y1 - b.Y0 }

// Area returns the box area, zero for degenerate boxes.
func (b Box) Area() float64 {
	if b.IsEmpty() {
		return 0
	}
	return b.Width() * b.Height()
}

// IsFinite reports whether all four coordinates are real numbers.
func (b Box) IsFinite() bool {
	return isFinite(b.X0) && isFinite(b.Y0) && isFinite(b.X1) && isFinite(b.Y1)
}

// IsEmpty reports whether the box has no interior.
func (b Box) IsEmpty() bool {
	return !(b.X0 < b.X1 && b.Y0 < b.Y1)
}

// Center returns the midpoint of the box.
func (b Box) Center() Point {
	return Point{X: (b.X0 + b.X1) / 2, Y: (b.Y0 + b.Y1) / 2}
}

// Contains reports whether p lies inside the box or on its edge.
func (b Box) Contains(p Point) bool {
	return p.X >= b.X0 && p.X <= b.X1 && p.Y >= b.Y0 && p.Y <= b.Y1
}

// Intersection returns the overlapping region of two boxes. The result is
// empty (IsEmpty) when the boxes only touch or are disjoint.
func (b Box) Intersection(other Box) Box {
	r := Box{
		X0: math.Max(b.X0, other.X0),
		Y0: math.Max(b.Y0, other.Y0),
		X1: math.Min(b.X1, other.X1),
		Y1: math.Min(b.Y1, other.Y1),
	}
	if r.IsEmpty() {
		return Box{}
	}
	return r
}

// Overlaps reports whether the two boxes share a non-zero area. Boxes that
// only share an edge or a corner do not overlap.
func (b Box) Overlaps(other Box) bool {
	return math.Min(b.X1, other.X1) > math.Max(b.X0, other.X0) &&
		math.Min(b.Y1, other.Y1) > math.Max(b.Y0, other.Y0)
}

// Translate returns the box shifted by (dx, dy).
func (b Box) Translate(dx, dy float64) Box {
	return Box{X0: b.X0 + dx, Y0: b.Y0 + dy, X1: b.X1 + dx, Y1: b.Y1 + dy}
}

// Clamp restricts the box to bounds. The result may be empty.
func (b Box) Clamp(bounds Box) Box {
	return Box{
		X0: math.Max(b.X0, bounds.X0),
		Y0: math.Max(b.Y0, bounds.Y0),
		X1: math.Min(b.X1, bounds.X1),
		Y1: math.Min(b.Y1, bounds.Y1),
	}
}

// VerticalOverlap returns how far the vertical bands of two boxes overlap.
// Negative values are the gap between them.
func (b Box) VerticalOverlap(other Box) float64 {
	return math.Min(b.Y1, other.Y1) - math.Max(b.Y0, other.Y0)
}

// SharesLine reports whether the vertical bands of two boxes overlap by more
// than tol. For bands shorter than 2*tol the threshold drops to half the
// shorter band, so short tokens with matching bands still share a line.
func SharesLine(a, b Box, tol float64) bool {
	need := math.Min(tol, math.Min(a.Height(), b.Height())/2)
	return a.VerticalOverlap(b) > need
}

// VerticalDistance returns the distance from y to the box's vertical band,
// zero when y is inside it.
func (b Box) VerticalDistance(y float64) float64 {
	switch {
	case y < b.Y0:
		return b.Y0 - y
	case y > b.Y1:
		return y - b.Y1
	default:
		return 0
	}
}

// SpansX reports whether x falls within the horizontal span of the box.
func (b Box) SpansX(x float64) bool {
	return x >= b.X0 && x <= b.X1
}

// String formats the box as [x0,y0,x1,y1].
func (b Box) String() string {
	return fmt.Sprintf("[%.2f,%.2f,%.2f,%.2f]", b.X0, b.Y0, b.X1, b.Y1)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
