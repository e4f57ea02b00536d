package selector

import (
	"fmt"

	"github.com/a3tai/mcp-pdf-regions/internal/layout"
)

// ExportOrder is the insertion-ordered set of selectors that defines the
// export columns. Names are unique within an order.
//
// ExportOrder does no locking. Mutating it or any of its selectors while an
// export run reads it is undefined; callers hand runs a Snapshot instead.
type ExportOrder struct {
	selectors []*Selector
	byName    map[string]*Selector
}

// NewExportOrder returns an empty order.
func NewExportOrder() *ExportOrder {
	return &ExportOrder{byName: make(map[string]*Selector)}
}

// Create validates and appends a new selector. On error the order is left
// unchanged.
func (o *ExportOrder) Create(name string, mode Mode, geom Geometry, page int) (*Selector, error) {
	name, err := ValidateName(name)
	if err != nil {
		return nil, err
	}
	if _, ok := o.byName[name]; ok {
		return nil, &DuplicateNameError{Name: name}
	}
	if page < 0 {
		return nil, &InvalidGeometryError{Reason: fmt.Sprintf("page index %d is negative", page)}
	}
	geom = geom.normalized()
	if err := geom.Validate(mode); err != nil {
		return nil, err
	}

	s := &Selector{Name: name, Mode: mode, Geometry: geom, Page: page}
	o.selectors = append(o.selectors, s)
	o.byName[name] = s
	return s, nil
}

// Get returns the selector called name.
func (o *ExportOrder) Get(name string) (*Selector, error) {
	s, ok := o.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return s, nil
}

// UpdateGeometry replaces the geometry of the named selector in place. The
// selector keeps its identity and its position in the order.
func (o *ExportOrder) UpdateGeometry(name string, geom Geometry) (*Selector, error) {
	s, err := o.Get(name)
	if err != nil {
		return nil, err
	}
	geom = geom.normalized()
	if err := geom.Validate(s.Mode); err != nil {
		return nil, err
	}
	s.Geometry = geom
	return s, nil
}

// Rename changes a selector's name, keeping its column position.
func (o *ExportOrder) Rename(oldName, newName string) (*Selector, error) {
	s, err := o.Get(oldName)
	if err != nil {
		return nil, err
	}
	newName, err = ValidateName(newName)
	if err != nil {
		return nil, err
	}
	if newName == s.Name {
		return s, nil
	}
	if _, ok := o.byName[newName]; ok {
		return nil, &DuplicateNameError{Name: newName}
	}
	delete(o.byName, s.Name)
	s.Name = newName
	o.byName[newName] = s
	return s, nil
}

// Remove deletes the named selector.
func (o *ExportOrder) Remove(name string) error {
	s, err := o.Get(name)
	if err != nil {
		return err
	}
	delete(o.byName, name)
	for i, cur := range o.selectors {
		if cur == s {
			o.selectors = append(o.selectors[:i], o.selectors[i+1:]...)
			break
		}
	}
	return nil
}

// Move relocates the selector at index from to index to, shifting the
// selectors in between.
func (o *ExportOrder) Move(from, to int) error {
	n := len(o.selectors)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("reorder %d -> %d out of range for %d selectors", from, to, n)
	}
	if from == to {
		return nil
	}
	s := o.selectors[from]
	o.selectors = append(o.selectors[:from], o.selectors[from+1:]...)
	o.selectors = append(o.selectors[:to], append([]*Selector{s}, o.selectors[to:]...)...)
	return nil
}

// Reorder replaces the order with the given permutation of names. Every
// existing name must appear exactly once.
func (o *ExportOrder) Reorder(names []string) error {
	if len(names) != len(o.selectors) {
		return fmt.Errorf("reorder needs %d names, got %d", len(o.selectors), len(names))
	}
	next := make([]*Selector, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		s, err := o.Get(name)
		if err != nil {
			return err
		}
		if seen[name] {
			return &DuplicateNameError{Name: name}
		}
		seen[name] = true
		next = append(next, s)
	}
	o.selectors = next
	return nil
}

// Clear empties the order.
func (o *ExportOrder) Clear() {
	o.selectors = nil
	o.byName = make(map[string]*Selector)
}

// Len returns the number of selectors.
func (o *ExportOrder) Len() int {
	return len(o.selectors)
}

// Names returns the column labels in order.
func (o *ExportOrder) Names() []string {
	out := make([]string, len(o.selectors))
	for i, s := range o.selectors {
		out[i] = s.Name
	}
	return out
}

// Selectors returns the live selectors in order. The slice is a copy but the
// selectors are shared with the order.
func (o *ExportOrder) Selectors() []*Selector {
	out := make([]*Selector, len(o.selectors))
	copy(out, o.selectors)
	return out
}

// Snapshot returns value copies of every selector, safe to read while the
// order keeps changing.
func (o *ExportOrder) Snapshot() []Selector {
	out := make([]Selector, len(o.selectors))
	for i, s := range o.selectors {
		out[i] = *s
	}
	return out
}

// SelectorAt returns the top-most region selector on page containing p.
// Later selectors are drawn above earlier ones.
func (o *ExportOrder) SelectorAt(page int, p layout.Point) (*Selector, bool) {
	for i := len(o.selectors) - 1; i >= 0; i-- {
		if o.selectors[i].Contains(page, p) {
			return o.selectors[i], true
		}
	}
	return nil, false
}
