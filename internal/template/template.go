// Package template persists an export order as a reusable YAML template.
// It also reads the older regions.json layout, which is valid YAML.
package template

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/a3tai/mcp-pdf-regions/internal/layout"
	"github.com/a3tai/mcp-pdf-regions/internal/selector"
)

// CurrentVersion is written into every saved template.
const CurrentVersion = 1

// Entry is one saved selector.
type Entry struct {
	Name  string        `yaml:"name"`
	Mode  selector.Mode `yaml:"mode"`
	Page  int           `yaml:"page"`
	Point *layout.Point `yaml:"point,omitempty"`
	Box   *layout.Box   `yaml:"box,omitempty"`
}

// Template is the on-disk form of an export order.
type Template struct {
	Version   int     `yaml:"version"`
	Selectors []Entry `yaml:"selectors"`
}

// legacyRegion is a box from the regions.json format.
type legacyRegion struct {
	Coords []float64 `yaml:"coords"`
}

type document struct {
	Template `yaml:",inline"`
	Regions  map[string]legacyRegion `yaml:"regions,omitempty"`
	Order    []string                `yaml:"order,omitempty"`
}

// FromSelectors builds a template from selectors in column order.
func FromSelectors(sels []selector.Selector) *Template {
	t := &Template{Version: CurrentVersion, Selectors: make([]Entry, 0, len(sels))}
	for _, s := range sels {
		e := Entry{Name: s.Name, Mode: s.Mode, Page: s.Page}
		if s.Mode == selector.WordPick {
			p := s.Geometry.Point
			e.Point = &p
		} else {
			b := s.Geometry.Box
			e.Box = &b
		}
		t.Selectors = append(t.Selectors, e)
	}
	return t
}

// Encode writes t as YAML.
func Encode(w io.Writer, t *Template) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("failed to encode template: %w", err)
	}
	return enc.Close()
}

// Decode reads a template. A legacy regions/order document is converted to
// box selectors on page 0 in its saved order.
func Decode(r io.Reader) (*Template, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return &Template{Version: CurrentVersion}, nil
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	if len(doc.Selectors) > 0 || len(doc.Regions) == 0 {
		if doc.Version == 0 {
			doc.Version = CurrentVersion
		}
		return &doc.Template, nil
	}
	return fromLegacy(doc), nil
}

func fromLegacy(doc document) *Template {
	t := &Template{Version: CurrentVersion}
	order := doc.Order
	if len(order) == 0 {
		// no saved order, use sorted labels
		for name := range doc.Regions {
			order = append(order, name)
		}
		sort.Strings(order)
	}
	for _, name := range order {
		region, ok := doc.Regions[name]
		if !ok {
			continue
		}
		e := Entry{Name: name, Mode: selector.BoxRegion}
		if len(region.Coords) == 4 {
			b := layout.NewBox(region.Coords[0], region.Coords[1], region.Coords[2], region.Coords[3])
			e.Box = &b
		}
		t.Selectors = append(t.Selectors, e)
	}
	return t
}

// LoadResult reports how much of a template was applied.
type LoadResult struct {
	Loaded  int
	Skipped []error
}

// Apply clears order and recreates every entry of t in sequence. Entries
// that fail validation are skipped and reported; the rest still load.
func Apply(order *selector.ExportOrder, t *Template) LoadResult {
	order.Clear()
	var res LoadResult
	for i, e := range t.Selectors {
		geom, err := e.geometry()
		if err == nil {
			_, err = order.Create(e.Name, e.Mode, geom, e.Page)
		}
		if err != nil {
			res.Skipped = append(res.Skipped, fmt.Errorf("entry %d (%q): %w", i, e.Name, err))
			continue
		}
		res.Loaded++
	}
	return res
}

func (e Entry) geometry() (selector.Geometry, error) {
	switch e.Mode {
	case selector.WordPick:
		if e.Point == nil {
			return selector.Geometry{}, &selector.InvalidGeometryError{Reason: "word selector has no point"}
		}
		return selector.PointGeometry(*e.Point), nil
	case selector.BoxRegion:
		if e.Box == nil {
			return selector.Geometry{}, &selector.InvalidGeometryError{Reason: "region selector has no box"}
		}
		return selector.BoxGeometry(*e.Box), nil
	default:
		return selector.Geometry{}, &selector.InvalidGeometryError{Reason: "unknown mode " + e.Mode.String()}
	}
}

// SaveFile writes the selectors to path.
func SaveFile(path string, sels []selector.Selector) error {
	var buf bytes.Buffer
	if err := Encode(&buf, FromSelectors(sels)); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write template: %w", err)
	}
	return nil
}

// LoadFile reads a template from path.
func LoadFile(path string) (*Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open template: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
