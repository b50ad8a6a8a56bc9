// Package scene loads canvas descriptions from TOML manifests and builds
// live, solvable canvases from them.
//
// A manifest lists elements, lines, extra constraints and connections:
//
//	[[elements]]
//	name = "box"
//	position = [100.0, 0.0]
//	width = 30.0
//	height = 20.0
//
//	[[lines]]
//	name = "wire"
//	points = [[105.0, 0.0], [105.0, 40.0]]
//
//	[[connections]]
//	line = "wire"
//	handle = 0
//	item = "box"
//	port = 0
//
// Variables are referenced as "item.handle.axis", e.g. "box.ne.x" or
// "wire.1.y". Element handles go by corner name (nw, ne, se, sw), line
// handles by index.
package scene

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/easelkit/easel/pkg/errors"
	"github.com/easelkit/easel/pkg/item"
	"github.com/easelkit/easel/pkg/solver"
)

// Scene is a decoded manifest. It is plain data; Build turns it into a
// canvas.
type Scene struct {
	Name        string       `toml:"name"`
	Elements    []Element    `toml:"elements"`
	Lines       []Line       `toml:"lines"`
	Constraints []Constraint `toml:"constraints"`
	Connections []Connection `toml:"connections"`
}

// Element describes a rectangular item.
type Element struct {
	Name      string    `toml:"name"`
	Position  []float64 `toml:"position"`
	Width     float64   `toml:"width"`
	Height    float64   `toml:"height"`
	MinWidth  *float64  `toml:"min_width"`
	MinHeight *float64  `toml:"min_height"`
	Parent    string    `toml:"parent"`
}

// Line describes a polyline item.
type Line struct {
	Name       string      `toml:"name"`
	Points     [][]float64 `toml:"points"`
	Orthogonal bool        `toml:"orthogonal"`
	Horizontal bool        `toml:"horizontal"`
	Parent     string      `toml:"parent"`
}

// Constraint describes an extra constraint between item variables. Kind is
// one of "equals", "less_than" or "balance". less_than reads Delta;
// balance reads V for the balanced variable, with A and B as the band.
type Constraint struct {
	Kind  string  `toml:"kind"`
	A     string  `toml:"a"`
	B     string  `toml:"b"`
	V     string  `toml:"v"`
	Delta float64 `toml:"delta"`
}

// Connection glues a line handle to an item port.
type Connection struct {
	Line   string `toml:"line"`
	Handle int    `toml:"handle"`
	Item   string `toml:"item"`
	Port   int    `toml:"port"`
}

// Parse decodes a TOML manifest and validates it.
func Parse(data []byte) (*Scene, error) {
	var s Scene
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode scene")
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads and decodes a TOML manifest file.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func (s *Scene) validate() error {
	names := make(map[string]bool, len(s.Elements)+len(s.Lines))
	for _, e := range s.Elements {
		if e.Name == "" {
			return errors.New(errors.ErrCodeInvalidScene, "element without a name")
		}
		if names[e.Name] {
			return errors.New(errors.ErrCodeInvalidScene, "duplicate item name %q", e.Name)
		}
		names[e.Name] = true
		if len(e.Position) != 0 && len(e.Position) != 2 {
			return errors.New(errors.ErrCodeInvalidScene, "element %q: position needs [x, y]", e.Name)
		}
		if e.Width < 0 || e.Height < 0 {
			return errors.New(errors.ErrCodeInvalidScene, "element %q: negative size", e.Name)
		}
	}
	for _, l := range s.Lines {
		if l.Name == "" {
			return errors.New(errors.ErrCodeInvalidScene, "line without a name")
		}
		if names[l.Name] {
			return errors.New(errors.ErrCodeInvalidScene, "duplicate item name %q", l.Name)
		}
		names[l.Name] = true
		if len(l.Points) < 2 {
			return errors.New(errors.ErrCodeInvalidScene, "line %q needs at least 2 points", l.Name)
		}
		for i, p := range l.Points {
			if len(p) != 2 {
				return errors.New(errors.ErrCodeInvalidScene, "line %q: point %d needs [x, y]", l.Name, i)
			}
		}
	}
	for _, e := range s.Elements {
		if e.Parent != "" && !names[e.Parent] {
			return errors.New(errors.ErrCodeInvalidScene, "element %q: unknown parent %q", e.Name, e.Parent)
		}
	}
	for _, l := range s.Lines {
		if l.Parent != "" && !names[l.Parent] {
			return errors.New(errors.ErrCodeInvalidScene, "line %q: unknown parent %q", l.Name, l.Parent)
		}
	}
	for i, c := range s.Constraints {
		switch c.Kind {
		case "equals", "less_than":
			if c.A == "" || c.B == "" {
				return errors.New(errors.ErrCodeInvalidScene, "constraint %d: %s needs a and b", i, c.Kind)
			}
		case "balance":
			if c.A == "" || c.B == "" || c.V == "" {
				return errors.New(errors.ErrCodeInvalidScene, "constraint %d: balance needs a, b and v", i)
			}
		default:
			return errors.New(errors.ErrCodeInvalidScene, "constraint %d: unknown kind %q", i, c.Kind)
		}
	}
	for i, c := range s.Connections {
		if !names[c.Line] {
			return errors.New(errors.ErrCodeInvalidScene, "connection %d: unknown line %q", i, c.Line)
		}
		if !names[c.Item] {
			return errors.New(errors.ErrCodeInvalidScene, "connection %d: unknown item %q", i, c.Item)
		}
	}
	return nil
}

var cornerHandles = map[string]int{
	"nw": item.NW,
	"ne": item.NE,
	"se": item.SE,
	"sw": item.SW,
}

// resolveVar turns an "item.handle.axis" reference into the backing solver
// variable.
func resolveVar(ref string, items map[string]item.Item) (*solver.Variable, error) {
	parts := strings.Split(ref, ".")
	if len(parts) != 3 {
		return nil, errors.New(errors.ErrCodeInvalidScene, "variable %q: want item.handle.axis", ref)
	}
	it, ok := items[parts[0]]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidScene, "variable %q: unknown item %q", ref, parts[0])
	}

	handles := it.Handles()
	idx, ok := cornerHandles[parts[1]]
	if !ok {
		n, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, errors.New(errors.ErrCodeInvalidScene, "variable %q: bad handle %q", ref, parts[1])
		}
		idx = n
	}
	if idx < 0 || idx >= len(handles) {
		return nil, errors.New(errors.ErrCodeInvalidScene, "variable %q: handle %d out of range", ref, idx)
	}

	switch parts[2] {
	case "x":
		return handles[idx].X, nil
	case "y":
		return handles[idx].Y, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidScene, "variable %q: axis must be x or y", ref)
}
