package scene

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/easelkit/easel/pkg/item"
)

type sceneJSON struct {
	Name  string     `json:"name,omitempty"`
	Items []itemJSON `json:"items"`
}

type itemJSON struct {
	ID      string       `json:"id"`
	Name    string       `json:"name,omitempty"`
	Kind    string       `json:"kind"`
	Parent  string       `json:"parent,omitempty"`
	Matrix  [6]float64   `json:"matrix"`
	Handles [][2]float64 `json:"handles"`
	Width   *float64     `json:"width,omitempty"`
	Height  *float64     `json:"height,omitempty"`
}

// WriteJSON encodes the solved scene as JSON and writes it to w. Handle
// coordinates are in canvas space, so consumers get final positions without
// re-applying matrices.
func (b *Built) WriteJSON(name string, w io.Writer) error {
	items := b.Canvas.Items()
	out := sceneJSON{Name: name, Items: make([]itemJSON, 0, len(items))}

	for _, it := range items {
		i2c, err := b.Canvas.MatrixI2C(it)
		if err != nil {
			return fmt.Errorf("matrix for %s: %w", it.ID(), err)
		}
		ij := itemJSON{
			ID:     it.ID().String(),
			Name:   b.names[it],
			Kind:   kindOf(it),
			Matrix: [6]float64(it.Matrix()),
		}
		if parent := b.Canvas.Parent(it); parent != nil {
			ij.Parent = parent.ID().String()
		}
		for _, h := range it.Handles() {
			x, y := i2c.TransformPoint(h.X.Value(), h.Y.Value())
			ij.Handles = append(ij.Handles, [2]float64{x, y})
		}
		if el, ok := it.(*item.Element); ok {
			w, h := el.Width(), el.Height()
			ij.Width, ij.Height = &w, &h
		}
		out.Items = append(out.Items, ij)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes the solved scene to a JSON file at path.
func (b *Built) ExportJSON(name, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return b.WriteJSON(name, f)
}

func kindOf(it item.Item) string {
	switch it.(type) {
	case *item.Element:
		return "element"
	case *item.Line:
		return "line"
	}
	return "item"
}
