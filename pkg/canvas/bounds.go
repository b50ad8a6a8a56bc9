package canvas

import (
	"math"

	"github.com/easelkit/easel/pkg/geom"
	"github.com/easelkit/easel/pkg/item"
	"github.com/easelkit/easel/pkg/quadtree"
)

// BoundsIndex is a view keeping canvas-space item bounds in a quadtree, so
// spatial queries (hit testing, viewport culling) stay cheap as the scene
// grows. Register it on a canvas and it maintains itself from cycle
// notifications.
type BoundsIndex struct {
	canvas *Canvas
	tree   *quadtree.Quadtree[item.Item]
}

// NewBoundsIndex returns an index over the given world rectangle and
// registers it with the canvas.
func NewBoundsIndex(c *Canvas, world geom.Rect) *BoundsIndex {
	b := &BoundsIndex{canvas: c, tree: quadtree.New[item.Item](world)}
	c.RegisterView(b)
	return b
}

// Close unregisters the index from its canvas.
func (b *BoundsIndex) Close() { b.canvas.UnregisterView(b) }

// Notify implements View: reindexes items whose geometry or transform
// changed and drops removed ones.
func (b *BoundsIndex) Notify(dirty, matrixChanged, removed []item.Item) {
	for _, it := range removed {
		b.tree.Remove(it)
	}
	seen := make(map[item.Item]struct{}, len(dirty)+len(matrixChanged))
	for _, list := range [][]item.Item{dirty, matrixChanged} {
		for _, it := range list {
			if _, ok := seen[it]; ok {
				continue
			}
			seen[it] = struct{}{}
			if bounds, ok := b.itemBounds(it); ok {
				b.tree.Add(it, bounds)
			}
		}
	}
}

// Bounds returns the last indexed canvas-space bounds of it.
func (b *BoundsIndex) Bounds(it item.Item) (geom.Rect, bool) {
	return b.tree.Bounds(it)
}

// FindInside returns the indexed items entirely inside rect, in canvas
// coordinates.
func (b *BoundsIndex) FindInside(rect geom.Rect) []item.Item {
	return b.tree.FindInside(rect)
}

// FindIntersecting returns the indexed items intersecting rect.
func (b *BoundsIndex) FindIntersecting(rect geom.Rect) []item.Item {
	return b.tree.FindIntersecting(rect)
}

// itemBounds computes the canvas-space bounding rectangle of an item's
// handles. Items without handles are not indexed.
func (b *BoundsIndex) itemBounds(it item.Item) (geom.Rect, bool) {
	handles := it.Handles()
	if len(handles) == 0 {
		return geom.Rect{}, false
	}
	i2c, err := b.canvas.MatrixI2C(it)
	if err != nil {
		return geom.Rect{}, false
	}
	x, y := i2c.TransformPoint(handles[0].X.Value(), handles[0].Y.Value())
	minP := geom.Point{X: x, Y: y}
	maxP := minP
	for _, h := range handles[1:] {
		x, y = i2c.TransformPoint(h.X.Value(), h.Y.Value())
		minP.X = math.Min(minP.X, x)
		minP.Y = math.Min(minP.Y, y)
		maxP.X = math.Max(maxP.X, x)
		maxP.Y = math.Max(maxP.Y, y)
	}
	return geom.RectFromPoints(minP, maxP), true
}
