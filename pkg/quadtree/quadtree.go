// Package quadtree provides a bucket quadtree: a spatial index over
// axis-aligned bounding rectangles. Each bucket holds up to a fixed number
// of entries; past that it subdivides into four quadrants. Entries that
// straddle a quadrant boundary stay with the enclosing bucket.
package quadtree

import "github.com/easelkit/easel/pkg/geom"

// bucketCapacity is the number of entries a bucket holds before it
// subdivides.
const bucketCapacity = 10

// Quadtree indexes items of type T by their bounding rectangle. Adding an
// item that is already present moves it to the bucket matching its new
// bounds.
type Quadtree[T comparable] struct {
	root *bucket[T]
	ids  map[T]*entry[T]
}

type entry[T comparable] struct {
	item   T
	bounds geom.Rect
	bucket *bucket[T]
}

// New returns a quadtree covering the given bounds. Items outside the
// bounds are kept at the root bucket, so the tree stays correct (if slower)
// when the world outgrows it.
func New[T comparable](bounds geom.Rect) *Quadtree[T] {
	return &Quadtree[T]{
		root: &bucket[T]{bounds: bounds},
		ids:  make(map[T]*entry[T]),
	}
}

// Len returns the number of indexed items.
func (q *Quadtree[T]) Len() int { return len(q.ids) }

// Bounds returns the item's current bounding rectangle.
func (q *Quadtree[T]) Bounds(item T) (geom.Rect, bool) {
	e, ok := q.ids[item]
	if !ok {
		return geom.Rect{}, false
	}
	return e.bounds, true
}

// Add indexes an item with the given bounds, or updates its bounds if it is
// already indexed.
func (q *Quadtree[T]) Add(item T, bounds geom.Rect) {
	if e, ok := q.ids[item]; ok {
		if e.bucket.bounds.ContainsRect(bounds) {
			e.bounds = bounds
			return
		}
		e.bucket.remove(e)
	} else {
		q.ids[item] = &entry[T]{item: item}
	}
	e := q.ids[item]
	e.bounds = bounds
	q.root.add(e)
}

// Remove drops an item from the index. Removing an unknown item is a no-op
// and reports false.
func (q *Quadtree[T]) Remove(item T) bool {
	e, ok := q.ids[item]
	if !ok {
		return false
	}
	e.bucket.remove(e)
	delete(q.ids, item)
	return true
}

// FindInside returns the items whose bounds lie entirely inside rect.
func (q *Quadtree[T]) FindInside(rect geom.Rect) []T {
	var out []T
	q.root.find(rect, func(b geom.Rect) bool { return rect.ContainsRect(b) }, &out)
	return out
}

// FindIntersecting returns the items whose bounds intersect rect.
func (q *Quadtree[T]) FindIntersecting(rect geom.Rect) []T {
	var out []T
	q.root.find(rect, rect.Intersects, &out)
	return out
}

// Rebuild reindexes every item from scratch. Useful after many bounds
// updates left entries in oversized enclosing buckets.
func (q *Quadtree[T]) Rebuild() {
	q.root.entries = nil
	q.root.children = nil
	for _, e := range q.ids {
		q.root.add(e)
	}
}

type bucket[T comparable] struct {
	bounds   geom.Rect
	entries  []*entry[T]
	children []*bucket[T]
}

func (b *bucket[T]) subdivided() bool { return b.children != nil }

func (b *bucket[T]) add(e *entry[T]) {
	if !b.subdivided() && len(b.entries) >= bucketCapacity {
		b.subdivide()
	}
	if b.subdivided() {
		for _, child := range b.children {
			if child.bounds.ContainsRect(e.bounds) {
				child.add(e)
				return
			}
		}
	}
	e.bucket = b
	b.entries = append(b.entries, e)
}

func (b *bucket[T]) subdivide() {
	hw, hh := b.bounds.Width/2, b.bounds.Height/2
	x, y := b.bounds.X, b.bounds.Y
	b.children = []*bucket[T]{
		{bounds: geom.Rect{X: x, Y: y, Width: hw, Height: hh}},
		{bounds: geom.Rect{X: x + hw, Y: y, Width: hw, Height: hh}},
		{bounds: geom.Rect{X: x, Y: y + hh, Width: hw, Height: hh}},
		{bounds: geom.Rect{X: x + hw, Y: y + hh, Width: hw, Height: hh}},
	}
	entries := b.entries
	b.entries = nil
	for _, e := range entries {
		b.add(e)
	}
}

func (b *bucket[T]) remove(e *entry[T]) {
	for i, x := range b.entries {
		if x == e {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			return
		}
	}
}

func (b *bucket[T]) find(rect geom.Rect, match func(geom.Rect) bool, out *[]T) {
	// Entries straddling quadrant boundaries (or outside the root bounds)
	// live in enclosing buckets, so local entries are always checked; only
	// the recursion is pruned.
	for _, e := range b.entries {
		if match(e.bounds) {
			*out = append(*out, e.item)
		}
	}
	for _, child := range b.children {
		if rect.Intersects(child.bounds) {
			child.find(rect, match, out)
		}
	}
}
