package canvas

import (
	"github.com/easelkit/easel/pkg/errors"
	"github.com/easelkit/easel/pkg/item"
)

// Tree keeps the item hierarchy as a flat node list in depth-first order
// plus parent/children maps. The depth-first order gives the canvas its
// deterministic top-down (parents first) and bottom-up (leaves first)
// traversals.
type Tree struct {
	nodes    []item.Item
	parents  map[item.Item]item.Item
	children map[item.Item][]item.Item

	// Order lookup, rebuilt lazily after topology changes.
	index      map[item.Item]int
	indexDirty bool
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{
		parents:  make(map[item.Item]item.Item),
		children: make(map[item.Item][]item.Item),
		index:    make(map[item.Item]int),
	}
}

// Nodes returns all items in depth-first order. The slice is shared; do not
// modify it.
func (t *Tree) Nodes() []item.Item { return t.nodes }

// Len returns the number of items in the tree.
func (t *Tree) Len() int { return len(t.nodes) }

// Contains reports whether it is in the tree.
func (t *Tree) Contains(it item.Item) bool {
	_, ok := t.parents[it]
	return ok
}

// Add inserts it under parent (nil for a root), placed after parent's
// existing subtree so depth-first order is preserved.
func (t *Tree) Add(it item.Item, parent item.Item) error {
	if t.Contains(it) {
		return errors.New(errors.ErrCodeInvalidInput, "item %s already in tree", it.ID())
	}
	if parent != nil && !t.Contains(parent) {
		return errors.New(errors.ErrCodeItemNotFound, "parent %s not in tree", parent.ID())
	}

	pos := len(t.nodes)
	if parent != nil {
		pos = t.subtreeEnd(parent)
	}
	t.nodes = append(t.nodes, nil)
	copy(t.nodes[pos+1:], t.nodes[pos:])
	t.nodes[pos] = it

	t.parents[it] = parent
	if parent != nil {
		t.children[parent] = append(t.children[parent], it)
	}
	t.indexDirty = true
	return nil
}

// Remove removes it and its whole subtree.
func (t *Tree) Remove(it item.Item) error {
	if !t.Contains(it) {
		return errors.New(errors.ErrCodeItemNotFound, "item %s not in tree", it.ID())
	}
	for _, child := range append([]item.Item(nil), t.children[it]...) {
		t.Remove(child)
	}

	parent := t.parents[it]
	if parent != nil {
		siblings := t.children[parent]
		for i, s := range siblings {
			if s == it {
				t.children[parent] = append(siblings[:i], siblings[i+1:]...)
				break
			}
		}
	}
	delete(t.parents, it)
	delete(t.children, it)
	for i, n := range t.nodes {
		if n == it {
			t.nodes = append(t.nodes[:i], t.nodes[i+1:]...)
			break
		}
	}
	t.indexDirty = true
	return nil
}

// Reparent moves it (with its subtree) under a new parent. Moving an item
// under one of its own descendants is rejected.
func (t *Tree) Reparent(it item.Item, parent item.Item) error {
	if !t.Contains(it) {
		return errors.New(errors.ErrCodeItemNotFound, "item %s not in tree", it.ID())
	}
	if parent != nil {
		if !t.Contains(parent) {
			return errors.New(errors.ErrCodeItemNotFound, "parent %s not in tree", parent.ID())
		}
		for _, a := range t.Ancestors(parent) {
			if a == it {
				return errors.New(errors.ErrCodeInvalidInput, "cannot reparent %s under its own descendant", it.ID())
			}
		}
		if parent == it {
			return errors.New(errors.ErrCodeInvalidInput, "cannot reparent %s under itself", it.ID())
		}
	}

	// Lift the subtree out of the node list, then splice it back in at the
	// new parent's subtree end.
	start := t.order(it)
	end := t.subtreeEnd(it)
	subtree := append([]item.Item(nil), t.nodes[start:end]...)
	t.nodes = append(t.nodes[:start], t.nodes[end:]...)
	t.indexDirty = true

	old := t.parents[it]
	if old != nil {
		siblings := t.children[old]
		for i, s := range siblings {
			if s == it {
				t.children[old] = append(siblings[:i], siblings[i+1:]...)
				break
			}
		}
	}

	pos := len(t.nodes)
	if parent != nil {
		pos = t.subtreeEnd(parent)
	}
	t.nodes = append(t.nodes, make([]item.Item, len(subtree))...)
	copy(t.nodes[pos+len(subtree):], t.nodes[pos:])
	copy(t.nodes[pos:], subtree)

	t.parents[it] = parent
	if parent != nil {
		t.children[parent] = append(t.children[parent], it)
	}
	t.indexDirty = true
	return nil
}

// Parent returns the parent of it, or nil for roots.
func (t *Tree) Parent(it item.Item) item.Item { return t.parents[it] }

// Ancestors returns the chain of ancestors from parent up to the root.
func (t *Tree) Ancestors(it item.Item) []item.Item {
	var out []item.Item
	for p := t.parents[it]; p != nil; p = t.parents[p] {
		out = append(out, p)
	}
	return out
}

// Children returns the direct children of it, in insertion order. Pass nil
// for the root items.
func (t *Tree) Children(it item.Item) []item.Item {
	if it == nil {
		var roots []item.Item
		for _, n := range t.nodes {
			if t.parents[n] == nil {
				roots = append(roots, n)
			}
		}
		return roots
	}
	return t.children[it]
}

// AllChildren returns every descendant of it in depth-first order.
func (t *Tree) AllChildren(it item.Item) []item.Item {
	var out []item.Item
	var walk func(item.Item)
	walk = func(n item.Item) {
		for _, child := range t.children[n] {
			out = append(out, child)
			walk(child)
		}
	}
	walk(it)
	return out
}

// order returns the depth-first position of it, rebuilding the lazy index
// if topology changed.
func (t *Tree) order(it item.Item) int {
	if t.indexDirty {
		clear(t.index)
		for i, n := range t.nodes {
			t.index[n] = i
		}
		t.indexDirty = false
	}
	return t.index[it]
}

// subtreeEnd returns the node-list position just past it's subtree.
func (t *Tree) subtreeEnd(it item.Item) int {
	end := t.order(it) + 1
	for end < len(t.nodes) {
		p := t.parents[t.nodes[end]]
		inside := false
		for ; p != nil; p = t.parents[p] {
			if p == it {
				inside = true
				break
			}
		}
		if !inside {
			break
		}
		end++
	}
	return end
}

// sortTreeOrder returns the members of set sorted by depth-first position.
// With reverse set, leaves come first.
func (t *Tree) sortTreeOrder(set map[item.Item]struct{}, reverse bool) []item.Item {
	out := make([]item.Item, 0, len(set))
	if reverse {
		for i := len(t.nodes) - 1; i >= 0; i-- {
			if _, ok := set[t.nodes[i]]; ok {
				out = append(out, t.nodes[i])
			}
		}
		return out
	}
	for _, n := range t.nodes {
		if _, ok := set[n]; ok {
			out = append(out, n)
		}
	}
	return out
}
