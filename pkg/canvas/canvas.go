// Package canvas ties the pieces together: it owns the item tree, the
// constraint solver, and the per-item composed transforms, and drives the
// update cycle that keeps all three consistent after any mutation.
//
// The canvas is single-threaded by design. Mutations mark items dirty;
// [Canvas.UpdateNow] runs one full cycle to a fixed point. Callers exposing
// a canvas across goroutines must serialize access themselves (see the
// internal API server for an example).
package canvas

import (
	"context"
	stderrors "errors"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/easelkit/easel/pkg/errors"
	"github.com/easelkit/easel/pkg/geom"
	"github.com/easelkit/easel/pkg/item"
	"github.com/easelkit/easel/pkg/observability"
	"github.com/easelkit/easel/pkg/solver"
)

// maxUpdatePasses bounds how often the update cycle may loop when solving
// keeps dirtying more items. Hitting the cap aborts the cycle with a
// diagnostic instead of spinning.
const maxUpdatePasses = 16

// View observes the canvas. Notify fires once per completed update cycle
// with the items that were updated, the items whose composed transform
// changed, and the items removed since the previous cycle.
type View interface {
	Notify(dirty, matrixChanged, removed []item.Item)
}

// matrixCache holds an item's composed item-to-canvas transform and its
// inverse. Reads go through MatrixI2C/MatrixC2I, which recompute stale
// entries on demand.
type matrixCache struct {
	i2c, c2i geom.Matrix
	valid    bool
}

// Canvas is the container for items and their constraints.
type Canvas struct {
	tree   *Tree
	solver *solver.Solver

	dirtyItems  map[item.Item]struct{}
	dirtyMatrix map[item.Item]struct{}
	removed     map[item.Item]struct{}

	matrices map[item.Item]*matrixCache

	// Inter-item constraints, grouped by the item and handle that hold
	// them. Item-internal constraints live on the items themselves.
	constraints map[item.Item]map[*item.Handle][]solver.Constraint

	views map[View]struct{}

	updating bool
	logger   *log.Logger
}

// New returns an empty canvas. Diagnostics are discarded until SetLogger is
// called.
func New() *Canvas {
	return &Canvas{
		tree:        NewTree(),
		solver:      solver.New(),
		dirtyItems:  make(map[item.Item]struct{}),
		dirtyMatrix: make(map[item.Item]struct{}),
		removed:     make(map[item.Item]struct{}),
		matrices:    make(map[item.Item]*matrixCache),
		constraints: make(map[item.Item]map[*item.Handle][]solver.Constraint),
		views:       make(map[View]struct{}),
		logger:      log.NewWithOptions(io.Discard, log.Options{}),
	}
}

// SetLogger routes canvas and solver diagnostics to the given logger. A nil
// logger restores the discard default.
func (c *Canvas) SetLogger(l *log.Logger) {
	if l == nil {
		l = log.NewWithOptions(io.Discard, log.Options{})
	}
	c.logger = l
	c.solver.SetLogger(l)
}

// Solver returns the constraint solver shared by all items on the canvas.
func (c *Canvas) Solver() *solver.Solver { return c.solver }

// Items returns all items in depth-first order.
func (c *Canvas) Items() []item.Item { return c.tree.Nodes() }

// RootItems returns the items without a parent.
func (c *Canvas) RootItems() []item.Item { return c.tree.Children(nil) }

// Parent returns the parent of it, or nil.
func (c *Canvas) Parent(it item.Item) item.Item { return c.tree.Parent(it) }

// Ancestors returns it's ancestors, nearest first.
func (c *Canvas) Ancestors(it item.Item) []item.Item { return c.tree.Ancestors(it) }

// Children returns the direct children of it.
func (c *Canvas) Children(it item.Item) []item.Item { return c.tree.Children(it) }

// AllChildren returns every descendant of it in depth-first order.
func (c *Canvas) AllChildren(it item.Item) []item.Item { return c.tree.AllChildren(it) }

// Contains reports whether it is on the canvas.
func (c *Canvas) Contains(it item.Item) bool { return c.tree.Contains(it) }

// Add puts an item on the canvas under the given parent (nil for root) and
// schedules its first update.
func (c *Canvas) Add(it item.Item, parent item.Item) error {
	if err := c.tree.Add(it, parent); err != nil {
		return err
	}
	c.matrices[it] = &matrixCache{}
	c.constraints[it] = make(map[*item.Handle][]solver.Constraint)
	it.BindOwner(c)
	c.RequestUpdate(it)
	return nil
}

// Remove takes an item and its whole subtree off the canvas. Handles of
// other items glued to any removed item are disconnected, and all
// constraints involving the removed items are dropped from the solver.
func (c *Canvas) Remove(it item.Item) error {
	if !c.tree.Contains(it) {
		return errors.New(errors.ErrCodeItemNotFound, "item %s not on canvas", it.ID())
	}

	subtree := append(c.tree.AllChildren(it), it)
	for _, n := range subtree {
		for _, conn := range c.ConnectedItems(n) {
			conn.Handle.Disconnect()
		}
		for h := range c.constraints[n] {
			c.removeHandleConstraints(n, h)
		}
		n.BindOwner(nil)
		delete(c.constraints, n)
		delete(c.matrices, n)
		delete(c.dirtyItems, n)
		delete(c.dirtyMatrix, n)
		c.removed[n] = struct{}{}
	}
	return c.tree.Remove(it)
}

// Reparent moves an item under a new parent, keeping its local transform.
// Its composed transform changes, so an update is scheduled.
func (c *Canvas) Reparent(it item.Item, parent item.Item) error {
	if err := c.tree.Reparent(it, parent); err != nil {
		return err
	}
	c.RequestUpdate(it)
	return nil
}

// Connection is a handle of one item glued to another item.
type Connection struct {
	Item   item.Item
	Handle *item.Handle
}

// ConnectedItems returns every (item, handle) pair whose handle is glued to
// it. An item connected with several handles appears once per handle.
func (c *Canvas) ConnectedItems(it item.Item) []Connection {
	var out []Connection
	for _, n := range c.tree.Nodes() {
		for _, h := range n.Handles() {
			if h.ConnectedTo() == it {
				out = append(out, Connection{Item: n, Handle: h})
			}
		}
	}
	return out
}

// AddConstraint registers an inter-item constraint held by the given item
// and handle. The item must be on the canvas.
func (c *Canvas) AddConstraint(it item.Item, h *item.Handle, cons solver.Constraint) error {
	hcons, ok := c.constraints[it]
	if !ok {
		return errors.New(errors.ErrCodeItemNotFound, "item %s not on canvas", it.ID())
	}
	if err := c.solver.AddConstraint(cons); err != nil {
		return err
	}
	hcons[h] = append(hcons[h], cons)
	return nil
}

// RemoveConstraint drops a specific inter-item constraint.
func (c *Canvas) RemoveConstraint(it item.Item, h *item.Handle, cons solver.Constraint) error {
	hcons, ok := c.constraints[it]
	if !ok {
		return errors.New(errors.ErrCodeItemNotFound, "item %s not on canvas", it.ID())
	}
	if err := c.solver.RemoveConstraint(cons); err != nil {
		return err
	}
	list := hcons[h]
	for i, x := range list {
		if x == cons {
			hcons[h] = append(list[:i], list[i+1:]...)
			break
		}
	}
	return nil
}

// RemoveHandleConstraints drops every inter-item constraint held by the
// given item and handle.
func (c *Canvas) RemoveHandleConstraints(it item.Item, h *item.Handle) error {
	if _, ok := c.constraints[it]; !ok {
		return errors.New(errors.ErrCodeItemNotFound, "item %s not on canvas", it.ID())
	}
	c.removeHandleConstraints(it, h)
	return nil
}

func (c *Canvas) removeHandleConstraints(it item.Item, h *item.Handle) {
	for _, cons := range c.constraints[it][h] {
		c.solver.RemoveConstraint(cons)
	}
	delete(c.constraints[it], h)
}

// Constraints returns the inter-item constraints held by it.
func (c *Canvas) Constraints(it item.Item) []solver.Constraint {
	var out []solver.Constraint
	for _, list := range c.constraints[it] {
		out = append(out, list...)
	}
	return out
}

// Connect glues handle h of it to the given port on glueItem: the port
// builds the connection constraint through canvas projections, the
// constraint is registered, and the handle records the connection with a
// disconnect callback that undoes it.
func (c *Canvas) Connect(it item.Item, h *item.Handle, glueItem item.Item, port item.Port) (solver.Constraint, error) {
	if !c.tree.Contains(it) {
		return nil, errors.New(errors.ErrCodeItemNotFound, "item %s not on canvas", it.ID())
	}
	if !c.tree.Contains(glueItem) {
		return nil, errors.New(errors.ErrCodeItemNotFound, "item %s not on canvas", glueItem.ID())
	}
	if !port.Connectable() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "port does not accept connections")
	}

	h.Disconnect()
	cons := port.Constraint(c, it, h, glueItem)
	if err := c.AddConstraint(it, h, cons); err != nil {
		return nil, err
	}
	h.SetConnection(glueItem, func() {
		c.RemoveConstraint(it, h, cons)
	})
	c.RequestUpdate(it)
	return cons, nil
}

// MatrixI2C returns the composed item-to-canvas transform, recomputing a
// stale cache entry on demand.
func (c *Canvas) MatrixI2C(it item.Item) (geom.Matrix, error) {
	cache, ok := c.matrices[it]
	if !ok {
		return geom.Identity(), errors.New(errors.ErrCodeItemNotFound, "item %s not on canvas", it.ID())
	}
	if !cache.valid {
		if err := c.calculateMatrix(it); err != nil {
			return geom.Identity(), err
		}
	}
	return cache.i2c, nil
}

// MatrixC2I returns the canvas-to-item transform, the inverse of MatrixI2C.
func (c *Canvas) MatrixC2I(it item.Item) (geom.Matrix, error) {
	cache, ok := c.matrices[it]
	if !ok {
		return geom.Identity(), errors.New(errors.ErrCodeItemNotFound, "item %s not on canvas", it.ID())
	}
	if !cache.valid {
		if err := c.calculateMatrix(it); err != nil {
			return geom.Identity(), err
		}
	}
	return cache.c2i, nil
}

// calculateMatrix fills the cache for it outside the update cycle. Unlike
// the cycle path it does not touch the solver or recurse into children.
func (c *Canvas) calculateMatrix(it item.Item) error {
	i2c := it.Matrix()
	if parent := c.tree.Parent(it); parent != nil {
		pi2c, err := c.MatrixI2C(parent)
		if err != nil {
			return err
		}
		i2c = i2c.Multiply(pi2c)
	}
	cache := c.matrices[it]
	cache.i2c = i2c
	cache.c2i = c.invert(it, i2c)
	cache.valid = true
	return nil
}

func (c *Canvas) invert(it item.Item, m geom.Matrix) geom.Matrix {
	inv, ok := m.Invert()
	if !ok {
		c.logger.Warn("degenerate item transform, using identity inverse", "item", it.ID())
		return geom.Identity()
	}
	return inv
}

// RequestUpdate schedules a full update (callbacks, matrix, solve) for it.
// Requests coalesce: any number of them before UpdateNow collapse into one
// cycle. During a running cycle the request is folded into that cycle.
func (c *Canvas) RequestUpdate(it item.Item) {
	if !c.tree.Contains(it) {
		return
	}
	c.dirtyItems[it] = struct{}{}
	c.dirtyMatrix[it] = struct{}{}
}

// RequestMatrixUpdate schedules only a transform recomputation for it.
func (c *Canvas) RequestMatrixUpdate(it item.Item) {
	if !c.tree.Contains(it) {
		return
	}
	c.dirtyMatrix[it] = struct{}{}
}

// NeedsUpdate reports whether any item or constraint awaits an update
// cycle.
func (c *Canvas) NeedsUpdate() bool {
	return len(c.dirtyItems) > 0 || len(c.dirtyMatrix) > 0 || c.solver.NeedsSolve()
}

// RegisterView subscribes a view to cycle notifications.
func (c *Canvas) RegisterView(v View) { c.views[v] = struct{}{} }

// UnregisterView removes a view subscription.
func (c *Canvas) UnregisterView(v View) { delete(c.views, v) }

// UpdateNow runs one update cycle to its fixed point:
//
//  1. dirty flags are propagated to ancestors and the batch is ordered
//     leaves-first,
//  2. pre-update callbacks run (failures logged per item),
//  3. composed transforms are recomputed parents-first, marking
//     projection-reached constraints of moved items,
//  4. the solver runs to a fixed point,
//  5. if solving dirtied more items, the pass repeats (bounded),
//  6. items are normalized so their first handle sits at local (0, 0),
//  7. post-update callbacks run and views are notified.
//
// Calling UpdateNow from within a running cycle is a no-op; the triggering
// mutation is picked up by the running cycle's bookkeeping.
func (c *Canvas) UpdateNow(ctx context.Context) error {
	if c.updating {
		return nil
	}
	c.updating = true
	defer func() { c.updating = false }()

	started := time.Now()
	observability.Canvas().OnUpdateStart(len(c.dirtyItems), len(c.dirtyMatrix))

	processed := make(map[item.Item]struct{})
	matrixChanged := make(map[item.Item]struct{})
	preDone := make(map[item.Item]struct{})
	var err error

	passes := 0
	for c.NeedsUpdate() {
		passes++
		if passes > maxUpdatePasses {
			err = errors.New(errors.ErrCodeUpdateCycleLimit,
				"update cycle did not settle after %d passes", maxUpdatePasses)
			c.logger.Error("update cycle pass cap hit, aborting", "passes", maxUpdatePasses)
			clear(c.dirtyItems)
			clear(c.dirtyMatrix)
			break
		}

		// A child's change forces ancestor recomputation.
		for _, it := range c.tree.sortTreeOrder(c.dirtyItems, false) {
			for _, a := range c.tree.Ancestors(it) {
				c.dirtyItems[a] = struct{}{}
			}
		}

		batch := c.tree.sortTreeOrder(c.dirtyItems, true)
		clear(c.dirtyItems)
		for _, it := range batch {
			processed[it] = struct{}{}
			if _, done := preDone[it]; done {
				continue
			}
			preDone[it] = struct{}{}
			if perr := it.PreUpdate(ctx); perr != nil {
				c.logger.Error("pre-update callback failed", "item", it.ID(), "err", perr)
				observability.Canvas().OnItemError(it.ID().String(), "pre-update", perr)
			}
		}

		c.updateMatrices(matrixChanged)

		if serr := c.solver.Solve(); serr != nil && err == nil {
			err = wrapSolveErr(serr)
		}
	}

	// First-handle-at-origin convention: drift is absorbed into the local
	// matrix, then the compensated transforms get one more round.
	if c.normalize(c.tree.sortTreeOrder(processed, true)) {
		c.updateMatrices(matrixChanged)
		if serr := c.solver.Solve(); serr != nil && err == nil {
			err = wrapSolveErr(serr)
		}
	}

	for _, it := range c.tree.sortTreeOrder(processed, true) {
		if perr := it.PostUpdate(ctx); perr != nil {
			c.logger.Error("post-update callback failed", "item", it.ID(), "err", perr)
			observability.Canvas().OnItemError(it.ID().String(), "post-update", perr)
		}
	}

	dirty := c.tree.sortTreeOrder(processed, false)
	changed := c.tree.sortTreeOrder(matrixChanged, false)
	removed := make([]item.Item, 0, len(c.removed))
	for it := range c.removed {
		removed = append(removed, it)
	}
	clear(c.removed)
	for v := range c.views {
		v.Notify(dirty, changed, removed)
	}

	observability.Canvas().OnUpdateComplete(passes, time.Since(started))
	return err
}

// wrapSolveErr attaches the matching error code to a solver failure.
func wrapSolveErr(serr error) error {
	code := errors.ErrCodeInternal
	if stderrors.Is(serr, solver.ErrJuggle) {
		code = errors.ErrCodeJuggle
	}
	return errors.Wrap(code, serr, "solving constraints")
}

// updateMatrices drains the dirty-matrix set, recomputing composed
// transforms parents-first.
func (c *Canvas) updateMatrices(changed map[item.Item]struct{}) {
	for len(c.dirtyMatrix) > 0 {
		for it := range c.dirtyMatrix {
			c.updateMatrix(it, changed)
			break
		}
	}
}

// updateMatrix recomputes it's composed transform, parents-first: a pending
// parent is recomputed before this item. The parent's pass recurses into
// children only when its own composed transform changed, so this item is
// recomposed afterwards either way — its local matrix may have changed even
// when the parent's did not.
func (c *Canvas) updateMatrix(it item.Item, changed map[item.Item]struct{}) {
	parent := c.tree.Parent(it)
	if parent != nil {
		if _, pending := c.dirtyMatrix[parent]; pending {
			c.updateMatrix(parent, changed)
		}
	}
	delete(c.dirtyMatrix, it)

	i2c := it.Matrix()
	if parent != nil {
		pi2c, err := c.MatrixI2C(parent)
		if err != nil {
			return
		}
		i2c = i2c.Multiply(pi2c)
	}

	cache := c.matrices[it]
	if cache == nil {
		return
	}
	if cache.valid && i2c.Equals(cache.i2c) {
		return
	}
	cache.i2c = i2c
	cache.c2i = c.invert(it, i2c)
	cache.valid = true
	changed[it] = struct{}{}

	// The item's own variables did not move, only their canvas-space
	// readings: re-establish constraints that reach them through
	// projections.
	for _, h := range it.Handles() {
		c.solver.RequestResolve(h.X, true)
		c.solver.RequestResolve(h.Y, true)
	}

	for _, child := range c.tree.Children(it) {
		c.updateMatrix(child, changed)
	}
}

// normalize translates each item's local matrix by its first handle's
// drift and shifts all handles back, so the first handle returns to the
// local origin without moving anything on canvas. Returns whether any item
// was adjusted.
func (c *Canvas) normalize(items []item.Item) bool {
	adjusted := false
	for _, it := range items {
		handles := it.Handles()
		if len(handles) == 0 {
			continue
		}
		x, y := handles[0].X.Value(), handles[0].Y.Value()
		if x == 0 && y == 0 {
			continue
		}
		it.SetMatrix(it.Matrix().Translate(x, y))
		for _, h := range handles {
			h.X.SetBare(h.X.Value() - x)
			h.Y.SetBare(h.Y.Value() - y)
		}
		c.dirtyMatrix[it] = struct{}{}
		adjusted = true
	}
	return adjusted
}
