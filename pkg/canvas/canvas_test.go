package canvas

import (
	"context"
	"errors"
	"testing"

	"github.com/easelkit/easel/pkg/geom"
	"github.com/easelkit/easel/pkg/item"
)

// hookItem lets tests plant update callbacks.
type hookItem struct {
	item.Base
	pre  func() error
	post func() error
}

func newHookItem() *hookItem { return &hookItem{Base: item.NewBase()} }

func (h *hookItem) PreUpdate(ctx context.Context) error {
	if h.pre != nil {
		return h.pre()
	}
	return nil
}

func (h *hookItem) PostUpdate(ctx context.Context) error {
	if h.post != nil {
		return h.post()
	}
	return nil
}

func TestTransformPropagation(t *testing.T) {
	c := New()
	parent := newHookItem()
	child := newHookItem()
	parent.SetMatrix(geom.Translation(5, 0))
	child.SetMatrix(geom.Translation(0, 8))

	if err := c.Add(parent, nil); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := c.Add(child, parent); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := c.UpdateNow(context.Background()); err != nil {
		t.Fatalf("UpdateNow: %v", err)
	}

	i2c, err := c.MatrixI2C(child)
	if err != nil {
		t.Fatalf("MatrixI2C: %v", err)
	}
	if want := geom.Translation(5, 8); !i2c.Equals(want) {
		t.Errorf("composed = %v, want %v", i2c, want)
	}
}

func TestParentMoveReachesChildren(t *testing.T) {
	c := New()
	parent := newHookItem()
	child := newHookItem()
	child.SetMatrix(geom.Translation(1, 1))
	c.Add(parent, nil)
	c.Add(child, parent)
	c.UpdateNow(context.Background())

	parent.SetMatrix(geom.Translation(10, 0))
	c.RequestMatrixUpdate(parent)
	if err := c.UpdateNow(context.Background()); err != nil {
		t.Fatalf("UpdateNow: %v", err)
	}

	i2c, _ := c.MatrixI2C(child)
	if want := geom.Translation(11, 1); !i2c.Equals(want) {
		t.Errorf("child composed = %v, want %v", i2c, want)
	}
}

func TestChildMatrixUpdateWithPendingParent(t *testing.T) {
	c := New()
	parent := newHookItem()
	child := newHookItem()
	c.Add(parent, nil)
	c.Add(child, parent)
	c.UpdateNow(context.Background())

	// Both items are marked but only the child's local matrix changed. The
	// dirty set drains in map order, so run several rounds to hit both
	// orders: the child must be recomposed even when it is visited while
	// its parent is still pending and the parent's composed transform turns
	// out unchanged.
	for i := 1; i <= 8; i++ {
		child.SetMatrix(geom.Translation(float64(i), 0))
		c.RequestMatrixUpdate(child)
		c.RequestMatrixUpdate(parent)
		if err := c.UpdateNow(context.Background()); err != nil {
			t.Fatalf("UpdateNow: %v", err)
		}
		i2c, err := c.MatrixI2C(child)
		if err != nil {
			t.Fatalf("MatrixI2C: %v", err)
		}
		if want := geom.Translation(float64(i), 0); !i2c.Equals(want) {
			t.Errorf("round %d: child composed = %v, want %v", i, i2c, want)
		}
	}
}

func TestNormalization(t *testing.T) {
	c := New()
	e := item.NewElement(10, 10)
	if err := c.Add(e, nil); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := e.SetMinWidth(0); err != nil {
		t.Fatalf("SetMinWidth: %v", err)
	}
	if err := e.SetMinHeight(0); err != nil {
		t.Fatalf("SetMinHeight: %v", err)
	}
	c.UpdateNow(context.Background())

	// Drag the origin handle to local (1, 0): after the cycle it is back
	// at the origin, the drift absorbed into the local matrix.
	h := e.Handles()
	h[item.NW].X.SetValue(h[item.NW].X.Value() + 1)
	c.RequestUpdate(e)
	if err := c.UpdateNow(context.Background()); err != nil {
		t.Fatalf("UpdateNow: %v", err)
	}

	if got := h[item.NW].Pos(); got.X != 0 || got.Y != 0 {
		t.Errorf("first handle at (%g, %g), want origin", got.X, got.Y)
	}
	if want := geom.Translation(1, 0); !e.Matrix().Equals(want) {
		t.Errorf("local matrix = %v, want %v", e.Matrix(), want)
	}
	if got := h[item.NE].Pos(); got.X != 9 || got.Y != 0 {
		t.Errorf("NE at (%g, %g), want (9, 0)", got.X, got.Y)
	}
	if got := h[item.SE].Pos(); got.X != 9 || got.Y != 10 {
		t.Errorf("SE at (%g, %g), want (9, 10)", got.X, got.Y)
	}
	if got := h[item.SW].Pos(); got.X != 0 || got.Y != 10 {
		t.Errorf("SW at (%g, %g), want (0, 10)", got.X, got.Y)
	}
}

func TestMinimumWidthEndToEnd(t *testing.T) {
	c := New()
	e := item.NewElement(20, 20)
	c.Add(e, nil)
	c.UpdateNow(context.Background())

	// Drag the SE corner to width 2: the minimum-size constraint pushes it
	// back out to exactly the minimum, not to the requested 2.
	h := e.Handles()
	h[item.SE].X.SetValue(h[item.NW].X.Value() + 2)
	c.RequestUpdate(e)
	if err := c.UpdateNow(context.Background()); err != nil {
		t.Fatalf("UpdateNow: %v", err)
	}

	if got := e.Width(); got != 10 {
		t.Errorf("width = %g, want 10", got)
	}
}

func TestConnectionFollowsItemMove(t *testing.T) {
	c := New()
	e := item.NewElement(10, 10)
	e.SetMatrix(geom.Translation(100, 0))
	l := item.NewLine()
	c.Add(e, nil)
	c.Add(l, nil)
	c.UpdateNow(context.Background())

	// Glue the line's first handle to the middle of the element's top
	// edge, then move the element: the handle follows.
	l.Handles()[0].SetPos(geom.Point{X: 105, Y: 0})
	if _, err := c.Connect(l, l.Handles()[0], e, e.Ports()[0]); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := c.UpdateNow(context.Background()); err != nil {
		t.Fatalf("UpdateNow: %v", err)
	}

	e.SetMatrix(geom.Translation(100, 20))
	c.RequestUpdate(e)
	if err := c.UpdateNow(context.Background()); err != nil {
		t.Fatalf("UpdateNow: %v", err)
	}

	i2c, _ := c.MatrixI2C(l)
	x, y := i2c.TransformPoint(l.Handles()[0].X.Value(), l.Handles()[0].Y.Value())
	if x != 105 || y != 20 {
		t.Errorf("glued handle at (%g, %g), want (105, 20)", x, y)
	}
	if l.Handles()[0].ConnectedTo() != e {
		t.Error("handle should record its connection")
	}

	// Disconnecting drops the constraint: further element moves leave the
	// handle alone.
	l.Handles()[0].Disconnect()
	e.SetMatrix(geom.Translation(100, 50))
	c.RequestUpdate(e)
	c.UpdateNow(context.Background())

	i2c, _ = c.MatrixI2C(l)
	x, y = i2c.TransformPoint(l.Handles()[0].X.Value(), l.Handles()[0].Y.Value())
	if x != 105 || y != 20 {
		t.Errorf("disconnected handle moved to (%g, %g)", x, y)
	}
}

func TestUpdateIsIdempotent(t *testing.T) {
	c := New()
	e := item.NewElement(10, 10)
	c.Add(e, nil)
	if err := c.UpdateNow(context.Background()); err != nil {
		t.Fatalf("UpdateNow: %v", err)
	}
	if c.NeedsUpdate() {
		t.Error("canvas should be clean after a cycle")
	}

	before := make([]geom.Point, 4)
	for i, h := range e.Handles() {
		before[i] = h.Pos()
	}
	if err := c.UpdateNow(context.Background()); err != nil {
		t.Fatalf("second UpdateNow: %v", err)
	}
	for i, h := range e.Handles() {
		if h.Pos() != before[i] {
			t.Errorf("handle %d moved on a no-op cycle", i)
		}
	}
}

func TestCallbackFailureIsolation(t *testing.T) {
	c := New()
	broken := newHookItem()
	broken.pre = func() error { return errors.New("boom") }
	ok := newHookItem()
	var okUpdated bool
	ok.post = func() error { okUpdated = true; return nil }

	c.Add(broken, nil)
	c.Add(ok, nil)
	if err := c.UpdateNow(context.Background()); err != nil {
		t.Fatalf("UpdateNow should isolate callback failures, got %v", err)
	}
	if !okUpdated {
		t.Error("healthy item should still be updated")
	}
}

func TestReentrantUpdateIsNoOp(t *testing.T) {
	c := New()
	it := newHookItem()
	var nested error
	it.pre = func() error {
		nested = c.UpdateNow(context.Background())
		return nil
	}
	c.Add(it, nil)
	if err := c.UpdateNow(context.Background()); err != nil {
		t.Fatalf("UpdateNow: %v", err)
	}
	if nested != nil {
		t.Errorf("nested UpdateNow = %v, want nil no-op", nested)
	}
}

func TestViewNotification(t *testing.T) {
	c := New()
	var gotDirty, gotRemoved []item.Item
	v := viewFunc(func(dirty, matrixChanged, removed []item.Item) {
		gotDirty = dirty
		gotRemoved = removed
	})
	c.RegisterView(&v)

	e := item.NewElement(10, 10)
	c.Add(e, nil)
	c.UpdateNow(context.Background())
	if len(gotDirty) != 1 || gotDirty[0] != e {
		t.Errorf("dirty notification = %v, want [e]", gotDirty)
	}

	if err := c.Remove(e); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	c.UpdateNow(context.Background())
	if len(gotRemoved) != 1 || gotRemoved[0] != e {
		t.Errorf("removed notification = %v, want [e]", gotRemoved)
	}
}

type viewFunc func(dirty, matrixChanged, removed []item.Item)

func (f *viewFunc) Notify(dirty, matrixChanged, removed []item.Item) {
	(*f)(dirty, matrixChanged, removed)
}

func TestRemoveDisconnectsPeers(t *testing.T) {
	c := New()
	e := item.NewElement(10, 10)
	l := item.NewLine()
	c.Add(e, nil)
	c.Add(l, nil)
	c.UpdateNow(context.Background())

	if _, err := c.Connect(l, l.Handles()[0], e, e.Ports()[0]); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	c.UpdateNow(context.Background())

	if err := c.Remove(e); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if l.Handles()[0].ConnectedTo() != nil {
		t.Error("peer handle should be disconnected when its target is removed")
	}
	if err := c.UpdateNow(context.Background()); err != nil {
		t.Errorf("cycle after removal: %v", err)
	}
}

func TestBoundsIndex(t *testing.T) {
	c := New()
	idx := NewBoundsIndex(c, geom.Rect{X: -1000, Y: -1000, Width: 2000, Height: 2000})
	defer idx.Close()

	a := item.NewElement(10, 10)
	b := item.NewElement(10, 10)
	b.SetMatrix(geom.Translation(100, 100))
	c.Add(a, nil)
	c.Add(b, nil)
	c.UpdateNow(context.Background())

	got := idx.FindIntersecting(geom.Rect{X: -5, Y: -5, Width: 20, Height: 20})
	if len(got) != 1 || got[0] != a {
		t.Errorf("FindIntersecting near origin = %v, want [a]", got)
	}

	bounds, ok := idx.Bounds(b)
	if !ok {
		t.Fatal("b should be indexed")
	}
	if bounds.X != 100 || bounds.Y != 100 {
		t.Errorf("b bounds at (%g, %g), want (100, 100)", bounds.X, bounds.Y)
	}

	c.Remove(b)
	c.UpdateNow(context.Background())
	if _, ok := idx.Bounds(b); ok {
		t.Error("removed item should leave the index")
	}
}
