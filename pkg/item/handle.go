package item

import (
	"fmt"

	"github.com/easelkit/easel/pkg/geom"
	"github.com/easelkit/easel/pkg/solver"
)

// Handle is a movable anchor point on an item. Its position is a pair of
// solver variables in the item's local coordinate space, so constraints can
// relate handles of different items through projections.
type Handle struct {
	X, Y *solver.Variable

	connectable bool
	movable     bool
	visible     bool

	connectedTo Item
	disconnect  func()
}

// NewHandle returns a handle at (x, y) with the given strength on both
// coordinate variables. The handle starts movable, visible and not
// connectable.
func NewHandle(x, y float64, strength solver.Strength) *Handle {
	return &Handle{
		X:       solver.NewVariable(x, strength),
		Y:       solver.NewVariable(y, strength),
		movable: true,
		visible: true,
	}
}

// Pos returns the handle position in item-local coordinates.
func (h *Handle) Pos() geom.Point {
	return geom.Point{X: h.X.Value(), Y: h.Y.Value()}
}

// SetPos moves the handle, marking its constraints dirty.
func (h *Handle) SetPos(p geom.Point) {
	h.X.SetValue(p.X)
	h.Y.SetValue(p.Y)
}

// Connectable reports whether a connecting handle may glue to this handle's
// item through it.
func (h *Handle) Connectable() bool      { return h.connectable }
func (h *Handle) SetConnectable(ok bool) { h.connectable = ok }
func (h *Handle) Movable() bool          { return h.movable }
func (h *Handle) SetMovable(ok bool)     { h.movable = ok }
func (h *Handle) Visible() bool          { return h.visible }
func (h *Handle) SetVisible(ok bool)     { h.visible = ok }

// ConnectedTo returns the item this handle is glued to, or nil.
func (h *Handle) ConnectedTo() Item { return h.connectedTo }

// SetConnection records the connection target and the cleanup callback that
// undoes it. Both are managed by whoever created the connection constraint.
func (h *Handle) SetConnection(to Item, disconnect func()) {
	h.connectedTo = to
	h.disconnect = disconnect
}

// Disconnect runs the registered disconnect callback, if any, and clears the
// connection bookkeeping. Safe to call on an unconnected handle.
func (h *Handle) Disconnect() {
	if h.disconnect != nil {
		h.disconnect()
	}
	h.connectedTo = nil
	h.disconnect = nil
}

func (h *Handle) String() string {
	return fmt.Sprintf("Handle(%g, %g)", h.X.Value(), h.Y.Value())
}
