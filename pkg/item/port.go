package item

import (
	"github.com/easelkit/easel/pkg/constraint"
	"github.com/easelkit/easel/pkg/geom"
	"github.com/easelkit/easel/pkg/solver"
)

// Projector builds solver projections exposing an item-local variable pair
// in canvas coordinates. The canvas implements it; ports use it to create
// connection constraints that keep holding as either item's transform
// changes.
type Projector interface {
	ProjectPoint(it Item, x, y *solver.Variable) constraint.Pos
}

// Port is a connectable area of an item. A connecting handle glues to a
// port, which yields the constraint keeping the handle in place.
type Port interface {
	// Glue returns the point on the port closest to p and its distance,
	// both in the port owner's local coordinates.
	Glue(p geom.Point) (geom.Point, float64)

	// Constraint builds the connection constraint gluing handle h of item
	// it to this port on glueItem.
	Constraint(proj Projector, it Item, h *Handle, glueItem Item) solver.Constraint

	// Connectable reports whether the port currently accepts connections.
	Connectable() bool
}

// LinePort is a port spanning the segment between two handles, such as an
// element edge or a line segment. Glued handles slide along with the
// segment, keeping their parametric position.
type LinePort struct {
	Start, End *Handle

	connectable bool
}

// NewLinePort returns a connectable port over the segment (start, end).
func NewLinePort(start, end *Handle) *LinePort {
	return &LinePort{Start: start, End: end, connectable: true}
}

func (p *LinePort) Glue(pt geom.Point) (geom.Point, float64) {
	d, closest := geom.DistanceLinePoint(p.Start.Pos(), p.End.Pos(), pt)
	return closest, d
}

func (p *LinePort) Constraint(proj Projector, it Item, h *Handle, glueItem Item) solver.Constraint {
	return constraint.NewLine(
		proj.ProjectPoint(glueItem, p.Start.X, p.Start.Y),
		proj.ProjectPoint(glueItem, p.End.X, p.End.Y),
		proj.ProjectPoint(it, h.X, h.Y),
	)
}

func (p *LinePort) Connectable() bool      { return p.connectable }
func (p *LinePort) SetConnectable(ok bool) { p.connectable = ok }

// PointPort is a port at a single handle. Glued handles stick to the
// handle's position.
type PointPort struct {
	Handle *Handle

	connectable bool
}

// NewPointPort returns a connectable port at the given handle.
func NewPointPort(h *Handle) *PointPort {
	return &PointPort{Handle: h, connectable: true}
}

func (p *PointPort) Glue(pt geom.Point) (geom.Point, float64) {
	pos := p.Handle.Pos()
	return pos, pos.Distance(pt)
}

func (p *PointPort) Constraint(proj Projector, it Item, h *Handle, glueItem Item) solver.Constraint {
	return constraint.NewPosition(
		proj.ProjectPoint(glueItem, p.Handle.X, p.Handle.Y),
		proj.ProjectPoint(it, h.X, h.Y),
	)
}

func (p *PointPort) Connectable() bool      { return p.connectable }
func (p *PointPort) SetConnectable(ok bool) { p.connectable = ok }
