package canvas

import (
	"fmt"

	"github.com/easelkit/easel/pkg/constraint"
	"github.com/easelkit/easel/pkg/item"
	"github.com/easelkit/easel/pkg/solver"
)

type axis int

const (
	axisX axis = iota
	axisY
)

// Projection exposes one coordinate of an item-local point in canvas
// space. It owns no storage: reads transform the backing pair through the
// item's composed matrix, writes inverse-transform and schedule an update
// for the owning item.
//
// Because a canvas-space write can move both local coordinates (under
// rotation), SetValue writes the whole backing pair. The solver indexes
// the projection by its axis variable.
type Projection struct {
	canvas *Canvas
	it     item.Item
	x, y   *solver.Variable
	axis   axis
}

// Value returns the projected coordinate in canvas space. A stale composed
// matrix is recomputed on demand.
func (p *Projection) Value() float64 {
	i2c, err := p.canvas.MatrixI2C(p.it)
	if err != nil {
		return p.backing().Value()
	}
	x, y := i2c.TransformPoint(p.x.Value(), p.y.Value())
	if p.axis == axisX {
		return x
	}
	return y
}

// SetValue moves the projected coordinate to value in canvas space,
// rewriting the backing pair in item-local coordinates and scheduling the
// owning item for an update. Writes that change nothing are dropped.
func (p *Projection) SetValue(value float64) {
	i2c, err := p.canvas.MatrixI2C(p.it)
	if err != nil {
		return
	}
	cx, cy := i2c.TransformPoint(p.x.Value(), p.y.Value())
	if p.axis == axisX {
		cx = value
	} else {
		cy = value
	}
	c2i, err := p.canvas.MatrixC2I(p.it)
	if err != nil {
		return
	}
	lx, ly := c2i.TransformPoint(cx, cy)
	if lx == p.x.Value() && ly == p.y.Value() {
		return
	}
	p.x.SetValue(lx)
	p.y.SetValue(ly)
	p.canvas.RequestUpdate(p.it)
}

// Strength returns the strength of the backing variable.
func (p *Projection) Strength() solver.Strength { return p.backing().Strength() }

// Variable returns the backing variable for the projected axis.
func (p *Projection) Variable() *solver.Variable { return p.backing() }

func (p *Projection) backing() *solver.Variable {
	if p.axis == axisX {
		return p.x
	}
	return p.y
}

func (p *Projection) String() string {
	return fmt.Sprintf("Projection(%g of item %s)", p.Value(), p.it.ID())
}

// ProjectPoint returns the canvas-space projections of an item-local
// variable pair, satisfying item.Projector. Ports use this to build
// connection constraints that keep holding as either item's transform
// changes.
func (c *Canvas) ProjectPoint(it item.Item, x, y *solver.Variable) constraint.Pos {
	return constraint.Pos{
		X: &Projection{canvas: c, it: it, x: x, y: y, axis: axisX},
		Y: &Projection{canvas: c, it: it, x: x, y: y, axis: axisY},
	}
}

// Project returns the canvas-space projections of a handle's position.
func (c *Canvas) Project(it item.Item, h *item.Handle) constraint.Pos {
	return c.ProjectPoint(it, h.X, h.Y)
}
