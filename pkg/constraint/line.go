package constraint

import (
	"fmt"
	"math"

	"github.com/easelkit/easel/pkg/solver"
)

// Position glues a point to an origin point: solving copies origin into
// point. The origin is read-only from the constraint's perspective, so the
// glued point should carry the weaker strength.
type Position struct {
	base
	Origin, Point Pos
}

// NewPosition returns a constraint gluing point to origin.
func NewPosition(origin, point Pos) *Position {
	return &Position{
		base:   newBase(origin.X, origin.Y, point.X, point.Y),
		Origin: origin,
		Point:  point,
	}
}

// SolveFor moves the glued point onto the origin. The origin is never
// written, whichever participant is passed.
func (c *Position) SolveFor(v solver.Var) error {
	if !c.member(v) {
		return ErrUnknownVariable
	}
	c.Point.X.SetValue(c.Origin.X.Value())
	c.Point.Y.SetValue(c.Origin.Y.Value())
	return nil
}

func (c *Position) String() string {
	return fmt.Sprintf("Position(origin=(%g, %g), point=(%g, %g))",
		c.Origin.X.Value(), c.Origin.Y.Value(), c.Point.X.Value(), c.Point.Y.Value())
}

// Line keeps a point at a fixed parametric position on a moving segment.
// The per-axis ratios are captured at construction (or by UpdateRatio), so
// moving an endpoint and solving slides the point along with the segment.
type Line struct {
	base
	Start, End, Point Pos

	ratioX, ratioY float64
}

// NewLine returns a constraint keeping point on the segment (start, end) at
// its current parametric position.
func NewLine(start, end, point Pos) *Line {
	c := &Line{
		base:  newBase(start.X, start.Y, end.X, end.Y, point.X, point.Y),
		Start: start,
		End:   end,
		Point: point,
	}
	c.UpdateRatio()
	return c
}

// UpdateRatio recaptures the parametric position of the point on the
// segment from current values. A degenerate axis captures ratio 0.
func (c *Line) UpdateRatio() {
	sx, sy := c.Start.X.Value(), c.Start.Y.Value()
	ex, ey := c.End.X.Value(), c.End.Y.Value()
	px, py := c.Point.X.Value(), c.Point.Y.Value()

	c.ratioX, c.ratioY = 0, 0
	if dx := ex - sx; dx != 0 {
		c.ratioX = (px - sx) / dx
	}
	if dy := ey - sy; dy != 0 {
		c.ratioY = (py - sy) / dy
	}
}

// SolveFor repositions the point at the captured parametric position on the
// current segment. Endpoints are never written.
func (c *Line) SolveFor(v solver.Var) error {
	if !c.member(v) {
		return ErrUnknownVariable
	}
	sx, sy := c.Start.X.Value(), c.Start.Y.Value()
	ex, ey := c.End.X.Value(), c.End.Y.Value()
	c.Point.X.SetValue(sx + (ex-sx)*c.ratioX)
	c.Point.Y.SetValue(sy + (ey-sy)*c.ratioY)
	return nil
}

func (c *Line) String() string {
	return fmt.Sprintf("Line(start=(%g, %g), end=(%g, %g), point=(%g, %g))",
		c.Start.X.Value(), c.Start.Y.Value(),
		c.End.X.Value(), c.End.Y.Value(),
		c.Point.X.Value(), c.Point.Y.Value())
}

// LineAlign keeps a point near a segment at a fixed fraction of its length
// plus an offset along the segment direction. Unlike Line, the position is
// expressed as (align, delta) rather than per-axis ratios, so it stays
// meaningful when the segment rotates.
type LineAlign struct {
	base
	Start, End, Point Pos

	// Align is the fraction of the segment length where the point sits.
	Align float64
	// Delta is the extra distance along the segment direction.
	Delta float64
}

// NewLineAlign returns a constraint holding point at fraction align of the
// segment (start, end), offset by delta along the segment direction.
func NewLineAlign(start, end, point Pos, align, delta float64) *LineAlign {
	return &LineAlign{
		base:  newBase(start.X, start.Y, end.X, end.Y, point.X, point.Y),
		Start: start,
		End:   end,
		Point: point,
		Align: align,
		Delta: delta,
	}
}

// UpdateDelta recaptures Delta as the distance from the aligned position to
// the point's current position.
func (c *LineAlign) UpdateDelta() {
	sx, sy := c.Start.X.Value(), c.Start.Y.Value()
	ex, ey := c.End.X.Value(), c.End.Y.Value()
	ax := sx + (ex-sx)*c.Align
	ay := sy + (ey-sy)*c.Align
	c.Delta = math.Hypot(c.Point.X.Value()-ax, c.Point.Y.Value()-ay)
}

// SolveFor repositions the point from the current segment, Align and Delta.
// Endpoints are never written.
func (c *LineAlign) SolveFor(v solver.Var) error {
	if !c.member(v) {
		return ErrUnknownVariable
	}
	sx, sy := c.Start.X.Value(), c.Start.Y.Value()
	ex, ey := c.End.X.Value(), c.End.Y.Value()
	angle := math.Atan2(ey-sy, ex-sx)
	c.Point.X.SetValue(sx + (ex-sx)*c.Align + c.Delta*math.Cos(angle))
	c.Point.Y.SetValue(sy + (ey-sy)*c.Align + c.Delta*math.Sin(angle))
	return nil
}

func (c *LineAlign) String() string {
	return fmt.Sprintf("LineAlign(align=%g, delta=%g)", c.Align, c.Delta)
}
