package item

import (
	"github.com/easelkit/easel/pkg/constraint"
	"github.com/easelkit/easel/pkg/errors"
	"github.com/easelkit/easel/pkg/geom"
	"github.com/easelkit/easel/pkg/solver"
)

// Corner handle indices of an Element, clockwise from the top-left.
const (
	NW = iota
	NE
	SE
	SW
)

// defaultMinSize is the initial minimum width and height of an Element.
const defaultMinSize = 10

// Element is a rectangular item with four corner handles:
//
//	NW +---+ NE
//	   |   |
//	SW +---+ SE
//
// Equality constraints keep the corners rectangular; minimum-size
// constraints keep SE at least min-width/min-height away from NW. The NW
// handle doubles as the local origin under the canvas normalization
// convention.
type Element struct {
	Base

	minWidth  *constraint.LessThan
	minHeight *constraint.LessThan
}

// NewElement returns an element of the given size. Sizes below the default
// minimum of 10 are clamped once the element is solved.
func NewElement(width, height float64) *Element {
	e := &Element{Base: NewBase()}

	for i := 0; i < 4; i++ {
		e.handles = append(e.handles, NewHandle(0, 0, solver.VeryStrong))
	}
	h := e.handles

	e.ports = []Port{
		NewLinePort(h[NW], h[NE]),
		NewLinePort(h[NE], h[SE]),
		NewLinePort(h[SE], h[SW]),
		NewLinePort(h[SW], h[NW]),
	}

	e.minWidth = constraint.NewLessThan(h[NW].X, h[SE].X, defaultMinSize)
	e.minHeight = constraint.NewLessThan(h[NW].Y, h[SE].Y, defaultMinSize)

	e.constraints = []solver.Constraint{
		constraint.NewEquals(h[NW].Y, h[NE].Y),
		constraint.NewEquals(h[NW].X, h[SW].X),
		constraint.NewEquals(h[SE].Y, h[SW].Y),
		constraint.NewEquals(h[SE].X, h[NE].X),
		e.minWidth,
		e.minHeight,
	}

	e.SetWidth(width)
	e.SetHeight(height)
	return e
}

// BindOwner attaches the element and re-asserts its size, so the solver
// establishes the corner constraints from the NW/SE positions.
func (e *Element) BindOwner(o Owner) {
	e.Base.BindOwner(o)
	if o != nil {
		e.SetWidth(e.Width())
		e.SetHeight(e.Height())
	}
}

// Width returns the distance between the left and right edges.
func (e *Element) Width() float64 {
	h := e.handles
	return h[SE].X.Value() - h[NW].X.Value()
}

// SetWidth moves the SE corner to NW.x + width. Widths below the minimum
// are clamped.
func (e *Element) SetWidth(width float64) {
	if width < e.MinWidth() {
		width = e.MinWidth()
	}
	h := e.handles
	h[SE].X.SetValue(h[NW].X.Value() + width)
}

// Height returns the distance between the top and bottom edges.
func (e *Element) Height() float64 {
	h := e.handles
	return h[SE].Y.Value() - h[NW].Y.Value()
}

// SetHeight moves the SE corner to NW.y + height. Heights below the minimum
// are clamped.
func (e *Element) SetHeight(height float64) {
	if height < e.MinHeight() {
		height = e.MinHeight()
	}
	h := e.handles
	h[SE].Y.SetValue(h[NW].Y.Value() + height)
}

// MinWidth returns the minimum width enforced by the solver.
func (e *Element) MinWidth() float64 { return e.minWidth.Delta }

// SetMinWidth changes the minimum width and, when the element is on a
// canvas, schedules the constraint for re-resolution.
func (e *Element) SetMinWidth(w float64) error {
	if w < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "minimal width cannot be less than 0")
	}
	e.minWidth.Delta = w
	if e.owner != nil {
		return e.owner.Solver().RequestResolveConstraint(e.minWidth)
	}
	return nil
}

// MinHeight returns the minimum height enforced by the solver.
func (e *Element) MinHeight() float64 { return e.minHeight.Delta }

// SetMinHeight changes the minimum height and, when the element is on a
// canvas, schedules the constraint for re-resolution.
func (e *Element) SetMinHeight(h float64) error {
	if h < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "minimal height cannot be less than 0")
	}
	e.minHeight.Delta = h
	if e.owner != nil {
		return e.owner.Solver().RequestResolveConstraint(e.minHeight)
	}
	return nil
}

// Point returns the distance from p to the element's rectangle.
func (e *Element) Point(p geom.Point) float64 {
	h := e.handles
	r := geom.RectFromPoints(h[NW].Pos(), h[SE].Pos())
	return geom.DistanceRectanglePoint(r, p)
}
