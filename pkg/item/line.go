package item

import (
	"context"
	"math"

	"github.com/easelkit/easel/pkg/constraint"
	"github.com/easelkit/easel/pkg/errors"
	"github.com/easelkit/easel/pkg/geom"
	"github.com/easelkit/easel/pkg/solver"
)

// Line is a chain of segments between handles. Both end handles are
// connectable; intermediate handles created by splitting are weaker, so
// solving prefers moving them over the ends.
//
// An orthogonal line maintains equality constraints between neighbouring
// handles, alternating axis per segment, so every segment stays horizontal
// or vertical.
type Line struct {
	Base

	fuzziness float64

	horizontal bool
	orthogonal bool
	orthoCons  []solver.Constraint

	headAngle, tailAngle float64
}

// NewLine returns a two-handle line from (0, 0) to (10, 10).
func NewLine() *Line {
	l := &Line{Base: NewBase()}
	l.handles = []*Handle{
		NewHandle(0, 0, solver.Normal),
		NewHandle(10, 10, solver.Normal),
	}
	for _, h := range l.handles {
		h.SetConnectable(true)
	}
	l.updatePorts()
	return l
}

// Fuzziness returns the extra margin counted as "on the line" by Point.
func (l *Line) Fuzziness() float64     { return l.fuzziness }
func (l *Line) SetFuzziness(f float64) { l.fuzziness = f }

// Orthogonal reports whether the line is constrained to straight angles.
func (l *Line) Orthogonal() bool { return l.orthogonal }

// SetOrthogonal toggles the straight-angle constraints. An orthogonal line
// needs at least two segments; enabling it on a single-segment line splits
// the segment first.
func (l *Line) SetOrthogonal(orthogonal bool) error {
	l.orthogonal = orthogonal
	return l.updateOrthogonalConstraints()
}

// Horizontal reports whether the first segment of an orthogonal line runs
// horizontally.
func (l *Line) Horizontal() bool { return l.horizontal }

// SetHorizontal flips the axis of the first orthogonal segment.
func (l *Line) SetHorizontal(horizontal bool) error {
	l.horizontal = horizontal
	return l.updateOrthogonalConstraints()
}

// BindOwner attaches the line and establishes its orthogonal constraints,
// if enabled.
func (l *Line) BindOwner(o Owner) {
	if o == nil {
		l.removeOrthogonalConstraints()
	}
	l.Base.BindOwner(o)
	if o != nil {
		l.updateOrthogonalConstraints()
	}
}

func (l *Line) removeOrthogonalConstraints() {
	if l.owner != nil {
		for _, c := range l.orthoCons {
			l.owner.Solver().RemoveConstraint(c)
		}
	}
	l.orthoCons = nil
}

// updateOrthogonalConstraints rebuilds the equality chain between
// neighbouring handles: segment i constrains x or y depending on parity and
// the horizontal flag.
func (l *Line) updateOrthogonalConstraints() error {
	if l.owner == nil {
		return nil
	}
	l.removeOrthogonalConstraints()
	if !l.orthogonal {
		return nil
	}

	if len(l.handles) < 3 {
		// Splitting re-enters this method and builds the chain itself.
		_, err := l.SplitSegment(0, 2)
		return err
	}

	sv := l.owner.Solver()
	rest := 0
	if l.horizontal {
		rest = 1
	}
	for i := 0; i < len(l.handles)-1; i++ {
		h0, h1 := l.handles[i], l.handles[i+1]
		var c solver.Constraint
		if i%2 == rest {
			c = constraint.NewEquals(h0.X, h1.X)
		} else {
			c = constraint.NewEquals(h0.Y, h1.Y)
		}
		if err := sv.AddConstraint(c); err != nil {
			return err
		}
		l.orthoCons = append(l.orthoCons, c)
		sv.RequestResolve(h1.X, false)
		sv.RequestResolve(h1.Y, false)
	}
	l.owner.RequestUpdate(l)
	return nil
}

// SplitSegment splits segment (0 = between handles 0 and 1) into parts
// equal pieces and returns the handles created. New handles carry Weak
// strength, so they yield before the segment ends do.
func (l *Line) SplitSegment(segment, parts int) ([]*Handle, error) {
	if parts < 2 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "a segment splits into at least 2 parts")
	}
	if segment < 0 || segment >= len(l.handles)-1 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "segment %d out of range", segment)
	}

	created := make([]*Handle, 0, parts-1)
	for parts > 1 {
		h0 := l.handles[segment]
		h1 := l.handles[segment+1]
		dx := (h1.X.Value() - h0.X.Value()) / float64(parts)
		dy := (h1.Y.Value() - h0.Y.Value()) / float64(parts)
		h := NewHandle(h0.X.Value()+dx, h0.Y.Value()+dy, solver.Weak)

		l.handles = append(l.handles, nil)
		copy(l.handles[segment+2:], l.handles[segment+1:])
		l.handles[segment+1] = h
		created = append(created, h)

		segment++
		parts--
	}

	if err := l.updateOrthogonalConstraints(); err != nil {
		return created, err
	}
	l.updatePorts()
	return created, nil
}

// MergeSegment merges segment with the parts-1 segments that follow,
// removing the handles between them. The removed handles are returned. A
// line always keeps at least one segment.
func (l *Line) MergeSegment(segment, parts int) ([]*Handle, error) {
	if parts < 2 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "merging takes at least 2 parts")
	}
	if len(l.handles) <= 2 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "not enough segments to merge")
	}
	if segment < 0 || segment >= len(l.handles)-1 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "segment %d out of range", segment)
	}
	// The end handles survive a merge.
	if segment == 0 {
		segment = 1
	}
	if segment+parts-1 > len(l.handles)-1 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "cannot merge %d parts from segment %d", parts, segment)
	}

	removed := make([]*Handle, parts-1)
	copy(removed, l.handles[segment:segment+parts-1])
	for _, h := range removed {
		h.Disconnect()
	}
	l.handles = append(l.handles[:segment], l.handles[segment+parts-1:]...)

	if err := l.updateOrthogonalConstraints(); err != nil {
		return removed, err
	}
	l.updatePorts()
	return removed, nil
}

// updatePorts rebuilds the per-segment line ports.
func (l *Line) updatePorts() {
	l.ports = l.ports[:0]
	for i := 0; i < len(l.handles)-1; i++ {
		l.ports = append(l.ports, NewLinePort(l.handles[i], l.handles[i+1]))
	}
}

// Opposite returns the handle at the other end of the line.
func (l *Line) Opposite(h *Handle) (*Handle, error) {
	switch h {
	case l.handles[0]:
		return l.handles[len(l.handles)-1], nil
	case l.handles[len(l.handles)-1]:
		return l.handles[0], nil
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "handle is not an end handle")
}

// ClosestSegment returns the distance from p to the nearest segment, the
// closest point on that segment, and the segment index.
func (l *Line) ClosestSegment(p geom.Point) (float64, geom.Point, int) {
	best := math.Inf(1)
	var bestPoint geom.Point
	bestSegment := 0
	for i := 0; i < len(l.handles)-1; i++ {
		d, closest := geom.DistanceLinePoint(l.handles[i].Pos(), l.handles[i+1].Pos(), p)
		if d < best {
			best, bestPoint, bestSegment = d, closest, i
		}
	}
	return best, bestPoint, bestSegment
}

// Point returns the distance from p to the line, minus the fuzziness
// margin.
func (l *Line) Point(p geom.Point) float64 {
	d, _, _ := l.ClosestSegment(p)
	return math.Max(0, d-l.fuzziness)
}

// PostUpdate recomputes the cached angles of the first and last segments
// from the solved handle positions.
func (l *Line) PostUpdate(ctx context.Context) error {
	h := l.handles
	h0, h1 := h[0], h[1]
	l.headAngle = math.Atan2(h1.Y.Value()-h0.Y.Value(), h1.X.Value()-h0.X.Value())
	h0, h1 = h[len(h)-1], h[len(h)-2]
	l.tailAngle = math.Atan2(h1.Y.Value()-h0.Y.Value(), h1.X.Value()-h0.X.Value())
	return nil
}

// HeadAngle returns the angle of the first segment, as of the last
// completed update cycle.
func (l *Line) HeadAngle() float64 { return l.headAngle }

// TailAngle returns the angle of the last segment, pointing inward, as of
// the last completed update cycle.
func (l *Line) TailAngle() float64 { return l.tailAngle }
