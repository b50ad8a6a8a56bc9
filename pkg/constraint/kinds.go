package constraint

import (
	"fmt"

	"github.com/easelkit/easel/pkg/solver"
)

// Equals keeps two variables equal. Solving for a participant copies the
// other participant's value into it.
type Equals struct {
	base
	A, B solver.Var
}

// NewEquals returns a constraint keeping a and b equal.
func NewEquals(a, b solver.Var) *Equals {
	return &Equals{base: newBase(a, b), A: a, B: b}
}

// SolveFor recomputes v from the other participant.
func (c *Equals) SolveFor(v solver.Var) error {
	switch v {
	case c.A:
		c.A.SetValue(c.B.Value())
	case c.B:
		c.B.SetValue(c.A.Value())
	default:
		return ErrUnknownVariable
	}
	return nil
}

func (c *Equals) String() string {
	return fmt.Sprintf("Equals(%g, %g)", c.A.Value(), c.B.Value())
}

// LessThan keeps smaller at least delta below bigger. The solved-for
// variable is the one that has not moved lately, so it is left alone and
// the counterpart is pushed instead.
type LessThan struct {
	base
	Smaller, Bigger solver.Var

	// Delta is the minimum distance between the two values. It may be
	// changed after construction; call Solver.RequestResolveConstraint to
	// re-establish the constraint afterwards.
	Delta float64
}

// NewLessThan returns a constraint keeping smaller ≤ bigger - delta.
func NewLessThan(smaller, bigger solver.Var, delta float64) *LessThan {
	return &LessThan{base: newBase(smaller, bigger), Smaller: smaller, Bigger: bigger, Delta: delta}
}

// SolveFor restores the gap when violated: solving for the smaller side
// pushes the bigger side up, solving for the bigger side pulls the smaller
// side down. When the constraint already holds this is a no-op.
func (c *LessThan) SolveFor(v solver.Var) error {
	if !c.member(v) {
		return ErrUnknownVariable
	}
	if c.Smaller.Value() > c.Bigger.Value()-c.Delta {
		switch v {
		case c.Smaller:
			c.Bigger.SetValue(c.Smaller.Value() + c.Delta)
		case c.Bigger:
			c.Smaller.SetValue(c.Bigger.Value() - c.Delta)
		}
	}
	return nil
}

func (c *LessThan) String() string {
	return fmt.Sprintf("LessThan(%g < %g - %g)", c.Smaller.Value(), c.Bigger.Value(), c.Delta)
}

// Balance keeps a variable at a fixed proportional position inside a moving
// band. The ratio is captured at construction: moving either band endpoint
// and solving repositions v so it keeps the same relative offset.
type Balance struct {
	base
	B1, B2, V solver.Var

	ratio float64
}

// NewBalance returns a balance constraint over band (b1, b2) holding v.
// A zero-width band captures ratio 0.
func NewBalance(b1, b2, v solver.Var) *Balance {
	c := &Balance{base: newBase(b1, b2, v), B1: b1, B2: b2, V: v}
	c.UpdateRatio()
	return c
}

// Ratio returns the proportional position captured for v inside the band.
func (c *Balance) Ratio() float64 { return c.ratio }

// UpdateRatio recaptures the ratio from current participant values.
func (c *Balance) UpdateRatio() {
	width := c.B2.Value() - c.B1.Value()
	if width == 0 {
		c.ratio = 0
		return
	}
	c.ratio = (c.V.Value() - c.B1.Value()) / width
}

// SolveFor repositions v inside the current band. Like the original
// balance behavior, the passed variable receives the balanced value; in
// practice v is the weakest participant and is the one repositioned.
func (c *Balance) SolveFor(v solver.Var) error {
	if !c.member(v) {
		return ErrUnknownVariable
	}
	width := c.B2.Value() - c.B1.Value()
	v.SetValue(c.B1.Value() + width*c.ratio)
	return nil
}

func (c *Balance) String() string {
	return fmt.Sprintf("Balance(band=(%g, %g), v=%g, ratio=%g)",
		c.B1.Value(), c.B2.Value(), c.V.Value(), c.ratio)
}
