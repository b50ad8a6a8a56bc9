package constraint

import (
	"fmt"
	"math"

	"github.com/easelkit/easel/pkg/observability"
	"github.com/easelkit/easel/pkg/solver"
)

const (
	// equationTolerance is the residual tolerance for the secant iteration.
	equationTolerance = 1e-7

	// equationIterLimit caps the number of secant iterations per solve.
	equationIterLimit = 1000
)

// Equation drives f(args) = 0 by adjusting one of its participants with a
// damped secant iteration (Newton-like, no explicit derivative).
//
// Non-convergence is not fatal: when the iteration budget runs out or the
// slope collapses away from a root, the constraint reports a diagnostic
// through the observability hooks and keeps the best estimate. This
// preserves the original best-effort policy; note that it can mask genuine
// modeling contradictions in pathological equations.
type Equation struct {
	base
	name string
	f    func(args []float64) float64
	vars []solver.Var
}

// NewEquation returns an equation constraint over the given participants.
// f receives the participant values in participant order and must return
// the residual; the solver adjusts one participant until f returns 0.
// name identifies the equation in diagnostics.
func NewEquation(name string, f func(args []float64) float64, vars ...solver.Var) *Equation {
	return &Equation{base: newBase(vars...), name: name, f: f, vars: vars}
}

// SolveFor adjusts v until f over the current participant values returns
// zero (within tolerance). Other participants are read but never written.
func (c *Equation) SolveFor(v solver.Var) error {
	idx := -1
	args := make([]float64, len(c.vars))
	for i, p := range c.vars {
		args[i] = p.Value()
		if p == v {
			idx = i
		}
	}
	if idx < 0 {
		return ErrUnknownVariable
	}

	eval := func(x float64) float64 {
		args[idx] = x
		return c.f(args)
	}
	v.SetValue(c.secant(eval, args[idx]))
	return nil
}

// secant runs the damped secant iteration starting near x0 and returns the
// best root estimate found.
func (c *Equation) secant(f func(float64) float64, x0 float64) float64 {
	if x0 == 0 {
		x0 = 1
	}
	x1 := x0 * 1.1

	fx0 := f(x0)
	closeRuns := 10 // after getting close, do a few more passes
	closeFlag := false

	for n := 0; ; n++ {
		fx1 := f(x1)
		if fx1 == 0 || x1 == x0 {
			break // nailed it exactly
		}
		if math.Abs(fx1-fx0) < equationTolerance {
			closeFlag = true
			if closeRuns == 0 {
				break
			}
			closeRuns--
		} else {
			closeFlag = false
		}
		if n > equationIterLimit {
			observability.Solver().OnNonConvergence(c.name, fx1, n)
			break
		}
		slope := (fx1 - fx0) / (x1 - x0)
		if slope == 0 {
			if !closeFlag {
				observability.Solver().OnNonConvergence(c.name, fx1, n)
			}
			break
		}
		x2 := x0 - fx0/slope
		fx0 = fx1
		x0 = x1
		x1 = x2
	}
	return x1
}

func (c *Equation) String() string {
	return fmt.Sprintf("Equation(%s, %d vars)", c.name, len(c.vars))
}
