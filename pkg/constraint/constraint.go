// Package constraint provides the constraint kinds understood by the
// solver: equality, minimum-distance inequality, nonlinear equations,
// proportional balance, and point-on-segment projections.
//
// Every kind embeds a common participant list with a weakest-candidate
// rotation. The rotation is an explicit ordered slice with move-to-back on
// use: the front is always the participant least recently chosen to yield,
// which gives round-robin fairness when several constraints disagree over a
// shared variable.
//
// Constraints reference participants through the solver.Var interface, so a
// participant can be a plain variable or a projection into another
// coordinate space.
package constraint

import (
	"errors"

	"github.com/easelkit/easel/pkg/solver"
)

// ErrUnknownVariable is returned by SolveFor when the passed variable is
// not a participant of the constraint. This is a programming error and is
// reported instead of being silently ignored.
var ErrUnknownVariable = errors.New("variable is not a participant of this constraint")

// Pos is an (x, y) pair of solver Vars forming a point in some coordinate
// space. The segment constraints operate on Pos values whose Vars are
// usually canvas projections.
type Pos struct {
	X, Y solver.Var
}

// base carries the participant list and the weakest-candidate rotation
// shared by all constraint kinds.
type base struct {
	participants []solver.Var
	weakest      []solver.Var
}

func newBase(vars ...solver.Var) base {
	b := base{participants: vars}
	b.RebuildWeakest()
	return b
}

// Variables returns the participant list fixed at construction.
func (b *base) Variables() []solver.Var { return b.participants }

// RebuildWeakest recomputes the weakest-candidate list: every participant
// sharing the minimum strength, in participant order.
func (b *base) RebuildWeakest() {
	minStrength := b.participants[0].Strength()
	for _, v := range b.participants[1:] {
		if v.Strength() < minStrength {
			minStrength = v.Strength()
		}
	}
	b.weakest = b.weakest[:0]
	for _, v := range b.participants {
		if v.Strength() == minStrength {
			b.weakest = append(b.weakest, v)
		}
	}
}

// Weakest returns the front of the weakest-candidate rotation: the
// participant least recently chosen to yield.
func (b *base) Weakest() solver.Var { return b.weakest[0] }

// MarkDirty rotates the weakest list when the participant backed by v is
// currently at the front, moving it to the back so another candidate
// yields next time.
func (b *base) MarkDirty(v *solver.Variable) {
	if len(b.weakest) < 2 {
		return
	}
	if b.weakest[0].Variable() != v {
		return
	}
	front := b.weakest[0]
	copy(b.weakest, b.weakest[1:])
	b.weakest[len(b.weakest)-1] = front
}

// member reports whether v is one of the constraint's participant entries.
func (b *base) member(v solver.Var) bool {
	for _, p := range b.participants {
		if p == v {
			return true
		}
	}
	return false
}
