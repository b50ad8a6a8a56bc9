// Package solver implements an incremental constraint solver over named
// numeric variables.
//
// Constraints relate variables and are registered with a [Solver]. When a
// variable changes, every constraint referencing it is marked dirty; [Solver.Solve]
// then works through the dirty queue until the system is consistent again,
// touching only the affected constraints rather than re-solving everything.
//
// # Strength and the weakest variable
//
// Every variable carries a [Strength] tier. When a constraint must change one
// of its participants to become valid again, it picks its "weakest" variable:
// the participant with the lowest strength that was least recently chosen to
// yield. The least-recently-chosen rotation keeps two constraints that share
// a variable from fighting over it forever.
//
// # Projections
//
// Constraints do not have to reference variables directly. A [Projection]
// exposes a variable whose backing store lives in a different coordinate
// space (for example a point stored in an item's local frame, exposed in
// canvas coordinates). The solver indexes constraints by the backing
// variable, so a change to the variable reaches constraints that only see it
// through a projection.
package solver

// Strength is the ordinal priority tier of a variable. In an
// over-determined constraint the variable with the lowest strength yields
// first.
type Strength int

// Strength tiers, weakest to strongest. Required is reserved for variables
// that must never be overwritten by the solver.
const (
	VeryWeak   Strength = 0
	Weak       Strength = 10
	Normal     Strength = 20
	Strong     Strength = 30
	VeryStrong Strength = 40
	Required   Strength = 100
)

// Var is the read/write surface constraints operate on. A *[Variable] is a
// Var; a [Projection] wraps a variable stored in another coordinate space.
// Identity matters: two Vars are the same participant only if they are the
// same value, never because they hold equal numbers.
type Var interface {
	// Value returns the current value, translated into the Var's own
	// coordinate space for projections.
	Value() float64

	// SetValue updates the backing variable, inverse-translating for
	// projections. Outside a solve pass this marks the variable dirty.
	SetValue(value float64)

	// Strength returns the strength of the backing variable.
	Strength() Strength

	// Variable returns the backing variable. For a plain *Variable this is
	// the receiver itself; projections unwrap to their backing store.
	Variable() *Variable
}

// Projection is a Var whose storage belongs to another variable, translated
// between coordinate spaces on every access. The solver only relies on the
// Var contract; concrete projections live with the coordinate system that
// defines them (see the canvas package).
type Projection interface {
	Var
}

// Variable is a numeric cell participating in constraints. Create one with
// NewVariable; the zero value has no strength tier assigned.
//
// Variables are compared by identity. Constraints hold *Variable pointers
// and the solver indexes by them, so a Variable must not be copied once it
// participates in a constraint.
type Variable struct {
	value    float64
	strength Strength

	// Set when a constraint referencing this variable is registered.
	solver *Solver
}

// NewVariable returns a variable with the given value and strength.
func NewVariable(value float64, strength Strength) *Variable {
	return &Variable{value: value, strength: strength}
}

// Value returns the current value.
func (v *Variable) Value() float64 { return v.value }

// SetValue updates the value and, if the variable participates in a
// registered constraint, marks those constraints dirty so the next
// [Solver.Solve] restores consistency.
func (v *Variable) SetValue(value float64) {
	v.value = value
	if v.solver != nil {
		v.solver.markDirty(v)
	}
}

// SetBare updates the value without dirty bookkeeping. The canvas uses it
// during handle normalization, where a compensating matrix translation
// keeps the system consistent by construction. Normal mutation goes
// through SetValue.
func (v *Variable) SetBare(value float64) { v.value = value }

// Strength returns the variable's strength tier.
func (v *Variable) Strength() Strength { return v.strength }

// SetStrength changes the strength tier. Constraints referencing the
// variable rebuild their weakest-candidate lists so the next solve uses the
// new ordering.
func (v *Variable) SetStrength(s Strength) {
	v.strength = s
	if v.solver != nil {
		for _, c := range v.solver.constraintsWith(v) {
			c.RebuildWeakest()
		}
	}
}

// Variable returns v itself, satisfying the Var interface.
func (v *Variable) Variable() *Variable { return v }
