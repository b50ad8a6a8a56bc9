package solver

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/easelkit/easel/pkg/observability"
)

var (
	// ErrNotRegistered is returned when a constraint is removed from, or
	// re-queued on, a solver that never held it. This is a programming
	// error on the caller's side and is reported loudly instead of being
	// silently ignored.
	ErrNotRegistered = errors.New("constraint not registered with this solver")

	// ErrDuplicateConstraint is returned by [Solver.AddConstraint] when the
	// constraint is already registered.
	ErrDuplicateConstraint = errors.New("constraint already registered")

	// ErrJuggle is returned by [Solver.Solve] when constraints keep marking
	// each other dirty past the iteration bound. This indicates a
	// contradictory strength assignment between constraints sharing a
	// variable; the solve is aborted rather than allowed to loop forever.
	ErrJuggle = errors.New("variable juggling detected")
)

// juggleLimit bounds how often a single constraint may be re-solved during
// one Solve call before the pass is declared to be oscillating.
const juggleLimit = 100

// Constraint is the contract between the solver and the constraint kinds
// defined in the constraint package.
//
// A constraint's participant list is fixed at construction. Weakest returns
// the participant that should yield next: the least recently chosen among
// those sharing the minimum strength. MarkDirty rotates that ordering after
// a participant has been written to, and RebuildWeakest recomputes the
// candidate list after a strength change.
type Constraint interface {
	// Variables returns the participants. Entries may be plain *Variable
	// values or Projections over them.
	Variables() []Var

	// Weakest returns the participant to solve for next.
	Weakest() Var

	// MarkDirty records that the participant backed by v was just written,
	// moving it to the back of the weakest-candidate rotation.
	MarkDirty(v *Variable)

	// RebuildWeakest recomputes the weakest-candidate list from current
	// participant strengths.
	RebuildWeakest()

	// SolveFor mutates participants other than v so the constraint holds.
	// It must be a pure function of current participant values.
	SolveFor(v Var) error
}

// Solver owns a set of constraints, an index from backing variable to the
// constraints referencing it, and a queue of constraints pending
// resolution. It is not safe for concurrent use; callers exposing a solver
// across goroutines must serialize access.
type Solver struct {
	constraints map[Constraint]struct{}
	index       map[*Variable]map[Constraint]struct{}

	// Dirty queue in FIFO order with set-based dedup: re-marking a queued
	// constraint moves it to the back.
	queue  []Constraint
	queued map[Constraint]struct{}

	solving bool
	logger  *log.Logger
}

// New returns an empty solver. Diagnostics are discarded until SetLogger
// is called.
func New() *Solver {
	return &Solver{
		constraints: make(map[Constraint]struct{}),
		index:       make(map[*Variable]map[Constraint]struct{}),
		queued:      make(map[Constraint]struct{}),
		logger:      log.NewWithOptions(io.Discard, log.Options{}),
	}
}

// SetLogger routes solver diagnostics (juggling reports, queue tracing at
// debug level) to the given logger. A nil logger restores the discard
// default.
func (s *Solver) SetLogger(l *log.Logger) {
	if l == nil {
		l = log.NewWithOptions(io.Discard, log.Options{})
	}
	s.logger = l
}

// AddConstraint registers a constraint, indexes its participants, and marks
// it dirty so the next Solve establishes it. Returns ErrDuplicateConstraint
// if the constraint is already registered.
func (s *Solver) AddConstraint(c Constraint) error {
	if _, ok := s.constraints[c]; ok {
		return ErrDuplicateConstraint
	}
	s.constraints[c] = struct{}{}
	for _, entry := range c.Variables() {
		v := entry.Variable()
		set, ok := s.index[v]
		if !ok {
			set = make(map[Constraint]struct{})
			s.index[v] = set
		}
		set[c] = struct{}{}
		v.solver = s
	}
	s.mark(c)
	return nil
}

// RemoveConstraint unregisters a constraint, even when it is currently
// queued. Removing a constraint that was never added returns
// ErrNotRegistered.
func (s *Solver) RemoveConstraint(c Constraint) error {
	if _, ok := s.constraints[c]; !ok {
		return ErrNotRegistered
	}
	delete(s.constraints, c)
	for _, entry := range c.Variables() {
		v := entry.Variable()
		if set, ok := s.index[v]; ok {
			delete(set, c)
			if len(set) == 0 {
				delete(s.index, v)
			}
		}
	}
	if _, ok := s.queued[c]; ok {
		delete(s.queued, c)
		for i, qc := range s.queue {
			if qc == c {
				s.queue = append(s.queue[:i], s.queue[i+1:]...)
				break
			}
		}
	}
	return nil
}

// Constraints returns all registered constraints. Order is not guaranteed.
func (s *Solver) Constraints() []Constraint {
	out := make([]Constraint, 0, len(s.constraints))
	for c := range s.constraints {
		out = append(out, c)
	}
	return out
}

// ConstraintCount returns the number of registered constraints.
func (s *Solver) ConstraintCount() int { return len(s.constraints) }

// ConstraintsWith returns the constraints referencing the given backing
// variable, directly or through a projection.
func (s *Solver) ConstraintsWith(v *Variable) []Constraint {
	return s.constraintsWith(v)
}

func (s *Solver) constraintsWith(v *Variable) []Constraint {
	set := s.index[v]
	out := make([]Constraint, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

// RequestResolve marks every constraint referencing v as dirty without
// touching weakest-candidate rotations. With projectionsOnly set, only
// constraints that reach v through a Projection are marked; constraints
// referencing the plain variable are left alone. The canvas uses the
// restricted form after transform-only changes, where the variable's own
// value did not move but its projected value did.
func (s *Solver) RequestResolve(v *Variable, projectionsOnly bool) {
	for c := range s.index[v] {
		if projectionsOnly && !reachesThroughProjection(c, v) {
			continue
		}
		s.mark(c)
	}
}

// RequestResolveConstraint marks a single registered constraint as dirty.
// Used when a constraint's parameters (not its variables) change, e.g. a
// minimum-size delta. Returns ErrNotRegistered for unknown constraints.
func (s *Solver) RequestResolveConstraint(c Constraint) error {
	if _, ok := s.constraints[c]; !ok {
		return ErrNotRegistered
	}
	s.mark(c)
	return nil
}

// NeedsSolve reports whether any constraint is queued for resolution.
func (s *Solver) NeedsSolve() bool { return len(s.queue) > 0 }

// markDirty is called by Variable.SetValue. During a solve pass the loop
// itself propagates value changes, so external bookkeeping is suspended.
func (s *Solver) markDirty(v *Variable) {
	if s.solving {
		return
	}
	for c := range s.index[v] {
		c.MarkDirty(v)
		s.mark(c)
	}
}

// mark queues a constraint, moving it to the back if already queued.
func (s *Solver) mark(c Constraint) {
	if _, ok := s.queued[c]; ok {
		for i, qc := range s.queue {
			if qc == c {
				s.queue = append(s.queue[:i], s.queue[i+1:]...)
				break
			}
		}
	} else {
		s.queued[c] = struct{}{}
	}
	s.queue = append(s.queue, c)
}

// pop removes and returns the front of the dirty queue.
func (s *Solver) pop() Constraint {
	c := s.queue[0]
	s.queue = s.queue[1:]
	delete(s.queued, c)
	return c
}

// Solve resolves dirty constraints to a fixed point.
//
// Each iteration pops one constraint, solves it for its weakest variable,
// rotates that variable to the back of the constraint's weakest list, and
// re-marks every other constraint referencing a participant whose value
// changed (the constraint just solved is skipped to avoid immediate
// self-retriggering).
//
// Solve is idempotent: on a consistent system it is a no-op. If constraints
// keep re-marking each other past a bound proportional to the constraint
// count, Solve reports ErrJuggle, drops the remaining queue, and returns;
// it never hangs. Calling Solve from within a solve pass is a no-op.
func (s *Solver) Solve() error {
	if s.solving {
		return nil
	}
	s.solving = true
	defer func() { s.solving = false }()

	observability.Solver().OnSolveStart(len(s.queue))

	solveCounts := make(map[Constraint]int)
	iterations := 0
	var err error

	for len(s.queue) > 0 {
		c := s.pop()
		if _, ok := s.constraints[c]; !ok {
			continue // removed while queued by a callback
		}
		iterations++
		solveCounts[c]++
		if solveCounts[c] > juggleLimit {
			err = fmt.Errorf("%w: constraint %v re-solved %d times", ErrJuggle, c, solveCounts[c])
			s.logger.Error("solver oscillation, aborting pass",
				"constraint", fmt.Sprintf("%v", c), "iterations", iterations)
			observability.Solver().OnJuggle(fmt.Sprintf("%v", c), iterations)
			s.queue = s.queue[:0]
			clear(s.queued)
			break
		}

		weakest := c.Weakest()
		before := snapshot(c)
		if serr := c.SolveFor(weakest); serr != nil {
			s.logger.Warn("constraint failed to solve", "constraint", fmt.Sprintf("%v", c), "err", serr)
			if err == nil {
				err = serr
			}
		}
		c.MarkDirty(weakest.Variable())

		// Propagate: any other participant whose backing value moved makes
		// the constraints referencing it dirty again.
		for _, entry := range c.Variables() {
			v := entry.Variable()
			prev, ok := before[v]
			if !ok || prev == v.Value() {
				continue
			}
			for other := range s.index[v] {
				if other == c {
					continue
				}
				other.MarkDirty(v)
				s.mark(other)
			}
		}
	}

	observability.Solver().OnSolveComplete(iterations, err)
	return err
}

// snapshot records the backing value of every participant of c.
func snapshot(c Constraint) map[*Variable]float64 {
	vars := c.Variables()
	m := make(map[*Variable]float64, len(vars))
	for _, entry := range vars {
		v := entry.Variable()
		m[v] = v.Value()
	}
	return m
}

// reachesThroughProjection reports whether constraint c references v only
// via at least one Projection entry.
func reachesThroughProjection(c Constraint, v *Variable) bool {
	for _, entry := range c.Variables() {
		if entry.Variable() != v {
			continue
		}
		if plain, ok := entry.(*Variable); ok && plain == v {
			continue
		}
		return true
	}
	return false
}
