// Package item provides the things that live on a canvas: items with a
// local transform, the handles that anchor and resize them, and the ports
// other items connect to.
//
// Items never talk to each other directly. All geometry flows through
// solver variables and constraints; the canvas composes item transforms and
// drives the update cycle.
package item

import (
	"context"
	"math"

	"github.com/google/uuid"

	"github.com/easelkit/easel/pkg/geom"
	"github.com/easelkit/easel/pkg/solver"
)

// Owner is the canvas-side surface an item needs once it has been added:
// the shared solver for constraint bookkeeping and update scheduling for
// geometry changes. The canvas package implements it.
type Owner interface {
	Solver() *solver.Solver
	RequestUpdate(Item)
}

// Item is a node on the canvas. Implementations embed Base and override
// what they need.
//
// PreUpdate runs at the start of an update cycle, before constraints are
// solved; no geometric invariant holds at that point. PostUpdate runs after
// the cycle reaches its fixed point, with all invariants restored. Errors
// from either are logged per item and do not abort the cycle.
type Item interface {
	// ID identifies the item for logging, export and the API.
	ID() uuid.UUID

	// Matrix returns the local transform (item to parent coordinates).
	Matrix() geom.Matrix

	// SetMatrix replaces the local transform. Callers must follow up with
	// a matrix update request on the owning canvas.
	SetMatrix(m geom.Matrix)

	Handles() []*Handle
	Ports() []Port

	// Constraints returns the item's internal constraints, registered with
	// the owner's solver while the item is bound.
	Constraints() []solver.Constraint

	// BindOwner attaches the item to a canvas (or detaches with nil). The
	// canvas calls this from Add and Remove.
	BindOwner(o Owner)
	Owner() Owner

	PreUpdate(ctx context.Context) error
	PostUpdate(ctx context.Context) error

	// Point returns the distance from p (item-local) to the item.
	Point(p geom.Point) float64
}

// Base carries the state every item shares. The zero value is not usable;
// embed the result of NewBase.
type Base struct {
	id          uuid.UUID
	matrix      geom.Matrix
	handles     []*Handle
	ports       []Port
	constraints []solver.Constraint
	owner       Owner
}

// NewBase returns an item base with a fresh ID and an identity transform.
func NewBase() Base {
	return Base{id: uuid.New(), matrix: geom.Identity()}
}

func (b *Base) ID() uuid.UUID { return b.id }

func (b *Base) Matrix() geom.Matrix     { return b.matrix }
func (b *Base) SetMatrix(m geom.Matrix) { b.matrix = m }

func (b *Base) Handles() []*Handle { return b.handles }
func (b *Base) Ports() []Port      { return b.ports }

func (b *Base) Constraints() []solver.Constraint { return b.constraints }

// AddConstraint appends an internal constraint. If the item is already
// bound to an owner, the constraint is registered with the solver at once.
func (b *Base) AddConstraint(c solver.Constraint) {
	b.constraints = append(b.constraints, c)
	if b.owner != nil {
		b.owner.Solver().AddConstraint(c)
	}
}

// BindOwner registers the item's constraints with the owner's solver, or on
// nil unbinds: handles are disconnected and constraints removed.
func (b *Base) BindOwner(o Owner) {
	if o == nil && b.owner != nil {
		for _, h := range b.handles {
			h.Disconnect()
		}
		for _, c := range b.constraints {
			b.owner.Solver().RemoveConstraint(c)
		}
		b.owner = nil
		return
	}
	b.owner = o
	if o != nil {
		for _, c := range b.constraints {
			o.Solver().AddConstraint(c)
		}
	}
}

func (b *Base) Owner() Owner { return b.owner }

// PreUpdate is a no-op; items with per-cycle preparation override it.
func (b *Base) PreUpdate(ctx context.Context) error { return nil }

// PostUpdate is a no-op; items deriving values from solved geometry
// override it.
func (b *Base) PostUpdate(ctx context.Context) error { return nil }

// Point reports an infinite distance; concrete items override it with their
// own geometry.
func (b *Base) Point(p geom.Point) float64 { return math.Inf(1) }
