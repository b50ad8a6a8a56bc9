// Package observability provides hooks for instrumenting the solver and
// the canvas update cycle.
//
// The core packages stay free of hard dependencies on metrics or tracing
// backends. Consumers register hook implementations at startup and receive
// events about solve passes, update cycles, and the diagnostic conditions
// (non-convergence, oscillation, item callback failures) that the engine
// reports instead of failing hard.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetSolverHooks(&mySolverHooks{})
//	    observability.SetCanvasHooks(&myCanvasHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Solver().OnSolveStart(queued)
//	// ... solve ...
//	observability.Solver().OnSolveComplete(iterations, err)
package observability

import (
	"sync"
	"time"
)

// =============================================================================
// Solver Hooks
// =============================================================================

// SolverHooks receives events from constraint solve passes.
type SolverHooks interface {
	// OnSolveStart records the start of a solve pass with the number of
	// queued dirty constraints.
	OnSolveStart(queued int)

	// OnSolveComplete records the end of a solve pass. err is non-nil when
	// the pass was aborted or a constraint failed.
	OnSolveComplete(iterations int, err error)

	// OnNonConvergence records an equation constraint that exhausted its
	// iteration budget. The solver proceeds with the best estimate.
	OnNonConvergence(constraint string, residual float64, iterations int)

	// OnJuggle records an aborted solve pass caused by constraints marking
	// each other dirty indefinitely.
	OnJuggle(constraint string, iterations int)
}

// =============================================================================
// Canvas Hooks
// =============================================================================

// CanvasHooks receives events from the canvas update cycle.
type CanvasHooks interface {
	// OnUpdateStart records the start of an update cycle.
	OnUpdateStart(dirtyItems, dirtyMatrices int)

	// OnUpdateComplete records a finished update cycle with the number of
	// solve/transform passes it took to reach a fixed point.
	OnUpdateComplete(passes int, duration time.Duration)

	// OnItemError records a per-item update callback failure. The cycle
	// continues with the remaining items.
	OnItemError(itemID, stage string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopSolverHooks is a no-op implementation of SolverHooks.
type NoopSolverHooks struct{}

func (NoopSolverHooks) OnSolveStart(int)                      {}
func (NoopSolverHooks) OnSolveComplete(int, error)            {}
func (NoopSolverHooks) OnNonConvergence(string, float64, int) {}
func (NoopSolverHooks) OnJuggle(string, int)                  {}

// NoopCanvasHooks is a no-op implementation of CanvasHooks.
type NoopCanvasHooks struct{}

func (NoopCanvasHooks) OnUpdateStart(int, int)              {}
func (NoopCanvasHooks) OnUpdateComplete(int, time.Duration) {}
func (NoopCanvasHooks) OnItemError(string, string, error)   {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	solverHooks SolverHooks = NoopSolverHooks{}
	canvasHooks CanvasHooks = NoopCanvasHooks{}
	hooksMu     sync.RWMutex
)

// SetSolverHooks registers custom solver hooks.
// This should be called once at application startup before any solving.
func SetSolverHooks(h SolverHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		solverHooks = h
	}
}

// SetCanvasHooks registers custom canvas hooks.
// This should be called once at application startup before any updates.
func SetCanvasHooks(h CanvasHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		canvasHooks = h
	}
}

// Solver returns the registered solver hooks.
func Solver() SolverHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return solverHooks
}

// Canvas returns the registered canvas hooks.
func Canvas() CanvasHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return canvasHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	solverHooks = NoopSolverHooks{}
	canvasHooks = NoopCanvasHooks{}
}
