package circuit

import "errors"

// Domain errors for circuit construction and simulation.
var (
	// ErrLocked indicates a builder call after Lock.
	ErrLocked = errors.New("circuit: locked, topology cannot change")

	// ErrNotLocked indicates component access before Lock. Accessors
	// panic with this value because it is a programming error: the lock
	// is what makes returned pointers safe for the circuit's lifetime.
	ErrNotLocked = errors.New("circuit: must lock before accessing components")

	// ErrNodeConflict indicates a node allocated as forced, virtual
	// ground, or current sink more than once in incompatible ways.
	ErrNodeConflict = errors.New("circuit: node allocation conflict")

	// ErrNodeIndex indicates a node index outside the node list.
	ErrNodeIndex = errors.New("circuit: node index out of range")

	// ErrDeviceOrder indicates an active device added out of evaluation
	// order: its output feeds an earlier active device's input, or a
	// linear amp follows a comparator.
	ErrDeviceOrder = errors.New("circuit: active device ordering violation")

	// ErrSampleRate indicates Update was called with a non-positive
	// audio sample rate.
	ErrSampleRate = errors.New("circuit: sample rate must be positive")

	// ErrConvergence indicates the solver exhausted its retry limit
	// without reaching tolerance or halting.
	ErrConvergence = errors.New("circuit: solver failed to converge")
)
