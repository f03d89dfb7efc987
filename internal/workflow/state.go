// Package workflow drives a single client session through staging,
// uploading, processing and downloading. It holds all session state and
// exposes it as snapshots, so UI bindings stay thin adapters.
package workflow

import (
	"errors"
	"fmt"
	"slices"
)

// State is the current step of a session.
type State string

const (
	// StateIdle means no file is staged, or the last upload failed.
	StateIdle State = "idle"
	// StateStaged means a local file is selected but not yet uploaded.
	StateStaged State = "staged"
	// StateUploaded means the backend holds the file and Process is available.
	StateUploaded State = "uploaded"
	// StateProcessing means a process request is in flight.
	StateProcessing State = "processing"
	// StateSucceeded means the last process request produced a result.
	StateSucceeded State = "succeeded"
	// StateFailed means the last process request failed.
	StateFailed State = "failed"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("workflow: invalid state transition")

// validTransitions defines which state transitions are allowed.
var validTransitions = map[State][]State{
	StateIdle:       {StateStaged},
	StateStaged:     {StateStaged, StateUploaded, StateIdle},
	StateUploaded:   {StateStaged, StateProcessing},
	StateProcessing: {StateSucceeded, StateFailed},
	StateSucceeded:  {StateStaged, StateProcessing},
	StateFailed:     {StateStaged, StateProcessing},
}

// canTransition checks if a transition from one state to another is valid.
func canTransition(from, to State) bool {
	return slices.Contains(validTransitions[from], to)
}

// transition moves from to to, or reports why it cannot.
func transition(from, to State) error {
	if !canTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
