package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is the sentinel wrapped by every ConfigurationError.
	ErrConfiguration = errors.New("configuration error")

	// ErrReplayConflict is the sentinel wrapped by every ReplayConflictError.
	ErrReplayConflict = errors.New("replay conflict")

	// ErrHalted is returned when a journey stopped after a configuration error.
	ErrHalted = errors.New("journey halted")

	// ErrCompleted is returned when a journey already handed off.
	ErrCompleted = errors.New("journey completed")

	// ErrNoActivePrompt is returned when a response arrives with no widget surfaced.
	ErrNoActivePrompt = errors.New("no active prompt")

	// ErrStalePrompt is returned when a response targets a superseded widget activation.
	ErrStalePrompt = errors.New("stale prompt activation")

	// ErrStaleTurn is returned when a reset invalidated an in-flight turn.
	ErrStaleTurn = errors.New("turn invalidated by reset")

	// ErrNoPendingEdit is returned when an edit is confirmed or submitted without a request.
	ErrNoPendingEdit = errors.New("no pending edit")

	// ErrSnapshotNotFound is returned when a product has no persisted snapshot.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrCorruptSnapshot marks a snapshot whose fields fail the product's shapes.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")

	// ErrKeyNotFound is returned by key-value stores for missing keys.
	ErrKeyNotFound = errors.New("key not found")

	// ErrJourneyNotFound is returned when a journey id is unknown to a session manager.
	ErrJourneyNotFound = errors.New("journey not found")
)

// ConfigurationError reports a defect in a step registry: an unknown step id,
// a next-step id outside the registry, a skip chain over the cap, or a step
// function that panicked. It halts transitions.
type ConfigurationError struct {
	StepID string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("configuration error at step %q: %s", e.StepID, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrConfiguration, e.Err}
	}
	return []error{ErrConfiguration}
}

// ReplayConflictError reports an edit request for a message that is no longer
// part of the history (or was never an editable answer).
type ReplayConflictError struct {
	MessageID string
	StepID    string
	Reason    string
}

func (e *ReplayConflictError) Error() string {
	return fmt.Sprintf("cannot edit message %q (step %q): %s", e.MessageID, e.StepID, e.Reason)
}

func (e *ReplayConflictError) Unwrap() error {
	return ErrReplayConflict
}
