package eventstate

import (
	"errors"
	"fmt"
)

var (
	// ErrInactiveContext indicates a state-dependent operation ran while no
	// cycle was in progress. This is a programming error in how the library
	// is wired into the host, not a recoverable condition.
	ErrInactiveContext = errors.New("eventstate: no active event cycle")
	// ErrUnregisteredState indicates a Get for a key with no registered
	// lifecycle. Missing registrations fail loudly instead of yielding a
	// default value.
	ErrUnregisteredState = errors.New("eventstate: no lifecycle registered for state")
	// ErrReentrantBegin indicates a cycle was begun on a context.Context
	// that already carries an active cycle. The prior cycle was never
	// finished; overwriting it would leak its uncommitted state.
	ErrReentrantBegin = errors.New("eventstate: event cycle already active")
)

// FinishError captures a single failed finalization alongside the state and
// cycle it belongs to. Finish collects these and joins them, so every
// pending finalizer still runs after one fails.
type FinishError struct {
	State   string
	CycleID string
	Err     error
}

func (e *FinishError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("eventstate: finish %s cycle=%s: %v", describeState(e.State), e.CycleID, e.Err)
}

func (e *FinishError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeState(name string) string {
	if name == "" {
		return "state=<unknown>"
	}
	return fmt.Sprintf("state=%q", name)
}
