package scheduler

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned for negative delays and nil callbacks.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrAlreadyStarted is returned by Start when the loop is already running.
	ErrAlreadyStarted = errors.New("scheduler already started")
	// ErrNotStarted is returned by Stop when the loop is not running.
	ErrNotStarted = errors.New("scheduler not started")
)

// CallbackError describes a callback that returned an error or panicked.
// It never leaves the scheduler loop: it is logged and recorded in the
// execution history.
type CallbackError struct {
	// AlarmID identifies the handle whose callback failed.
	AlarmID string
	// Callback is the display name of the callback.
	Callback string
	// Err is the error returned by the callback, nil on panic.
	Err error
	// Panic is the recovered panic value, nil when the callback returned an error.
	Panic any
	// Stack is the goroutine stack captured on panic.
	Stack []byte
}

// Error implements the error interface.
func (e *CallbackError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("alarm %s: callback %s panicked: %v", e.AlarmID, e.Callback, e.Panic)
	}

	return fmt.Sprintf("alarm %s: callback %s: %v", e.AlarmID, e.Callback, e.Err)
}

// Unwrap returns the error returned by the callback.
func (e *CallbackError) Unwrap() error {
	return e.Err
}
