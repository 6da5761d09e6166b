package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/oshokin/alarm-scheduler/internal/domain/alarm"
)

// Handle is the client side of one alarm.
// It stays valid across reschedules: every reschedule starts a new generation
// of the same handle, and at most one generation is pending at a time.
type Handle struct {
	// scheduler owns the registry the handle is queued in.
	scheduler *Scheduler
	// id is a unique identifier used in logs and by the admin API.
	id string
	// name is the display name of the callback.
	name string
	// callback runs when a generation fires.
	callback Callback
	// argument is passed back to the callback through Argument.
	argument any

	// mu serialises reschedule and cancel calls on this handle.
	// Lock order is mu, then the registry mutex.
	mu sync.Mutex
	// current is the latest generation.
	current *entry
}

// ID returns the unique identifier of the handle.
func (h *Handle) ID() string {
	return h.id
}

// Name returns the display name of the callback.
func (h *Handle) Name() string {
	return h.name
}

// Argument returns the optional value given to Create.
func (h *Handle) Argument() any {
	return h.argument
}

// Interval returns the delay of the latest generation.
func (h *Handle) Interval() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.current.delay
}

// IntervalMillis returns Interval in whole milliseconds.
func (h *Handle) IntervalMillis() int64 {
	return h.Interval().Milliseconds()
}

// Expiry returns the absolute firing time of the latest generation.
func (h *Handle) Expiry() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.current.expiry
}

// Generation returns the sequence number of the latest generation.
func (h *Handle) Generation() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.current.sequence
}

// State returns the lifecycle state of the latest generation.
func (h *Handle) State() alarm.State {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.scheduler.registry.stateOf(h.current)
}

// IsExpired reports whether the latest generation has been handed to the
// scheduler loop, i.e. its callback is running or has run.
func (h *Handle) IsExpired() bool {
	return h.State() == alarm.Firing
}

// Cancel removes the pending generation. It returns false when there is
// nothing to cancel: the callback is already running, has run, or the
// handle was cancelled before. A running callback is never interrupted.
func (h *Handle) Cancel() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.scheduler.registry.remove(h.current)
}

// Reschedule re-arms the handle with the delay of its latest generation,
// measured from now.
func (h *Handle) Reschedule() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.arm(h.current.delay)
}

// RescheduleAfter re-arms the handle to fire delay from now, replacing any
// pending generation. It is safe to call from the handle's own callback.
func (h *Handle) RescheduleAfter(delay time.Duration) error {
	if delay < 0 {
		return fmt.Errorf("%w: negative delay %s", ErrInvalidArgument, delay)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.arm(delay)

	return nil
}

// String returns the handle id and callback name.
func (h *Handle) String() string {
	return h.id + "(" + h.name + ")"
}

// arm queues a new generation. Callers hold h.mu.
func (h *Handle) arm(delay time.Duration) {
	s := h.scheduler
	e := newEntry(h, delay, s.clock.Now().Add(delay))

	wake := s.registry.replace(h.current, e)
	h.current = e

	if wake {
		s.signal()
	}
}

// fire runs the callback and converts errors and panics into *CallbackError.
func (h *Handle) fire(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &CallbackError{
				AlarmID:  h.id,
				Callback: h.name,
				Panic:    r,
				Stack:    debug.Stack(),
			}
		}
	}()

	if cbErr := h.callback.OnFire(ctx, h); cbErr != nil {
		return &CallbackError{
			AlarmID:  h.id,
			Callback: h.name,
			Err:      cbErr,
		}
	}

	return nil
}
