package scheduler

import (
	"context"
	"fmt"
)

// Callback is invoked on the scheduler goroutine when an alarm expires.
// Implementations may call back into h synchronously, e.g. to reschedule.
type Callback interface {
	OnFire(ctx context.Context, h *Handle) error
}

// CallbackFunc adapts a plain function to Callback.
type CallbackFunc func(ctx context.Context, h *Handle) error

// OnFire calls f(ctx, h).
func (f CallbackFunc) OnFire(ctx context.Context, h *Handle) error {
	return f(ctx, h)
}

// namedCallback attaches a display name to a callback function.
type namedCallback struct {
	name string
	fn   CallbackFunc
}

// Named returns a Callback that reports name in logs and diagnostics.
func Named(name string, fn CallbackFunc) Callback {
	return &namedCallback{
		name: name,
		fn:   fn,
	}
}

// OnFire calls the wrapped function.
func (c *namedCallback) OnFire(ctx context.Context, h *Handle) error {
	return c.fn(ctx, h)
}

// String returns the callback name.
func (c *namedCallback) String() string {
	return c.name
}

// callbackName returns the display name of a callback:
// its String method when it has one, its type otherwise.
func callbackName(cb Callback) string {
	if s, ok := cb.(fmt.Stringer); ok {
		return s.String()
	}

	return fmt.Sprintf("%T", cb)
}
