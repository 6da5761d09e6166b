package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/oshokin/alarm-scheduler/internal/domain/alarm"
)

const (
	// DefaultMaxIdleInterval bounds how long the loop sleeps with nothing pending.
	DefaultMaxIdleInterval = time.Minute
	// DefaultHistorySize is the number of completed executions kept for diagnostics.
	DefaultHistorySize = 32
)

// Scheduler owns the alarm registry and the loop that fires expired alarms.
// The zero value is not usable; create one with New.
type Scheduler struct {
	// clock supplies the current time and the loop's sleep timers.
	clock clockwork.Clock
	// maxIdle is the sleep used when no alarm is pending.
	maxIdle time.Duration
	// historySize caps the execution history.
	historySize int

	// registry holds the pending generations.
	registry *registry
	// wake interrupts the loop's sleep. Buffered so senders never block.
	wake chan struct{}
	// diag records executions.
	diag *diagnostics

	// mu guards the lifecycle fields below.
	mu sync.Mutex
	// cancel stops the running loop.
	cancel context.CancelFunc
	// done is closed when the running loop returns.
	done chan struct{}
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock sets the clock used for expiries and sleeps.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Scheduler) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithMaxIdleInterval sets how long the loop sleeps when nothing is pending.
func WithMaxIdleInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.maxIdle = d
		}
	}
}

// WithHistorySize sets how many completed executions History keeps.
// Zero disables the history.
func WithHistorySize(n int) Option {
	return func(s *Scheduler) {
		if n >= 0 {
			s.historySize = n
		}
	}
}

// New creates a stopped Scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:       clockwork.NewRealClock(),
		maxIdle:     DefaultMaxIdleInterval,
		historySize: DefaultHistorySize,
		registry:    newRegistry(),
		wake:        make(chan struct{}, 1),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.diag = newDiagnostics(s.historySize)

	return s
}

// Start launches the scheduler loop. The loop logs through ctx and exits when
// ctx is cancelled or Stop is called. Alarms may be created before Start;
// they fire once the loop runs.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx, s.done)

	return nil
}

// Stop halts the loop and waits for the callback in progress, if any, to
// return. Pending alarms stay queued and fire after the next Start.
// Stop must not be called from a callback.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if done == nil {
		return ErrNotStarted
	}

	cancel()
	<-done

	return nil
}

// Create schedules callback to fire once after delay and returns its handle.
// argument is handed back to the callback through Handle.Argument.
func (s *Scheduler) Create(delay time.Duration, callback Callback, argument any) (*Handle, error) {
	if delay < 0 {
		return nil, fmt.Errorf("%w: negative delay %s", ErrInvalidArgument, delay)
	}

	if callback == nil {
		return nil, fmt.Errorf("%w: callback is required", ErrInvalidArgument)
	}

	h := &Handle{
		scheduler: s,
		id:        uuid.NewString(),
		name:      callbackName(callback),
		callback:  callback,
		argument:  argument,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.arm(delay)

	return h, nil
}

// PendingCount returns the number of alarms waiting to fire.
func (s *Scheduler) PendingCount() int {
	return s.registry.len()
}

// LastExecutionStart returns the most recently started callback execution,
// or nil if no callback has run yet.
func (s *Scheduler) LastExecutionStart() *alarm.Execution {
	return s.diag.lastStarted()
}

// LastExecutionEnd returns the most recently completed callback execution,
// or nil if no callback has completed yet.
func (s *Scheduler) LastExecutionEnd() *alarm.Execution {
	return s.diag.lastFinished()
}

// History returns the latest completed executions, oldest first.
func (s *Scheduler) History() []alarm.Execution {
	return s.diag.recent()
}

// Stats returns a snapshot of scheduler activity.
func (s *Scheduler) Stats() *alarm.Stats {
	stats := &alarm.Stats{
		Timestamp: s.clock.Now(),
		Pending:   s.registry.len(),
	}

	s.diag.fill(stats)

	return stats
}

// signal wakes the sleeping loop. A signal that finds the buffer full is dropped.
func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
