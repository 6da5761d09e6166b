package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/oshokin/alarm-scheduler/internal/domain/alarm"
	"github.com/oshokin/alarm-scheduler/internal/logger"
)

var errTestCallback = errors.New("test callback failure")

// firingLog records callback invocations relative to a start time.
type firingLog struct {
	mu      sync.Mutex
	start   time.Time
	elapsed []time.Duration
	args    []any
}

func newFiringLog() *firingLog {
	return &firingLog{start: time.Now()}
}

// callback returns a callback appending to the log.
func (l *firingLog) callback() Callback {
	return CallbackFunc(func(_ context.Context, h *Handle) error {
		l.mu.Lock()
		defer l.mu.Unlock()

		l.elapsed = append(l.elapsed, time.Since(l.start))
		l.args = append(l.args, h.Argument())

		return nil
	})
}

func (l *firingLog) snapshot() ([]time.Duration, []any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]time.Duration(nil), l.elapsed...), append([]any(nil), l.args...)
}

// quietContext returns a context with a no-op logger.
func quietContext() context.Context {
	return logger.ToContext(context.Background(), zap.NewNop().Sugar())
}

// TestScheduler_FiresInExpiryOrder schedules {50,10,30}ms from three goroutines.
func TestScheduler_FiresInExpiryOrder(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		s := New()
		require.NoError(t, s.Start(quietContext()))

		defer s.Stop() //nolint:errcheck // Started above.

		var (
			log = newFiringLog()
			wg  sync.WaitGroup
		)

		for _, delay := range []time.Duration{50 * time.Millisecond, 10 * time.Millisecond, 30 * time.Millisecond} {
			wg.Go(func() {
				_, err := s.Create(delay, log.callback(), delay)
				assert.NoError(t, err)
			})
		}

		wg.Wait()
		time.Sleep(time.Second)
		synctest.Wait()

		elapsed, args := log.snapshot()
		require.Equal(t, []time.Duration{10 * time.Millisecond, 30 * time.Millisecond, 50 * time.Millisecond}, elapsed)
		require.Equal(t, []any{10 * time.Millisecond, 30 * time.Millisecond, 50 * time.Millisecond}, args)
		require.Zero(t, s.PendingCount())
	})
}

// TestScheduler_TiesFireInSchedulingOrder checks sequence tie-breaks for identical expiries and names.
func TestScheduler_TiesFireInSchedulingOrder(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		s := New()
		log := newFiringLog()

		// Same callback name on purpose: ordering must not depend on it.
		cb := Named("same", func(ctx context.Context, h *Handle) error {
			return log.callback().OnFire(ctx, h)
		})

		for _, arg := range []string{"first", "second", "third"} {
			_, err := s.Create(20*time.Millisecond, cb, arg)
			require.NoError(t, err)
		}

		require.NoError(t, s.Start(quietContext()))

		defer s.Stop() //nolint:errcheck // Started above.

		time.Sleep(time.Second)
		synctest.Wait()

		_, args := log.snapshot()
		require.Equal(t, []any{"first", "second", "third"}, args)
	})
}

// TestScheduler_CancelBeforeFire guarantees a cancelled alarm never runs.
func TestScheduler_CancelBeforeFire(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		s := New()
		require.NoError(t, s.Start(quietContext()))

		defer s.Stop() //nolint:errcheck // Started above.

		var calls atomic.Int32

		h, err := s.Create(time.Second, CallbackFunc(func(context.Context, *Handle) error {
			calls.Add(1)

			return nil
		}), nil)
		require.NoError(t, err)
		require.Equal(t, 1, s.PendingCount())

		require.True(t, h.Cancel())
		require.False(t, h.Cancel())
		require.Equal(t, alarm.Cancelled, h.State())
		require.Zero(t, s.PendingCount())

		time.Sleep(2 * time.Second)
		synctest.Wait()

		require.Zero(t, calls.Load())
		require.False(t, h.IsExpired())
		require.Nil(t, s.LastExecutionStart())
	})
}

// TestScheduler_RescheduleResetsTiming checks that expiry is measured from the reschedule call.
func TestScheduler_RescheduleResetsTiming(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		s := New()
		require.NoError(t, s.Start(quietContext()))

		defer s.Stop() //nolint:errcheck // Started above.

		log := newFiringLog()

		h, err := s.Create(100*time.Millisecond, log.callback(), nil)
		require.NoError(t, err)

		firstGeneration := h.Generation()

		time.Sleep(60 * time.Millisecond)
		require.NoError(t, h.RescheduleAfter(80*time.Millisecond))
		require.Greater(t, h.Generation(), firstGeneration)
		require.Equal(t, int64(80), h.IntervalMillis())
		require.Equal(t, 1, s.PendingCount())

		time.Sleep(time.Second)
		synctest.Wait()

		elapsed, _ := log.snapshot()
		require.Equal(t, []time.Duration{140 * time.Millisecond}, elapsed)
		require.True(t, h.IsExpired())

		// Plain Reschedule reuses the latest delay, not the original one.
		rearmedAt := time.Since(log.start)
		h.Reschedule()

		time.Sleep(time.Second)
		synctest.Wait()

		elapsed, _ = log.snapshot()
		require.Equal(t, []time.Duration{140 * time.Millisecond, rearmedAt + 80*time.Millisecond}, elapsed)
	})
}

// TestScheduler_SelfRescheduleFromCallback re-arms from inside OnFire without deadlock or double firing.
func TestScheduler_SelfRescheduleFromCallback(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		s := New()
		require.NoError(t, s.Start(quietContext()))

		defer s.Stop() //nolint:errcheck // Started above.

		var (
			log   = newFiringLog()
			calls atomic.Int32
		)

		cb := CallbackFunc(func(ctx context.Context, h *Handle) error {
			if err := log.callback().OnFire(ctx, h); err != nil {
				return err
			}

			if calls.Add(1) > 1 {
				return nil
			}

			if !h.IsExpired() {
				return errTestCallback
			}

			// Cancelling a running generation is a no-op.
			if h.Cancel() {
				return errTestCallback
			}

			return h.RescheduleAfter(50 * time.Millisecond)
		})

		h, err := s.Create(10*time.Millisecond, cb, nil)
		require.NoError(t, err)

		time.Sleep(time.Second)
		synctest.Wait()

		elapsed, _ := log.snapshot()
		require.Equal(t, []time.Duration{10 * time.Millisecond, 60 * time.Millisecond}, elapsed)
		require.Equal(t, int32(2), calls.Load())
		require.Zero(t, s.Stats().Failed)
		require.True(t, h.IsExpired())
		require.Zero(t, s.PendingCount())
	})
}

// TestScheduler_FailureIsolation verifies that failing and panicking callbacks do not stop later alarms.
func TestScheduler_FailureIsolation(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		core, logs := observer.New(zapcore.ErrorLevel)
		ctx := logger.ToContext(context.Background(), zap.New(core).Sugar())

		s := New()
		require.NoError(t, s.Start(ctx))

		defer s.Stop() //nolint:errcheck // Started above.

		var benign atomic.Int32

		failing, err := s.Create(10*time.Millisecond, Named("failing", func(context.Context, *Handle) error {
			return errTestCallback
		}), nil)
		require.NoError(t, err)

		_, err = s.Create(15*time.Millisecond, Named("panicking", func(context.Context, *Handle) error {
			panic("boom")
		}), nil)
		require.NoError(t, err)

		benignHandle, err := s.Create(20*time.Millisecond, Named("benign", func(context.Context, *Handle) error {
			benign.Add(1)

			return nil
		}), nil)
		require.NoError(t, err)

		time.Sleep(time.Second)
		synctest.Wait()

		require.Equal(t, int32(1), benign.Load())

		stats := s.Stats()
		require.Equal(t, uint64(3), stats.Fired)
		require.Equal(t, uint64(2), stats.Failed)
		require.Equal(t, benignHandle.ID(), stats.LastEnd.AlarmID)
		require.False(t, stats.LastEnd.Failed())

		history := s.History()
		require.Len(t, history, 3)
		require.Equal(t, failing.ID(), history[0].AlarmID)
		require.Contains(t, history[0].Error, errTestCallback.Error())
		require.Contains(t, history[1].Error, "panicked: boom")
		require.Empty(t, history[2].Error)

		failures := logs.FilterMessage("Alarm callback failed").All()
		require.Len(t, failures, 2)
		require.Equal(t, "failing", failures[0].ContextMap()["callback"])
		require.Contains(t, failures[1].ContextMap(), "stack")
	})
}

// TestScheduler_WakesFromIdleForNewAlarm checks an alarm created during an idle sleep fires on time.
func TestScheduler_WakesFromIdleForNewAlarm(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		s := New(WithMaxIdleInterval(time.Hour))
		require.NoError(t, s.Start(quietContext()))

		defer s.Stop() //nolint:errcheck // Started above.

		// Let the loop fall asleep on the idle interval.
		time.Sleep(5 * time.Second)
		synctest.Wait()

		log := newFiringLog()
		_, err := s.Create(100*time.Millisecond, log.callback(), nil)
		require.NoError(t, err)

		// A later alarm must not delay an earlier one created afterwards.
		_, err = s.Create(10*time.Minute, log.callback(), "late")
		require.NoError(t, err)

		_, err = s.Create(time.Millisecond, log.callback(), "early")
		require.NoError(t, err)

		time.Sleep(time.Second)
		synctest.Wait()

		elapsed, args := log.snapshot()
		require.Equal(t, []time.Duration{time.Millisecond, 100 * time.Millisecond}, elapsed)
		require.Equal(t, []any{"early", nil}, args)
		require.Equal(t, 1, s.PendingCount())
	})
}

// TestScheduler_InvalidArguments rejects negative delays and nil callbacks without mutating state.
func TestScheduler_InvalidArguments(t *testing.T) {
	t.Parallel()

	s := New()

	_, err := s.Create(-time.Millisecond, CallbackFunc(func(context.Context, *Handle) error { return nil }), nil)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = s.Create(time.Second, nil, nil)
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.Zero(t, s.PendingCount())

	h, err := s.Create(time.Second, Named("scan-timer", func(context.Context, *Handle) error { return nil }), 7)
	require.NoError(t, err)
	require.Equal(t, "scan-timer", h.Name())
	require.Equal(t, 7, h.Argument())
	require.NotEmpty(t, h.ID())

	generation, expiry := h.Generation(), h.Expiry()

	require.ErrorIs(t, h.RescheduleAfter(-time.Second), ErrInvalidArgument)
	require.Equal(t, generation, h.Generation())
	require.Equal(t, expiry, h.Expiry())
	require.Equal(t, time.Second, h.Interval())
	require.Equal(t, alarm.Pending, h.State())
}

// TestScheduler_Lifecycle covers Start/Stop errors and restart with alarms queued while stopped.
func TestScheduler_Lifecycle(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		s := New()

		require.ErrorIs(t, s.Stop(), ErrNotStarted)
		require.NoError(t, s.Start(quietContext()))
		require.ErrorIs(t, s.Start(quietContext()), ErrAlreadyStarted)
		require.NoError(t, s.Stop())

		var calls atomic.Int32

		_, err := s.Create(10*time.Millisecond, CallbackFunc(func(context.Context, *Handle) error {
			calls.Add(1)

			return nil
		}), nil)
		require.NoError(t, err)

		time.Sleep(time.Second)
		synctest.Wait()
		require.Zero(t, calls.Load())

		// The queued alarm is already overdue and fires on the first scan.
		require.NoError(t, s.Start(quietContext()))
		synctest.Wait()
		require.Equal(t, int32(1), calls.Load())
		require.NoError(t, s.Stop())
	})
}

// TestScheduler_UsesInjectedClock drives the loop with a fake clock.
func TestScheduler_UsesInjectedClock(t *testing.T) {
	t.Parallel()

	var (
		clock = clockwork.NewFakeClock()
		fired = make(chan time.Time, 1)
		s     = New(WithClock(clock))
		start = clock.Now()
	)

	_, err := s.Create(10*time.Second, CallbackFunc(func(context.Context, *Handle) error {
		fired <- clock.Now()

		return nil
	}), nil)
	require.NoError(t, err)

	require.NoError(t, s.Start(quietContext()))

	defer s.Stop() //nolint:errcheck // Started above.

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// The loop is asleep on the 10s timer.
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(10 * time.Second)

	select {
	case at := <-fired:
		require.Equal(t, start.Add(10*time.Second), at)
	case <-ctx.Done():
		t.Fatal("alarm did not fire after advancing the clock")
	}

	last := s.LastExecutionStart()
	require.NotNil(t, last)
	require.Equal(t, start.Add(10*time.Second), last.Time)
}

// TestScheduler_HistoryIsBounded keeps only the configured number of executions.
func TestScheduler_HistoryIsBounded(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		s := New(WithHistorySize(2))
		require.NoError(t, s.Start(quietContext()))

		defer s.Stop() //nolint:errcheck // Started above.

		handles := make([]*Handle, 0, 4)

		for i := range 4 {
			h, err := s.Create(time.Duration(i+1)*time.Millisecond, CallbackFunc(func(context.Context, *Handle) error {
				return nil
			}), nil)
			require.NoError(t, err)

			handles = append(handles, h)
		}

		time.Sleep(time.Second)
		synctest.Wait()

		history := s.History()
		require.Len(t, history, 2)
		require.Equal(t, handles[2].ID(), history[0].AlarmID)
		require.Equal(t, handles[3].ID(), history[1].AlarmID)
		require.Equal(t, uint64(4), s.Stats().Fired)
	})
}
