package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/oshokin/alarm-scheduler/internal/domain/alarm"
	"github.com/oshokin/alarm-scheduler/internal/logger"
)

// run is the scheduler loop: scan, execute, sleep, repeat.
func (s *Scheduler) run(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ctx = logger.WithName(ctx, "scheduler")
	logger.DebugKV(ctx, "Scheduler loop started", "max_idle_interval", s.maxIdle)

	defer logger.Debug(ctx, "Scheduler loop stopped")

	for {
		batch := s.registry.drainExpired(s.clock.Now())

		// The loop is awake now, so any buffered signal is stale.
		s.absorbWake()

		for _, e := range batch {
			s.execute(ctx, e)
		}

		if ctx.Err() != nil {
			return
		}

		wait := s.maxIdle
		if next, ok := s.registry.prepareSleep(); ok {
			wait = max(next.Sub(s.clock.Now()), 0)
		}

		if wait == 0 {
			continue
		}

		if !s.sleep(ctx, wait) {
			return
		}
	}
}

// sleep blocks for d, until woken, or until ctx is done.
// It returns false when ctx is done.
func (s *Scheduler) sleep(ctx context.Context, d time.Duration) bool {
	timer := s.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-s.wake:
	case <-timer.Chan():
	}

	return true
}

func (s *Scheduler) absorbWake() {
	select {
	case <-s.wake:
	default:
	}
}

// execute runs one Firing entry and records the outcome.
// Callback failures end here: they are logged and never propagated.
func (s *Scheduler) execute(ctx context.Context, e *entry) {
	h := e.handle
	ctx = logger.WithAlarm(ctx, h.id, h.name)

	s.diag.started(alarm.Execution{
		AlarmID:  h.id,
		Callback: h.name,
		Time:     s.clock.Now(),
	})

	err := h.fire(ctx)

	rec := alarm.Execution{
		AlarmID:  h.id,
		Callback: h.name,
		Time:     s.clock.Now(),
	}

	if err != nil {
		rec.Error = err.Error()

		kvs := []any{logger.GenerationKey, e.sequence, "error", err}

		var cbErr *CallbackError
		if errors.As(err, &cbErr) && cbErr.Stack != nil {
			kvs = append(kvs, "stack", string(cbErr.Stack))
		}

		logger.ErrorKV(ctx, "Alarm callback failed", kvs...)
	} else {
		logger.DebugKV(ctx, "Alarm fired", logger.GenerationKey, e.sequence)
	}

	s.diag.finished(rec)
}
