package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	domain "github.com/oshokin/alarm-scheduler/internal/domain/alarm"
	"github.com/oshokin/alarm-scheduler/internal/logger"
	"github.com/oshokin/alarm-scheduler/internal/scheduler"
)

// notificationCallback is the display name of alarms created through the admin API.
const notificationCallback = "remote-notification"

// service tracks alarms created through the admin API by id.
// It is unexported to keep the transport decoupled from the implementation.
type service struct {
	// scheduler fires the alarms.
	scheduler *scheduler.Scheduler
	// mu protects alarms. Lock order is mu, then handle locks.
	mu sync.Mutex
	// alarms holds remote alarms until they fire or are cancelled.
	alarms map[string]*scheduler.Handle
}

// newService creates a service scheduling on s.
func newService(s *scheduler.Scheduler) *service {
	return &service{
		scheduler: s,
		alarms:    make(map[string]*scheduler.Handle),
	}
}

// Schedule creates an alarm that logs message when it fires.
func (s *service) Schedule(ctx context.Context, delay time.Duration, message string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.scheduler.Create(delay, scheduler.Named(notificationCallback, s.notify), message)
	if err != nil {
		return "", fmt.Errorf("create alarm: %w", err)
	}

	s.alarms[h.ID()] = h

	logger.InfoKV(ctx, "Remote alarm scheduled", logger.AlarmIDKey, h.ID(), "delay", delay, "message", message)

	return h.ID(), nil
}

// Cancel cancels a pending remote alarm.
func (s *service) Cancel(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.alarms[id]
	if !ok {
		return false, fmt.Errorf("cancel %s: %w", id, domain.ErrUnknownAlarm)
	}

	cancelled := h.Cancel()
	if cancelled {
		delete(s.alarms, id)
	}

	logger.InfoKV(ctx, "Remote alarm cancel requested", logger.AlarmIDKey, id, "cancelled", cancelled)

	return cancelled, nil
}

// Reschedule re-arms a remote alarm. A nil delay reuses the latest one.
func (s *service) Reschedule(ctx context.Context, id string, delay *time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.alarms[id]
	if !ok {
		return fmt.Errorf("reschedule %s: %w", id, domain.ErrUnknownAlarm)
	}

	if delay == nil {
		h.Reschedule()
	} else if err := h.RescheduleAfter(*delay); err != nil {
		return fmt.Errorf("reschedule %s: %w", id, err)
	}

	logger.InfoKV(ctx, "Remote alarm rescheduled", logger.AlarmIDKey, id, "delay", h.Interval())

	return nil
}

// Stats returns the scheduler stats snapshot.
func (s *service) Stats(context.Context) *domain.Stats {
	return s.scheduler.Stats()
}

// notify is the callback of remote alarms.
func (s *service) notify(ctx context.Context, h *scheduler.Handle) error {
	message, _ := h.Argument().(string)

	logger.InfoKV(ctx, "Alarm notification", "message", message, "interval", h.Interval())

	s.mu.Lock()
	defer s.mu.Unlock()

	// A concurrent Reschedule may have armed a new generation already.
	if h.State() != domain.Pending {
		delete(s.alarms, h.ID())
	}

	return nil
}

// tracked returns the number of remote alarms still tracked.
func (s *service) tracked() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.alarms)
}
