package server

import (
	"context"
	"fmt"

	"github.com/oshokin/alarm-scheduler/internal/logger"
	statsrepo "github.com/oshokin/alarm-scheduler/internal/repository/stats"
	"github.com/oshokin/alarm-scheduler/internal/scheduler"
)

// reporter is an alarm callback that writes a stats snapshot and re-arms
// itself with the same interval.
type reporter struct {
	// scheduler is the source of the snapshots.
	scheduler *scheduler.Scheduler
	// repo stores the snapshots.
	repo statsrepo.Repository
}

// newReporter creates a reporter saving snapshots of s into repo.
func newReporter(s *scheduler.Scheduler, repo statsrepo.Repository) *reporter {
	return &reporter{
		scheduler: s,
		repo:      repo,
	}
}

// OnFire re-arms the handle first so a failing save does not stop reporting.
func (r *reporter) OnFire(ctx context.Context, h *scheduler.Handle) error {
	h.Reschedule()

	stats := r.scheduler.Stats()
	if err := r.repo.Save(ctx, stats); err != nil {
		return fmt.Errorf("save stats snapshot: %w", err)
	}

	logger.DebugKV(ctx, "Stats snapshot saved", "pending", stats.Pending, "fired", stats.Fired, "failed", stats.Failed)

	return nil
}

// String names the callback in logs and diagnostics.
func (r *reporter) String() string {
	return "stats-reporter"
}
