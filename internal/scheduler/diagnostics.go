package scheduler

import (
	"sync"

	"github.com/eapache/queue"

	"github.com/oshokin/alarm-scheduler/internal/domain/alarm"
)

// diagnostics records callback executions for observability only;
// the loop never reads it for control flow.
type diagnostics struct {
	// mu protects every field below.
	mu sync.Mutex
	// fired counts completed executions.
	fired uint64
	// failed counts completed executions that ended with a CallbackError.
	failed uint64
	// lastStart is the most recently started execution.
	lastStart *alarm.Execution
	// lastEnd is the most recently completed execution.
	lastEnd *alarm.Execution
	// history keeps the latest completed executions, oldest first.
	history *queue.Queue
	// limit caps the history length.
	limit int
}

// newDiagnostics creates diagnostics keeping at most limit completed executions.
func newDiagnostics(limit int) *diagnostics {
	return &diagnostics{
		history: queue.New(),
		limit:   limit,
	}
}

func (d *diagnostics) started(rec alarm.Execution) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.lastStart = &rec
}

func (d *diagnostics) finished(rec alarm.Execution) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.fired++
	if rec.Failed() {
		d.failed++
	}

	d.lastEnd = &rec

	if d.limit <= 0 {
		return
	}

	d.history.Add(rec.Clone())

	for d.history.Length() > d.limit {
		d.history.Remove()
	}
}

func (d *diagnostics) lastStarted() *alarm.Execution {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.lastStart.Clone()
}

func (d *diagnostics) lastFinished() *alarm.Execution {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.lastEnd.Clone()
}

// fill copies the counters and last records into stats.
func (d *diagnostics) fill(stats *alarm.Stats) {
	d.mu.Lock()
	defer d.mu.Unlock()

	stats.Fired = d.fired
	stats.Failed = d.failed
	stats.LastStart = d.lastStart.Clone()
	stats.LastEnd = d.lastEnd.Clone()
}

func (d *diagnostics) recent() []alarm.Execution {
	d.mu.Lock()
	defer d.mu.Unlock()

	result := make([]alarm.Execution, 0, d.history.Length())
	for i := range d.history.Length() {
		result = append(result, *d.history.Get(i).(*alarm.Execution)) //nolint:forcetypeassert // Only executions are queued.
	}

	return result
}
