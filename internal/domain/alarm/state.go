package alarm

import "time"

// State is the lifecycle state of one scheduling generation of an alarm.
type State uint8

const (
	// Pending generations wait in the registry for their expiry.
	Pending State = iota
	// Firing generations were taken by the scheduler loop and are executing or have executed.
	Firing
	// Cancelled generations were removed before firing. The state is terminal.
	Cancelled
)

// String returns a lower-case name of the state.
func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Firing:
		return "firing"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Execution describes one start or completion of an alarm callback.
type Execution struct {
	// AlarmID identifies the handle whose callback ran.
	AlarmID string
	// Callback is the display name of the callback.
	Callback string
	// Time is when the execution started or finished.
	Time time.Time
	// Error holds the failure detail of a completed execution, empty on success.
	Error string
}

// Failed reports whether the execution ended with a callback failure.
func (e *Execution) Failed() bool {
	return e != nil && e.Error != ""
}

// Clone returns a copy of the execution.
func (e *Execution) Clone() *Execution {
	if e == nil {
		return nil
	}

	cloned := *e

	return &cloned
}

// Stats is a point-in-time view of scheduler activity.
type Stats struct {
	// Timestamp is when the snapshot was taken.
	Timestamp time.Time
	// Pending is the number of alarms waiting in the registry.
	Pending int
	// Fired counts every callback invocation since start.
	Fired uint64
	// Failed counts invocations that returned an error or panicked.
	Failed uint64
	// LastStart is the most recently started execution, nil before the first one.
	LastStart *Execution
	// LastEnd is the most recently completed execution, nil before the first one.
	LastEnd *Execution
}

// Clone returns a deep copy of the stats.
func (s *Stats) Clone() *Stats {
	if s == nil {
		return nil
	}

	return &Stats{
		Timestamp: s.Timestamp,
		Pending:   s.Pending,
		Fired:     s.Fired,
		Failed:    s.Failed,
		LastStart: s.LastStart.Clone(),
		LastEnd:   s.LastEnd.Clone(),
	}
}
