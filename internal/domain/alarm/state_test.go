package alarm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestStateString verifies state names, including unknown values.
func TestStateString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "pending", Pending.String())
	require.Equal(t, "firing", Firing.String())
	require.Equal(t, "cancelled", Cancelled.String())
	require.Equal(t, "unknown", State(42).String())
}

// TestExecutionClone verifies that Clone returns a copy and handles nil safely.
func TestExecutionClone(t *testing.T) {
	t.Parallel()
	require.Nil(t, (*Execution)(nil).Clone())
	require.False(t, (*Execution)(nil).Failed())

	e := &Execution{
		AlarmID:  "a-1",
		Callback: "spectrum-updater",
		Time:     time.Unix(100, 0),
		Error:    "boom",
	}

	c := e.Clone()

	require.Equal(t, e, c)
	require.NotSame(t, e, c)
	require.True(t, c.Failed())
}

// TestStatsClone verifies that Stats.Clone deep-copies the execution records.
func TestStatsClone(t *testing.T) {
	t.Parallel()
	require.Nil(t, (*Stats)(nil).Clone())

	ts := time.Now().UTC().Truncate(time.Second)
	s := &Stats{
		Timestamp: ts,
		Pending:   3,
		Fired:     10,
		Failed:    1,
		LastStart: &Execution{AlarmID: "a-2", Callback: "scan-timer", Time: ts},
		LastEnd:   &Execution{AlarmID: "a-1", Callback: "scan-timer", Time: ts},
	}

	c := s.Clone()
	require.Equal(t, s, c)
	require.NotSame(t, s.LastStart, c.LastStart)
	require.NotSame(t, s.LastEnd, c.LastEnd)
}
