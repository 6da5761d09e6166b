// Package scheduler implements the alarm service: one-shot callbacks that
// fire after a requested delay.
//
// A Scheduler owns a registry of pending alarms ordered by expiry and a
// single background loop that fires expired alarms, then sleeps until the
// next expiry or until a client installs a new earliest alarm. Callbacks run
// on the loop goroutine without any scheduler lock held, so a callback may
// cancel or reschedule its own Handle.
package scheduler
