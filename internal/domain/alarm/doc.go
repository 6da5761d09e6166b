// Package alarm contains core domain types shared by the scheduler, the
// stats repository and the admin API.
//
// It defines the lifecycle State of one scheduling generation, the Execution
// record kept for diagnostics and the Stats snapshot, with Clone helpers so
// callers never alias scheduler internals.
package alarm
