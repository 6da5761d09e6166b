// Package server runs the alarm-server process: it owns the scheduler,
// arms the stats reporter and serves the admin gRPC API until shutdown.
package server
