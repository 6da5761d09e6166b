// Package client implements the alarm-ctl commands: each one dials the
// alarm server, performs a single admin call and prints the result.
package client
