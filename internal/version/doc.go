// Package version carries the build metadata of alarm-server and alarm-ctl.
//
// Version, Commit and BuildTime are set through -ldflags at build time.
package version
