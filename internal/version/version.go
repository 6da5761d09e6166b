package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the release tag, overridden via ldflags.
	Version = "0.1.0-dev"
	// Commit is the short git SHA or "none" for local builds.
	Commit = "none"
	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"
)

// Short returns the release tag only.
func Short() string {
	return Version
}

// Full returns the release tag with commit, build time and Go runtime.
func Full() string {
	return fmt.Sprintf(
		"version: %s, commit: %s, built at: %s, go: %s %s/%s",
		Version, Commit, BuildTime, runtime.Version(), runtime.GOOS, runtime.GOARCH,
	)
}
