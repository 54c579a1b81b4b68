// Package build provides version and build information for k-releaser.
// This package intentionally has no dependencies on other internal packages
// to avoid import cycles.
package build

import "fmt"

var (
	// Version information - set via ldflags during build
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// IsDevBuild returns true if running a development build (not a release).
func IsDevBuild() bool {
	return Version == "dev"
}

// UserAgent is the User-Agent sent to forge APIs.
func UserAgent() string {
	return "k-releaser/" + Version
}

// Summary returns the one-line version string printed by `k-releaser version`.
func Summary() string {
	return fmt.Sprintf("k-releaser %s (commit %s, built %s)", Version, Commit, BuildDate)
}
