// Package version carries build metadata stamped via -ldflags.
package version

import "fmt"

var (
	// Version is the release tag, e.g. "v1.2.0".
	Version = "dev"

	// Commit is the git short hash of the build.
	Commit = "unknown"

	// Date is the build timestamp.
	Date = "unknown"
)

// String formats the build metadata for --version output.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
