// Package version provides build-time version information.
package version

import "fmt"

// Name is the program name reported in logs.
const Name = "plate-tracker"

// These variables are set at build time using -ldflags
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String returns "plate-tracker v<version> (<commit>, built <time>)".
func String() string {
	return fmt.Sprintf("%s v%s (%s, built %s)", Name, Version, GitCommit, BuildTime)
}
