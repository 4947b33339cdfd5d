// Package version carries build metadata injected through -ldflags.
package version

import "fmt"

// Name of the application.
const Name = "Chimera"

// Set at build time with -ldflags "-X .../version.GitCommit=...".
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Info is the build metadata reported by the health endpoint and the CLI.
type Info struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
}

// Current returns the build metadata of the running binary.
func Current() Info {
	return Info{Service: Name, Version: Version, GitCommit: GitCommit, BuildTime: BuildTime}
}

// Full renders the version with commit and build time when both are known.
func Full() string {
	if BuildTime == "unknown" || GitCommit == "unknown" {
		return Version
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime)
}
