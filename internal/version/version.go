// Package version carries build-time identification for the flagcore
// module and the SDK version string exposed to the registry's
// environment compatibility gate.
package version

import (
	"fmt"
	"runtime"
)

// Build information. These variables are set at build time via ldflags.
var (
	// CommitHash is the git commit hash when the binary was built.
	CommitHash = "dev"

	// BuildTime is when the binary was built.
	BuildTime = "unknown"

	// Version is the semantic version of the flagcore module (if tagged).
	Version = "dev"
)

// SDKVersion is the semantic version used by registry.Registry to gate
// environment registration against a caller-declared minimum. Unlike
// Version (which may be "dev" in local builds), this is always a valid
// semver string so Masterminds/semver can parse it unconditionally.
const SDKVersion = "0.1.0"

// Info contains version and build information.
type Info struct {
	CommitHash string `json:"commit_hash"`
	BuildTime  string `json:"build_time"`
	Version    string `json:"version"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// Get returns the current version information.
func Get() Info {
	return Info{
		CommitHash: CommitHash,
		BuildTime:  BuildTime,
		Version:    Version,
		GoVersion:  runtime.Version(),
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns a human-readable version string.
func (i Info) String() string {
	if i.Version != "dev" {
		return fmt.Sprintf("flagcore %s (commit %s, built %s)", i.Version, i.CommitHash, i.BuildTime)
	}
	return fmt.Sprintf("flagcore dev (commit %s, built %s)", i.CommitHash, i.BuildTime)
}

// Short returns a short version string with just the commit hash.
func (i Info) Short() string {
	if len(i.CommitHash) >= 7 {
		return i.CommitHash[:7]
	}
	return i.CommitHash
}
