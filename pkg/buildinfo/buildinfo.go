package buildinfo

import "runtime"

// These vars are set at build time via ldflags:
// -X github.com/bishwajitSingh123/lead-agent/pkg/buildinfo.Version=v0.3.0
// -X github.com/bishwajitSingh123/lead-agent/pkg/buildinfo.Commit=ab12cd3
// -X github.com/bishwajitSingh123/lead-agent/pkg/buildinfo.BuildTime=2025-03-14T12:00:00Z
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info holds build information for the CLI.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildTime string `json:"build_time" yaml:"build_time"`
	GoVersion string `json:"go_version" yaml:"go_version"`
}

// Get returns the CLI build info.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}

// String returns a human-readable one-liner like "v0.3.0 (ab12cd3, 2025-03-14T12:00:00Z)"
func String() string {
	return Version + " (" + Commit + ", " + BuildTime + ")"
}
