// Package version exposes the build metadata stamped into zenworld binaries
// at link time.
package version

import "time"

// Injected via -ldflags at build time; empty in plain `go build` binaries.
var (
	Version   = ""
	Commit    = ""
	BuildTime = ""
)

type Info struct {
	Version   string
	Commit    string
	BuildTime string
}

// Resolve returns the stamped build info, substituting a timestamp-derived
// version when none was injected.
func Resolve() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
	}
	if info.Version != "" {
		return info
	}
	if info.BuildTime != "" {
		info.Version = info.BuildTime
	} else {
		info.Version = time.Now().UTC().Format("20060102T150405Z")
	}
	return info
}

// String renders the resolved version as "<version>" or
// "<version> (<short commit>)".
func String() string {
	info := Resolve()
	if info.Commit == "" {
		return info.Version
	}
	commit := info.Commit
	if len(commit) > 12 {
		commit = commit[:12]
	}
	return info.Version + " (" + commit + ")"
}
