// Package version holds build metadata injected via ldflags:
//
//	-X github.com/kailas-cloud/kbassist/internal/version.Version=v1.2.0
package version

import (
	"fmt"
	"runtime/debug"
)

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Short returns Version, falling back to the module version recorded by go install.
func Short() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}

// String describes the build for the version command.
func String() string {
	return fmt.Sprintf("kbassist %s (commit %s, built %s)", Short(), Commit, Date)
}
