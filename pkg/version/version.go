// Package version holds build metadata injected with -ldflags.
package version

import (
	"fmt"
	"runtime/debug"
)

// Build metadata, set by the release build.
var (
	Version = "dev"     //nolint:gochecknoglobals // set via ldflags
	Commit  = "unknown" //nolint:gochecknoglobals // set via ldflags
	Date    = "unknown" //nolint:gochecknoglobals // set via ldflags
)

// String formats the metadata for display. Without ldflags the module
// version and VCS revision recorded by the go tool are used.
func String() string {
	version, commit := Version, Commit

	if info, ok := debug.ReadBuildInfo(); ok {
		if version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			version = info.Main.Version
		}

		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && commit == "unknown" {
				commit = s.Value
			}
		}
	}

	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, Date)
}
