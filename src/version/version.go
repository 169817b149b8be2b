package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Injected at build time via -ldflags "-X github.com/postgis/imagectl/src/version.Version=...".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// String returns a human-readable version string. Binaries installed with
// `go install` carry no ldflags; their module version and VCS stamp are used.
func String() string {
	v, commit, date := Version, Commit, BuildDate
	if info, ok := debug.ReadBuildInfo(); ok {
		if v == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			v = info.Main.Version
		}
		for _, s := range info.Settings {
			switch {
			case s.Key == "vcs.revision" && commit == "unknown":
				commit = s.Value
				if len(commit) > 12 {
					commit = commit[:12]
				}
			case s.Key == "vcs.time" && date == "unknown":
				date = s.Value
			}
		}
	}
	return fmt.Sprintf("imagectl %s (%s, %s, %s)", v, commit, date, runtime.Version())
}
