// Package version holds build metadata, set with -ldflags "-X".
package version

import (
	"fmt"
	"runtime"
)

var (
	Version   = "dev"     // ex: v0.3.0
	Commit    = "none"    // ex: abcd123
	BuildDate = "unknown" // ex: 2026-10-19T18:42:00Z
	GoVersion = runtime.Version()
)

// String is the one-line build description printed by `applink version`
// and logged at startup.
func String() string {
	return fmt.Sprintf("applink %s (commit=%s, built=%s, go=%s)", Version, Commit, BuildDate, GoVersion)
}
