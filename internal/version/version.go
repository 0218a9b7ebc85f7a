package version

import (
	"runtime/debug"
	"strings"
)

// Version is overridden at build time via -ldflags.
var Version = "dev"

// Resolve returns the version string, falling back to the module version
// recorded in build info when no release version was linked in.
func Resolve() string {
	if Version != "" && Version != "dev" {
		return Version
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		if v := strings.TrimPrefix(info.Main.Version, "v"); v != "" && v != "(devel)" {
			return v
		}
	}

	return Version
}
