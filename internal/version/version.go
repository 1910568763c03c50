package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

var (
	// Name of the application
	AppName = "SyftBox"

	// Version of the application, overridden by ldflags on release builds
	Version = "0.1.0-dev"

	// Git commit hash of the application
	Revision = "HEAD"
)

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok || info == nil {
		return
	}

	if Version == "" || strings.HasSuffix(Version, "-dev") {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			Version = strings.TrimPrefix(v, "v")
		}
	}

	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			Revision = s.Value
			if modified(info.Settings) {
				Revision += "-dirty"
			}
			break
		}
	}
}

func modified(settings []debug.BuildSetting) bool {
	for _, s := range settings {
		if s.Key == "vcs.modified" {
			return s.Value == "true"
		}
	}
	return false
}

// Short returns a concise version string - `0.1.0 (5e23a4)`
func Short() string {
	return fmt.Sprintf("%s (%s)", Version, Revision)
}

// Detailed returns a full version string - `SyftBox 0.1.0 (5e23a4; go1.23; linux/amd64)`
func Detailed() string {
	return fmt.Sprintf("%s %s (%s; %s; %s/%s)", AppName, Version, Revision, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
