package buildinfo

import (
	"runtime"
	"runtime/debug"
)

// Set at build time via -ldflags "-X .../buildinfo.Version=...".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info describes the running binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// String renders the info the way `worldsave --version` prints it.
func (i Info) String() string {
	return i.Version + " (commit: " + i.Commit + ", built: " + i.BuildTime + ")"
}

// Get collects build information. Fields not injected through ldflags
// are filled from the binary's embedded module metadata when present,
// so `go install`ed binaries still report a real version and commit.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}

	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "unknown" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.BuildTime == "unknown" {
				info.BuildTime = s.Value
			}
		}
	}
	return info
}
