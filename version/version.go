package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

// Set with -ldflags "-X github.com/kbukum/minutes/version.Version=...".
var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// Info is the build information reported at startup and on /version.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
	Dirty     bool   `json:"dirty,omitempty"`
}

// Get returns the build information, filling commit and build time from the
// embedded VCS stamp when ldflags did not set them.
func Get() Info {
	info := Info{Version: Version, GitCommit: GitCommit, BuildTime: BuildTime}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "" {
				info.GitCommit = shortCommit(s.Value)
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		case "vcs.time":
			if info.BuildTime == "" {
				info.BuildTime = s.Value
			}
		}
	}
	return info
}

// String renders info as "v1.2.0 (abc1234, built 2026-10-18T09:00:00Z)".
func (i Info) String() string {
	s := i.Version
	if i.Dirty {
		s += "-dirty"
	}
	commit := i.GitCommit
	if commit == "" {
		commit = "unknown"
	}
	if t, err := time.Parse(time.RFC3339, i.BuildTime); err == nil {
		return fmt.Sprintf("%s (%s, built %s)", s, commit, t.UTC().Format(time.RFC3339))
	}
	return fmt.Sprintf("%s (%s)", s, commit)
}

func shortCommit(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}
