// Package version reports build metadata stamped with -ldflags or read back
// from the module build info.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// Set at build time:
//
//	go build -ldflags "-X github.com/conneroisu/mdreader/internal/version.Version=v0.1.0"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Info describes the running binary.
type Info struct {
	Version   string    `json:"version" yaml:"version"`
	GitCommit string    `json:"git_commit" yaml:"git_commit"`
	BuildTime time.Time `json:"build_time" yaml:"build_time"`
	GoVersion string    `json:"go_version" yaml:"go_version"`
	Platform  string    `json:"platform" yaml:"platform"`
	Dirty     bool      `json:"dirty" yaml:"dirty"`
}

// Get collects the build metadata.
func Get() Info {
	return Info{
		Version:   resolveVersion(),
		GitCommit: resolveCommit(),
		BuildTime: parseBuildTime(BuildTime),
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		Dirty:     vcsSetting("vcs.modified") == "true",
	}
}

// Short renders "v1.2.3 (abc1234)" or just the version when no commit is known.
func (i Info) Short() string {
	if len(i.GitCommit) < 7 || i.GitCommit == "unknown" {
		return i.Version
	}

	s := fmt.Sprintf("%s (%s)", i.Version, i.GitCommit[:7])
	if i.Dirty {
		s += " (dirty)"
	}

	return s
}

// String renders every known field, one per line.
func (i Info) String() string {
	lines := []string{"mdreader " + i.Short()}
	if !i.BuildTime.IsZero() {
		lines = append(lines, "Built: "+i.BuildTime.UTC().Format(time.RFC3339))
	}
	lines = append(lines, "Go: "+i.GoVersion, "Platform: "+i.Platform)

	return strings.Join(lines, "\n")
}

// IsRelease reports whether the version came from a tag.
func (i Info) IsRelease() bool {
	return i.Version != "dev" && !strings.HasPrefix(i.Version, "dev-")
}

func resolveVersion() string {
	if Version != "" && Version != "dev" {
		return Version
	}

	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	if rev := vcsSetting("vcs.revision"); len(rev) >= 7 {
		return "dev-" + rev[:7]
	}

	return "dev"
}

func resolveCommit() string {
	if GitCommit != "" && GitCommit != "unknown" {
		return GitCommit
	}

	if rev := vcsSetting("vcs.revision"); rev != "" {
		return rev
	}

	return "unknown"
}

func vcsSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}

	for _, s := range info.Settings {
		if s.Key == key {
			return s.Value
		}
	}

	return ""
}

// parseBuildTime accepts RFC3339 and a couple of common layouts, returning
// the zero time otherwise.
func parseBuildTime(s string) time.Time {
	if s == "" || s == "unknown" {
		return time.Time{}
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}

	return time.Time{}
}
