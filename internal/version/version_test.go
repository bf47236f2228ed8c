package version

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseBuildTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"", time.Time{}},
		{"unknown", time.Time{}},
		{"garbage", time.Time{}},
		{"2025-03-01T10:20:30Z", time.Date(2025, 3, 1, 10, 20, 30, 0, time.UTC)},
		{"2025-03-01 10:20:30", time.Date(2025, 3, 1, 10, 20, 30, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.True(t, tt.want.Equal(parseBuildTime(tt.in)))
		})
	}
}

func TestInfoShort(t *testing.T) {
	assert.Equal(t, "v1.0.0", Info{Version: "v1.0.0", GitCommit: "unknown"}.Short())
	assert.Equal(t, "v1.0.0 (abcdef1)", Info{Version: "v1.0.0", GitCommit: "abcdef1234"}.Short())
	assert.Equal(t, "dev (abcdef1) (dirty)", Info{Version: "dev", GitCommit: "abcdef1234", Dirty: true}.Short())
}

func TestInfoString(t *testing.T) {
	info := Info{
		Version:   "v0.2.0",
		GitCommit: "unknown",
		BuildTime: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		GoVersion: "go1.24.4",
		Platform:  "linux/amd64",
	}

	assert.Equal(t, "mdreader v0.2.0\nBuilt: 2025-01-02T03:04:05Z\nGo: go1.24.4\nPlatform: linux/amd64", info.String())
}

func TestIsRelease(t *testing.T) {
	assert.True(t, Info{Version: "v1.2.3"}.IsRelease())
	assert.False(t, Info{Version: "dev"}.IsRelease())
	assert.False(t, Info{Version: "dev-abc1234"}.IsRelease())
}

func TestGetUsesStampedValues(t *testing.T) {
	oldV, oldC, oldT := Version, GitCommit, BuildTime
	t.Cleanup(func() { Version, GitCommit, BuildTime = oldV, oldC, oldT })

	Version, GitCommit, BuildTime = "v9.9.9", "0123456789", "2024-12-31T23:59:59Z"
	info := Get()

	assert.Equal(t, "v9.9.9", info.Version)
	assert.Equal(t, "0123456789", info.GitCommit)
	assert.Equal(t, 2024, info.BuildTime.Year())
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
}
