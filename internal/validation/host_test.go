package validation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	readererrors "github.com/conneroisu/mdreader/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsLoopbackHost(t *testing.T) {
	tests := []struct {
		host     string
		expected bool
	}{
		{"localhost", true},
		{"LOCALHOST", true},
		{"127.0.0.1", true},
		{"127.0.0.2", true},
		{"::1", true},
		{"[::1]", true},
		{"0.0.0.0", false},
		{"192.168.1.10", false},
		{"example.com", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsLoopbackHost(tt.host))
		})
	}
}

func TestIsAllowedHost(t *testing.T) {
	const port = 43210

	tests := []struct {
		name     string
		host     string
		expected bool
	}{
		{"absent header", "", true},
		{"localhost with port", "localhost:43210", true},
		{"loopback with port", "127.0.0.1:43210", true},
		{"evil host", "evil.example:43210", false},
		{"wrong port", "localhost:80", false},
		{"missing port", "localhost", false},
		{"prefix attack", "localhost:43210.evil.example", false},
		{"ipv6 loopback", "[::1]:43210", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsAllowedHost(tt.host, port))
		})
	}
}

func FuzzIsAllowedHost(f *testing.F) {
	f.Add("localhost:8080")
	f.Add("127.0.0.1:8080")
	f.Add("evil.example:8080")
	f.Add("localhost:8080\r\nHost: evil")
	f.Add("")

	f.Fuzz(func(t *testing.T, host string) {
		if !IsAllowedHost(host, 8080) {
			return
		}
		// Anything accepted must be one of the exact allowed forms.
		if host != "" && host != "localhost:8080" && host != "127.0.0.1:8080" {
			t.Errorf("unexpected host accepted: %q", host)
		}
	})
}

func TestValidateMarkdownPath(t *testing.T) {
	dir := t.TempDir()
	mdFile := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(mdFile, []byte("# Notes"), 0o644))
	txtFile := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txtFile, []byte("x"), 0o644))
	dirMd := filepath.Join(dir, "folder.md")
	require.NoError(t, os.Mkdir(dirMd, 0o755))

	t.Run("valid", func(t *testing.T) {
		abs, err := ValidateMarkdownPath(mdFile)
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(abs))
		assert.True(t, strings.HasSuffix(abs, "notes.md"))
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ValidateMarkdownPath("")
		assert.ErrorIs(t, err, readererrors.ErrNoInput)
	})

	t.Run("wrong extension", func(t *testing.T) {
		_, err := ValidateMarkdownPath(txtFile)
		assert.ErrorIs(t, err, readererrors.ErrNotMarkdown)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := ValidateMarkdownPath(filepath.Join(dir, "missing.md"))
		assert.ErrorIs(t, err, readererrors.ErrFileNotFound)
	})

	t.Run("directory", func(t *testing.T) {
		_, err := ValidateMarkdownPath(dirMd)
		assert.ErrorIs(t, err, readererrors.ErrNotMarkdown)
	})
}
