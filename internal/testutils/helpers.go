package testutils

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/conneroisu/mdreader/internal/config"
	"github.com/stretchr/testify/require"
)

// ErrSendFailed is returned by a RecordingChannel set to fail.
var ErrSendFailed = errors.New("send failed")

// CreateTempMarkdown writes content to <tempdir>/<name>.md and returns the
// absolute path.
func CreateTempMarkdown(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name+".md")
	WriteMarkdown(t, path, content)

	return path
}

// WriteMarkdown overwrites path with content in place.
func WriteMarkdown(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// ReplaceMarkdown saves content the way editors with atomic saves do:
// write a sibling file, then rename it over path.
func ReplaceMarkdown(t *testing.T, path, content string) {
	t.Helper()

	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte(content), 0o644))
	require.NoError(t, os.Rename(tmp, path))
}

// CreateTestConfig returns defaults tuned for fast tests: short debounce, no
// browser launch.
func CreateTestConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Watch.Debounce = 20 * time.Millisecond
	cfg.Watch.ReconnectDelay = 50 * time.Millisecond
	cfg.Server.Open = false
	cfg.Output.Dir = t.TempDir()

	return cfg
}

// FakeOpener records every target it is asked to open.
type FakeOpener struct {
	mu      sync.Mutex
	targets []string

	// Err, when set, is returned from every Open call.
	Err error
}

// Open records target.
func (f *FakeOpener) Open(_ context.Context, target string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.targets = append(f.targets, target)

	return f.Err
}

// Targets returns a copy of the recorded targets.
func (f *FakeOpener) Targets() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.targets...)
}

// RecordingChannel is an in-memory push channel.
type RecordingChannel struct {
	id string

	mu       sync.Mutex
	messages []string
	closed   int
	failWith error
}

// NewRecordingChannel creates a channel with the given id.
func NewRecordingChannel(id string) *RecordingChannel {
	return &RecordingChannel{id: id}
}

// NewFailingChannel creates a channel whose sends always fail.
func NewFailingChannel(id string) *RecordingChannel {
	return &RecordingChannel{id: id, failWith: ErrSendFailed}
}

// ID returns the channel id.
func (c *RecordingChannel) ID() string {
	return c.id
}

// Send records message, or fails if the channel is failing or closed.
func (c *RecordingChannel) Send(ctx context.Context, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failWith != nil {
		return c.failWith
	}
	if c.closed > 0 {
		return errors.New("send on closed channel")
	}
	c.messages = append(c.messages, message)

	return nil
}

// Close marks the channel closed.
func (c *RecordingChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed++

	return nil
}

// Messages returns a copy of everything sent.
func (c *RecordingChannel) Messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string(nil), c.messages...)
}

// CloseCount returns how many times Close was called.
func (c *RecordingChannel) CloseCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

// AssertFilePermissions checks that files have the expected permissions
func AssertFilePermissions(t *testing.T, path string, expectedMode os.FileMode) {
	t.Helper()

	info, err := os.Stat(path)
	require.NoError(t, err)

	actualMode := info.Mode()
	require.Equal(t, expectedMode, actualMode&os.FileMode(0o777),
		"File %s has incorrect permissions: got %o, want %o",
		path, actualMode&os.FileMode(0o777), expectedMode)
}

// WaitForFileChange waits for a file to be modified (useful for testing file watchers)
func WaitForFileChange(
	t *testing.T,
	filePath string,
	originalModTime time.Time,
	timeout time.Duration,
) {
	t.Helper()

	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		info, err := os.Stat(filePath)
		if err == nil && info.ModTime().After(originalModTime) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("File %s was not modified within %v", filePath, timeout)
}
