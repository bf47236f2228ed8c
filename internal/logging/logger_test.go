package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevelString(t *testing.T) {
	testCases := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LevelFatal, "FATAL"},
		{LogLevel(99), "UNKNOWN"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.level.String())
		})
	}
}

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		input   string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{" error ", LevelError, false},
		{"loud", LevelInfo, true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseLevel(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNewLoggerDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, LevelInfo, cfg.Level)
	assert.Equal(t, "text", cfg.Format)
	assert.NotNil(t, cfg.Output)

	logger := NewLogger(nil)
	require.NotNil(t, logger)
	assert.Equal(t, cfg.Level, logger.level)
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelWarn, Format: "text", Output: &buf})
	ctx := context.Background()

	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	logger.Warn(ctx, nil, "warn message")
	logger.Error(ctx, errors.New("boom"), "error message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
	assert.Contains(t, out, "boom")
}

func TestLoggerJSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelDebug, Format: "json", Output: &buf}).
		WithComponent("watcher").
		With("path", "/tmp/a.md")

	logger.Info(context.Background(), "settled", "events", 3)

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "settled", record["msg"])
	assert.Equal(t, "watcher", record["component"])
	assert.Equal(t, "/tmp/a.md", record["path"])
	assert.Equal(t, float64(3), record["events"])
}

func TestWithDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewLogger(&LoggerConfig{Level: LevelInfo, Format: "text", Output: &buf})
	_ = parent.With("child_only", true)

	parent.Info(context.Background(), "parent message")
	assert.NotContains(t, buf.String(), "child_only")
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	assert.NotPanics(t, func() {
		logger.Error(context.Background(), errors.New("x"), "ignored")
		logger.WithComponent("c").Info(context.Background(), "ignored")
	})
}

func TestSanitizeForLog(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "localhost:8080", "localhost:8080"},
		{"newlines flattened", "evil\r\nInjected: yes", "evil  Injected: yes"},
		{"control chars dropped", "a\x00b\x1bc", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeForLog(tt.input))
		})
	}

	long := strings.Repeat("a", 300)
	got := SanitizeForLog(long)
	assert.True(t, strings.HasSuffix(got, "...[TRUNCATED]"))
	assert.Len(t, got, 256+len("...[TRUNCATED]"))
}

func TestLogSecurityEvent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelInfo, Format: "text", Output: &buf})

	LogSecurityEvent(context.Background(), logger, "host_rejected", map[string]interface{}{
		"host": "evil.example:1234\n",
	})

	out := buf.String()
	assert.Contains(t, out, "Security event occurred")
	assert.Contains(t, out, "host_rejected")
	assert.Contains(t, out, "evil.example:1234")
}

func TestPerfLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LevelDebug, Format: "text", Output: &buf})

	op := StartOperation(logger, "render")
	op.End(context.Background())
	assert.Contains(t, buf.String(), "Operation completed")
	assert.Contains(t, buf.String(), "operation=render")

	buf.Reset()
	StartOperation(logger, "render").EndWithError(context.Background(), errors.New("bad markdown"))
	assert.Contains(t, buf.String(), "Operation failed")
	assert.Contains(t, buf.String(), "bad markdown")
}
