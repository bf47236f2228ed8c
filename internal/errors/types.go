package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the categories of errors a reader session can raise.
type ErrorType string

const (
	// ErrorTypeFatalStartup aborts a session before it reaches the running state.
	ErrorTypeFatalStartup ErrorType = "fatal_startup"
	// ErrorTypeTransientRender is a failed re-render after startup.
	ErrorTypeTransientRender ErrorType = "transient_render"
	// ErrorTypeChannel is a failed send on a single push channel.
	ErrorTypeChannel ErrorType = "channel"
	// ErrorTypeUpgrade is a failed push channel upgrade.
	ErrorTypeUpgrade ErrorType = "upgrade"
	// ErrorTypeOpener is a failed external viewer launch.
	ErrorTypeOpener ErrorType = "opener"
	// ErrorTypeExport is a failed PDF export.
	ErrorTypeExport ErrorType = "export"
	// ErrorTypeValidation is bad user input (wrong extension, missing file).
	ErrorTypeValidation ErrorType = "validation"
)

// Sentinel errors shared across packages.
var (
	ErrNotMarkdown     = errors.New("not a markdown file (.md required)")
	ErrFileNotFound    = errors.New("file not found")
	ErrNoInput         = errors.New("no input file specified")
	ErrBrowserNotFound = errors.New("no headless-capable browser found")
	ErrSessionStopped  = errors.New("session stopped")
)

// ReaderError is a structured error carrying its category and location.
type ReaderError struct {
	Type      ErrorType
	Op        string
	Path      string
	Component string
	Cause     error
	Context   map[string]interface{}
}

// Error implements the error interface.
func (e *ReaderError) Error() string {
	var parts []string

	if e.Component != "" {
		parts = append(parts, "["+e.Component+"]")
	}

	if e.Op != "" {
		parts = append(parts, e.Op)
	}

	if e.Path != "" {
		parts = append(parts, e.Path)
	}

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		if result == "" {
			return e.Cause.Error()
		}
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *ReaderError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a ReaderError of the same type and op.
func (e *ReaderError) Is(target error) bool {
	var t *ReaderError
	if errors.As(target, &t) {
		return e.Type == t.Type && (t.Op == "" || e.Op == t.Op)
	}

	return false
}

// WithContext adds context information to the error.
func (e *ReaderError) WithContext(key string, value interface{}) *ReaderError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithComponent adds component context.
func (e *ReaderError) WithComponent(component string) *ReaderError {
	e.Component = component

	return e
}

// Error creation functions

// NewFatalStartupError wraps a failure that prevents the session from running.
func NewFatalStartupError(op, path string, cause error) *ReaderError {
	return &ReaderError{Type: ErrorTypeFatalStartup, Op: op, Path: path, Cause: cause}
}

// NewTransientRenderError wraps a re-render failure.
func NewTransientRenderError(path string, cause error) *ReaderError {
	return &ReaderError{Type: ErrorTypeTransientRender, Op: "re-render", Path: path, Cause: cause}
}

// NewChannelError wraps a push send failure.
func NewChannelError(channelID string, cause error) *ReaderError {
	return &ReaderError{Type: ErrorTypeChannel, Op: "send", Path: channelID, Cause: cause}
}

// NewUpgradeError wraps a failed push channel upgrade.
func NewUpgradeError(remote string, cause error) *ReaderError {
	return &ReaderError{Type: ErrorTypeUpgrade, Op: "upgrade", Path: remote, Cause: cause}
}

// NewOpenerError wraps a failed viewer launch.
func NewOpenerError(target string, cause error) *ReaderError {
	return &ReaderError{Type: ErrorTypeOpener, Op: "open", Path: target, Cause: cause}
}

// NewExportError wraps a failed PDF export.
func NewExportError(path string, cause error) *ReaderError {
	return &ReaderError{Type: ErrorTypeExport, Op: "export", Path: path, Cause: cause}
}

// NewValidationError wraps bad user input.
func NewValidationError(path string, cause error) *ReaderError {
	return &ReaderError{Type: ErrorTypeValidation, Op: "validate", Path: path, Cause: cause}
}

// TypeOf returns the ErrorType of err, or "" when err is not a ReaderError.
func TypeOf(err error) ErrorType {
	var re *ReaderError
	if errors.As(err, &re) {
		return re.Type
	}

	return ""
}

// IsFatal reports whether err must abort the session. Only startup failures are fatal.
func IsFatal(err error) bool {
	return TypeOf(err) == ErrorTypeFatalStartup
}

// ErrorHandler routes contained errors to the log at the right level.
type ErrorHandler struct {
	logger Logger
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs err. Nothing is propagated; callers decide fatality with IsFatal.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var re *ReaderError
	if !errors.As(err, &re) {
		h.logger.Error(ctx, err, "Unhandled error occurred")

		return
	}

	switch re.Type {
	case ErrorTypeFatalStartup, ErrorTypeExport:
		h.logger.Error(ctx, re, "Operation failed",
			"type", re.Type,
			"op", re.Op,
			"path", re.Path)
	case ErrorTypeTransientRender:
		h.logger.Warn(ctx, re, "Re-render failed, keeping previous page",
			"type", re.Type,
			"path", re.Path)
	default:
		h.logger.Warn(ctx, re, "Contained error",
			"type", re.Type,
			"op", re.Op,
			"path", re.Path)
	}
}
