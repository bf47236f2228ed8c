package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/conneroisu/mdreader/internal/logging"
	"github.com/conneroisu/mdreader/internal/validation"
)

// slowDebounce is the point past which a debounce window stops feeling live.
const slowDebounce = 2 * time.Second

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	if len(vr.Errors) > 0 {
		builder.WriteString("Validation errors:\n")
		for _, err := range vr.Errors {
			builder.WriteString(fmt.Sprintf("  - %s: %s\n", err.Field, err.Message))
			for _, suggestion := range err.Suggestions {
				builder.WriteString(fmt.Sprintf("      hint: %s\n", suggestion))
			}
		}
	}

	if len(vr.Warnings) > 0 {
		builder.WriteString("Validation warnings:\n")
		for _, warning := range vr.Warnings {
			builder.WriteString(fmt.Sprintf("  - %s: %s\n", warning.Field, warning.Message))
			for _, suggestion := range warning.Suggestions {
				builder.WriteString(fmt.Sprintf("      hint: %s\n", suggestion))
			}
		}
	}

	return builder.String()
}

// ValidateConfigWithDetails performs comprehensive validation with detailed feedback
func ValidateConfigWithDetails(config *Config) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	validateWatchConfigDetails(&config.Watch, result)
	validateServerConfigDetails(&config.Server, result)
	validatePDFConfigDetails(&config.PDF, result)
	validateLogConfigDetails(&config.Log, result)

	result.Valid = !result.HasErrors()

	return result
}

// validateConfig returns the first validation error, if any.
func validateConfig(config *Config) error {
	result := ValidateConfigWithDetails(config)
	if result.HasErrors() {
		first := result.Errors[0]
		return &first
	}

	return nil
}

func validateWatchConfigDetails(config *WatchConfig, result *ValidationResult) {
	if config.Debounce <= 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "watch.debounce",
			Value:       config.Debounce,
			Message:     "debounce must be positive",
			Suggestions: []string{fmt.Sprintf("The default is %s", DefaultDebounce)},
		})
	} else if config.Debounce > slowDebounce {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "watch.debounce",
			Value:   config.Debounce,
			Message: "a long debounce makes reloads feel sluggish",
		})
	}

	if config.ReconnectDelay <= 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "watch.reconnect_delay",
			Value:       config.ReconnectDelay,
			Message:     "reconnect delay must be positive",
			Suggestions: []string{fmt.Sprintf("The default is %s", DefaultReconnectDelay)},
		})
	}
}

func validateServerConfigDetails(config *ServerConfig, result *ValidationResult) {
	if config.Port < 0 || config.Port > 65535 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "server.port",
			Value:   config.Port,
			Message: fmt.Sprintf("port %d is not in valid range 0-65535", config.Port),
			Suggestions: []string{
				"Port 0 lets the system assign an available port",
			},
		})
	}

	if !validation.IsLoopbackHost(config.Host) {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "server.host",
			Value:   config.Host,
			Message: fmt.Sprintf("host %q is not a loopback address", config.Host),
			Suggestions: []string{
				"The preview server only binds to loopback; use 127.0.0.1",
			},
		})
	}

	if !strings.HasPrefix(config.UpgradePath, "/") || config.UpgradePath == "/" {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "server.upgrade_path",
			Value:   config.UpgradePath,
			Message: "upgrade path must start with / and must not be the root path",
			Suggestions: []string{
				fmt.Sprintf("The default is %s", DefaultUpgradePath),
			},
		})
	}
}

func validatePDFConfigDetails(config *PDFConfig, result *ValidationResult) {
	if config.Timeout <= 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "pdf.timeout",
			Value:   config.Timeout,
			Message: "PDF timeout must be positive",
		})
	}
}

func validateLogConfigDetails(config *LogConfig, result *ValidationResult) {
	if _, err := logging.ParseLevel(config.Level); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "log.level",
			Value:       config.Level,
			Message:     err.Error(),
			Suggestions: []string{"Use one of debug, info, warn, error"},
		})
	}

	if config.Format != "text" && config.Format != "json" {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "log.format",
			Value:       config.Format,
			Message:     fmt.Sprintf("unknown log format %q", config.Format),
			Suggestions: []string{"Use text or json"},
		})
	}
}
