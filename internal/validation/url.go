package validation

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// dangerousChars could enable command injection when a target is handed to
// an external opener process.
var dangerousChars = []string{";", "&", "|", "`", "$", "(", ")", "<", ">", "\"", "'", "\n", "\r"}

// ValidateURL validates URLs for browser auto-open functionality
// Prevents command injection via URL parameters
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	// Only allow http/https schemes to prevent protocol handlers
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s (only http/https allowed)", parsed.Scheme)
	}

	if err := rejectDangerous(rawURL); err != nil {
		return err
	}

	if strings.Contains(rawURL, "\\") {
		return fmt.Errorf("URL contains dangerous character: \\")
	}

	if strings.Contains(rawURL, " ") {
		return fmt.Errorf("URL contains spaces (possible command injection attempt)")
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL must have a valid hostname")
	}

	return nil
}

// ValidateOpenTarget accepts either an http(s) URL or an absolute local file
// path, the two things the opener is ever asked to show.
func ValidateOpenTarget(target string) error {
	if target == "" {
		return fmt.Errorf("open target cannot be empty")
	}

	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return ValidateURL(target)
	}

	if !filepath.IsAbs(target) {
		return fmt.Errorf("file target must be an absolute path: %s", target)
	}

	return rejectDangerous(target)
}

func rejectDangerous(s string) error {
	for _, char := range dangerousChars {
		if strings.Contains(s, char) {
			return fmt.Errorf("target contains dangerous character: %q", char)
		}
	}

	return nil
}
