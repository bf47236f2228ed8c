package validation

import (
	"fmt"
	"os"
	"path/filepath"

	readererrors "github.com/conneroisu/mdreader/internal/errors"
)

// MarkdownExtension is the only accepted source extension.
const MarkdownExtension = ".md"

// ValidateMarkdownPath checks that path names an existing regular markdown
// file and returns its absolute form.
func ValidateMarkdownPath(path string) (string, error) {
	if path == "" {
		return "", readererrors.ErrNoInput
	}

	if filepath.Ext(path) != MarkdownExtension {
		return "", fmt.Errorf("%q: %w", path, readererrors.ErrNotMarkdown)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("getting absolute path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%q: %w", path, readererrors.ErrFileNotFound)
		}
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	if info.IsDir() {
		return "", fmt.Errorf("%q is a directory: %w", path, readererrors.ErrNotMarkdown)
	}

	return absPath, nil
}
