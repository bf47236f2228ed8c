// Package convert turns a markdown file on disk into a complete HTML page by
// chaining the renderer and the page builder.
package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/conneroisu/mdreader/internal/page"
	"github.com/conneroisu/mdreader/internal/renderer"
)

// Document is one converted file.
type Document struct {
	Title string
	HTML  string
}

// Converter reads, renders and wraps markdown files.
type Converter struct {
	renderer renderer.Renderer
	script   string
}

// Option configures a Converter.
type Option func(*Converter)

// WithRenderer replaces the markdown renderer.
func WithRenderer(r renderer.Renderer) Option {
	return func(c *Converter) {
		if r != nil {
			c.renderer = r
		}
	}
}

// WithScript injects script into every page, before </body>.
func WithScript(script string) Option {
	return func(c *Converter) { c.script = script }
}

// New creates a Converter using goldmark.
func New(opts ...Option) *Converter {
	c := &Converter{renderer: renderer.NewMarkdownRenderer()}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ConvertFile reads path and converts it.
func (c *Converter) ConvertFile(ctx context.Context, path string) (*Document, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return c.Convert(ctx, string(source), Stem(path))
}

// Convert renders source. fallbackTitle is used when the document has no
// level-one heading.
func (c *Converter) Convert(ctx context.Context, source, fallbackTitle string) (*Document, error) {
	result, err := c.renderer.Render(ctx, source)
	if err != nil {
		return nil, err
	}

	title := result.Title
	if title == "" {
		title = fallbackTitle
	}

	html, err := page.Build(title, result.Body, c.script)
	if err != nil {
		return nil, err
	}

	return &Document{Title: title, HTML: html}, nil
}

// Stem returns the file name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)

	return strings.TrimSuffix(base, filepath.Ext(base))
}
