// Package renderer converts markdown source text into an HTML body fragment
// and a document title.
//
// Conversion uses goldmark with GitHub Flavored Markdown, footnotes, heading
// IDs and chroma syntax highlighting (CSS classes, styled by the page
// package). Rendering is a pure function of the source text: the same input
// always yields the same output and nothing outside the returned value is
// touched, so callers can re-render freely from any goroutine.
package renderer

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// titlePattern matches the first level-one ATX heading.
var titlePattern = regexp.MustCompile(`(?m)^#[ \t]+(.+)$`)

// Result is one successful rendering.
type Result struct {
	Title string
	Body  string
}

// ConversionError reports that the markdown pipeline rejected the source.
type ConversionError struct {
	Err error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("markdown conversion failed: %v", e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Renderer abstracts markdown to HTML conversion.
type Renderer interface {
	Render(ctx context.Context, source string) (*Result, error)
}

// MarkdownRenderer renders markdown using goldmark (pure Go).
type MarkdownRenderer struct {
	md goldmark.Markdown
}

var _ Renderer = (*MarkdownRenderer)(nil)

// NewMarkdownRenderer creates a MarkdownRenderer with GFM extensions and syntax highlighting.
func NewMarkdownRenderer() *MarkdownRenderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithXHTML(),
		),
	)

	return &MarkdownRenderer{md: md}
}

// Render converts source into a body fragment. Title is the first H1, or
// empty when the document has none; callers supply their own fallback.
// Goldmark has no context support, so cancellation is honoured by racing the
// conversion goroutine against ctx.
func (r *MarkdownRenderer) Render(ctx context.Context, source string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		body string
		err  error
	}

	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		if err := r.md.Convert([]byte(source), &buf); err != nil {
			done <- result{err: &ConversionError{Err: err}}
			return
		}
		done <- result{body: buf.String()}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		return &Result{
			Title: ExtractTitle(source, ""),
			Body:  res.body,
		}, nil
	}
}

// ExtractTitle returns the text of the first "# " heading, trimmed, or
// fallback when there is none.
func ExtractTitle(markdown, fallback string) string {
	match := titlePattern.FindStringSubmatch(markdown)
	if match == nil {
		return fallback
	}

	title := strings.TrimSpace(match[1])
	if title == "" {
		return fallback
	}

	return title
}
