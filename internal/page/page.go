// Package page assembles rendered markdown into a complete, self-contained
// HTML document and provides the live-reload client script.
package page

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/a-h/templ"
	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
)

//go:embed assets/base.css
var baseCSS string

const (
	lightStyle = "github"
	darkStyle  = "monokai"
)

var (
	stylesheetOnce sync.Once
	stylesheet     string
)

// Stylesheet returns the full document CSS: the base prose rules followed by
// the chroma highlight classes for light and dark color schemes. It is
// computed once.
func Stylesheet() string {
	stylesheetOnce.Do(func() {
		var b strings.Builder
		b.WriteString(baseCSS)
		b.WriteString("\n")

		if css, err := chromaCSS(lightStyle); err == nil {
			b.WriteString(css)
		}
		if css, err := chromaCSS(darkStyle); err == nil {
			b.WriteString("@media (prefers-color-scheme: dark) {\n")
			b.WriteString(css)
			b.WriteString("}\n")
		}

		stylesheet = b.String()
	})

	return stylesheet
}

func chromaCSS(name string) (string, error) {
	style := styles.Get(name)
	if style == nil {
		style = styles.Fallback
	}

	return writeChromaCSS(style)
}

func writeChromaCSS(style *chroma.Style) (string, error) {
	var buf bytes.Buffer
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.WriteCSS(&buf, style); err != nil {
		return "", fmt.Errorf("failed to write highlight CSS: %w", err)
	}

	return buf.String(), nil
}

// Document returns a templ component for a full HTML5 page. Title is
// escaped; body is trusted renderer output and written verbatim. A
// non-empty script is placed in a <script> element just before </body>.
func Document(title, body, script string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		var b strings.Builder
		b.WriteString("<!DOCTYPE html>\n")
		b.WriteString(`<html lang="en">` + "\n")
		b.WriteString("<head>\n")
		b.WriteString(`<meta charset="UTF-8">` + "\n")
		b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1.0">` + "\n")
		b.WriteString("<title>" + templ.EscapeString(title) + "</title>\n")
		b.WriteString("<style>\n" + Stylesheet() + "</style>\n")
		b.WriteString("</head>\n")
		b.WriteString("<body>\n")
		b.WriteString(`<article class="prose">` + "\n")
		b.WriteString(body)
		b.WriteString("\n</article>\n")
		if script != "" {
			b.WriteString("<script>\n" + script + "\n</script>\n")
		}
		b.WriteString("</body>\n")
		b.WriteString("</html>\n")

		_, err := io.WriteString(w, b.String())

		return err
	})
}

// Build renders Document to a string.
func Build(title, body, script string) (string, error) {
	var buf bytes.Buffer
	if err := Document(title, body, script).Render(context.Background(), &buf); err != nil {
		return "", fmt.Errorf("failed to build page: %w", err)
	}

	return buf.String(), nil
}
