// Package pdf exports a markdown file as PDF by printing its rendered page
// in a headless Chromium.
package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/conneroisu/mdreader/internal/convert"
	readererrors "github.com/conneroisu/mdreader/internal/errors"
	"github.com/conneroisu/mdreader/internal/logging"
)

// Renderer prints a local HTML file to PDF bytes.
type Renderer interface {
	RenderFromFile(ctx context.Context, filePath string) ([]byte, error)
	Close() error
}

// Exporter converts markdown and hands the page to a Renderer.
type Exporter struct {
	converter *convert.Converter
	renderer  Renderer
	tempDir   string
	now       func() time.Time
	logger    logging.Logger
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithRenderer replaces the headless browser.
func WithRenderer(r Renderer) Option {
	return func(e *Exporter) { e.renderer = r }
}

// WithTempDir sets where the intermediate HTML is written.
func WithTempDir(dir string) Option {
	return func(e *Exporter) { e.tempDir = dir }
}

// WithClock overrides time.Now for temp file naming.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) { e.now = now }
}

func WithLogger(logger logging.Logger) Option {
	return func(e *Exporter) { e.logger = logger }
}

// NewExporter returns an exporter. Without WithRenderer it prints through
// a RodRenderer launched with the given browser binary and timeout.
func NewExporter(converter *convert.Converter, browser string, timeout time.Duration, opts ...Option) *Exporter {
	if converter == nil {
		converter = convert.New()
	}

	e := &Exporter{
		converter: converter,
		tempDir:   os.TempDir(),
		now:       time.Now,
		logger:    logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.WithComponent("pdf")

	if e.renderer == nil {
		e.renderer = NewRodRenderer(browser, timeout, e.logger)
	}

	return e
}

// DefaultOutputPath puts the PDF beside its source.
func DefaultOutputPath(mdPath string) string {
	return filepath.Join(filepath.Dir(mdPath), convert.Stem(mdPath)+".pdf")
}

// Export renders mdPath into outPath. An empty outPath means
// DefaultOutputPath. The intermediate HTML file is always removed.
func (e *Exporter) Export(ctx context.Context, mdPath, outPath string) (string, error) {
	if outPath == "" {
		outPath = DefaultOutputPath(mdPath)
	}

	perf := logging.StartOperation(e.logger, "pdf export")

	doc, err := e.converter.ConvertFile(ctx, mdPath)
	if err != nil {
		perf.EndWithError(ctx, err)
		return "", readererrors.NewExportError(mdPath, err)
	}

	tmpPath := filepath.Join(e.tempDir,
		fmt.Sprintf("md-reader-%s-%d.html", convert.Stem(mdPath), e.now().UnixMilli()))
	if err := os.WriteFile(tmpPath, []byte(doc.HTML), 0o600); err != nil {
		perf.EndWithError(ctx, err)
		return "", readererrors.NewExportError(mdPath, fmt.Errorf("writing temp html: %w", err))
	}
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
			e.logger.Warn(ctx, err, "Could not remove temp html", "path", tmpPath)
		}
	}()

	data, err := e.renderer.RenderFromFile(ctx, tmpPath)
	if err != nil {
		perf.EndWithError(ctx, err)
		return "", readererrors.NewExportError(mdPath, err)
	}

	// #nosec G306 -- PDF output files are intended to be readable
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		perf.EndWithError(ctx, err)
		return "", readererrors.NewExportError(outPath, fmt.Errorf("writing pdf: %w", err))
	}

	perf.End(ctx)
	e.logger.Info(ctx, "Exported PDF", "source", mdPath, "output", outPath, "bytes", len(data))

	return outPath, nil
}

// Close releases the browser.
func (e *Exporter) Close() error {
	return e.renderer.Close()
}
