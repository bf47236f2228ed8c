package pdf

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	readererrors "github.com/conneroisu/mdreader/internal/errors"
	"github.com/conneroisu/mdreader/internal/logging"
)

// Candidates are the install locations probed for a Chromium-based browser,
// WSL Windows-side browsers first.
var Candidates = []string{
	"/mnt/c/Program Files/Google/Chrome/Application/chrome.exe",
	"/mnt/c/Program Files (x86)/Google/Chrome/Application/chrome.exe",
	"/mnt/c/Program Files/Microsoft/Edge/Application/msedge.exe",
	"/mnt/c/Program Files (x86)/Microsoft/Edge/Application/msedge.exe",
	"/mnt/c/Program Files/BraveSoftware/Brave-Browser/Application/brave.exe",
	"/usr/bin/google-chrome",
	"/usr/bin/google-chrome-stable",
	"/usr/bin/chromium-browser",
	"/usr/bin/chromium",
	"/usr/bin/microsoft-edge",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	"/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge",
	"/Applications/Brave Browser.app/Contents/MacOS/Brave Browser",
}

// FindBrowser returns the first candidate that exists.
func FindBrowser(candidates []string, exists func(string) bool) (string, error) {
	if exists == nil {
		exists = fileExists
	}

	for _, c := range candidates {
		if exists(c) {
			return c, nil
		}
	}

	return "", readererrors.ErrBrowserNotFound
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ResolveBrowser picks the binary to launch: explicit wins, then the first
// installed candidate. An empty result leaves the choice to rod, which
// downloads a managed Chromium.
func ResolveBrowser(explicit string, candidates []string, exists func(string) bool) (string, error) {
	if explicit != "" {
		if exists == nil {
			exists = fileExists
		}
		if !exists(explicit) {
			return "", fmt.Errorf("%q: %w", explicit, readererrors.ErrBrowserNotFound)
		}
		return explicit, nil
	}

	found, err := FindBrowser(candidates, exists)
	if err != nil {
		return "", nil
	}

	return found, nil
}

// US Letter with half-inch margins.
const (
	paperWidthInches  = 8.5
	paperHeightInches = 11
	marginInches      = 0.5
)

// RodRenderer prints pages with go-rod. The browser is launched lazily and
// reused until Close.
type RodRenderer struct {
	bin     string
	timeout time.Duration
	logger  logging.Logger
	browser *rod.Browser
}

var _ Renderer = (*RodRenderer)(nil)

// NewRodRenderer creates a renderer for bin. An empty bin lets rod find or
// download a browser.
func NewRodRenderer(bin string, timeout time.Duration, logger logging.Logger) *RodRenderer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &RodRenderer{bin: bin, timeout: timeout, logger: logger}
}

func (r *RodRenderer) ensureBrowser(ctx context.Context) error {
	if r.browser != nil {
		return nil
	}

	l := launcher.New().Headless(true).NoSandbox(true)
	if r.bin != "" {
		l = l.Bin(r.bin)
	} else {
		r.logger.Info(ctx, "No installed browser found, using rod managed browser")
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connecting to browser: %w", err)
	}
	r.browser = browser

	return nil
}

// RenderFromFile loads filePath and prints it with backgrounds.
func (r *RodRenderer) RenderFromFile(ctx context.Context, filePath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := r.ensureBrowser(ctx); err != nil {
		return nil, err
	}

	page, err := r.browser.Page(proto.TargetCreateTarget{URL: "file://" + filePath})
	if err != nil {
		return nil, fmt.Errorf("creating page: %w", err)
	}
	defer page.Close()

	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}

	if err := page.Timeout(timeout).WaitLoad(); err != nil {
		return nil, fmt.Errorf("loading page: %w", err)
	}

	reader, err := page.PDF(&proto.PagePrintToPDF{
		PaperWidth:      floatPtr(paperWidthInches),
		PaperHeight:     floatPtr(paperHeightInches),
		MarginTop:       floatPtr(marginInches),
		MarginBottom:    floatPtr(marginInches),
		MarginLeft:      floatPtr(marginInches),
		MarginRight:     floatPtr(marginInches),
		PrintBackground: true,
	})
	if err != nil {
		return nil, fmt.Errorf("printing pdf: %w", err)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading pdf stream: %w", err)
	}

	return data, nil
}

// Close shuts the browser down if it was launched.
func (r *RodRenderer) Close() error {
	if r.browser == nil {
		return nil
	}

	err := r.browser.Close()
	r.browser = nil

	return err
}

func floatPtr(v float64) *float64 {
	return &v
}
