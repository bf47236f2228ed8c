// Package opener shows a URL or local file in the user's default viewer.
// Launching is best-effort: callers log failures and carry on.
package opener

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	readererrors "github.com/conneroisu/mdreader/internal/errors"
	"github.com/conneroisu/mdreader/internal/logging"
	"github.com/conneroisu/mdreader/internal/validation"
)

// Opener shows target (an http(s) URL or an absolute file path) to the user.
type Opener interface {
	Open(ctx context.Context, target string) error
}

// Runner executes external commands.
type Runner interface {
	// Output runs the command to completion and returns its stdout.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
	// Start launches the command without waiting for it.
	Start(ctx context.Context, name string, args ...string) error
}

type execRunner struct{}

func (execRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

func (execRunner) Start(_ context.Context, name string, args ...string) error {
	// Not CommandContext: the viewer must outlive the request that opened it.
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()

	return nil
}

// SystemOpener launches the platform's default handler.
type SystemOpener struct {
	goos   string
	getenv func(string) string
	runner Runner
}

var _ Opener = (*SystemOpener)(nil)

// Option configures a SystemOpener.
type Option func(*SystemOpener)

// WithRunner replaces command execution.
func WithRunner(r Runner) Option {
	return func(o *SystemOpener) { o.runner = r }
}

// WithPlatform overrides runtime.GOOS and the environment lookup.
func WithPlatform(goos string, getenv func(string) string) Option {
	return func(o *SystemOpener) {
		o.goos = goos
		if getenv != nil {
			o.getenv = getenv
		}
	}
}

// New returns an opener for the current platform.
func New(opts ...Option) *SystemOpener {
	o := &SystemOpener{
		goos:   runtime.GOOS,
		getenv: os.Getenv,
		runner: execRunner{},
	}
	for _, opt := range opts {
		opt(o)
	}

	return o
}

// IsWSL reports whether we run inside Windows Subsystem for Linux.
func (o *SystemOpener) IsWSL() bool {
	return o.goos == "linux" && o.getenv("WSL_DISTRO_NAME") != ""
}

// Open validates target and hands it to the platform launcher. Under WSL
// the Windows default browser is used, falling back to xdg-open.
func (o *SystemOpener) Open(ctx context.Context, target string) error {
	if err := validation.ValidateOpenTarget(target); err != nil {
		return readererrors.NewOpenerError(target, err)
	}

	if o.IsWSL() {
		if err := o.openWSL(ctx, target); err == nil {
			return nil
		}
	}

	var err error
	switch o.goos {
	case "darwin":
		err = o.runner.Start(ctx, "open", target)
	case "windows":
		err = o.runner.Start(ctx, "rundll32", "url.dll,FileProtocolHandler", target)
	default:
		err = o.runner.Start(ctx, "xdg-open", target)
	}
	if err != nil {
		return readererrors.NewOpenerError(target, err)
	}

	return nil
}

func (o *SystemOpener) openWSL(ctx context.Context, target string) error {
	winTarget := target
	if !isURL(target) {
		out, err := o.runner.Output(ctx, "wslpath", "-w", target)
		if err != nil {
			return fmt.Errorf("wslpath: %w", err)
		}
		winTarget = strings.TrimSpace(string(out))
		if winTarget == "" {
			return fmt.Errorf("wslpath returned nothing for %s", target)
		}
	}

	return o.runner.Start(ctx, "cmd.exe", "/c", "start", "", winTarget)
}

func isURL(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}

// NopOpener opens nothing.
type NopOpener struct{}

// Open does nothing.
func (NopOpener) Open(context.Context, string) error { return nil }

// OpenBestEffort asks o to show target and logs, never returns, a failure.
func OpenBestEffort(ctx context.Context, o Opener, target string, logger logging.Logger) {
	if o == nil {
		return
	}

	if err := o.Open(ctx, target); err != nil {
		if logger == nil {
			return
		}
		if _, ok := err.(*readererrors.ReaderError); !ok {
			err = readererrors.NewOpenerError(target, err)
		}
		readererrors.NewErrorHandler(logger.WithComponent("opener")).Handle(ctx, err)
	}
}
