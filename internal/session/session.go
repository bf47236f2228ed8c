// Package session runs a live-reload watch session for one markdown file.
//
// A Session moves through Starting, Running, ShuttingDown and Stopped.
// Starting renders the file, binds the server and registers the file
// watch; any failure there is fatal. While Running, every settled burst of
// edits is re-rendered into the cache and followed by a reload broadcast; a
// failed re-render keeps the previous page. Shutdown tears everything down
// once, no matter how often or from where it is requested.
//
// All external happenings reach the session as typed events consumed by a
// single control loop, so re-renders never overlap and each broadcast is
// ordered after the cache write it announces.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/conneroisu/mdreader/internal/cache"
	"github.com/conneroisu/mdreader/internal/config"
	"github.com/conneroisu/mdreader/internal/convert"
	readererrors "github.com/conneroisu/mdreader/internal/errors"
	"github.com/conneroisu/mdreader/internal/logging"
	"github.com/conneroisu/mdreader/internal/opener"
	"github.com/conneroisu/mdreader/internal/page"
	"github.com/conneroisu/mdreader/internal/renderer"
	"github.com/conneroisu/mdreader/internal/server"
	"github.com/conneroisu/mdreader/internal/validation"
	"github.com/conneroisu/mdreader/internal/watcher"
	"github.com/conneroisu/mdreader/internal/websocket"
)

const (
	eventBuffer     = 64
	shutdownTimeout = 5 * time.Second
)

// Options configures a Session.
type Options struct {
	// Path is the markdown file to watch.
	Path string
	// Config supplies watch and server settings. Defaults when nil.
	Config *config.Config
	// Renderer converts markdown. Goldmark when nil.
	Renderer renderer.Renderer
	// Opener shows the served URL when Config.Server.Open is set.
	Opener opener.Opener
	Logger logging.Logger
	// Out receives the operator-facing progress lines.
	Out io.Writer
	// WatcherOptions are appended to the session's own watcher options.
	WatcherOptions []watcher.Option
}

// Session is one live-reload watch of a single file.
type Session struct {
	path      string
	cfg       *config.Config
	converter *convert.Converter
	opener    opener.Opener
	logger    logging.Logger
	errors    *readererrors.ErrorHandler
	out       io.Writer
	watchOpts []watcher.Option

	cache    *cache.Cache
	registry *websocket.Registry
	server   *server.Server
	watcher  *watcher.FileWatcher

	state   atomic.Int32
	started atomic.Bool
	events  chan event
	ready   chan struct{}
	done    chan struct{}

	shutdownOnce sync.Once
	shutdownErr  error

	rerenders atomic.Uint64
}

// New validates the input file and prepares a session. Nothing is bound or
// watched until Start.
func New(opts Options) (*Session, error) {
	absPath, err := validation.ValidateMarkdownPath(opts.Path)
	if err != nil {
		return nil, readererrors.NewValidationError(opts.Path, err)
	}

	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	o := opts.Opener
	if o == nil {
		o = opener.New()
	}

	s := &Session{
		path: absPath,
		cfg:  cfg,
		converter: convert.New(
			convert.WithRenderer(opts.Renderer),
			convert.WithScript(page.ReloadScript(cfg.Server.UpgradePath, websocket.ReloadMessage, cfg.Watch.ReconnectDelay)),
		),
		opener:    o,
		logger:    logger.WithComponent("session"),
		out:       out,
		watchOpts: opts.WatcherOptions,
		cache:     cache.New(""),
		registry:  websocket.NewRegistry(websocket.WithLogger(logger)),
		events:    make(chan event, eventBuffer),
		ready:     make(chan struct{}),
		done:      make(chan struct{}),
	}
	s.errors = readererrors.NewErrorHandler(s.logger)
	s.state.Store(int32(StateStarting))

	return s, nil
}

// Path returns the absolute watched path.
func (s *Session) Path() string { return s.path }

// State returns the current lifecycle state.
func (s *Session) State() State { return State(s.state.Load()) }

// Cache returns the served page holder.
func (s *Session) Cache() *cache.Cache { return s.cache }

// Registry returns the open viewer channels.
func (s *Session) Registry() *websocket.Registry { return s.registry }

// Ready is closed once the session is Running.
func (s *Session) Ready() <-chan struct{} { return s.ready }

// Done is closed once the session is Stopped.
func (s *Session) Done() <-chan struct{} { return s.done }

// Rerenders returns how many re-renders have succeeded.
func (s *Session) Rerenders() uint64 { return s.rerenders.Load() }

// Port returns the bound port, or 0 before Start.
func (s *Session) Port() int {
	if s.server == nil {
		return 0
	}

	return s.server.Port()
}

// URL returns the viewer URL, or "" before Start.
func (s *Session) URL() string {
	if s.server == nil {
		return ""
	}

	return s.server.URL()
}

// Start performs the Starting phase. On error the session is already
// Stopped and the error is a fatal startup error.
func (s *Session) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return fmt.Errorf("session already started: %w", readererrors.ErrSessionStopped)
	}

	doc, err := s.converter.ConvertFile(ctx, s.path)
	if err != nil {
		return s.abort(readererrors.NewFatalStartupError("initial render", s.path, err))
	}
	s.cache.Set(doc.HTML)

	srv, err := server.New(server.Options{
		Host:            s.cfg.Server.Host,
		Port:            s.cfg.Server.Port,
		UpgradePath:     s.cfg.Server.UpgradePath,
		Pages:           s.cache,
		Registry:        s.registry,
		Logger:          s.logger,
		OnChannelClosed: s.channelClosed,
	})
	if err != nil {
		return s.abort(readererrors.NewFatalStartupError("bind", s.cfg.Server.Host, err))
	}
	s.server = srv

	watchOpts := append([]watcher.Option{
		watcher.WithDebounce(s.cfg.Watch.Debounce),
		watcher.WithLogger(s.logger),
		watcher.WithRawHandler(s.rawChange),
	}, s.watchOpts...)

	fw, err := watcher.New(s.path, s.settled, watchOpts...)
	if err != nil {
		return s.abort(readererrors.NewFatalStartupError("watch", s.path, err))
	}
	s.watcher = fw
	// Stop, not a context, ends the watcher.
	fw.Start(context.Background())

	if !s.state.CompareAndSwap(int32(StateStarting), int32(StateRunning)) {
		return s.abort(readererrors.NewFatalStartupError("start", s.path, readererrors.ErrSessionStopped))
	}
	close(s.ready)

	fmt.Fprintf(s.out, "watching %s\n", s.path)
	fmt.Fprintf(s.out, "serving %s\n", s.URL())
	s.logger.Info(ctx, "Session running", "path", s.path, "url", s.URL())

	if s.cfg.Server.Open {
		opener.OpenBestEffort(ctx, s.opener, s.URL(), s.logger)
	}

	return nil
}

func (s *Session) abort(err *readererrors.ReaderError) error {
	err = err.WithComponent("session")
	s.errors.Handle(context.Background(), err)
	_ = s.Shutdown(context.Background())

	return err
}

// Run starts the session, serves and processes events until ctx is done or
// a shutdown is requested, then shuts down. It returns nil after a clean
// shutdown and a fatal error if startup fails.
func (s *Session) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.server.Serve(); err != nil {
			return fmt.Errorf("serving %s: %w", s.URL(), err)
		}
		return nil
	})

	g.Go(func() error {
		s.loop(gctx)
		return nil
	})

	return g.Wait()
}

// loop is the single consumer of session events.
func (s *Session) loop(ctx context.Context) {
	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			s.shutdownFromLoop("context done")
			return
		case ev := <-s.events:
			if s.handle(ctx, ev) {
				s.shutdownFromLoop(ev.eventName())
				return
			}
		}
	}
}

// handle processes one event and reports whether the session must stop.
func (s *Session) handle(ctx context.Context, ev event) bool {
	switch e := ev.(type) {
	case rawChangeEvent:
		s.logger.Debug(ctx, "Change detected", "type", e.change.Type.String())
	case settledEvent:
		s.rerender(ctx, e.change)
	case channelClosedEvent:
		s.logger.Debug(ctx, "Viewer left", "id", e.id, "remaining", s.registry.Len())
	case signalEvent:
		name := "shutdown requested"
		if e.signal != nil {
			name = e.signal.String()
		}
		s.logger.Info(ctx, "Shutting down", "reason", name)
		return true
	}

	return false
}

func (s *Session) shutdownFromLoop(reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, err, "Shutdown finished with errors", "reason", reason)
	}
}

// rerender converts the file again. The cache is only replaced, and viewers
// only told to reload, when the conversion succeeded.
func (s *Session) rerender(ctx context.Context, change watcher.ChangeEvent) {
	if s.State() != StateRunning {
		return
	}

	perf := logging.StartOperation(s.logger, "re-render")

	doc, err := s.converter.ConvertFile(ctx, s.path)
	if err != nil {
		s.errors.Handle(ctx, readererrors.NewTransientRenderError(s.path, err).WithComponent("session"))
		return
	}

	s.cache.Set(doc.HTML)
	viewers := s.registry.BroadcastReload(ctx)
	s.rerenders.Add(1)
	perf.End(ctx)

	fmt.Fprintf(s.out, "re-converted (%s)\n", change.Type)
	s.logger.Info(ctx, "Page updated", "viewers", viewers)
}

// Signal asks the control loop to shut down. It returns immediately once
// the session has stopped.
func (s *Session) Signal(sig os.Signal) {
	select {
	case s.events <- signalEvent{signal: sig}:
	case <-s.done:
	}
}

func (s *Session) settled(change watcher.ChangeEvent) {
	select {
	case s.events <- settledEvent{change: change}:
	case <-s.done:
	}
}

func (s *Session) rawChange(change watcher.ChangeEvent) {
	select {
	case s.events <- rawChangeEvent{change: change}:
	default:
	}
}

func (s *Session) channelClosed(id string) {
	select {
	case s.events <- channelClosedEvent{id: id}:
	default:
	}
}

// Shutdown stops the monitor (cancelling any pending debounce timer),
// closes every viewer channel and stops the HTTP server. Each step runs
// even if an earlier one failed. Later calls return the first result.
func (s *Session) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.state.Store(int32(StateShuttingDown))

		var errs []error

		if s.watcher != nil {
			if err := s.watcher.Stop(); err != nil {
				errs = append(errs, fmt.Errorf("stopping watcher: %w", err))
			}
		}

		s.registry.CloseAll(ctx)

		if s.server != nil {
			if err := s.server.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("stopping server: %w", err))
			}
		}

		s.state.Store(int32(StateStopped))
		close(s.done)

		s.shutdownErr = errors.Join(errs...)
		s.logger.Info(ctx, "Session stopped", "path", s.path)
	})

	return s.shutdownErr
}
