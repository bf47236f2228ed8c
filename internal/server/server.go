// Package server serves the cached page over loopback HTTP and upgrades a
// reserved path to a push channel used for reload notifications.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	readererrors "github.com/conneroisu/mdreader/internal/errors"
	"github.com/conneroisu/mdreader/internal/logging"
	"github.com/conneroisu/mdreader/internal/validation"
	"github.com/conneroisu/mdreader/internal/websocket"
)

// DefaultUpgradePath is the reserved push channel path.
const DefaultUpgradePath = "/__ws"

// PageSource supplies the page to serve. Get must never block.
type PageSource interface {
	Get() string
}

// Options configures a Server.
type Options struct {
	Host        string
	Port        int
	UpgradePath string
	Pages       PageSource
	Registry    *websocket.Registry
	Logger      logging.Logger

	// OnChannelClosed, when set, is told about every viewer that went away
	// after the registry has forgotten it.
	OnChannelClosed func(id string)
}

// Server is a loopback-only preview server.
type Server struct {
	opts       Options
	listener   net.Listener
	httpServer *http.Server
	port       int
	logger     logging.Logger
	errors     *readererrors.ErrorHandler

	// ctx outlives individual requests so hijacked push channels end on
	// Shutdown.
	ctx    context.Context
	cancel context.CancelFunc

	nextID       atomic.Uint64
	shutdownOnce sync.Once
	shutdownErr  error
}

// New binds the listener. The returned server accepts nothing until Serve
// is called, but Port and URL are already valid.
func New(opts Options) (*Server, error) {
	if opts.Pages == nil {
		return nil, errors.New("server: page source is required")
	}
	if opts.Registry == nil {
		opts.Registry = websocket.NewRegistry()
	}
	if opts.Host == "" {
		opts.Host = "127.0.0.1"
	}
	if opts.UpgradePath == "" {
		opts.UpgradePath = DefaultUpgradePath
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	if !validation.IsLoopbackHost(opts.Host) {
		return nil, fmt.Errorf("server: refusing to bind non-loopback host %q", opts.Host)
	}

	addr := net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("binding %s: %w", addr, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	logger := opts.Logger.WithComponent("server")

	s := &Server{
		opts:     opts,
		listener: listener,
		port:     listener.Addr().(*net.TCPAddr).Port,
		logger:   logger,
		errors:   readererrors.NewErrorHandler(logger),
		ctx:      ctx,
		cancel:   cancel,
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	return s, nil
}

// Port returns the bound port.
func (s *Server) Port() int {
	return s.port
}

// URL returns the address viewers should open.
func (s *Server) URL() string {
	return fmt.Sprintf("http://localhost:%d", s.port)
}

// Handler returns the full request pipeline. Paths are matched as sent,
// without cleaning or redirects.
func (s *Server) Handler() http.Handler {
	return s.hostCheck(s.logRequests(http.HandlerFunc(s.route)))
}

// Serve accepts connections until Shutdown. It returns nil after a clean
// shutdown.
func (s *Server) Serve() error {
	s.logger.Info(s.ctx, "Serving", "url", s.URL())

	err := s.httpServer.Serve(s.listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

// Shutdown ends every push channel wait loop and stops the HTTP server.
// Later calls return the first result.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.cancel()
		s.shutdownErr = s.httpServer.Shutdown(ctx)
		// Serve may never have run; make sure the port is released.
		_ = s.listener.Close()
	})

	return s.shutdownErr
}

// hostCheck rejects requests whose Host header names anything but this
// server over loopback, before any other handling. A missing Host header
// is allowed.
func (s *Server) hostCheck(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !validation.IsAllowedHost(r.Host, s.port) {
			logging.LogSecurityEvent(r.Context(), s.logger, "host_rejected", map[string]interface{}{
				"host":   logging.SanitizeForLog(r.Host),
				"remote": r.RemoteAddr,
				"path":   logging.SanitizeForLog(r.URL.Path),
			})
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug(r.Context(), "Request served",
			"method", r.Method,
			"path", logging.SanitizeForLog(r.URL.Path),
			"duration", time.Since(start))
	})
}

func (s *Server) route(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == s.opts.UpgradePath {
		s.handleUpgrade(w, r)
		return
	}

	s.handlePage(w, r)
}

func (s *Server) handlePage(w http.ResponseWriter, _ *http.Request) {
	applySecurityHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.WriteHeader(http.StatusOK)

	_, _ = w.Write([]byte(s.opts.Pages.Get()))
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsUpgradeRequest(r) {
		s.errors.Handle(r.Context(), readererrors.NewUpgradeError(r.RemoteAddr,
			errors.New("not a websocket handshake")).WithComponent("server"))
		http.Error(w, "WebSocket upgrade failed", http.StatusBadRequest)
		return
	}

	id := fmt.Sprintf("viewer-%d", s.nextID.Add(1))
	conn, err := websocket.Accept(w, r, id)
	if err != nil {
		s.errors.Handle(r.Context(), readererrors.NewUpgradeError(r.RemoteAddr, err).WithComponent("server"))
		return
	}

	if !s.opts.Registry.Add(conn) {
		_ = conn.Close()
		return
	}

	conn.Wait(s.ctx)

	s.opts.Registry.Remove(conn)
	_ = conn.Close()

	if s.opts.OnChannelClosed != nil {
		s.opts.OnChannelClosed(id)
	}
}

func applySecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "no-referrer")
}
