package websocket

import (
	"context"
	"sync"
	"time"

	readererrors "github.com/conneroisu/mdreader/internal/errors"
	"github.com/conneroisu/mdreader/internal/logging"
)

// Registry tracks open viewer channels.
//
// Invariants:
//   - channels map access always protected by mutex
//   - a broadcast targets the members present when it started, each once
//   - a channel whose send fails is closed and removed before the broadcast
//     returns
//   - after CloseAll nothing can be added
type Registry struct {
	mutex    sync.RWMutex
	channels map[string]Channel
	closed   bool

	sendTimeout time.Duration
	logger      logging.Logger
	errors      *readererrors.ErrorHandler
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithSendTimeout bounds each individual send.
func WithSendTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.sendTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		channels:    make(map[string]Channel),
		sendTimeout: DefaultSendTimeout,
		logger:      logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithComponent("registry")
	r.errors = readererrors.NewErrorHandler(r.logger)

	return r
}

// Add registers ch. It returns false, and leaves ch untouched, once the
// registry has been closed.
func (r *Registry) Add(ch Channel) bool {
	r.mutex.Lock()
	if r.closed {
		r.mutex.Unlock()
		return false
	}
	r.channels[ch.ID()] = ch
	total := len(r.channels)
	r.mutex.Unlock()

	r.logger.Debug(context.Background(), "Viewer connected", "id", ch.ID(), "total", total)

	return true
}

// Remove unregisters ch and reports whether it was present. Removing an
// unknown channel is a no-op.
func (r *Registry) Remove(ch Channel) bool {
	r.mutex.Lock()
	current, ok := r.channels[ch.ID()]
	if ok && current == ch {
		delete(r.channels, ch.ID())
	} else {
		ok = false
	}
	total := len(r.channels)
	r.mutex.Unlock()

	if ok {
		r.logger.Debug(context.Background(), "Viewer disconnected", "id", ch.ID(), "total", total)
	}

	return ok
}

// Len returns the number of registered channels.
func (r *Registry) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.channels)
}

// snapshot copies the current members so sends happen without the lock.
func (r *Registry) snapshot() []Channel {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	channels := make([]Channel, 0, len(r.channels))
	for _, ch := range r.channels {
		channels = append(channels, ch)
	}

	return channels
}

// Broadcast sends message to every channel registered when the call began
// and returns how many sends succeeded. Failed channels are closed and
// removed; they never stop delivery to the rest.
func (r *Registry) Broadcast(ctx context.Context, message string) int {
	channels := r.snapshot()
	if len(channels) == 0 {
		return 0
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		delivered int
	)

	for _, ch := range channels {
		wg.Add(1)
		go func(ch Channel) {
			defer wg.Done()

			sendCtx, cancel := context.WithTimeout(ctx, r.sendTimeout)
			err := ch.Send(sendCtx, message)
			cancel()

			if err != nil {
				r.errors.Handle(ctx, readererrors.NewChannelError(ch.ID(), err).WithComponent("registry"))
				r.Remove(ch)
				_ = ch.Close()
				return
			}

			mu.Lock()
			delivered++
			mu.Unlock()
		}(ch)
	}

	wg.Wait()

	return delivered
}

// BroadcastReload tells every viewer to reload.
func (r *Registry) BroadcastReload(ctx context.Context) int {
	return r.Broadcast(ctx, ReloadMessage)
}

// CloseAll closes and removes every channel and refuses later additions.
// Close errors are logged and do not stop the rest from closing. Safe to
// call more than once.
func (r *Registry) CloseAll(ctx context.Context) {
	r.mutex.Lock()
	channels := make([]Channel, 0, len(r.channels))
	for _, ch := range r.channels {
		channels = append(channels, ch)
	}
	r.channels = make(map[string]Channel)
	r.closed = true
	r.mutex.Unlock()

	for _, ch := range channels {
		if err := ch.Close(); err != nil {
			r.logger.Debug(ctx, "Viewer close failed", "id", ch.ID(), "error", err.Error())
		}
	}
}
