// Package watcher monitors a single markdown file for changes and reports
// each burst of edits once, after a quiet period.
//
// The parent directory is watched rather than the file itself so that
// editors which save by writing a temporary file and renaming it over the
// original keep being observed.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/conneroisu/mdreader/internal/logging"
)

// DefaultDebounce is the quiet period used when none is configured.
const DefaultDebounce = 150 * time.Millisecond

// ChangeEvent represents a file change event
type ChangeEvent struct {
	Type    EventType
	Path    string
	ModTime time.Time
	Size    int64
}

// EventType represents the type of file change
type EventType int

const (
	EventTypeCreated EventType = iota
	EventTypeModified
	EventTypeDeleted
	EventTypeRenamed
)

// String returns the string representation of the EventType
func (e EventType) String() string {
	switch e {
	case EventTypeCreated:
		return "created"
	case EventTypeModified:
		return "modified"
	case EventTypeDeleted:
		return "deleted"
	case EventTypeRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// Source is the stream of raw notifications. *fsnotify.Watcher satisfies it
// through fsnotifySource; tests supply their own.
type Source interface {
	Add(path string) error
	Events() <-chan fsnotify.Event
	Errors() <-chan error
	Close() error
}

type fsnotifySource struct {
	w *fsnotify.Watcher
}

func (s fsnotifySource) Add(path string) error         { return s.w.Add(path) }
func (s fsnotifySource) Events() <-chan fsnotify.Event { return s.w.Events }
func (s fsnotifySource) Errors() <-chan error          { return s.w.Errors }
func (s fsnotifySource) Close() error                  { return s.w.Close() }

// Option configures a FileWatcher.
type Option func(*FileWatcher)

// WithDebounce sets the quiet period.
func WithDebounce(d time.Duration) Option {
	return func(fw *FileWatcher) {
		if d > 0 {
			fw.delay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(fw *FileWatcher) {
		if logger != nil {
			fw.logger = logger
		}
	}
}

// WithRawHandler registers a callback for every accepted raw notification,
// before debouncing.
func WithRawHandler(fn func(ChangeEvent)) Option {
	return func(fw *FileWatcher) {
		fw.onRaw = fn
	}
}

// WithSource replaces the fsnotify watcher.
func WithSource(src Source) Option {
	return func(fw *FileWatcher) {
		fw.source = src
	}
}

// FileWatcher watches one file with debouncing.
type FileWatcher struct {
	path      string
	delay     time.Duration
	source    Source
	debouncer *Debouncer
	logger    logging.Logger
	onRaw     func(ChangeEvent)

	done     chan struct{}
	stopOnce sync.Once
	stopErr  error
}

// New starts watching path. onSettled runs once per settled burst of
// changes. An error means the file could not be registered and no
// notifications will ever be delivered.
func New(path string, onSettled func(ChangeEvent), opts ...Option) (*FileWatcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	fw := &FileWatcher{
		path:   absPath,
		delay:  DefaultDebounce,
		logger: logging.NewNopLogger(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(fw)
	}
	fw.logger = fw.logger.WithComponent("watcher")

	if _, err := os.Stat(absPath); err != nil {
		return nil, fmt.Errorf("watching %s: %w", absPath, err)
	}

	if fw.source == nil {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("creating file watcher: %w", err)
		}
		fw.source = fsnotifySource{w: w}
	}

	if err := fw.source.Add(filepath.Dir(absPath)); err != nil {
		_ = fw.source.Close()
		return nil, fmt.Errorf("watching %s: %w", absPath, err)
	}

	fw.debouncer = NewDebouncer(fw.delay, onSettled)

	return fw, nil
}

// Path returns the absolute path being watched.
func (fw *FileWatcher) Path() string {
	return fw.path
}

// Debouncer exposes the pending-settle timer.
func (fw *FileWatcher) Debouncer() *Debouncer {
	return fw.debouncer
}

// Start runs the notification loop until ctx is cancelled or Stop is called.
func (fw *FileWatcher) Start(ctx context.Context) {
	go fw.watchLoop(ctx)
}

// Stop cancels the pending settle timer and releases the OS watch. It is
// idempotent.
func (fw *FileWatcher) Stop() error {
	fw.stopOnce.Do(func() {
		fw.debouncer.Stop()
		close(fw.done)
		fw.stopErr = fw.source.Close()
	})

	return fw.stopErr
}

func (fw *FileWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-fw.done:
			return
		case event, ok := <-fw.source.Events():
			if !ok {
				return
			}
			fw.handleFsnotifyEvent(event)
		case err, ok := <-fw.source.Errors():
			if !ok {
				return
			}
			fw.logger.Warn(ctx, err, "File watcher error", "path", fw.path)
		}
	}
}

func (fw *FileWatcher) handleFsnotifyEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != fw.path {
		return
	}

	var eventType EventType
	switch {
	case event.Has(fsnotify.Create):
		eventType = EventTypeCreated
	case event.Has(fsnotify.Write):
		eventType = EventTypeModified
	case event.Has(fsnotify.Remove):
		eventType = EventTypeDeleted
	case event.Has(fsnotify.Rename):
		eventType = EventTypeRenamed
	default:
		// Chmod alone: content is unchanged.
		return
	}

	changeEvent := ChangeEvent{
		Type: eventType,
		Path: fw.path,
	}
	if info, err := os.Stat(fw.path); err == nil {
		changeEvent.ModTime = info.ModTime()
		changeEvent.Size = info.Size()
	}

	fw.logger.Debug(context.Background(), "Raw change", "type", eventType.String(), "path", fw.path)

	if fw.onRaw != nil {
		fw.onRaw(changeEvent)
	}
	fw.debouncer.Trigger(changeEvent)
}
