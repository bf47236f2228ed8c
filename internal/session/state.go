package session

import (
	"os"

	"github.com/conneroisu/mdreader/internal/watcher"
)

// State is the lifecycle position of a Session.
type State int32

const (
	StateStarting State = iota
	StateRunning
	StateShuttingDown
	StateStopped
)

// String returns the string representation of the State
func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting_down"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// event is something that happened outside the control loop. Every
// producer (file notifications, the debounce timer, signal delivery,
// viewers going away) turns its occurrence into one of these.
type event interface {
	eventName() string
}

type rawChangeEvent struct {
	change watcher.ChangeEvent
}

type settledEvent struct {
	change watcher.ChangeEvent
}

type signalEvent struct {
	signal os.Signal
}

type channelClosedEvent struct {
	id string
}

func (rawChangeEvent) eventName() string     { return "raw_change" }
func (settledEvent) eventName() string       { return "settled" }
func (signalEvent) eventName() string        { return "signal" }
func (channelClosedEvent) eventName() string { return "channel_closed" }
