// Package websocket tracks open viewer push channels and delivers reload
// notifications to them.
package websocket

import (
	"context"
	"time"
)

// ReloadMessage is the single payload pushed to viewers.
const ReloadMessage = "reload"

// DefaultSendTimeout bounds a single push to one viewer.
const DefaultSendTimeout = 5 * time.Second

// Channel is one open push connection to a viewer. The server only ever
// writes to a Channel; anything the viewer sends is discarded.
type Channel interface {
	ID() string
	Send(ctx context.Context, message string) error
	Close() error
}
