package websocket

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/coder/websocket"
)

// Conn is a Channel over a coder/websocket connection.
type Conn struct {
	id   string
	conn *websocket.Conn

	closeOnce sync.Once
	closeErr  error
}

var _ Channel = (*Conn)(nil)

// Accept upgrades the request to a websocket connection. On failure the
// library has already written an error status; callers that need a fixed
// status should validate the handshake first with IsUpgradeRequest.
func Accept(w http.ResponseWriter, r *http.Request, id string) (*Conn, error) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		return nil, err
	}

	return &Conn{id: id, conn: c}, nil
}

// IsUpgradeRequest reports whether r carries a well-formed websocket
// handshake.
func IsUpgradeRequest(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	if !headerContainsToken(r.Header, "Connection", "upgrade") {
		return false
	}
	if !headerContainsToken(r.Header, "Upgrade", "websocket") {
		return false
	}
	if r.Header.Get("Sec-WebSocket-Version") != "13" {
		return false
	}

	return strings.TrimSpace(r.Header.Get("Sec-WebSocket-Key")) != ""
}

func headerContainsToken(h http.Header, name, token string) bool {
	for _, value := range h.Values(name) {
		for _, part := range strings.Split(value, ",") {
			if strings.EqualFold(strings.TrimSpace(part), token) {
				return true
			}
		}
	}

	return false
}

// ID returns the connection identifier.
func (c *Conn) ID() string {
	return c.id
}

// Send writes message as a single text frame.
func (c *Conn) Send(ctx context.Context, message string) error {
	return c.conn.Write(ctx, websocket.MessageText, []byte(message))
}

// Close performs a normal closure. Later calls return the first result.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close(websocket.StatusNormalClosure, "")
	})

	return c.closeErr
}

// Wait discards anything the viewer sends and blocks until the connection
// is closed from either side or ctx is done.
func (c *Conn) Wait(ctx context.Context) {
	<-c.conn.CloseRead(ctx).Done()
}
