package agent

import (
	"context"
	"fmt"

	"nhooyr.io/websocket"
)

// Conn is the minimal surface the client needs from an open transport.
type Conn interface {
	// Read blocks until the next inbound frame or a connection error.
	Read(ctx context.Context) ([]byte, error)
	// Write sends one text frame.
	Write(ctx context.Context, data []byte) error
	// Close performs a normal closure with the given reason.
	Close(reason string) error
}

// Dialer opens a Conn to the agent endpoint. Injected so tests can
// substitute an in-memory transport.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WSDialer dials real WebSocket connections.
type WSDialer struct{}

// Dial opens a WebSocket connection to url.
func (WSDialer) Dial(ctx context.Context, url string) (Conn, error) {
	ws, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("agent dial: %w", err)
	}
	// Agent replies can be large; the default 32KB read limit is too
	// small for tool output frames.
	ws.SetReadLimit(1 << 22)
	return &wsConn{ws: ws}, nil
}

type wsConn struct {
	ws *websocket.Conn
}

func (c *wsConn) Read(ctx context.Context) ([]byte, error) {
	_, data, err := c.ws.Read(ctx)
	return data, err
}

func (c *wsConn) Write(ctx context.Context, data []byte) error {
	return c.ws.Write(ctx, websocket.MessageText, data)
}

func (c *wsConn) Close(reason string) error {
	return c.ws.Close(websocket.StatusNormalClosure, reason)
}
