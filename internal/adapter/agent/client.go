package agent

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"finchat/internal/domain"
	"finchat/internal/infra/tracer"
	"finchat/internal/usecase"
)

// Defaults for the connection lifecycle.
const (
	DefaultHeartbeatInterval = 25 * time.Second
	DefaultReconnectBase     = time.Second
	DefaultMaxReconnects     = 10

	dialTimeout  = 10 * time.Second
	writeTimeout = 5 * time.Second
)

// EventSink consumes decoded inbound events. Satisfied by
// *usecase.Assembler.
type EventSink interface {
	Handle(ev domain.AgentEvent)
}

// Deps bundles the collaborators and settings of a Client.
type Deps struct {
	Endpoint string // e.g. "wss://api.example.com"
	UserID   string
	Token    string // optional bearer token
	Theme    string
	Model    string

	Dialer Dialer
	Sink   EventSink
	Log    *usecase.MessageLog
	Status *usecase.StatusTracker

	// ShouldReconnect gates automatic reconnection after an unexpected
	// close. When it returns false (e.g. the chat surface is hidden),
	// no reconnect is scheduled. Nil means never reconnect.
	ShouldReconnect func() bool

	HeartbeatInterval time.Duration
	ReconnectBase     time.Duration
	MaxReconnects     int

	Logger *slog.Logger
}

// Client owns the single transport to the remote agent: connect and
// backoff/reconnect cycles, heartbeats, inbound dispatch, and the
// outbound queue that buffers submissions while disconnected. The
// transport handle and the reconnect-attempt counter are owned
// exclusively here.
type Client struct {
	deps Deps

	mu             sync.Mutex
	conn           Conn
	connecting     bool
	attempts       int
	pending        []string
	hbStop         chan struct{}
	reconnectTimer *time.Timer

	// afterFunc is swapped out by tests to observe reconnect delays.
	afterFunc func(time.Duration, func()) *time.Timer
}

// New creates a client. Zero-valued settings fall back to the package
// defaults; Dialer defaults to a real WebSocket dialer.
func New(deps Deps) *Client {
	if deps.Dialer == nil {
		deps.Dialer = WSDialer{}
	}
	if deps.HeartbeatInterval <= 0 {
		deps.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if deps.ReconnectBase <= 0 {
		deps.ReconnectBase = DefaultReconnectBase
	}
	// Zero means default; a negative value disables automatic
	// reconnection entirely.
	if deps.MaxReconnects == 0 {
		deps.MaxReconnects = DefaultMaxReconnects
	}
	return &Client{
		deps:      deps,
		afterFunc: time.AfterFunc,
	}
}

// Connect opens the transport if it is not already open. A missing user
// identity makes it a silent no-op. Dial failures enter the same
// close/reconnect path as a dropped connection.
func (c *Client) Connect() {
	c.mu.Lock()
	if c.conn != nil || c.connecting || c.deps.UserID == "" {
		c.mu.Unlock()
		return
	}
	c.connecting = true
	c.mu.Unlock()

	c.deps.Status.Set(domain.ConnConnecting)

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	ctx, span := tracer.StartSpan(ctx, "agent.connect",
		trace.WithAttributes(tracer.StringAttr("endpoint", c.deps.Endpoint)),
	)
	conn, err := c.deps.Dialer.Dial(ctx, c.url())
	cancel()
	if err != nil {
		tracer.RecordError(span, err)
		span.End()
		c.deps.Logger.Warn("agent connect failed", "error", err)
		c.mu.Lock()
		c.connecting = false
		c.mu.Unlock()
		c.deps.Status.Set(domain.ConnError)
		c.handleClose(nil)
		return
	}
	tracer.SetOK(span)
	span.End()

	c.mu.Lock()
	c.conn = conn
	c.connecting = false
	c.attempts = 0
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	c.deps.Logger.Info("agent connected", "user_id", c.deps.UserID)
	c.deps.Status.Set(domain.ConnConnected)
	c.startHeartbeat(conn)

	// Drain the outbound queue in submission order.
	for _, content := range pending {
		c.send(conn, outFrame{Type: frameMessage, Content: content, Theme: c.deps.Theme, Model: c.deps.Model})
	}
	if len(pending) > 0 {
		c.deps.Status.Set(domain.ConnThinking)
	}

	go c.readLoop(conn)
}

// Disconnect performs the deliberate, non-retried shutdown: pending
// timers are cancelled and the attempt counter is saturated so a racing
// reconnect timer becomes a no-op when it fires.
func (c *Client) Disconnect() {
	c.mu.Lock()
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	c.stopHeartbeatLocked()
	c.attempts = c.deps.MaxReconnects
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		conn.Close("client disconnect")
	}
	c.deps.Status.Set(domain.ConnDisconnected)
}

// Connected reports whether the transport is currently open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// SendMessage submits user text irrespective of connection state. The
// user entry is appended to the log immediately; while disconnected the
// content is queued and a connect is triggered.
func (c *Client) SendMessage(content string) {
	if strings.TrimSpace(content) == "" {
		return
	}
	c.deps.Log.Append(domain.RoleUser, content)

	// The conn check and the enqueue share one critical section: Connect
	// sets conn and captures pending under the same lock, so a message
	// either sees the open conn or lands in pending before the drain.
	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.pending = append(c.pending, content)
	}
	c.mu.Unlock()

	if conn == nil {
		c.Connect()
		return
	}

	_, span := tracer.StartSpan(context.Background(), "agent.send_message")
	c.send(conn, outFrame{Type: frameMessage, Content: content, Theme: c.deps.Theme, Model: c.deps.Model})
	span.End()
	c.deps.Status.Set(domain.ConnThinking)
}

// CancelRun asks the agent to cancel the current run. No effect while
// disconnected; cancellation is advisory, the assembler keeps consuming
// whatever events still arrive.
func (c *Client) CancelRun() {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return
	}
	c.send(conn, outFrame{Type: frameCancel})
	c.deps.Log.AppendSystem("", "Cancelling...", "")
}

// SendRenderError reports a client-side rendering failure. Best effort:
// dropped silently while disconnected, never queued.
func (c *Client) SendRenderError(msg string) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return
	}
	c.send(conn, outFrame{Type: frameClientError, Error: msg})
}

// QueueLen returns the number of buffered submissions.
func (c *Client) QueueLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *Client) url() string {
	q := url.Values{}
	q.Set("user_id", c.deps.UserID)
	if c.deps.Token != "" {
		q.Set("token", c.deps.Token)
	}
	return strings.TrimRight(c.deps.Endpoint, "/") + "/ws/agent?" + q.Encode()
}

func (c *Client) readLoop(conn Conn) {
	for {
		data, err := conn.Read(context.Background())
		if err != nil {
			c.handleClose(conn)
			return
		}
		ev, ok := DecodeEvent(data)
		if !ok {
			c.deps.Logger.Debug("dropped unrecognized frame", "size", len(data))
			continue
		}
		c.deps.Sink.Handle(ev)
	}
}

// handleClose runs for both read-loop termination and dial failure
// (conn == nil). A stale conn — one that is no longer the current
// transport — is ignored so a deliberate Disconnect is never undone.
func (c *Client) handleClose(conn Conn) {
	c.mu.Lock()
	if conn != nil {
		if c.conn != conn {
			c.mu.Unlock()
			return
		}
		c.conn = nil
	}
	c.stopHeartbeatLocked()
	c.mu.Unlock()

	c.deps.Status.Set(domain.ConnDisconnected)

	if c.deps.ShouldReconnect == nil || !c.deps.ShouldReconnect() {
		return
	}

	c.mu.Lock()
	attempt := c.attempts
	c.mu.Unlock()
	if attempt >= c.deps.MaxReconnects {
		c.deps.Logger.Info("agent reconnect budget exhausted")
		return
	}

	delay := c.deps.ReconnectBase * time.Duration(attempt+1)
	c.deps.Logger.Info("agent reconnect scheduled", "attempt", attempt+1, "delay", delay)
	timer := c.afterFunc(delay, c.retryConnect)
	c.mu.Lock()
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
	}
	c.reconnectTimer = timer
	c.mu.Unlock()
}

// retryConnect is the reconnect-timer callback. Disconnect saturates
// the attempt counter, which turns an already-scheduled retry into a
// no-op here.
func (c *Client) retryConnect() {
	c.mu.Lock()
	if c.attempts >= c.deps.MaxReconnects {
		c.mu.Unlock()
		return
	}
	c.attempts++
	c.mu.Unlock()
	c.Connect()
}

func (c *Client) startHeartbeat(conn Conn) {
	stop := make(chan struct{})
	c.mu.Lock()
	c.stopHeartbeatLocked()
	c.hbStop = stop
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(c.deps.HeartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				c.send(conn, outFrame{Type: framePing})
			}
		}
	}()
}

func (c *Client) stopHeartbeatLocked() {
	if c.hbStop != nil {
		close(c.hbStop)
		c.hbStop = nil
	}
}

func (c *Client) send(conn Conn, f outFrame) {
	data, err := json.Marshal(f)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := conn.Write(ctx, data); err != nil {
		c.deps.Logger.Warn("agent write failed", "frame", f.Type, "error", err)
	}
}
