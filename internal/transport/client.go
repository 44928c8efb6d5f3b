package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrNotConnected is returned by Emit while no connection is up.
var ErrNotConnected = errors.New("not connected")

const (
	defaultMinBackoff   = time.Second
	defaultMaxBackoff   = 5 * time.Second
	handshakeTimeout    = 10 * time.Second
	writeTimeout        = 5 * time.Second
	defaultReadDeadline = 60 * time.Second
)

// Direction tells a Tap which way a packet went.
type Direction string

const (
	Inbound  Direction = "in"
	Outbound Direction = "out"
)

// Tap observes every named event crossing the transport.
type Tap func(dir Direction, event string, payload json.RawMessage)

// Handler receives connection notifications and inbound events. All calls
// come from the client's single read goroutine, in arrival order.
type Handler interface {
	OnConnect()
	OnConnectError(err error)
	OnDisconnect(reason string)
	OnEvent(event string, args []json.RawMessage)
}

// Client is a reconnecting Socket.IO client over a websocket.
type Client struct {
	url     string
	header  http.Header
	handler Handler
	dialer  *websocket.Dialer
	taps    []Tap

	minBackoff time.Duration
	maxBackoff time.Duration

	mu        sync.RWMutex
	conn      *websocket.Conn
	connected bool

	writeMu sync.Mutex
}

// ClientOpt configures a Client.
type ClientOpt func(*Client)

// WithOrigin sets the Origin header sent with the websocket upgrade.
func WithOrigin(origin string) ClientOpt {
	return func(c *Client) {
		if origin != "" {
			c.header.Set("Origin", origin)
		}
	}
}

// WithBackoff bounds the delay between reconnect attempts.
func WithBackoff(minDelay, maxDelay time.Duration) ClientOpt {
	return func(c *Client) {
		c.minBackoff = minDelay
		c.maxBackoff = max(minDelay, maxDelay)
	}
}

// WithTap adds an observer for inbound and outbound events.
func WithTap(t Tap) ClientOpt {
	return func(c *Client) {
		c.taps = append(c.taps, t)
	}
}

// NewClient creates a client for the Socket.IO server at serverURL. The
// scheme may be http(s) or ws(s); the Socket.IO path is added if missing.
func NewClient(serverURL string, h Handler, opts ...ClientOpt) (*Client, error) {
	u, err := socketURL(serverURL)
	if err != nil {
		return nil, err
	}

	c := &Client{
		url:        u,
		header:     http.Header{},
		handler:    h,
		dialer:     &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		minBackoff: defaultMinBackoff,
		maxBackoff: defaultMaxBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func socketURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parsing server url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/socket.io/"
	}
	q := u.Query()
	q.Set("EIO", "4")
	q.Set("transport", "websocket")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Connected reports whether the Socket.IO session is up.
func (c *Client) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Start connects and keeps reconnecting until ctx is done.
func (c *Client) Start(ctx context.Context) error {
	stop := context.AfterFunc(ctx, c.closeConn)
	defer stop()

	backoff := c.minBackoff
	for {
		if ctx.Err() != nil {
			return nil
		}

		wasUp, err := c.connectAndReadLoop(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if wasUp {
			backoff = c.minBackoff
		}
		slog.WarnContext(ctx, "socket connection lost", "error", err, "retry_in", backoff)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, c.maxBackoff)
	}
}

// connectAndReadLoop runs one connection. It reports whether the Socket.IO
// session came up before the connection ended.
func (c *Client) connectAndReadLoop(ctx context.Context) (bool, error) {
	conn, resp, err := c.dialer.DialContext(ctx, c.url, c.header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		c.handler.OnConnectError(err)
		return false, fmt.Errorf("dialing: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	if ctx.Err() != nil {
		_ = conn.Close()
	}

	up := false
	reason := "transport close"
	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.connected = false
		c.mu.Unlock()
		_ = conn.Close()
		if up {
			c.handler.OnDisconnect(reason)
		}
	}()

	readDeadline := defaultReadDeadline
	for {
		_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if !up {
				c.handler.OnConnectError(err)
			}
			return up, fmt.Errorf("reading: %w", err)
		}

		p, err := decodePacket(msg)
		if err != nil {
			slog.Warn("dropping malformed packet", "error", err)
			continue
		}

		switch p.kind {
		case packetOpen:
			if d := p.handshake.deadline(); d > 0 {
				readDeadline = d
			}
			if err := c.write(conn, connectPacket); err != nil {
				return up, err
			}
		case packetPing:
			if err := c.write(conn, pongPacket); err != nil {
				return up, err
			}
		case packetConnected:
			up = true
			c.mu.Lock()
			c.connected = true
			c.mu.Unlock()
			c.handler.OnConnect()
		case packetConnectError:
			err := fmt.Errorf("connect refused: %s", strings.TrimSpace(string(p.raw)))
			c.handler.OnConnectError(err)
			return up, err
		case packetDisconnected:
			reason = "io server disconnect"
			return up, errors.New(reason)
		case packetClose:
			reason = "transport close"
			return up, errors.New(reason)
		case packetEvent:
			for _, tap := range c.taps {
				tap(Inbound, p.event, firstArg(p.args))
			}
			c.handler.OnEvent(p.event, p.args)
		}
	}
}

func firstArg(args []json.RawMessage) json.RawMessage {
	if len(args) == 0 {
		return nil
	}
	return args[0]
}

// Emit sends a named event with an optional JSON payload.
func (c *Client) Emit(event string, payload any) error {
	c.mu.RLock()
	conn, up := c.conn, c.connected
	c.mu.RUnlock()
	if conn == nil || !up {
		return ErrNotConnected
	}

	b, err := encodeEvent(event, payload)
	if err != nil {
		return err
	}
	if len(c.taps) > 0 {
		raw, _ := json.Marshal(payload)
		for _, tap := range c.taps {
			tap(Outbound, event, raw)
		}
	}
	return c.write(conn, b)
}

func (c *Client) write(conn *websocket.Conn, b []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return fmt.Errorf("writing: %w", err)
	}
	return nil
}

func (c *Client) closeConn() {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn != nil {
		_ = conn.Close()
	}
}
