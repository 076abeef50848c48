// Package transport owns the single live STOMP-over-WebSocket connection
// to the chat backend. It exposes subscribe/publish primitives keyed by
// destination strings and nothing else; reconnection is the caller's
// decision, never this package's.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/go-stomp/stomp/v3"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ErrNotConnected is returned by Send and Subscribe when no session is
// established. Callers treat it as a degraded state, not a crash.
var ErrNotConnected = errors.New("transport: not connected")

// Conn is the process-wide connection handle shared by every conversation
// view and the presence tracker. A dropped session stays dropped until the
// owner calls Connect again.
type Conn struct {
	mu      sync.Mutex
	ws      *websocket.Conn
	session *stomp.Conn
	log     *zap.Logger
}

// New creates a disconnected handle.
func New(log *zap.Logger) *Conn {
	return &Conn{log: log}
}

// Endpoint derives the websocket handshake URL from the backend base URL.
func Endpoint(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("transport: parse server url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("transport: unsupported scheme %q", u.Scheme)
	}
	u.Path = "/chat"
	return u.String(), nil
}

// Connect dials the websocket endpoint and performs the STOMP handshake,
// carrying the bearer credential on both the HTTP upgrade and the CONNECT
// frame. On failure the handle is left unset; no retry is attempted here.
// Callers are responsible for checking Connected before calling.
func (c *Conn) Connect(ctx context.Context, endpoint, credential string) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+credential)

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, header)
	if err != nil {
		c.log.Error("websocket dial failed", zap.String("endpoint", endpoint), zap.Error(err))
		return fmt.Errorf("transport: dial %s: %w", endpoint, err)
	}

	session, err := stomp.Connect(newWSStream(ws),
		stomp.ConnOpt.Header("Authorization", "Bearer "+credential),
		stomp.ConnOpt.HeartBeat(0, 0),
	)
	if err != nil {
		_ = ws.Close()
		c.log.Error("stomp handshake failed", zap.Error(err))
		return fmt.Errorf("transport: stomp connect: %w", err)
	}

	c.mu.Lock()
	c.ws = ws
	c.session = session
	c.mu.Unlock()

	c.log.Info("connected", zap.String("endpoint", endpoint))
	return nil
}

// Disconnect tears the session down gracefully. No-op when not connected.
func (c *Conn) Disconnect() {
	c.mu.Lock()
	session := c.session
	ws := c.ws
	c.session = nil
	c.ws = nil
	c.mu.Unlock()

	if session == nil {
		return
	}
	if err := session.Disconnect(); err != nil {
		// The server may already be gone; make sure the socket is closed.
		if ws != nil {
			_ = ws.Close()
		}
	}
	c.log.Info("disconnected")
}

// Connected reports whether a live session exists.
func (c *Conn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// Send publishes body to the destination. When not connected it logs a
// warning and reports ErrNotConnected; nothing is queued for later.
func (c *Conn) Send(destination string, body []byte) error {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session == nil {
		c.log.Warn("send dropped, not connected", zap.String("destination", destination))
		return ErrNotConnected
	}
	if err := session.Send(destination, "application/json", body); err != nil {
		c.log.Error("send failed", zap.String("destination", destination), zap.Error(err))
		return fmt.Errorf("transport: send to %s: %w", destination, err)
	}
	return nil
}

// Subscribe registers fn for every frame arriving on the destination and
// returns the unsubscribe capability. Fatal frame errors end the
// subscription; they never reach fn.
func (c *Conn) Subscribe(destination string, fn func(body []byte)) (func(), error) {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session == nil {
		c.log.Warn("subscribe refused, not connected", zap.String("destination", destination))
		return nil, ErrNotConnected
	}

	sub, err := session.Subscribe(destination, stomp.AckAuto)
	if err != nil {
		c.log.Error("subscribe failed", zap.String("destination", destination), zap.Error(err))
		return nil, fmt.Errorf("transport: subscribe %s: %w", destination, err)
	}

	go func() {
		for msg := range sub.C {
			if msg == nil {
				return
			}
			if msg.Err != nil {
				c.log.Error("subscription error", zap.String("destination", destination), zap.Error(msg.Err))
				return
			}
			fn(msg.Body)
		}
	}()

	return func() {
		if err := sub.Unsubscribe(); err != nil {
			c.log.Warn("unsubscribe failed", zap.String("destination", destination), zap.Error(err))
		}
	}, nil
}
