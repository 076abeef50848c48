// Package presence tracks online/offline state for the peer of the
// currently open direct conversation. State is push-driven over a shared
// status feed; nothing is polled and no history is kept.
package presence

import (
	"encoding/json"
	"errors"

	"github.com/Raunak7888/hermes-tui/internal/wire"
	"go.uber.org/zap"
)

// ErrNoPeer is returned when a subscription is requested without a peer.
var ErrNoPeer = errors.New("presence: no peer id")

const (
	statusFeed        = "/topic/status"
	statusRequestDest = "/app/topic/status"
)

// Conn is the transport surface the tracker needs.
type Conn interface {
	Send(destination string, body []byte) error
	Subscribe(destination string, fn func(body []byte)) (func(), error)
	Connected() bool
}

// Tracker subscribes to the shared presence feed and requests one-shot
// status pushes for individual peers.
type Tracker struct {
	log *zap.Logger
}

// NewTracker creates a presence tracker.
func NewTracker(log *zap.Logger) *Tracker {
	return &Tracker{log: log}
}

// SubscribeStatusUpdates forwards every decoded update on the shared feed
// to fn. The feed is not scoped per peer by the backend; callers filter by
// peer id themselves.
func (t *Tracker) SubscribeStatusUpdates(c Conn, peerID int64, fn func(wire.StatusUpdate)) (func(), error) {
	if peerID == 0 {
		t.log.Error("presence subscription refused, no peer id")
		return nil, ErrNoPeer
	}
	return c.Subscribe(statusFeed, func(body []byte) {
		update, err := wire.DecodeStatusUpdate(body)
		if err != nil {
			t.log.Error("drop status frame", zap.Error(err))
			return
		}
		fn(*update)
	})
}

// RequestStatus asks the backend to push the peer's current status onto
// the shared feed. The answer arrives asynchronously via the
// subscription, never as a return value.
func (t *Tracker) RequestStatus(c Conn, peerID int64) {
	if !c.Connected() {
		t.log.Warn("status request dropped, not connected", zap.Int64("peer", peerID))
		return
	}
	body, err := json.Marshal(map[string]int64{"userId": peerID})
	if err != nil {
		return
	}
	if err := c.Send(statusRequestDest, body); err != nil {
		t.log.Warn("status request failed", zap.Int64("peer", peerID), zap.Error(err))
	}
}
