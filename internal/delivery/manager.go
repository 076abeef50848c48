// Package delivery routes chat traffic to the backend's STOMP
// destinations and reconciles server acknowledgments against locally
// generated optimistic records. It is independent of the connection
// lifecycle: every operation takes the connection handle it should use.
package delivery

import (
	"encoding/json"
	"fmt"

	"github.com/Raunak7888/hermes-tui/internal/wire"
	"go.uber.org/zap"
)

// Conn is the slice of the transport the manager needs. The production
// implementation is *transport.Conn; tests substitute fakes.
type Conn interface {
	Send(destination string, body []byte) error
	Subscribe(destination string, fn func(body []byte)) (func(), error)
	Connected() bool
}

// Fixed destination convention of the backend. The file destination is
// shared by direct and group sends; the payload's isGroup field
// disambiguates server-side.
const (
	directSendDest = "/app/send/message"
	groupSendDest  = "/app/group/message"
	fileSendDest   = "/app/send/image"
)

func sendDest(isGroup bool) string {
	if isGroup {
		return groupSendDest
	}
	return directSendDest
}

func messageDest(userID int64, isGroup bool, conversationID int64) string {
	if isGroup {
		return fmt.Sprintf("/topic/group/%d", conversationID)
	}
	return fmt.Sprintf("/topic/user/%d/queue/private", userID)
}

func ackDest(userID int64, isGroup bool) string {
	if isGroup {
		return fmt.Sprintf("/topic/group/%d/ack", userID)
	}
	return fmt.Sprintf("/topic/user/%d/queue/ack", userID)
}

// Manager publishes outgoing traffic and wires inbound subscriptions.
type Manager struct {
	log *zap.Logger
}

// NewManager creates a delivery manager.
func NewManager(log *zap.Logger) *Manager {
	return &Manager{log: log}
}

// SendMessage publishes msg to its routed destination and reports whether
// the local transport accepted it for transmission. True means exactly
// that; delivery confirmation arrives later as an Ack on the sender's ack
// destination.
func (m *Manager) SendMessage(c Conn, msg *wire.Message) bool {
	if !c.Connected() {
		m.log.Warn("message not accepted, transport offline", zap.Int64("tempId", msg.TempID))
		return false
	}
	body, err := json.Marshal(msg)
	if err != nil {
		m.log.Error("encode message", zap.Error(err))
		return false
	}
	if err := c.Send(sendDest(msg.IsGroup), body); err != nil {
		m.log.Warn("message not accepted", zap.Int64("tempId", msg.TempID), zap.Error(err))
		return false
	}
	return true
}

// SendFile publishes an attachment payload. Fire and forget: there is no
// local echo for file sends; the visible entry materializes when the file
// acknowledgment arrives.
func (m *Manager) SendFile(c Conn, p *wire.FilePayload) {
	body, err := json.Marshal(p)
	if err != nil {
		m.log.Error("encode file payload", zap.Error(err))
		return
	}
	if err := c.Send(fileSendDest, body); err != nil {
		m.log.Warn("file payload not accepted", zap.Int64("tempId", p.TempID))
	}
}

// SubscribeMessages subscribes to the inbound message destination for the
// conversation and forwards each decoded message to fn. Frames that do not
// decode as messages are logged and dropped.
func (m *Manager) SubscribeMessages(c Conn, userID int64, isGroup bool, conversationID int64, fn func(wire.Message)) (func(), error) {
	dest := messageDest(userID, isGroup, conversationID)
	return c.Subscribe(dest, func(body []byte) {
		msg, err := wire.DecodeMessage(body)
		if err != nil {
			m.log.Error("drop inbound frame", zap.String("destination", dest), zap.Error(err))
			return
		}
		fn(*msg)
	})
}

// SubscribeAcks subscribes to the sender's acknowledgment destination and
// forwards each decoded ack to fn.
func (m *Manager) SubscribeAcks(c Conn, userID int64, isGroup bool, fn func(wire.Ack)) (func(), error) {
	dest := ackDest(userID, isGroup)
	return c.Subscribe(dest, func(body []byte) {
		ack, err := wire.DecodeAck(body)
		if err != nil {
			m.log.Error("drop ack frame", zap.String("destination", dest), zap.Error(err))
			return
		}
		fn(*ack)
	})
}
