package bus

import "time"

// Event kinds published by the engine. Subscribers filter by prefix,
// e.g. "conn." receives every connection event.
const (
	KindConnStatus   = "conn.status_changed"
	KindConversation = "conversation.updated"
	KindPresence     = "presence.updated"
	KindChatList     = "chatlist.updated"
	KindSendFailed   = "delivery.send_failed"
)

// Event is a domain event delivered to bus subscribers.
type Event struct {
	ID        string
	Kind      string
	Timestamp time.Time
	Payload   any
}
