// Package wire defines the closed set of payload shapes exchanged with the
// chat backend over STOMP. Field names are part of the protocol and must
// stay exactly as the server emits them. Anything arriving that does not
// match one of these variants is rejected at the boundary.
package wire

import (
	"encoding/json"
	"errors"
	"fmt"
)

// FileSentinel is the content marker the backend uses for attachment
// messages in place of text.
const FileSentinel = "---FILE---"

// Delivery status values carried on messages and acknowledgments.
const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

var errEmptyPayload = errors.New("wire: empty payload")

// Message is a chat message, either a local optimistic record awaiting its
// acknowledgment (TempID set, no ID) or a server-confirmed one (ID set).
// Group messages carry the group in both ReceiverID and GroupID.
type Message struct {
	ID         int64  `json:"id,omitempty"`
	SenderID   int64  `json:"senderId"`
	ReceiverID int64  `json:"receiverId"`
	GroupID    int64  `json:"groupId,omitempty"`
	Content    string `json:"content"`
	IsGroup    bool   `json:"isGroup"`
	TempID     int64  `json:"tempId,omitempty"`
	Status     string `json:"status"`
	Timestamp  string `json:"timestamp"`
	FileName   string `json:"fileName,omitempty"`
	SenderName string `json:"senderName,omitempty"`
}

// IsFile reports whether the message represents a file attachment.
func (m *Message) IsFile() bool {
	return m.Content == FileSentinel
}

// Ack is the server's acknowledgment of a previously sent message, matched
// to it by TempID. File acknowledgments additionally carry the finalized
// message fields, since the file send path has no local echo.
type Ack struct {
	ID         int64  `json:"id,omitempty"`
	TempID     int64  `json:"tempId"`
	Status     string `json:"status"`
	Content    string `json:"content,omitempty"`
	FileName   string `json:"fileName,omitempty"`
	SenderID   int64  `json:"senderId,omitempty"`
	ReceiverID int64  `json:"receiverId,omitempty"`
	IsGroup    bool   `json:"isGroup,omitempty"`
	Timestamp  string `json:"timestamp,omitempty"`
}

// IsFile reports whether the ack materializes a file message.
func (a *Ack) IsFile() bool {
	return a.Content == FileSentinel
}

// StatusUpdate is a presence change pushed on the shared status feed.
type StatusUpdate struct {
	UserID int64  `json:"userId"`
	Status string `json:"status"`
}

// Online reports whether the update marks the user as online.
func (s *StatusUpdate) Online() bool {
	return s.Status == "ONLINE"
}

// FilePayload is the outgoing attachment frame. File carries the raw bytes
// base64-encoded without a data-URI prefix; IsGroup is a stringified
// boolean, as the backend expects.
type FilePayload struct {
	File       string `json:"file"`
	FileName   string `json:"fileName"`
	FileType   string `json:"fileType"`
	FileSize   int64  `json:"fileSize"`
	UserID     int64  `json:"userId"`
	ReceiverID int64  `json:"receiverId"`
	TempID     int64  `json:"tempId"`
	Status     string `json:"status"`
	IsGroup    string `json:"isGroup"`
}

// DecodeMessage parses an inbound message frame. The sender id is required
// by the protocol; a frame without one does not match this variant.
func DecodeMessage(data []byte) (*Message, error) {
	if len(data) == 0 {
		return nil, errEmptyPayload
	}
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("wire: decode message: %w", err)
	}
	if m.SenderID == 0 {
		return nil, fmt.Errorf("wire: message missing senderId")
	}
	return &m, nil
}

// DecodeAck parses an inbound acknowledgment frame. The correlation id is
// required; without it the ack cannot be matched to anything.
func DecodeAck(data []byte) (*Ack, error) {
	if len(data) == 0 {
		return nil, errEmptyPayload
	}
	var a Ack
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("wire: decode ack: %w", err)
	}
	if a.TempID == 0 {
		return nil, fmt.Errorf("wire: ack missing tempId")
	}
	return &a, nil
}

// DecodeStatusUpdate parses a presence frame from the shared status feed.
func DecodeStatusUpdate(data []byte) (*StatusUpdate, error) {
	if len(data) == 0 {
		return nil, errEmptyPayload
	}
	var s StatusUpdate
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("wire: decode status update: %w", err)
	}
	if s.UserID == 0 || s.Status == "" {
		return nil, fmt.Errorf("wire: status update missing userId or status")
	}
	return &s, nil
}
