package delivery

import "github.com/Raunak7888/hermes-tui/internal/wire"

// MatchesConversation reports whether an inbound message belongs to the
// conversation identified by (conversationID, isGroup): group traffic is
// matched on groupId, direct traffic on senderId.
func MatchesConversation(msg *wire.Message, conversationID int64, isGroup bool) bool {
	if isGroup {
		return msg.GroupID == conversationID
	}
	return msg.SenderID == conversationID
}

// MergeInbound folds an inbound pushed message into the visible list.
// The message is accepted only if it matches the active conversation and
// no existing entry shares its correlation id; duplicate delivery of the
// same tempId is suppressed here, not by the transport. Returns the list
// and whether an entry was appended.
func MergeInbound(list []wire.Message, msg wire.Message, conversationID int64, isGroup bool) ([]wire.Message, bool) {
	if !MatchesConversation(&msg, conversationID, isGroup) {
		return list, false
	}
	if msg.TempID != 0 && containsTempID(list, msg.TempID) {
		return list, false
	}
	return append(list, msg), true
}

// ApplyAck reconciles a server acknowledgment against the list. An ack for
// a known correlation id overwrites only that entry's status, in place. A
// file acknowledgment whose correlation id is unknown is appended as a new
// visible entry: the file send path has no optimistic placeholder and
// relies entirely on this push. First seen wins. Returns the list and
// whether anything changed.
func ApplyAck(list []wire.Message, ack wire.Ack) ([]wire.Message, bool) {
	for i := range list {
		if list[i].TempID == ack.TempID {
			if list[i].Status == ack.Status {
				return list, false
			}
			list[i].Status = ack.Status
			return list, true
		}
	}

	if !ack.IsFile() {
		return list, false
	}
	return append(list, wire.Message{
		ID:         ack.ID,
		SenderID:   ack.SenderID,
		ReceiverID: ack.ReceiverID,
		Content:    ack.Content,
		IsGroup:    ack.IsGroup,
		TempID:     ack.TempID,
		Status:     ack.Status,
		Timestamp:  ack.Timestamp,
		FileName:   ack.FileName,
	}), true
}

func containsTempID(list []wire.Message, tempID int64) bool {
	for i := range list {
		if list[i].TempID == tempID {
			return true
		}
	}
	return false
}
