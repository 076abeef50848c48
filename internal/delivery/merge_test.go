package delivery

import (
	"testing"

	"github.com/Raunak7888/hermes-tui/internal/wire"
)

func TestMergeInboundMatchesActiveConversation(t *testing.T) {
	direct := wire.Message{SenderID: 42, ReceiverID: 7, Content: "hi", TempID: 100}
	other := wire.Message{SenderID: 99, ReceiverID: 7, Content: "nope", TempID: 101}
	group := wire.Message{SenderID: 5, GroupID: 42, IsGroup: true, Content: "grp", TempID: 102}

	var list []wire.Message
	list, added := MergeInbound(list, direct, 42, false)
	if !added || len(list) != 1 {
		t.Fatal("matching direct message not accepted")
	}
	list, added = MergeInbound(list, other, 42, false)
	if added || len(list) != 1 {
		t.Error("message from another peer leaked into the conversation")
	}

	var groupList []wire.Message
	groupList, added = MergeInbound(groupList, group, 42, true)
	if !added || len(groupList) != 1 {
		t.Error("matching group message not accepted")
	}
	groupList, added = MergeInbound(groupList, wire.Message{SenderID: 5, GroupID: 9, IsGroup: true, TempID: 103}, 42, true)
	if added {
		t.Error("message for another group accepted")
	}
}

func TestMergeInboundIdempotent(t *testing.T) {
	msg := wire.Message{SenderID: 42, ReceiverID: 7, Content: "once", TempID: 500}

	var list []wire.Message
	list, _ = MergeInbound(list, msg, 42, false)
	// Same correlation id delivered twice, e.g. a push plus an echo.
	list, added := MergeInbound(list, msg, 42, false)
	if added {
		t.Error("duplicate tempId appended")
	}
	if len(list) != 1 {
		t.Errorf("list has %d entries, want 1", len(list))
	}
}

func TestApplyAckUpdatesStatusInPlace(t *testing.T) {
	list := []wire.Message{
		{SenderID: 7, ReceiverID: 42, Content: "hello", TempID: 9, Status: wire.StatusPending},
	}
	list, changed := ApplyAck(list, wire.Ack{TempID: 9, Status: wire.StatusSent})
	if !changed {
		t.Fatal("ack did not change the list")
	}
	if len(list) != 1 {
		t.Fatalf("ack added an entry: %d total", len(list))
	}
	if list[0].Status != wire.StatusSent {
		t.Errorf("status = %q, want sent", list[0].Status)
	}
	if list[0].Content != "hello" {
		t.Errorf("content rewritten to %q", list[0].Content)
	}
}

func TestApplyAckUnknownTempIDIgnored(t *testing.T) {
	list := []wire.Message{{SenderID: 7, ReceiverID: 42, TempID: 1, Status: wire.StatusPending}}
	list, changed := ApplyAck(list, wire.Ack{TempID: 999, Status: wire.StatusSent})
	if changed || len(list) != 1 {
		t.Error("ack for unknown tempId mutated the list")
	}
}

func TestApplyFileAckAppendsMissingEntry(t *testing.T) {
	ack := wire.Ack{
		ID: 12, TempID: 77, Status: wire.StatusSent,
		Content: wire.FileSentinel, FileName: "a.png",
		SenderID: 7, ReceiverID: 42,
	}

	var list []wire.Message
	list, changed := ApplyAck(list, ack)
	if !changed || len(list) != 1 {
		t.Fatalf("file ack did not materialize an entry: %v", list)
	}
	got := list[0]
	if !got.IsFile() || got.FileName != "a.png" || got.TempID != 77 || got.ID != 12 {
		t.Errorf("materialized entry = %+v", got)
	}

	// Redelivery of the same file ack must not append a second entry.
	list, changed = ApplyAck(list, ack)
	if len(list) != 1 {
		t.Errorf("duplicate file ack appended: %d entries", len(list))
	}
	_ = changed
}

func TestApplyFileAckKnownTempIDOnlyUpdates(t *testing.T) {
	list := []wire.Message{
		{SenderID: 7, ReceiverID: 42, Content: wire.FileSentinel, FileName: "a.png", TempID: 77, Status: wire.StatusPending},
	}
	list, _ = ApplyAck(list, wire.Ack{TempID: 77, Status: wire.StatusSent, Content: wire.FileSentinel, FileName: "a.png"})
	if len(list) != 1 {
		t.Fatalf("file ack with known tempId appended: %d entries", len(list))
	}
	if list[0].Status != wire.StatusSent {
		t.Errorf("status = %q, want sent", list[0].Status)
	}
}
