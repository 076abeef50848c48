package views

import (
	"fmt"
	"strconv"

	"github.com/rivo/tview"

	"github.com/Raunak7888/hermes-tui/internal/conversation"
	"github.com/Raunak7888/hermes-tui/internal/wire"
)

// Thread displays the open conversation's messages.
type Thread struct {
	*tview.TextView
}

// NewThread creates a new message thread view.
func NewThread() *Thread {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	tv.SetBorder(true).SetTitle(" Messages ")

	return &Thread{TextView: tv}
}

// Update rerenders the thread from a conversation snapshot. selfID
// identifies the local user so their messages show as "You" with a
// delivery marker.
func (th *Thread) Update(snap conversation.Snapshot, selfID int64) {
	title := " " + snap.Target.Name + " "
	if snap.State == conversation.StateLoading {
		title = " " + snap.Target.Name + " (loading) "
	}
	th.SetTitle(title)
	th.Clear()

	for _, m := range snap.Messages {
		th.writeMessage(m, selfID, snap.Target)
	}

	if snap.Scroll != conversation.ScrollNone {
		th.ScrollToEnd()
	}
}

func (th *Thread) writeMessage(m wire.Message, selfID int64, target conversation.Target) {
	mine := m.SenderID == selfID
	sender := senderLabel(m, mine, target)

	marker := " "
	if mine {
		marker = statusGlyph(m.Status)
	}

	body := sanitizeForTerminal(m.Content)
	if m.IsFile() {
		body = fmt.Sprintf("[blue]📎 %s[-]", sanitizeForTerminal(m.FileName))
	}

	line := fmt.Sprintf("[::b]%s[-:-:-] [::d]%s[-:-:-] %s\n%s\n\n",
		sender, formatTimestamp(m.Timestamp), marker, body)
	_, _ = fmt.Fprint(th, line)
}

func senderLabel(m wire.Message, mine bool, target conversation.Target) string {
	if mine {
		return "You"
	}
	if target.IsGroup {
		if m.SenderName != "" {
			return sanitizeForTerminal(m.SenderName)
		}
		return strconv.FormatInt(m.SenderID, 10)
	}
	return sanitizeForTerminal(target.Name)
}
