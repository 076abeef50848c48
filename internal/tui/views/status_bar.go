package views

import (
	"fmt"
	"time"

	"github.com/rivo/tview"
)

// StatusBar displays the connection state, the open peer's presence and
// transient errors.
type StatusBar struct {
	*tview.TextView
	profile  string
	conn     string
	presence string
	flash    string
}

// NewStatusBar creates a new status bar.
func NewStatusBar() *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	return &StatusBar{TextView: tv}
}

// SetProfile updates the profile name display.
func (sb *StatusBar) SetProfile(name string) {
	sb.profile = name
	sb.render()
}

// SetConnState updates the connection state display.
func (sb *StatusBar) SetConnState(state string) {
	sb.conn = state
	sb.render()
}

// SetPresence updates the open peer's presence indicator. An empty string
// hides it.
func (sb *StatusBar) SetPresence(p string) {
	sb.presence = p
	sb.render()
}

// SetFlash sets a temporary message.
func (sb *StatusBar) SetFlash(msg string) {
	sb.flash = msg
	sb.render()
}

func (sb *StatusBar) render() {
	sb.Clear()

	clock := time.Now().Format("15:04")

	line := fmt.Sprintf(" [::b]%s[-:-:-] | %s | %s", sb.profile, sb.conn, clock)
	if sb.presence != "" {
		line += " | " + sb.presence
	}
	if sb.flash != "" {
		line += fmt.Sprintf(" | [yellow]%s[-]", sb.flash)
	}

	_, _ = fmt.Fprint(sb, line)
}
