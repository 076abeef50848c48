package views

import (
	"strings"
	"time"
	"unicode/utf8"
)

// formatTimestamp renders an RFC3339 timestamp as a short clock, adding
// the date when the message is older than today.
func formatTimestamp(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ""
	}
	t = t.Local()
	now := time.Now()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	return t.Format("Jan 02 15:04")
}

// statusGlyph maps a delivery status to a one-cell marker.
func statusGlyph(status string) string {
	switch status {
	case "pending":
		return "[gray]…[-]"
	case "sent":
		return "[green]✓[-]"
	case "failed":
		return "[red]✗[-]"
	default:
		return " "
	}
}

// sanitizeForTerminal removes Unicode codepoints that cause rendering issues
// in tcell/tview: skin tone modifiers, Zero Width Joiner and variation
// selectors. Multi-codepoint emoji collapse to their base character, which
// renders at a predictable width.
func sanitizeForTerminal(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !isProblematicRune(r) {
			b.WriteRune(r)
		}
		i += size
	}
	return b.String()
}

func isProblematicRune(r rune) bool {
	switch {
	case r >= 0x1F3FB && r <= 0x1F3FF:
		return true
	case r == 0x200D:
		return true
	case r >= 0xFE00 && r <= 0xFE0F:
		return true
	case r >= 0xE0100 && r <= 0xE01EF:
		return true
	default:
		return false
	}
}
