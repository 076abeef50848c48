package views

import (
	"github.com/rivo/tview"

	"github.com/Raunak7888/hermes-tui/internal/store"
)

// ChatList is the saved conversation list.
type ChatList struct {
	*tview.Table
	chats []store.Chat
}

// NewChatList creates a new chat list table.
func NewChatList() *ChatList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false)
	table.SetBorder(true).SetTitle(" Chats ")

	return &ChatList{Table: table}
}

// Update refreshes the chat list with new data.
func (cl *ChatList) Update(chats []store.Chat) {
	cl.chats = chats
	cl.Clear()

	cl.SetCell(0, 0, tview.NewTableCell(" Name").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	cl.SetCell(0, 1, tview.NewTableCell(" Kind").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))

	for i, chat := range chats {
		row := i + 1
		kind := "user"
		if chat.IsGroup {
			kind = "group"
		}
		cl.SetCell(row, 0, tview.NewTableCell(" "+sanitizeForTerminal(chat.Name)).SetMaxWidth(40).SetExpansion(1))
		cl.SetCell(row, 1, tview.NewTableCell(" "+kind).SetMaxWidth(8))
	}
}

// Selected returns the currently selected chat, or nil when the cursor is
// on the header or the list is empty.
func (cl *ChatList) Selected() *store.Chat {
	row, _ := cl.GetSelection()
	idx := row - 1 // account for header
	if idx >= 0 && idx < len(cl.chats) {
		return &cl.chats[idx]
	}
	return nil
}
