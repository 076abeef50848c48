package views

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/Raunak7888/hermes-tui/internal/api"
)

// Search lets the user find people and groups in the directory.
type Search struct {
	*tview.Flex
	input   *tview.InputField
	results *tview.Table
	entries []api.DirectoryEntry
	onQuery func(query string)
	onPick  func(entry api.DirectoryEntry)
}

// NewSearch creates the directory search view.
func NewSearch() *Search {
	input := tview.NewInputField().
		SetLabel(" Search: ").
		SetFieldWidth(0)

	results := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false)
	results.SetBorder(true).SetTitle(" Results ")

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(input, 1, 0, true).
		AddItem(results, 0, 1, false)

	sv := &Search{Flex: flex, input: input, results: results}

	input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter && sv.onQuery != nil {
			sv.onQuery(input.GetText())
		}
	})
	results.SetSelectedFunc(func(row, col int) {
		idx := row
		if idx >= 0 && idx < len(sv.entries) && sv.onPick != nil {
			sv.onPick(sv.entries[idx])
		}
	})

	return sv
}

// SetOnQuery sets the callback for a submitted query.
func (sv *Search) SetOnQuery(fn func(query string)) {
	sv.onQuery = fn
}

// SetOnPick sets the callback for a chosen result.
func (sv *Search) SetOnPick(fn func(entry api.DirectoryEntry)) {
	sv.onPick = fn
}

// Input returns the query field for focus handling.
func (sv *Search) Input() *tview.InputField {
	return sv.input
}

// Results returns the result table for focus handling.
func (sv *Search) Results() *tview.Table {
	return sv.results
}

// Update fills the result table.
func (sv *Search) Update(entries []api.DirectoryEntry) {
	sv.entries = entries
	sv.results.Clear()

	for i, e := range entries {
		kind := "user"
		if e.Group {
			kind = "group"
		}
		sv.results.SetCell(i, 0, tview.NewTableCell(" "+sanitizeForTerminal(e.Name)).SetMaxWidth(40).SetExpansion(1))
		sv.results.SetCell(i, 1, tview.NewTableCell(" "+kind).SetMaxWidth(8))
	}
}
