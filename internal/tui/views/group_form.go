package views

import (
	"strconv"
	"strings"

	"github.com/rivo/tview"
)

// GroupForm collects a group name and member ids for group creation.
type GroupForm struct {
	*tview.Form
	onCreate func(name string, memberIDs []int64)
	onCancel func()
}

// NewGroupForm creates the group creation form.
func NewGroupForm() *GroupForm {
	form := tview.NewForm()
	form.SetBorder(true).SetTitle(" New Group ")

	gf := &GroupForm{Form: form}

	form.AddInputField("Name", "", 40, nil, nil)
	form.AddInputField("Member ids (comma separated)", "", 40, nil, nil)
	form.AddButton("Create", func() {
		if gf.onCreate == nil {
			return
		}
		name := form.GetFormItem(0).(*tview.InputField).GetText()
		ids := parseMemberIDs(form.GetFormItem(1).(*tview.InputField).GetText())
		gf.onCreate(name, ids)
	})
	form.AddButton("Cancel", func() {
		if gf.onCancel != nil {
			gf.onCancel()
		}
	})

	return gf
}

// SetOnCreate sets the callback for a submitted form.
func (gf *GroupForm) SetOnCreate(fn func(name string, memberIDs []int64)) {
	gf.onCreate = fn
}

// SetOnCancel sets the callback for a dismissed form.
func (gf *GroupForm) SetOnCancel(fn func()) {
	gf.onCancel = fn
}

// Reset clears both fields.
func (gf *GroupForm) Reset() {
	gf.GetFormItem(0).(*tview.InputField).SetText("")
	gf.GetFormItem(1).(*tview.InputField).SetText("")
}

func parseMemberIDs(s string) []int64 {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id == 0 {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
