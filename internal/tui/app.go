// Package tui is the terminal front end. It renders view model snapshots
// and never touches the wire directly; everything arrives through the
// event bus.
package tui

import (
	"context"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/Raunak7888/hermes-tui/internal/api"
	"github.com/Raunak7888/hermes-tui/internal/bus"
	"github.com/Raunak7888/hermes-tui/internal/conversation"
	"github.com/Raunak7888/hermes-tui/internal/files"
	"github.com/Raunak7888/hermes-tui/internal/status"
	"github.com/Raunak7888/hermes-tui/internal/store"
	"github.com/Raunak7888/hermes-tui/internal/tui/views"
)

// App is the main TUI application shell.
type App struct {
	app       *tview.Application
	pages     *tview.Pages
	vm        *conversation.ViewModel
	client    *api.Client
	db        *store.DB
	bus       *bus.Bus
	machine   *status.Machine
	log       *zap.Logger
	statusBar *views.StatusBar
	chatList  *views.ChatList
	thread    *views.Thread
	composer  *views.Composer
	search    *views.Search
	groupForm *views.GroupForm
	attach    *tview.InputField
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewApp creates the TUI application.
func NewApp(vm *conversation.ViewModel, client *api.Client, db *store.DB, b *bus.Bus, machine *status.Machine, profileName string, log *zap.Logger) *App {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		app:       tview.NewApplication(),
		pages:     tview.NewPages(),
		vm:        vm,
		client:    client,
		db:        db,
		bus:       b,
		machine:   machine,
		log:       log,
		statusBar: views.NewStatusBar(),
		chatList:  views.NewChatList(),
		thread:    views.NewThread(),
		composer:  views.NewComposer(),
		search:    views.NewSearch(),
		groupForm: views.NewGroupForm(),
		attach:    tview.NewInputField().SetLabel(" File path: ").SetFieldWidth(0),
		ctx:       ctx,
		cancel:    cancel,
	}

	a.statusBar.SetProfile(profileName)
	a.statusBar.SetConnState(string(machine.Current()))
	a.setupCallbacks()
	a.setupLayout()

	return a
}

func (a *App) setupCallbacks() {
	a.chatList.SetSelectedFunc(func(row, col int) {
		if chat := a.chatList.Selected(); chat != nil {
			a.openConversation(conversation.Target{ID: chat.ID, Name: chat.Name, IsGroup: chat.IsGroup})
		}
	})

	a.composer.SetOnSend(func(text string) {
		if err := a.vm.Send(text); err != nil {
			a.statusBar.SetFlash("Send failed: " + err.Error())
		}
	})

	a.search.SetOnQuery(func(query string) {
		go func() {
			entries, err := a.client.Search(a.ctx, query)
			if err != nil {
				a.log.Warn("directory search failed", zap.Error(err))
				a.app.QueueUpdateDraw(func() {
					a.statusBar.SetFlash("Search failed: " + err.Error())
				})
				return
			}
			a.app.QueueUpdateDraw(func() {
				a.search.Update(entries)
				a.app.SetFocus(a.search.Results())
			})
		}()
	})

	a.search.SetOnPick(func(entry api.DirectoryEntry) {
		if err := a.db.AddChat(&store.Chat{ID: entry.ID, Name: entry.Name, IsGroup: entry.Group}); err != nil {
			a.log.Warn("save chat failed", zap.Error(err))
		}
		a.refreshChats()
		a.openConversation(conversation.Target{ID: entry.ID, Name: entry.Name, IsGroup: entry.Group})
	})

	a.groupForm.SetOnCreate(func(name string, memberIDs []int64) {
		go func() {
			g, err := a.client.CreateGroup(a.ctx, name, a.vm.UserID(), memberIDs)
			if err != nil {
				a.log.Warn("group creation failed", zap.Error(err))
				a.app.QueueUpdateDraw(func() {
					a.statusBar.SetFlash("Group creation failed: " + err.Error())
				})
				return
			}
			if err := a.db.AddChat(&store.Chat{ID: g.ID, Name: g.Name, IsGroup: true}); err != nil {
				a.log.Warn("save chat failed", zap.Error(err))
			}
			a.app.QueueUpdateDraw(func() {
				a.groupForm.Reset()
				a.refreshChats()
				a.pages.SwitchToPage("chats")
				a.app.SetFocus(a.chatList)
			})
		}()
	})
	a.groupForm.SetOnCancel(func() {
		a.groupForm.Reset()
		a.pages.SwitchToPage("chats")
		a.app.SetFocus(a.chatList)
	})

	a.attach.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		path := a.attach.GetText()
		a.attach.SetText("")
		a.pages.SwitchToPage("chat")
		a.app.SetFocus(a.composer.InputField)
		if path == "" {
			return
		}
		att, err := files.Load(path)
		if err != nil {
			a.statusBar.SetFlash("Attach failed: " + err.Error())
			return
		}
		if err := a.vm.SendAttachment(att); err != nil {
			a.statusBar.SetFlash("Attach failed: " + err.Error())
		}
	})
}

func (a *App) setupLayout() {
	chatFlex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.thread, 0, 1, false).
		AddItem(a.composer, 1, 0, false)

	a.pages.AddPage("chats", a.chatList, true, true)
	a.pages.AddPage("chat", chatFlex, true, false)
	a.pages.AddPage("search", a.search, true, false)
	a.pages.AddPage("group", a.groupForm, true, false)
	a.pages.AddPage("attach", a.attach, true, false)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(root, true)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		currentPage, _ := a.pages.GetFrontPage()

		if event.Key() == tcell.KeyEscape {
			switch currentPage {
			case "chat":
				a.vm.Close()
				a.statusBar.SetPresence("")
				a.pages.SwitchToPage("chats")
				a.app.SetFocus(a.chatList)
				return nil
			case "search", "group", "attach":
				a.pages.SwitchToPage("chats")
				a.app.SetFocus(a.chatList)
				return nil
			}
		}

		// Let text input widgets handle all keys normally.
		focused := a.app.GetFocus()
		if _, ok := focused.(*tview.InputField); ok {
			return event
		}

		if event.Key() == tcell.KeyRune {
			switch event.Rune() {
			case 'q':
				a.app.Stop()
				return nil
			case 's':
				if currentPage == "chats" {
					a.pages.SwitchToPage("search")
					a.app.SetFocus(a.search.Input())
					return nil
				}
			case 'g':
				if currentPage == "chats" {
					a.groupForm.Reset()
					a.pages.SwitchToPage("group")
					a.app.SetFocus(a.groupForm)
					return nil
				}
			case 'd':
				if currentPage == "chats" {
					a.removeSelectedChat()
					return nil
				}
			case 'i':
				if currentPage == "chat" {
					a.app.SetFocus(a.composer.InputField)
					return nil
				}
			case 'a':
				if currentPage == "chat" {
					a.pages.SwitchToPage("attach")
					a.app.SetFocus(a.attach)
					return nil
				}
			}
		}

		return event
	})
}

func (a *App) openConversation(target conversation.Target) {
	a.vm.Open(target)
	a.thread.Update(a.vm.Snapshot(), a.vm.UserID())
	a.pages.SwitchToPage("chat")
	a.app.SetFocus(a.composer.InputField)
}

func (a *App) removeSelectedChat() {
	chat := a.chatList.Selected()
	if chat == nil {
		return
	}
	if err := a.db.RemoveChat(chat.ID, chat.IsGroup); err != nil {
		a.log.Warn("remove chat failed", zap.Error(err))
		return
	}
	a.bus.Publish(bus.Event{Kind: bus.KindChatList})
}

func (a *App) refreshChats() {
	chats, err := a.db.ListChats()
	if err != nil {
		a.log.Warn("list chats failed", zap.Error(err))
		return
	}
	a.chatList.Update(chats)
}

// Run starts the TUI application and blocks until it exits.
func (a *App) Run() error {
	a.refreshChats()
	go a.watchEvents()
	return a.app.Run()
}

// Stop terminates the UI event loop.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}

// watchEvents applies bus events to the widgets. All widget access goes
// through QueueUpdateDraw.
func (a *App) watchEvents() {
	ch, unsub := a.bus.Subscribe("", 64)
	defer unsub()

	for {
		select {
		case evt := <-ch:
			a.handleEvent(evt)
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) handleEvent(evt bus.Event) {
	switch evt.Kind {
	case bus.KindConversation:
		snap := a.vm.Snapshot()
		a.app.QueueUpdateDraw(func() {
			a.thread.Update(snap, a.vm.UserID())
		})
	case bus.KindPresence:
		presence := "[gray]●[-] offline"
		if a.vm.PeerOnline() {
			presence = "[green]●[-] online"
		}
		a.app.QueueUpdateDraw(func() {
			a.statusBar.SetPresence(presence)
		})
	case bus.KindConnStatus:
		change, ok := evt.Payload.(status.StatusChange)
		if !ok {
			return
		}
		a.app.QueueUpdateDraw(func() {
			a.statusBar.SetConnState(string(change.To))
		})
	case bus.KindSendFailed:
		a.app.QueueUpdateDraw(func() {
			a.statusBar.SetFlash("Message not delivered")
		})
	case bus.KindChatList:
		a.app.QueueUpdateDraw(func() {
			a.refreshChats()
		})
	}
}
