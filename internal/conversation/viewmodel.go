// Package conversation holds the per-conversation view state: the ordered
// message list, the one-shot history load, the live subscriptions and the
// optimistic send path. Exactly one conversation is open at a time; its
// state is discarded the instant another one is selected.
package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Raunak7888/hermes-tui/internal/bus"
	"github.com/Raunak7888/hermes-tui/internal/delivery"
	"github.com/Raunak7888/hermes-tui/internal/files"
	"github.com/Raunak7888/hermes-tui/internal/presence"
	"github.com/Raunak7888/hermes-tui/internal/wire"
	"go.uber.org/zap"
)

// State of the open conversation.
type State int

const (
	// StateIdle means no conversation is selected.
	StateIdle State = iota
	// StateLoading means the history fetch is in flight.
	StateLoading
	// StateReady means history is loaded and live subscriptions are active.
	StateReady
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "idle"
	}
}

// Scroll tells the view how to follow the newest message: an immediate
// jump for the first population of history, an animated scroll for every
// later append.
type Scroll int

const (
	ScrollNone Scroll = iota
	ScrollJump
	ScrollSmooth
)

// Target identifies a conversation: a peer user or a group.
type Target struct {
	ID      int64
	Name    string
	IsGroup bool
}

// HistoryFetcher loads the recent message window for a conversation.
type HistoryFetcher interface {
	FetchHistory(ctx context.Context, userID, conversationID int64, isGroup bool) ([]wire.Message, error)
}

var (
	// ErrEmptyMessage rejects blank sends before any network activity.
	ErrEmptyMessage = errors.New("conversation: empty message")
	// ErrNotReady is returned when no conversation is open.
	ErrNotReady = errors.New("conversation: no open conversation")
)

const historyTimeout = 15 * time.Second

// Snapshot is an immutable copy of the view state for rendering.
type Snapshot struct {
	Target     Target
	State      State
	Messages   []wire.Message
	PeerOnline bool
	Scroll     Scroll
}

// ViewModel drives one open conversation at a time.
type ViewModel struct {
	conn    delivery.Conn
	mgr     *delivery.Manager
	tracker *presence.Tracker
	history HistoryFetcher
	bus     *bus.Bus
	log     *zap.Logger

	mu         sync.Mutex
	userID     int64
	state      State
	target     Target
	gen        uint64
	messages   []wire.Message
	unsubs     []func()
	peerOnline bool
	scroll     Scroll
}

// NewViewModel creates an idle view model. SetUser must be called before
// the first Open.
func NewViewModel(conn delivery.Conn, mgr *delivery.Manager, tracker *presence.Tracker, history HistoryFetcher, b *bus.Bus, log *zap.Logger) *ViewModel {
	return &ViewModel{
		conn:    conn,
		mgr:     mgr,
		tracker: tracker,
		history: history,
		bus:     b,
		log:     log,
	}
}

// SetUser records the authenticated user's id, used for routing and for
// telling own messages apart from the peer's.
func (vm *ViewModel) SetUser(id int64) {
	vm.mu.Lock()
	vm.userID = id
	vm.mu.Unlock()
}

// UserID returns the authenticated user's id.
func (vm *ViewModel) UserID() int64 {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.userID
}

// Open switches the view to target. The previous conversation's feeds are
// released and its message list discarded before anything is done for the
// new one; the history fetch then runs exactly once for this selection.
func (vm *ViewModel) Open(target Target) {
	vm.mu.Lock()
	vm.releaseLocked()
	vm.messages = nil
	vm.peerOnline = false
	vm.target = target
	vm.state = StateLoading
	vm.scroll = ScrollNone
	vm.gen++
	gen := vm.gen
	userID := vm.userID
	vm.mu.Unlock()

	vm.notify(bus.KindConversation)
	go vm.load(gen, userID, target)
}

// Close tears the open conversation down and returns to idle.
func (vm *ViewModel) Close() {
	vm.mu.Lock()
	vm.releaseLocked()
	vm.messages = nil
	vm.peerOnline = false
	vm.target = Target{}
	vm.state = StateIdle
	vm.gen++
	vm.mu.Unlock()
	vm.notify(bus.KindConversation)
}

func (vm *ViewModel) load(gen uint64, userID int64, target Target) {
	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()

	msgs, err := vm.history.FetchHistory(ctx, userID, target.ID, target.IsGroup)
	if err != nil {
		// The conversation proceeds with an empty list rather than
		// blocking the view.
		vm.log.Warn("history fetch failed", zap.Int64("conversation", target.ID), zap.Error(err))
		msgs = nil
	}

	vm.mu.Lock()
	if gen != vm.gen {
		// A newer conversation was opened while the fetch was in
		// flight; its result belongs to a view no longer displayed.
		vm.mu.Unlock()
		return
	}
	vm.messages = msgs
	vm.state = StateReady
	vm.scroll = ScrollJump
	vm.mu.Unlock()

	vm.subscribe(gen, userID, target)
	vm.notify(bus.KindConversation)
}

// subscribe wires the message, ack and (direct only) presence feeds for
// the generation that entered Ready. If the conversation changed while
// the feeds were being set up they are released immediately.
func (vm *ViewModel) subscribe(gen uint64, userID int64, target Target) {
	var unsubs []func()

	msgUnsub, err := vm.mgr.SubscribeMessages(vm.conn, userID, target.IsGroup, target.ID, func(msg wire.Message) {
		vm.onInbound(gen, msg)
	})
	if err != nil {
		vm.log.Warn("message subscription failed", zap.Error(err))
	} else {
		unsubs = append(unsubs, msgUnsub)
	}

	ackUnsub, err := vm.mgr.SubscribeAcks(vm.conn, userID, target.IsGroup, func(ack wire.Ack) {
		vm.onAck(gen, ack)
	})
	if err != nil {
		vm.log.Warn("ack subscription failed", zap.Error(err))
	} else {
		unsubs = append(unsubs, ackUnsub)
	}

	if !target.IsGroup {
		statusUnsub, err := vm.tracker.SubscribeStatusUpdates(vm.conn, target.ID, func(update wire.StatusUpdate) {
			vm.onStatus(gen, target.ID, update)
		})
		if err != nil {
			vm.log.Warn("presence subscription failed", zap.Error(err))
		} else {
			unsubs = append(unsubs, statusUnsub)
		}
		vm.tracker.RequestStatus(vm.conn, target.ID)
	}

	vm.mu.Lock()
	if gen != vm.gen {
		vm.mu.Unlock()
		for _, unsub := range unsubs {
			unsub()
		}
		return
	}
	vm.unsubs = unsubs
	vm.mu.Unlock()
}

// releaseLocked drops every live subscription. Must be called with the
// mutex held. Stale handlers are fenced by the generation counter as well,
// but releasing promptly keeps old feeds from doing any work at all.
func (vm *ViewModel) releaseLocked() {
	for _, unsub := range vm.unsubs {
		unsub()
	}
	vm.unsubs = nil
}

func (vm *ViewModel) onInbound(gen uint64, msg wire.Message) {
	vm.mu.Lock()
	if gen != vm.gen {
		vm.mu.Unlock()
		return
	}
	merged, added := delivery.MergeInbound(vm.messages, msg, vm.target.ID, vm.target.IsGroup)
	if added {
		vm.messages = merged
		vm.scroll = ScrollSmooth
	}
	vm.mu.Unlock()

	if added {
		vm.notify(bus.KindConversation)
	}
}

func (vm *ViewModel) onAck(gen uint64, ack wire.Ack) {
	vm.mu.Lock()
	if gen != vm.gen {
		vm.mu.Unlock()
		return
	}
	before := len(vm.messages)
	merged, changed := delivery.ApplyAck(vm.messages, ack)
	if changed {
		vm.messages = merged
		if len(merged) > before {
			vm.scroll = ScrollSmooth
		}
	}
	vm.mu.Unlock()

	if changed {
		vm.notify(bus.KindConversation)
	}
}

func (vm *ViewModel) onStatus(gen uint64, peerID int64, update wire.StatusUpdate) {
	// The shared feed carries every peer; only the open conversation's
	// peer is relevant here.
	if update.UserID != peerID {
		return
	}

	vm.mu.Lock()
	if gen != vm.gen {
		vm.mu.Unlock()
		return
	}
	changed := vm.peerOnline != update.Online()
	vm.peerOnline = update.Online()
	vm.mu.Unlock()

	if changed {
		vm.notify(bus.KindPresence)
	}
}

// Send builds an optimistic pending record, appends it to the visible list
// and only then hands it to the delivery manager; the UI never waits for
// the network. A send the local transport refuses is marked failed
// immediately instead of staying pending forever.
func (vm *ViewModel) Send(content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrEmptyMessage
	}

	vm.mu.Lock()
	if vm.state != StateReady {
		vm.mu.Unlock()
		return ErrNotReady
	}
	target := vm.target
	msg := wire.Message{
		SenderID:   vm.userID,
		ReceiverID: target.ID,
		GroupID:    target.ID,
		Content:    content,
		IsGroup:    target.IsGroup,
		TempID:     wire.NewTempID(),
		Status:     wire.StatusPending,
		Timestamp:  time.Now().Format(time.RFC3339),
	}
	vm.messages = append(vm.messages, msg)
	vm.scroll = ScrollSmooth
	vm.mu.Unlock()

	vm.notify(bus.KindConversation)

	if !vm.mgr.SendMessage(vm.conn, &msg) {
		vm.markFailed(msg.TempID)
	}
	return nil
}

// SendAttachment publishes a validated attachment. There is no local echo:
// the visible entry appears when the server's file acknowledgment arrives
// on the ack feed.
func (vm *ViewModel) SendAttachment(att *files.Attachment) error {
	vm.mu.Lock()
	if vm.state != StateReady {
		vm.mu.Unlock()
		return ErrNotReady
	}
	target := vm.target
	userID := vm.userID
	vm.mu.Unlock()

	vm.mgr.SendFile(vm.conn, att.Payload(userID, target.ID, target.IsGroup))
	return nil
}

func (vm *ViewModel) markFailed(tempID int64) {
	vm.mu.Lock()
	for i := range vm.messages {
		if vm.messages[i].TempID == tempID {
			vm.messages[i].Status = wire.StatusFailed
			break
		}
	}
	vm.mu.Unlock()

	vm.notify(bus.KindSendFailed)
	vm.notify(bus.KindConversation)
}

// Snapshot returns a copy of the current view state. The scroll hint is
// consumed: the next snapshot reports ScrollNone unless something changed
// in between.
func (vm *ViewModel) Snapshot() Snapshot {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	msgs := make([]wire.Message, len(vm.messages))
	copy(msgs, vm.messages)
	snap := Snapshot{
		Target:     vm.target,
		State:      vm.state,
		Messages:   msgs,
		PeerOnline: vm.peerOnline,
		Scroll:     vm.scroll,
	}
	vm.scroll = ScrollNone
	return snap
}

// PeerOnline reports the open conversation's presence without touching the
// scroll hint, so presence redraws never eat a pending scroll-to-end.
func (vm *ViewModel) PeerOnline() bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.peerOnline
}

func (vm *ViewModel) notify(kind string) {
	if vm.bus == nil {
		return
	}
	vm.bus.Publish(bus.Event{Kind: kind})
}
