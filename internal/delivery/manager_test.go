package delivery

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/Raunak7888/hermes-tui/internal/wire"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// fakeConn records traffic and serves as an always-available transport.
type fakeConn struct {
	connected bool
	sendErr   error
	sends     []sentFrame
	subs      map[string]func(body []byte)
	unsubbed  []string
}

type sentFrame struct {
	dest string
	body []byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{connected: true, subs: make(map[string]func([]byte))}
}

func (f *fakeConn) Send(dest string, body []byte) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sends = append(f.sends, sentFrame{dest: dest, body: body})
	return nil
}

func (f *fakeConn) Subscribe(dest string, fn func(body []byte)) (func(), error) {
	f.subs[dest] = fn
	return func() { f.unsubbed = append(f.unsubbed, dest) }, nil
}

func (f *fakeConn) Connected() bool { return f.connected }

// push simulates an inbound frame on a subscribed destination.
func (f *fakeConn) push(t *testing.T, dest string, body string) {
	t.Helper()
	fn, ok := f.subs[dest]
	if !ok {
		t.Fatalf("no subscription on %s", dest)
	}
	fn([]byte(body))
}

func TestSendMessageRouting(t *testing.T) {
	cases := []struct {
		name    string
		isGroup bool
		want    string
	}{
		{"direct", false, "/app/send/message"},
		{"group", true, "/app/group/message"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newFakeConn()
			m := NewManager(zap.NewNop())
			msg := &wire.Message{SenderID: 1, ReceiverID: 2, Content: "hi", IsGroup: tc.isGroup, TempID: wire.NewTempID(), Status: wire.StatusPending}
			if !m.SendMessage(c, msg) {
				t.Fatal("send not accepted on connected transport")
			}
			if len(c.sends) != 1 || c.sends[0].dest != tc.want {
				t.Errorf("sent to %v, want %s", c.sends, tc.want)
			}
			var decoded wire.Message
			if err := json.Unmarshal(c.sends[0].body, &decoded); err != nil {
				t.Fatal(err)
			}
			if decoded.TempID != msg.TempID {
				t.Errorf("tempId = %d, want %d", decoded.TempID, msg.TempID)
			}
		})
	}
}

func TestSendMessageDisconnected(t *testing.T) {
	c := newFakeConn()
	c.connected = false
	m := NewManager(zap.NewNop())

	msg := &wire.Message{SenderID: 1, ReceiverID: 2, Content: "hi", TempID: wire.NewTempID()}
	if m.SendMessage(c, msg) {
		t.Error("send accepted while disconnected")
	}
	if len(c.sends) != 0 {
		t.Errorf("%d frames published while disconnected", len(c.sends))
	}
}

func TestSendMessageTransportErrorLogged(t *testing.T) {
	c := newFakeConn()
	c.sendErr = errors.New("broken pipe")
	core, logs := observer.New(zap.WarnLevel)
	m := NewManager(zap.New(core))

	msg := &wire.Message{SenderID: 1, ReceiverID: 2, Content: "hi", TempID: wire.NewTempID()}
	if m.SendMessage(c, msg) {
		t.Error("send accepted despite transport error")
	}

	entries := logs.FilterMessage("message not accepted").All()
	if len(entries) != 1 {
		t.Fatalf("logged %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["tempId"] != msg.TempID {
		t.Errorf("tempId field = %v, want %d", fields["tempId"], msg.TempID)
	}
}

func TestSendFileUsesSingleDestination(t *testing.T) {
	m := NewManager(zap.NewNop())
	for _, isGroup := range []string{"false", "true"} {
		c := newFakeConn()
		m.SendFile(c, &wire.FilePayload{File: "AAAA", FileName: "a.png", UserID: 1, ReceiverID: 2, TempID: wire.NewTempID(), Status: wire.StatusPending, IsGroup: isGroup})
		if len(c.sends) != 1 || c.sends[0].dest != "/app/send/image" {
			t.Errorf("isGroup=%s: sent to %v, want /app/send/image", isGroup, c.sends)
		}
	}
}

func TestSubscribeDestinations(t *testing.T) {
	c := newFakeConn()
	m := NewManager(zap.NewNop())

	if _, err := m.SubscribeMessages(c, 7, false, 42, func(wire.Message) {}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.SubscribeMessages(c, 7, true, 42, func(wire.Message) {}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.SubscribeAcks(c, 7, false, func(wire.Ack) {}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.SubscribeAcks(c, 7, true, func(wire.Ack) {}); err != nil {
		t.Fatal(err)
	}

	for _, dest := range []string{
		"/topic/user/7/queue/private",
		"/topic/group/42",
		"/topic/user/7/queue/ack",
		"/topic/group/7/ack",
	} {
		if _, ok := c.subs[dest]; !ok {
			t.Errorf("missing subscription on %s", dest)
		}
	}
}

func TestSubscribeMessagesDropsMalformedFrames(t *testing.T) {
	c := newFakeConn()
	m := NewManager(zap.NewNop())

	var got []wire.Message
	if _, err := m.SubscribeMessages(c, 7, false, 42, func(msg wire.Message) {
		got = append(got, msg)
	}); err != nil {
		t.Fatal(err)
	}

	c.push(t, "/topic/user/7/queue/private", `not json at all`)
	c.push(t, "/topic/user/7/queue/private", `{"receiverId":7}`)
	c.push(t, "/topic/user/7/queue/private", `{"senderId":42,"receiverId":7,"content":"ok","tempId":5,"status":"sent"}`)

	if len(got) != 1 || got[0].Content != "ok" {
		t.Errorf("got %v, want single valid message", got)
	}
}
