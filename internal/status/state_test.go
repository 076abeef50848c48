package status

import (
	"testing"

	"github.com/Raunak7888/hermes-tui/internal/bus"
)

func TestInitialState(t *testing.T) {
	m := NewMachine(nil)
	if m.Current() != Offline {
		t.Errorf("initial state = %s, want OFFLINE", m.Current())
	}
}

func TestValidTransitions(t *testing.T) {
	tests := []struct {
		path []State
	}{
		{[]State{Connecting, Online}},
		{[]State{Connecting, Errored, Offline}},
		{[]State{Connecting, Online, Offline}},
		{[]State{Connecting, Offline}},
	}
	for _, tt := range tests {
		m := NewMachine(nil)
		for _, s := range tt.path {
			if err := m.Transition(s); err != nil {
				t.Fatalf("Transition(%s) along %v: %v", s, tt.path, err)
			}
		}
		if m.Current() != tt.path[len(tt.path)-1] {
			t.Errorf("state = %s, want %s", m.Current(), tt.path[len(tt.path)-1])
		}
	}
}

func TestInvalidTransition(t *testing.T) {
	m := NewMachine(nil)
	if err := m.Transition(Online); err == nil {
		t.Error("Transition(OFFLINE -> ONLINE) should fail")
	}
}

func TestNoTransitionBackToConnectingFromErrored(t *testing.T) {
	m := NewMachine(nil)
	if err := m.Transition(Connecting); err != nil {
		t.Fatal(err)
	}
	if err := m.Transition(Errored); err != nil {
		t.Fatal(err)
	}
	if err := m.Transition(Connecting); err == nil {
		t.Error("ERRORED -> CONNECTING should fail, there is no automatic retry")
	}
}

func TestTransitionEmitsEvent(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("conn.", 10)
	defer unsub()

	m := NewMachine(b)
	if err := m.Transition(Connecting); err != nil {
		t.Fatal(err)
	}

	evt := <-ch
	if evt.Kind != bus.KindConnStatus {
		t.Errorf("event kind = %q, want %q", evt.Kind, bus.KindConnStatus)
	}
	change, ok := evt.Payload.(StatusChange)
	if !ok {
		t.Fatalf("payload type = %T, want StatusChange", evt.Payload)
	}
	if change.From != Offline || change.To != Connecting {
		t.Errorf("change = %v -> %v, want OFFLINE -> CONNECTING", change.From, change.To)
	}
}
