package events

import (
	"encoding/json"
	"testing"
	"time"
)

func TestHubFanOut(t *testing.T) {
	t.Parallel()

	h := NewHub()
	a := h.Subscribe()
	b := h.Subscribe()

	h.Publish("hello")
	for _, ch := range []chan string{a, b} {
		select {
		case got := <-ch:
			if got != "hello" {
				t.Fatalf("got %q", got)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber did not receive event")
		}
	}

	h.Unsubscribe(a)
	h.Publish("again")
	if got := <-b; got != "again" {
		t.Fatalf("got %q", got)
	}
	if _, ok := <-a; ok {
		t.Fatalf("unsubscribed channel should be closed")
	}
}

func TestHubDropsForSlowSubscriber(t *testing.T) {
	t.Parallel()

	h := NewHub()
	ch := h.Subscribe()
	for i := 0; i < 50; i++ {
		h.Publish("x")
	}
	if len(ch) != cap(ch) {
		t.Fatalf("buffer len = %d, want %d", len(ch), cap(ch))
	}
	subs, dropped := h.Stats()
	if subs != 1 || dropped != uint64(50-cap(ch)) {
		t.Fatalf("Stats = (%d, %d)", subs, dropped)
	}

	h.Unsubscribe(ch)
	h.Unsubscribe(ch)
	if subs, _ := h.Stats(); subs != 0 {
		t.Fatalf("subscribers = %d after unsubscribe", subs)
	}
}

func TestMakeUserEvent(t *testing.T) {
	t.Parallel()

	raw := MakeUserEvent("req-1", "user-1", TypeApplicationCreated, 1, map[string]string{"id": "app-1"})

	var e Event
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.Type != TypeApplicationCreated || e.UserID != "user-1" || e.RequestID != "req-1" || e.Version != 1 {
		t.Fatalf("unexpected event %+v", e)
	}
	if string(e.Data) != `{"id":"app-1"}` {
		t.Fatalf("data = %s", e.Data)
	}
}
