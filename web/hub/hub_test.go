package hub

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	h := New("test", nil)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-h.done
	})
	return h, cancel
}

func join(h *Hub, id string, depth int) *Client {
	c := &Client{ID: id, hub: h, queue: make(chan Message, depth)}
	h.register <- c
	return c
}

func recv(t *testing.T, c *Client) (Message, bool) {
	t.Helper()
	select {
	case m, ok := <-c.queue:
		return m, ok
	case <-time.After(time.Second):
		t.Fatalf("client %s: nothing queued", c.ID)
		return nil, false
	}
}

func waitCount(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for h.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount = %d, want %d", h.ClientCount(), want)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestEncodeEnvelope(t *testing.T) {
	msg, err := EncodeEnvelope("status", map[string]int{"n": 3})
	if err != nil {
		t.Fatalf("EncodeEnvelope: %v", err)
	}
	var env struct {
		Kind string         `json:"kind"`
		Data map[string]int `json:"data"`
	}
	if err := json.Unmarshal(msg, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Kind != "status" || env.Data["n"] != 3 {
		t.Errorf("envelope = %+v", env)
	}
	if _, err := EncodeEnvelope("bad", make(chan int)); err == nil {
		t.Error("expected error for unencodable payload")
	}
}

func TestHub_SnapshotBeforeBroadcast(t *testing.T) {
	h := New("test", nil)
	h.OnRegister = func() []Message { return []Message{Message("snap")} }
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	c := join(h, "a", 4)
	h.Broadcast(Message("live"))

	if m, _ := recv(t, c); string(m) != "snap" {
		t.Errorf("first message = %q, want snap", m)
	}
	if m, _ := recv(t, c); string(m) != "live" {
		t.Errorf("second message = %q, want live", m)
	}
}

func TestHub_BroadcastReachesEveryClient(t *testing.T) {
	h, _ := startHub(t)
	a, b := join(h, "a", 4), join(h, "b", 4)
	waitCount(t, h, 2)

	if err := h.BroadcastEnvelope("series", []float64{1}); err != nil {
		t.Fatalf("BroadcastEnvelope: %v", err)
	}
	for _, c := range []*Client{a, b} {
		m, ok := recv(t, c)
		if !ok || len(m) == 0 {
			t.Errorf("client %s got %q ok=%v", c.ID, m, ok)
		}
	}
}

func TestHub_SlowClientDropped(t *testing.T) {
	h, _ := startHub(t)
	slow := join(h, "slow", 1)
	fast := join(h, "fast", 8)
	waitCount(t, h, 2)

	h.Broadcast(Message("1"))
	h.Broadcast(Message("2"))
	waitCount(t, h, 1)

	if m, ok := recv(t, slow); !ok || string(m) != "1" {
		t.Fatalf("slow first = %q ok=%v", m, ok)
	}
	if _, ok := recv(t, slow); ok {
		t.Error("slow client queue should be closed after drop")
	}
	for _, want := range []string{"1", "2"} {
		if m, _ := recv(t, fast); string(m) != want {
			t.Errorf("fast got %q, want %q", m, want)
		}
	}
}

func TestHub_UnregisterAndShutdownCloseQueues(t *testing.T) {
	h := New("test", nil)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	gone, stay := join(h, "gone", 1), join(h, "stay", 1)
	h.unregister <- gone
	if _, ok := recv(t, gone); ok {
		t.Error("unregistered client queue should be closed")
	}
	// A second unregister for the same client must not double-close.
	h.unregister <- gone
	waitCount(t, h, 1)

	cancel()
	<-h.done
	if _, ok := recv(t, stay); ok {
		t.Error("shutdown should close remaining queues")
	}
	if n := h.ClientCount(); n != 0 {
		t.Errorf("ClientCount after shutdown = %d", n)
	}
}
