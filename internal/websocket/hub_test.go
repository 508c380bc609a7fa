package websocket

import (
	"testing"
	"time"
)

func newTestClient(h *Hub, code string) *Client {
	return &Client{hub: h, send: make(chan []byte, 4), DriverCode: code}
}

func TestReconnectReplacesStaleClient(t *testing.T) {
	h := NewHub()
	go h.Run()

	stale := newTestClient(h, "DRV01")
	live := newTestClient(h, "DRV01")

	h.register <- stale
	h.register <- live

	// The replaced connection's channel is closed by the hub
	select {
	case _, ok := <-stale.send:
		if ok {
			t.Fatal("stale client received a message instead of a close")
		}
	case <-time.After(time.Second):
		t.Fatal("stale client channel was not closed on reconnect")
	}

	// The stale connection's readPump still reports the disconnect; this
	// must not touch the live registration
	h.unregister <- stale

	h.NotifyDriver("DRV01", map[string]string{"type": "job_alert", "reference": "HAZJNB0001"})
	select {
	case msg, ok := <-live.send:
		if !ok {
			t.Fatal("live client channel closed by stale unregister")
		}
		if len(msg) == 0 {
			t.Fatal("empty push payload")
		}
	case <-time.After(time.Second):
		t.Fatal("live client never received the push")
	}
}

func TestUnregisterRemovesCurrentClient(t *testing.T) {
	h := NewHub()
	go h.Run()

	client := newTestClient(h, "DRV02")
	h.register <- client
	h.unregister <- client

	select {
	case _, ok := <-client.send:
		if ok {
			t.Fatal("expected channel close on unregister")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed on unregister")
	}

	// No registration left: push is dropped, nothing to receive
	h.NotifyDriver("DRV02", map[string]string{"type": "job_alert"})
	h.mu.RLock()
	_, ok := h.clients["DRV02"]
	h.mu.RUnlock()
	if ok {
		t.Fatal("client still registered after unregister")
	}
}
