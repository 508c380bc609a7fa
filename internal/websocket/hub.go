package websocket

import (
	"encoding/json"
	"log"
	"sync"
)

// Hub maintains the set of connected driver devices and routes job alerts
// to them by driver code.
type Hub struct {
	// Registered clients map: DriverCode -> Client
	clients map[string]*Client

	// Register requests
	register chan *Client

	// Unregister requests
	unregister chan *Client

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string]*Client),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if client.DriverCode != "" {
				// If the driver connects again, close the old connection
				if old, ok := h.clients[client.DriverCode]; ok {
					close(old.send)
					delete(h.clients, client.DriverCode)
				}
				h.clients[client.DriverCode] = client
				log.Printf("📱 Driver connected: %s", client.DriverCode)
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if client.DriverCode != "" {
				// A reconnect may already have replaced this client; only
				// the current registration owns the map entry and channel.
				if current, ok := h.clients[client.DriverCode]; ok && current == client {
					delete(h.clients, client.DriverCode)
					close(client.send)
					log.Printf("📴 Driver disconnected: %s", client.DriverCode)
				}
			}
			h.mu.Unlock()
		}
	}
}

// NotifyDriver pushes a job alert to a driver's device. A driver that is
// not connected simply misses the push, the job still shows in their feed.
func (h *Hub) NotifyDriver(code string, payload interface{}) {
	h.mu.RLock()
	client, ok := h.clients[code]
	h.mu.RUnlock()

	if !ok {
		log.Printf("📴 Driver %s not connected, skipping push", code)
		return
	}

	jsonMsg, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return
	}

	select {
	case client.send <- jsonMsg:
	default:
		// Buffer full or client dead
		log.Printf("⚠️ Driver %s send buffer full, dropping push", code)
	}
}
