package websocket

import (
	"encoding/json"
	"log"
	"sync"
)

// Hub fans scan frames from decoder devices out to terminal subscribers
type Hub struct {
	// Registered clients map: ClientID -> Client
	clients map[string]*Client

	// Register requests
	register chan *Client

	// Unregister requests
	unregister chan *Client

	// Raw frames from device clients
	broadcast chan []byte

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		clients:    make(map[string]*Client),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			// A reconnecting client replaces its old connection
			if old, ok := h.clients[client.ID]; ok {
				close(old.send)
				delete(h.clients, client.ID)
			}
			h.clients[client.ID] = client
			h.mu.Unlock()
			log.Printf("📱 Scanner client connected: %s (%s)", client.ID, client.Role)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.send)
				log.Printf("📴 Scanner client disconnected: %s", client.ID)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients {
				if client.Role != RoleTerminal {
					continue
				}
				select {
				case client.send <- message:
				default:
					// Buffer full or client dead, drop the frame
				}
			}
			h.mu.RUnlock()
		}
	}
}

// PublishScan injects a scan frame as if a device had sent it
func (h *Hub) PublishScan(code string) {
	frame, err := json.Marshal(ScanFrame{Type: FrameScan, Code: code})
	if err != nil {
		return
	}
	h.broadcast <- frame
}
