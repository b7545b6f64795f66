// Package hub fans controller snapshots out to monitor clients over
// WebSocket.
package hub

import (
	"log/slog"
	"sync"
)

// Hub manages WebSocket clients and broadcasts messages.
type Hub struct {
	clients map[*Client]bool
	mu      sync.RWMutex
	log     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[*Client]bool),
		log:     logger,
	}
}

// Register adds a new client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Info("monitor client connected", "total", n)
}

// Unregister removes a client and closes its send queue. Safe to call
// more than once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	if ok {
		h.log.Info("monitor client disconnected", "total", n)
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastToController sends msg to every client watching controller c
// (1-based).
func (h *Hub) BroadcastToController(msg []byte, c int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client.Controller() == c {
			h.enqueue(client, msg)
		}
	}
}

// Deliver sends msg to a single client if it is still registered.
func (h *Hub) Deliver(c *Client, msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.clients[c] {
		h.enqueue(c, msg)
	}
}

// enqueue must run under the read lock.
func (h *Hub) enqueue(c *Client, msg []byte) {
	select {
	case c.send <- msg:
	default:
		// send buffer full, disconnect
		go h.drop(c)
	}
}

func (h *Hub) drop(c *Client) {
	h.Unregister(c)
	c.close()
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		h.drop(c)
	}
}
