// Package ws holds the WebSocket connection registry and the /ws
// endpoint. Connections are grouped per routine so updates fan out to
// every client viewing the same routine.
package ws

import (
	"log"
	"sync"
)

// Conn is the subset of a WebSocket connection the hub needs. The handler
// wraps *websocket.Conn to serialize writes; tests use in-memory fakes.
type Conn interface {
	WriteJSON(v any) error
}

// Hub tracks active connections grouped by routine ID.
type Hub struct {
	mu    sync.Mutex
	conns map[int64]map[Conn]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[int64]map[Conn]struct{})}
}

// Connect registers a connection under a routine.
func (h *Hub) Connect(routineID int64, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	bucket, ok := h.conns[routineID]
	if !ok {
		bucket = make(map[Conn]struct{})
		h.conns[routineID] = bucket
	}
	bucket[c] = struct{}{}
}

// Disconnect removes a connection. Safe to call for a connection that was
// never registered or was already removed.
func (h *Hub) Disconnect(routineID int64, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	bucket, ok := h.conns[routineID]
	if !ok {
		return
	}
	delete(bucket, c)
	if len(bucket) == 0 {
		delete(h.conns, routineID)
	}
}

// Broadcast sends message to every connection registered under
// routineID. Connections whose write fails are dropped from the registry;
// one dead client never blocks delivery to the rest. No connections is a
// no-op.
func (h *Hub) Broadcast(routineID int64, message any) {
	h.mu.Lock()
	targets := make([]Conn, 0, len(h.conns[routineID]))
	for c := range h.conns[routineID] {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	for _, c := range targets {
		if err := c.WriteJSON(message); err != nil {
			log.Printf("ws: dropping connection for routine %d after write error: %v", routineID, err)
			h.Disconnect(routineID, c)
		}
	}
}

// Count returns the number of active connections for a routine.
func (h *Hub) Count(routineID int64) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns[routineID])
}
