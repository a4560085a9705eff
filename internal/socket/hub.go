// server/internal/socket/hub.go
package socket

import (
	"fmt"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Hub tracks live websocket connections keyed by user id. One connection
// per user: a new registration replaces and closes the previous one.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*websocket.Conn
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*websocket.Conn),
	}
}

func (h *Hub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.clients[userID]; ok {
		old.Close()
	}
	h.clients[userID] = conn
	log.Printf("websocket: user %s connected (%d online)", userID, len(h.clients))
}

// Unregister drops the user's connection, but only if it is still the one
// being unregistered; a reconnect may already have replaced it.
func (h *Hub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if current, ok := h.clients[userID]; ok && current == conn {
		delete(h.clients, userID)
		log.Printf("websocket: user %s disconnected (%d online)", userID, len(h.clients))
	}
}

// Send writes a text message to the user's connection. Returns an error
// when the user is offline or the write fails; the caller decides whether
// that matters.
func (h *Hub) Send(userID string, message []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	conn, ok := h.clients[userID]
	if !ok {
		return fmt.Errorf("user %s is not connected", userID)
	}
	if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
		conn.Close()
		delete(h.clients, userID)
		return fmt.Errorf("write to %s: %w", userID, err)
	}
	return nil
}

// Online reports whether the user currently has a live connection.
func (h *Hub) Online(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}
