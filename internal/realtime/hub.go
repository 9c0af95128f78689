package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Event is one message pushed to a connected user.
type Event struct {
	Type      string    `json:"type"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub tracks connected websocket clients by user ID and pushes booking
// events to them. At most one connection per user; a new connection for the
// same user replaces the old one.
type Hub struct {
	clients    map[uuid.UUID]*Client
	register   chan *Client
	unregister chan *Client
	log        *logrus.Logger

	mu       sync.RWMutex
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log,
		stopChan:   make(chan struct{}),
	}
}

// Run drives registration and teardown. Call in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if old, ok := h.clients[client.userID]; ok {
				close(old.send)
			}
			h.clients[client.userID] = client
			h.mu.Unlock()
			h.log.WithField("user_id", client.userID).Debug("realtime client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.userID]; ok && current == client {
				delete(h.clients, client.userID)
				close(client.send)
			}
			h.mu.Unlock()
			h.log.WithField("user_id", client.userID).Debug("realtime client disconnected")

		case <-h.stopChan:
			h.mu.Lock()
			for id, client := range h.clients {
				close(client.send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop tears down all connections. Safe to call multiple times.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stopChan) })
}

// Emit pushes an event to the user if they are connected. Disconnected users
// are skipped silently; realtime delivery is best-effort on top of the
// regular notification channel.
func (h *Hub) Emit(userID uuid.UUID, event string, payload any) {
	h.mu.RLock()
	client, ok := h.clients[userID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	data, err := json.Marshal(Event{
		Type:      event,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		h.log.Warnf("Failed to marshal realtime event %s: %+v", event, err)
		return
	}

	select {
	case client.send <- data:
	default:
		// Slow consumer: drop the event rather than block the caller.
		h.log.WithField("user_id", userID).Warn("realtime send buffer full, event dropped")
	}
}

// Connected reports whether the user currently has a live connection.
func (h *Hub) Connected(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}
