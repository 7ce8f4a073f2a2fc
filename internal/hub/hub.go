package hub

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Event represents a real-time event to be sent to clients.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Client represents a single subscribed connection (one participant's
// event stream). It's essentially a channel the SSE handler listens to.
type Client chan []byte

// Hub manages all active topics and their clients. Each match gets its own
// topic so state deltas fan out only to that match's participants.
type Hub struct {
	topics map[string]map[Client]bool
	mu     sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		topics: make(map[string]map[Client]bool),
	}
}

// MatchTopic returns the per-match topic name.
func MatchTopic(matchID uint) string {
	return fmt.Sprintf("match:%d", matchID)
}

// Subscribe registers a new client on a topic and returns its channel.
func (h *Hub) Subscribe(topic string) Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	client := make(Client, 16)
	if _, ok := h.topics[topic]; !ok {
		h.topics[topic] = make(map[Client]bool)
	}
	h.topics[topic][client] = true
	return client
}

// Unsubscribe removes a client from a topic.
func (h *Hub) Unsubscribe(topic string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.topics[topic]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client) // Close the channel to signal the SSE handler to stop.
			if len(clients) == 0 {
				delete(h.topics, topic)
			}
		}
	}
}

// Broadcast sends an event to all clients on a topic. Delivery is a hint,
// not a guarantee: consumers reconcile against the next authoritative read.
func (h *Hub) Broadcast(topic string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.topics[topic]; ok {
		messageBytes, err := json.Marshal(event)
		if err != nil {
			return
		}

		for client := range clients {
			// Use a non-blocking send to prevent a slow client from blocking the hub.
			select {
			case client <- messageBytes:
			default:
				// Client channel is full, maybe they are disconnected or slow.
				// The unsubscribe logic will handle cleaning this up eventually.
			}
		}
	}
}

// SubscriberCount reports how many clients are currently on a topic.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
