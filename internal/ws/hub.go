package ws

import (
	"encoding/json"
	"sync"
)

// Topics clients can subscribe to. Each data-changing handler broadcasts an
// invalidation event on its topic; clients re-fetch over HTTP.
const (
	TopicOrders = "orders"
	TopicTables = "tables"
	TopicMenu   = "menu"
)

// ValidTopic reports whether name is a known subscription topic.
func ValidTopic(name string) bool {
	return name == TopicOrders || name == TopicTables || name == TopicMenu
}

// Event represents a WebSocket message to be broadcast
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// topicEvent is an internal struct for routing events to a topic room
type topicEvent struct {
	Topic string
	Event Event
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	// Registered clients by topic
	rooms map[string]map[*Client]bool

	// Inbound messages from clients (register/unregister)
	register   chan *Client
	unregister chan *Client

	// Outbound messages to broadcast
	broadcast chan *topicEvent

	// Mutex for thread-safe room access
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *topicEvent, 256),
	}
}

// Run starts the hub's main loop
// This should be called as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			for _, topic := range client.topics {
				if h.rooms[topic] == nil {
					h.rooms[topic] = make(map[*Client]bool)
				}
				h.rooms[topic][client] = true
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeClient(client)
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.Lock()
			clients := h.rooms[event.Topic]

			// Marshal event to JSON once
			message, err := json.Marshal(event.Event)
			if err != nil {
				h.mu.Unlock()
				continue
			}

			for client := range clients {
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full, close and unregister
					h.removeClient(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// removeClient drops the client from every topic room it joined and cleans
// up rooms left empty. Caller must hold h.mu.
func (h *Hub) removeClient(client *Client) {
	removed := false
	for _, topic := range client.topics {
		clients, ok := h.rooms[topic]
		if !ok {
			continue
		}
		if _, exists := clients[client]; exists {
			delete(clients, client)
			removed = true
			if len(clients) == 0 {
				delete(h.rooms, topic)
			}
		}
	}
	if removed {
		close(client.send)
	}
}

// Broadcast sends an event to all clients subscribed to a topic
// This is the public API for handlers to broadcast events
func (h *Hub) Broadcast(topic string, event Event) {
	h.broadcast <- &topicEvent{
		Topic: topic,
		Event: event,
	}
}
