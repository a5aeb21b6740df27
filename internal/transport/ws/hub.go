package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// MsgGroupChanged tells subscribers something about the group changed.
	// It carries no detail; clients re-fetch the snapshot.
	MsgGroupChanged MessageType = "group_changed"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Hub manages WebSocket connections subscribed to groups
type Hub struct {
	// Group -> connections
	conns map[string]map[*Connection]bool

	mu sync.RWMutex

	// Channels for coordination
	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
}

// Connection represents one subscriber's WebSocket connection
type Connection struct {
	GroupID  string
	MemberID string
	Send     chan []byte
	Hub      *Hub
}

// BroadcastMessage is a message to broadcast to a group's subscribers
type BroadcastMessage struct {
	GroupID string
	Message *Message
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		conns:      make(map[string]map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.conns[conn.GroupID] == nil {
				h.conns[conn.GroupID] = make(map[*Connection]bool)
			}
			h.conns[conn.GroupID][conn] = true
			log.Printf("Member %s subscribed to group %s", conn.MemberID, conn.GroupID)
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.conns[conn.GroupID]; ok {
				if conns[conn] {
					delete(conns, conn)
					close(conn.Send)
					if len(conns) == 0 {
						delete(h.conns, conn.GroupID)
					}
					log.Printf("Member %s unsubscribed from group %s", conn.MemberID, conn.GroupID)
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Message)
			for conn := range h.conns[msg.GroupID] {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full; clients resync on
					// the next ping or reconnect
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// GroupChanged pings every subscriber of a group (implements service.Notifier)
func (h *Hub) GroupChanged(groupID string) {
	h.broadcast <- &BroadcastMessage{
		GroupID: groupID,
		Message: &Message{Type: MsgGroupChanged},
	}
}
