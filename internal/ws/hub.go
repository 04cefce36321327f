package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client represents a connected WebSocket client watching one room.
type Client struct {
	conn   *websocket.Conn
	userID string
	roomID string
	send   chan []byte
}

// Hub maintains the set of connected clients per room. Connections are a
// push channel only; all game mutations go through the HTTP API.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client            // userID -> Client
	rooms   map[string]map[string]*Client // roomID -> userID -> Client
}

// SessionHub is the process-wide hub.
var SessionHub = NewHub()

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// A reconnect replaces the previous connection for the same user.
	if old, exists := h.clients[c.userID]; exists {
		close(old.send)
		if room, ok := h.rooms[old.roomID]; ok {
			delete(room, old.userID)
		}
	}
	h.clients[c.userID] = c
	if h.rooms[c.roomID] == nil {
		h.rooms[c.roomID] = make(map[string]*Client)
	}
	h.rooms[c.roomID][c.userID] = c
	log.Printf("[WS] %s connected to room %s", c.userID, c.roomID)
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, exists := h.clients[c.userID]; exists && current == c {
		delete(h.clients, c.userID)
		close(c.send)
	}
	if room, exists := h.rooms[c.roomID]; exists {
		if room[c.userID] == c {
			delete(room, c.userID)
		}
		if len(room) == 0 {
			delete(h.rooms, c.roomID)
		}
	}
	log.Printf("[WS] %s disconnected from room %s", c.userID, c.roomID)
}

// BroadcastToRoom sends a message to every client watching roomID.
func (h *Hub) BroadcastToRoom(roomID string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if room, exists := h.rooms[roomID]; exists {
		for _, client := range room {
			select {
			case client.send <- data:
			default:
				log.Printf("[WS] Send buffer full for %s in room %s, dropping message", client.userID, roomID)
			}
		}
	}
}

// writePump writes queued messages and keepalive pings to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] Write error for %s: %v", c.userID, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[WS] Ping error for %s: %v", c.userID, err)
				return
			}
		}
	}
}

// readPump drains the connection until it drops; inbound frames are ignored.
func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
