package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/gridrivals/backend/internal/game"
	"github.com/redis/go-redis/v9"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced at the API layer
	},
}

// HandleSessionWS upgrades a request to a room event stream. The caller must
// be a player of the room; authentication is done by the route middleware.
func HandleSessionWS(c *gin.Context) {
	roomID := c.Param("room_id")
	userID := c.GetString("user_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] Upgrade failed for %s: %v", userID, err)
		return
	}

	client := &Client{
		conn:   conn,
		userID: userID,
		roomID: roomID,
		send:   make(chan []byte, 16),
	}
	SessionHub.register(client)
	go client.writePump()
	go client.readPump(SessionHub)
}

// StartEventSubscriber relays session events from Redis pub/sub to connected
// clients. Events published by other processes reach this hub too.
func StartEventSubscriber(ctx context.Context, rdb *redis.Client) {
	pubsub := rdb.Subscribe(ctx, game.SessionEventsChannel)
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		log.Printf("[WS] Session event subscriber started")
		for {
			select {
			case <-ctx.Done():
				log.Printf("[WS] Session event subscriber stopped")
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				relayEvent(msg.Payload)
			}
		}
	}()
}

func relayEvent(payload string) {
	var ev game.Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		log.Printf("[WS] Invalid event payload: %v", err)
		return
	}
	SessionHub.BroadcastToRoom(ev.RoomID, ev)
}
