package game

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

// SessionEventsChannel is the pub/sub channel carrying live session events
// for the WebSocket layer.
const SessionEventsChannel = "session_events"

// Event types published by the coordinator.
const (
	EventMatchCreated     = "match_created"
	EventMoveApplied      = "move_applied"
	EventGameFinished     = "game_finished"
	EventSessionReclaimed = "session_reclaimed"
)

// Event is a best-effort notification about a room. Publishing never blocks
// or fails the primary operation.
type Event struct {
	Type    string                 `json:"type"`
	RoomID  string                 `json:"room_id"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

type EventPublisher interface {
	Publish(ctx context.Context, ev Event)
}

// RedisPublisher publishes events to the session_events channel.
type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[EVENTS] Failed to marshal %s event for room %s: %v", ev.Type, ev.RoomID, err)
		return
	}
	if err := p.rdb.Publish(ctx, SessionEventsChannel, data).Err(); err != nil {
		log.Printf("[EVENTS] Publish %s failed for room %s: %v", ev.Type, ev.RoomID, err)
	}
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, ev Event) {}
