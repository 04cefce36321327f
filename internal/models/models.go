package models

import (
	"encoding/json"
	"time"
)

// Player identifies one participant of a match.
type Player struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// QueueEntry represents a player waiting in the matchmaking queue.
// Unique per (gameType, userID); FIFO by JoinedAt.
type QueueEntry struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	JoinedAt    time.Time `json:"joined_at"`
}

// SessionStatus represents the lifecycle state of a session
type SessionStatus string

const (
	StatusActive   SessionStatus = "ACTIVE"
	StatusFinished SessionStatus = "FINISHED"
)

// Session is the authoritative per-match record. It is created exactly once
// by the matchmaking coordinator; GameState is opaque to everything except
// the rule engine that owns it.
type Session struct {
	RoomID    string          `json:"room_id"`
	GameType  string          `json:"game_type"`
	Players   []Player        `json:"players"`
	GameState json.RawMessage `json:"game_state"`
	Status    SessionStatus   `json:"status"`
	Winner    string          `json:"winner,omitempty"`
	Draw      bool            `json:"draw,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// HasPlayer reports whether userID is one of the session's players.
func (s *Session) HasPlayer(userID string) bool {
	for _, p := range s.Players {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// Opponent returns the other player of a two-player session, or nil.
func (s *Session) Opponent(userID string) *Player {
	for i := range s.Players {
		if s.Players[i].UserID != userID {
			return &s.Players[i]
		}
	}
	return nil
}

// PlayerIDs returns the user ids in seat order.
func (s *Session) PlayerIDs() []string {
	ids := make([]string, 0, len(s.Players))
	for _, p := range s.Players {
		ids = append(ids, p.UserID)
	}
	return ids
}

// MatchResult is what RequestMatch reports back to the calling player.
type MatchResult struct {
	Matched bool     `json:"matched"`
	RoomID  string   `json:"room_id,omitempty"`
	Players []Player `json:"players,omitempty"`
}

// GameInfo describes one registered rule engine variant.
type GameInfo struct {
	Key        string `json:"key"`
	Name       string `json:"name"`
	MinPlayers int    `json:"min_players"`
	MaxPlayers int    `json:"max_players"`
}

// PlayerStats mirrors a row of the player_stats table.
type PlayerStats struct {
	UserID         string    `db:"user_id" json:"user_id"`
	DisplayName    string    `db:"display_name" json:"display_name"`
	GamesPlayed    int       `db:"games_played" json:"games_played"`
	GamesWon       int       `db:"games_won" json:"games_won"`
	GamesLost      int       `db:"games_lost" json:"games_lost"`
	GamesDrawn     int       `db:"games_drawn" json:"games_drawn"`
	GamesForfeited int       `db:"games_forfeited" json:"games_forfeited"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
