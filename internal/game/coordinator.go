package game

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gridrivals/backend/internal/models"
	"github.com/gridrivals/backend/internal/rules"
	"github.com/gridrivals/backend/internal/store"
)

// Coordinator is the matchmaking and session engine. It owns no state of
// its own beyond per-room locks; the queue, sessions, index and residency
// sets all live in the injected Store.
type Coordinator struct {
	store    store.Store
	stats    StatsRecorder
	events   EventPublisher
	tracker  *ResidencyTracker
	rooms    *roomLocks
	userLock *roomLocks // serializes cancel vs dequeue per user
}

func NewCoordinator(st store.Store, stats StatsRecorder, events EventPublisher, resultTTL time.Duration) *Coordinator {
	return &Coordinator{
		store:    st,
		stats:    stats,
		events:   events,
		tracker:  NewResidencyTracker(st, events, resultTTL),
		rooms:    newRoomLocks(),
		userLock: newRoomLocks(),
	}
}

// Tracker exposes the result residency tracker (for the sweeper).
func (c *Coordinator) Tracker() *ResidencyTracker {
	return c.tracker
}

// ListGames returns the registered rule engine variants.
func (c *Coordinator) ListGames() []models.GameInfo {
	return rules.List()
}

// QueueLengths returns the number of waiting players per game type.
func (c *Coordinator) QueueLengths(ctx context.Context) (map[string]int, error) {
	lengths := make(map[string]int)
	for _, info := range rules.List() {
		n, err := c.store.QueueLen(ctx, info.Key)
		if err != nil {
			return nil, err
		}
		lengths[info.Key] = n
	}
	return lengths, nil
}

// RequestMatch enqueues the caller and tries to form a match. The caller
// gets matched:true only when they are part of the matched set; a matched
// opponent observes the match through their next status poll.
func (c *Coordinator) RequestMatch(ctx context.Context, gameType, userID, displayName string) (*models.MatchResult, error) {
	engine, ok := rules.Get(gameType)
	if !ok {
		return nil, fmt.Errorf("%w: unknown game type %q", ErrInvalidInput, gameType)
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: user id required", ErrInvalidInput)
	}

	unlock := c.userLock.Lock(userID)
	defer unlock()

	// A fresh request supersedes a stale queue entry.
	if removed, err := c.store.RemoveQueued(ctx, gameType, userID); err != nil {
		return nil, err
	} else if removed {
		log.Printf("[MATCH] Superseded stale queue entry for %s (%s)", userID, gameType)
	}

	// Reconnection path: a valid index entry for an active session wins
	// over a new match.
	if sess, err := c.resolveUserRoom(ctx, userID); err != nil {
		return nil, err
	} else if sess != nil && sess.Status == models.StatusActive {
		log.Printf("[MATCH] %s already in active room %s", userID, sess.RoomID)
		return &models.MatchResult{Matched: true, RoomID: sess.RoomID, Players: sess.Players}, nil
	}

	entry := models.QueueEntry{UserID: userID, DisplayName: displayName, JoinedAt: time.Now().UTC()}
	if err := c.store.Enqueue(ctx, gameType, entry); err != nil {
		return nil, err
	}

	length, err := c.store.QueueLen(ctx, gameType)
	if err != nil {
		return nil, err
	}
	if length < engine.MinPlayers() {
		return &models.MatchResult{Matched: false}, nil
	}

	popped, err := c.store.DequeueUpTo(ctx, gameType, engine.MinPlayers())
	if err != nil {
		return nil, err
	}
	if len(popped) < engine.MinPlayers() {
		// A concurrent dequeue got there first; restore what we took.
		if err := c.store.Requeue(ctx, gameType, popped); err != nil {
			log.Printf("[MATCH] Failed to requeue partial pop (%s): %v", gameType, err)
		}
		return &models.MatchResult{Matched: false}, nil
	}

	sess, err := c.createSession(ctx, engine, popped)
	if err != nil {
		if reqErr := c.store.Requeue(ctx, gameType, popped); reqErr != nil {
			log.Printf("[MATCH] Failed to requeue after session creation failure: %v", reqErr)
		}
		return nil, err
	}

	for _, p := range sess.Players {
		if p.UserID == userID {
			return &models.MatchResult{Matched: true, RoomID: sess.RoomID, Players: sess.Players}, nil
		}
	}
	// The caller paired two other waiters; they stay queued themselves.
	return &models.MatchResult{Matched: false}, nil
}

func (c *Coordinator) createSession(ctx context.Context, engine rules.Engine, entries []models.QueueEntry) (*models.Session, error) {
	players := make([]models.Player, len(entries))
	for i, e := range entries {
		players[i] = models.Player{UserID: e.UserID, DisplayName: e.DisplayName}
	}

	roomID, err := rules.NewRoomID(engine.Key())
	if err != nil {
		return nil, err
	}
	state, err := engine.NewInitialState(players)
	if err != nil {
		return nil, err
	}

	sess := &models.Session{
		RoomID:    roomID,
		GameType:  engine.Key(),
		Players:   players,
		GameState: state,
		Status:    models.StatusActive,
		CreatedAt: time.Now().UTC(),
	}
	if err := c.store.PutSession(ctx, sess); err != nil {
		return nil, err
	}
	for _, p := range players {
		if err := c.store.SetUserRoom(ctx, p.UserID, roomID); err != nil {
			return nil, err
		}
	}

	log.Printf("[MATCH] Session created: %s (%s) players=%v", roomID, engine.Key(), sess.PlayerIDs())
	c.events.Publish(ctx, Event{Type: EventMatchCreated, RoomID: roomID, Payload: map[string]interface{}{
		"game_type": engine.Key(),
		"players":   players,
	}})
	return sess, nil
}

// CancelMatchmaking removes the caller from the queue. Cancel wins if it
// arrives before a concurrent pop completes; once the pop has completed the
// player is matched and cancellation reports a conflict.
func (c *Coordinator) CancelMatchmaking(ctx context.Context, gameType, userID string) error {
	if _, ok := rules.Get(gameType); !ok {
		return fmt.Errorf("%w: unknown game type %q", ErrInvalidInput, gameType)
	}

	unlock := c.userLock.Lock(userID)
	defer unlock()

	removed, err := c.store.RemoveQueued(ctx, gameType, userID)
	if err != nil {
		return err
	}
	if removed {
		log.Printf("[MATCH] %s cancelled matchmaking (%s)", userID, gameType)
		return nil
	}

	// Not queued. If the index resolves to an active session the player
	// was already popped into a match.
	if sess, err := c.resolveUserRoom(ctx, userID); err != nil {
		return err
	} else if sess != nil && sess.Status == models.StatusActive {
		return fmt.Errorf("%w: already matched into room %s", ErrConflict, sess.RoomID)
	}
	// Never queued or already cleaned up; cancellation is idempotent.
	return nil
}

// MatchStatus is the result of a status poll.
type MatchStatus struct {
	Matched bool            `json:"matched"`
	Queued  bool            `json:"queued"`
	RoomID  string          `json:"room_id,omitempty"`
	Session *models.Session `json:"session,omitempty"`
}

// PollMatchStatus reports whether the caller is matched, still waiting, or
// neither. Safe under retry.
func (c *Coordinator) PollMatchStatus(ctx context.Context, gameType, userID string) (*MatchStatus, error) {
	if _, ok := rules.Get(gameType); !ok {
		return nil, fmt.Errorf("%w: unknown game type %q", ErrInvalidInput, gameType)
	}

	sess, err := c.resolveUserRoom(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sess != nil {
		return &MatchStatus{Matched: true, RoomID: sess.RoomID, Session: sess}, nil
	}

	queued, err := c.store.IsQueued(ctx, gameType, userID)
	if err != nil {
		return nil, err
	}
	return &MatchStatus{Queued: queued}, nil
}

// resolveUserRoom validates the user's index entry. Stale and dangling
// entries are purged here: an index pointing at a missing session, or at a
// finished session whose residency has already been reclaimed, is deleted
// and treated as "not matched". This is the sole reconnection mechanism, so
// the purge is correctness-critical.
func (c *Coordinator) resolveUserRoom(ctx context.Context, userID string) (*models.Session, error) {
	roomID, err := c.store.GetUserRoom(ctx, userID)
	if err != nil {
		return nil, err
	}
	if roomID == "" {
		return nil, nil
	}

	sess, err := c.store.GetSession(ctx, roomID)
	if err == store.ErrNotFound {
		log.Printf("[MATCH] Purging dangling index %s -> %s", userID, roomID)
		if err := c.store.DeleteUserRoom(ctx, userID); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if sess.Status == models.StatusFinished {
		tracked, err := c.store.ResidencyExists(ctx, roomID)
		if err != nil {
			return nil, err
		}
		if !tracked {
			// Fully concluded and reclaimable; the index is stale.
			log.Printf("[MATCH] Purging stale index %s -> %s (match concluded)", userID, roomID)
			if err := c.store.DeleteUserRoom(ctx, userID); err != nil {
				return nil, err
			}
			return nil, nil
		}
	}
	return sess, nil
}

// GetSession resolves a session by room id. The room id's prefix must agree
// with the requested game type.
func (c *Coordinator) GetSession(ctx context.Context, gameType, roomID string) (*models.Session, error) {
	engine, ok := rules.EngineForRoom(roomID)
	if !ok || engine.Key() != gameType {
		return nil, fmt.Errorf("%w: room %s does not belong to game type %q", ErrInvalidInput, roomID, gameType)
	}
	sess, err := c.store.GetSession(ctx, roomID)
	if err == store.ErrNotFound {
		return nil, ErrNotFound
	}
	return sess, err
}
