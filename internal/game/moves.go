package game

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/gridrivals/backend/internal/models"
	"github.com/gridrivals/backend/internal/rules"
	"github.com/gridrivals/backend/internal/store"
)

// SubmitMove applies one move to a room under the room lock. Rule
// violations come back verbatim as *rules.Violation; the session is only
// rewritten when the move is legal.
func (c *Coordinator) SubmitMove(ctx context.Context, roomID, userID string, move json.RawMessage) (*models.Session, error) {
	engine, ok := rules.EngineForRoom(roomID)
	if !ok {
		return nil, fmt.Errorf("%w: unrecognized room id %q", ErrInvalidInput, roomID)
	}

	unlock := c.rooms.Lock(roomID)
	defer unlock()

	sess, err := c.store.GetSession(ctx, roomID)
	if err == store.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !sess.HasPlayer(userID) {
		return nil, fmt.Errorf("%w: user %s is not in room %s", ErrInvalidInput, userID, roomID)
	}
	if sess.Status == models.StatusFinished {
		return nil, &rules.Violation{Code: rules.CodeGameFinished, Message: "game already finished"}
	}

	if err := engine.ValidateMove(sess.GameState, userID, move); err != nil {
		return nil, err
	}
	next, err := engine.ApplyMove(sess.GameState, userID, move)
	if err != nil {
		return nil, err
	}
	sess.GameState = next

	outcome, err := engine.CheckEnd(sess.GameState)
	if err != nil {
		return nil, err
	}

	if outcome.Finished {
		sess.Status = models.StatusFinished
		sess.Winner = outcome.WinnerID
		sess.Draw = outcome.IsDraw
	}

	// One write covers both the move and, when it ends the game, the
	// terminal status.
	if err := c.store.PutSession(ctx, sess); err != nil {
		return nil, err
	}

	if outcome.Finished {
		c.concludeSession(ctx, sess, false)
	} else {
		c.events.Publish(ctx, Event{Type: EventMoveApplied, RoomID: roomID, Payload: map[string]interface{}{
			"user_id": userID,
		}})
	}
	return sess, nil
}

// LeaveMatch forfeits an active game. The remaining player wins regardless
// of board position. Leaving a finished game is a no-op.
func (c *Coordinator) LeaveMatch(ctx context.Context, roomID, userID string) (*models.Session, error) {
	unlock := c.rooms.Lock(roomID)
	defer unlock()

	sess, err := c.store.GetSession(ctx, roomID)
	if err == store.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !sess.HasPlayer(userID) {
		return nil, fmt.Errorf("%w: user %s is not in room %s", ErrInvalidInput, userID, roomID)
	}
	if sess.Status == models.StatusFinished {
		return sess, nil
	}

	sess.Status = models.StatusFinished
	sess.Draw = false
	if opp := sess.Opponent(userID); opp != nil {
		sess.Winner = opp.UserID
	}
	if err := c.store.PutSession(ctx, sess); err != nil {
		return nil, err
	}

	log.Printf("[MATCH] %s forfeited room %s (winner=%s)", userID, roomID, sess.Winner)
	c.concludeSession(ctx, sess, true)
	return sess, nil
}

// concludeSession runs the shared game-over tail: durable stats, result
// residency tracking and the finished event. Called with the room lock held
// and the terminal session already persisted.
func (c *Coordinator) concludeSession(ctx context.Context, sess *models.Session, forfeit bool) {
	recordOutcomeAsync(c.stats, sess.Players, Result{
		RoomID:   sess.RoomID,
		GameType: sess.GameType,
		WinnerID: sess.Winner,
		Draw:     sess.Draw,
		Forfeit:  forfeit,
	})

	if err := c.tracker.Track(ctx, sess.RoomID, sess.PlayerIDs()); err != nil {
		log.Printf("[RESULT] Failed to track residency for %s: %v", sess.RoomID, err)
	}

	c.events.Publish(ctx, Event{Type: EventGameFinished, RoomID: sess.RoomID, Payload: map[string]interface{}{
		"winner":  sess.Winner,
		"draw":    sess.Draw,
		"forfeit": forfeit,
	}})
}

// LeaveResult acknowledges that userID has left the result screen of a
// concluded match. Idempotent; acknowledging an unknown or already
// reclaimed room is not an error.
func (c *Coordinator) LeaveResult(ctx context.Context, roomID, userID string) error {
	return c.tracker.Acknowledge(ctx, roomID, userID)
}
