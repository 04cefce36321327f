package game

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gridrivals/backend/internal/store"
)

// ResidencyTracker tracks which players still need to see a concluded
// match's outcome and reclaims the session once everyone has left or the
// timeout elapses. Per-room states: untracked -> awaiting acks -> reclaimed
// (terminal, idempotent).
type ResidencyTracker struct {
	store  store.Store
	events EventPublisher
	ttl    time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewResidencyTracker(st store.Store, events EventPublisher, ttl time.Duration) *ResidencyTracker {
	return &ResidencyTracker{
		store:  st,
		events: events,
		ttl:    ttl,
		timers: make(map[string]*time.Timer),
	}
}

// Track enters the awaiting-acks state for a finished room. Safe under
// retry: a room that is already tracked is left alone.
func (t *ResidencyTracker) Track(ctx context.Context, roomID string, userIDs []string) error {
	created, err := t.store.InitResidency(ctx, roomID, userIDs, time.Now().Add(t.ttl))
	if err != nil {
		return err
	}
	if !created {
		return nil
	}

	t.mu.Lock()
	t.timers[roomID] = time.AfterFunc(t.ttl, func() {
		log.Printf("[RESULT] Reclaim timer fired for room %s", roomID)
		t.Reclaim(context.Background(), roomID)
	})
	t.mu.Unlock()

	log.Printf("[RESULT] Room %s awaiting result acks from %d players (ttl=%v)", roomID, len(userIDs), t.ttl)
	return nil
}

// Acknowledge records that userID has left the result screen. The player's
// index entry is dropped; when the residency set empties the room is
// reclaimed immediately without waiting for the timer. Safe under retry.
func (t *ResidencyTracker) Acknowledge(ctx context.Context, roomID, userID string) error {
	remaining, tracked, err := t.store.RemoveResident(ctx, roomID, userID)
	if err != nil {
		return err
	}

	// Drop the index entry only while it still points at this room; the
	// player may have already been matched into a new session.
	if current, err := t.store.GetUserRoom(ctx, userID); err == nil && current == roomID {
		if err := t.store.DeleteUserRoom(ctx, userID); err != nil {
			log.Printf("[RESULT] Failed to delete index for %s: %v", userID, err)
		}
	}

	if !tracked {
		// Already reclaimed; retries are a no-op.
		return nil
	}
	if remaining == 0 {
		log.Printf("[RESULT] All players left room %s; reclaiming early", roomID)
		t.Reclaim(ctx, roomID)
	}
	return nil
}

// Reclaim retires a finished room: session, index entries and any stray
// queue entries for its players are deleted. Terminal and idempotent; a
// fired timer that loses the race with an explicit reclaim finds nothing
// left to delete and no-ops.
func (t *ResidencyTracker) Reclaim(ctx context.Context, roomID string) {
	t.mu.Lock()
	if timer, exists := t.timers[roomID]; exists {
		timer.Stop()
		delete(t.timers, roomID)
	}
	t.mu.Unlock()

	sess, err := t.store.GetSession(ctx, roomID)
	if err != nil && err != store.ErrNotFound {
		log.Printf("[RESULT] Failed to load session %s during reclaim: %v", roomID, err)
		return
	}

	if sess != nil {
		for _, p := range sess.Players {
			if current, err := t.store.GetUserRoom(ctx, p.UserID); err == nil && current == roomID {
				if err := t.store.DeleteUserRoom(ctx, p.UserID); err != nil {
					log.Printf("[RESULT] Failed to delete index for %s: %v", p.UserID, err)
				}
			}
			// Defensive: a player could still be enqueued from an
			// abandoned flow.
			if removed, err := t.store.RemoveQueued(ctx, sess.GameType, p.UserID); err != nil {
				log.Printf("[RESULT] Failed to purge queue entry for %s: %v", p.UserID, err)
			} else if removed {
				log.Printf("[RESULT] Purged stray queue entry for %s (%s)", p.UserID, sess.GameType)
			}
		}
		if err := t.store.DeleteSession(ctx, roomID); err != nil {
			log.Printf("[RESULT] Failed to delete session %s: %v", roomID, err)
		}
	}

	if err := t.store.DeleteResidency(ctx, roomID); err != nil {
		log.Printf("[RESULT] Failed to delete residency for %s: %v", roomID, err)
	}

	if sess != nil {
		t.events.Publish(ctx, Event{Type: EventSessionReclaimed, RoomID: roomID})
		log.Printf("[RESULT] Room %s reclaimed", roomID)
	}
}

// StartSweeper runs a background job that reclaims rooms whose persisted
// deadline has passed. It recovers timers lost to a process restart and
// backs up the in-process timers.
func (t *ResidencyTracker) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Printf("[RESULT] Reclaim sweeper started (poll every %v)", interval)
		for {
			select {
			case <-ctx.Done():
				log.Printf("[RESULT] Reclaim sweeper stopped")
				return
			case <-ticker.C:
				due, err := t.store.DueReclaims(ctx, time.Now())
				if err != nil {
					log.Printf("[RESULT] Failed to fetch due reclaims: %v", err)
					continue
				}
				for _, roomID := range due {
					log.Printf("[RESULT] Sweeper reclaiming overdue room %s", roomID)
					t.Reclaim(ctx, roomID)
				}
			}
		}
	}()
}
