// Package store holds the shared mutable state of the engine: the match
// queue, the session store, the user->room index and the result residency
// sets. It is injected into the coordinator so tests run against the
// in-memory implementation and production runs against Redis.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/gridrivals/backend/internal/models"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("store: not found")

// Store is the atomic key-value surface backing the engine.
//
// DequeueUpTo and RemoveQueued must be atomic with respect to each other and
// to concurrent calls of themselves: no entry may be observed by two
// dequeuers, and a removal that lands before a pop completes wins.
type Store interface {
	// Match queue, per game type. FIFO by insertion; Enqueue removes any
	// prior entry for the same user first.
	Enqueue(ctx context.Context, gameType string, entry models.QueueEntry) error
	QueueLen(ctx context.Context, gameType string) (int, error)
	DequeueUpTo(ctx context.Context, gameType string, n int) ([]models.QueueEntry, error)
	// Requeue pushes entries back to the head of the queue, preserving
	// their original JoinedAt, to restore FIFO order after a partial pop.
	Requeue(ctx context.Context, gameType string, entries []models.QueueEntry) error
	RemoveQueued(ctx context.Context, gameType, userID string) (bool, error)
	IsQueued(ctx context.Context, gameType, userID string) (bool, error)

	// Sessions, keyed by room id.
	PutSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, roomID string) (*models.Session, error)
	DeleteSession(ctx context.Context, roomID string) error

	// User -> room reverse index, one live entry per user.
	SetUserRoom(ctx context.Context, userID, roomID string) error
	GetUserRoom(ctx context.Context, userID string) (string, error)
	DeleteUserRoom(ctx context.Context, userID string) error

	// Result residency: the set of players still viewing a concluded
	// match. InitResidency creates the set exactly once and records the
	// reclaim deadline; it reports false when the room is already tracked.
	InitResidency(ctx context.Context, roomID string, userIDs []string, deadline time.Time) (bool, error)
	// RemoveResident removes one player and returns how many remain.
	// ok is false when the room is not tracked.
	RemoveResident(ctx context.Context, roomID, userID string) (remaining int, ok bool, err error)
	ResidencyExists(ctx context.Context, roomID string) (bool, error)
	DeleteResidency(ctx context.Context, roomID string) error

	// DueReclaims returns rooms whose reclaim deadline has passed. The
	// deadline index survives a process restart so timers can be
	// recomputed instead of lost.
	DueReclaims(ctx context.Context, now time.Time) ([]string, error)
}
