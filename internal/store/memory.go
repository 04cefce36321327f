package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gridrivals/backend/internal/models"
)

// MemoryStore is the single-process implementation used by tests and local
// development. One mutex covers everything, so every operation is trivially
// atomic with respect to every other.
type MemoryStore struct {
	mu        sync.Mutex
	queues    map[string][]models.QueueEntry // game type -> FIFO queue
	sessions  map[string][]byte              // room id -> session JSON
	userRooms map[string]string              // user id -> room id
	residents map[string]map[string]struct{} // room id -> residency set
	deadlines map[string]time.Time           // room id -> reclaim deadline
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		queues:    make(map[string][]models.QueueEntry),
		sessions:  make(map[string][]byte),
		userRooms: make(map[string]string),
		residents: make(map[string]map[string]struct{}),
		deadlines: make(map[string]time.Time),
	}
}

func (m *MemoryStore) Enqueue(ctx context.Context, gameType string, entry models.QueueEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(gameType, entry.UserID)
	m.queues[gameType] = append(m.queues[gameType], entry)
	return nil
}

func (m *MemoryStore) QueueLen(ctx context.Context, gameType string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queues[gameType]), nil
}

func (m *MemoryStore) DequeueUpTo(ctx context.Context, gameType string, n int) ([]models.QueueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	queue := m.queues[gameType]
	if n > len(queue) {
		n = len(queue)
	}
	if n <= 0 {
		return nil, nil
	}
	popped := make([]models.QueueEntry, n)
	copy(popped, queue[:n])
	m.queues[gameType] = append([]models.QueueEntry(nil), queue[n:]...)
	return popped, nil
}

func (m *MemoryStore) Requeue(ctx context.Context, gameType string, entries []models.QueueEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queues[gameType] = append(append([]models.QueueEntry(nil), entries...), m.queues[gameType]...)
	return nil
}

func (m *MemoryStore) RemoveQueued(ctx context.Context, gameType, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(gameType, userID), nil
}

func (m *MemoryStore) removeLocked(gameType, userID string) bool {
	queue := m.queues[gameType]
	for i, e := range queue {
		if e.UserID == userID {
			m.queues[gameType] = append(queue[:i:i], queue[i+1:]...)
			return true
		}
	}
	return false
}

func (m *MemoryStore) IsQueued(ctx context.Context, gameType, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.queues[gameType] {
		if e.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) PutSession(ctx context.Context, s *models.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.RoomID] = data
	return nil
}

func (m *MemoryStore) GetSession(ctx context.Context, roomID string) (*models.Session, error) {
	m.mu.Lock()
	data, exists := m.sessions[roomID]
	m.mu.Unlock()
	if !exists {
		return nil, ErrNotFound
	}
	var s models.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *MemoryStore) DeleteSession(ctx context.Context, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, roomID)
	return nil
}

func (m *MemoryStore) SetUserRoom(ctx context.Context, userID, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userRooms[userID] = roomID
	return nil
}

func (m *MemoryStore) GetUserRoom(ctx context.Context, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userRooms[userID], nil
}

func (m *MemoryStore) DeleteUserRoom(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.userRooms, userID)
	return nil
}

func (m *MemoryStore) InitResidency(ctx context.Context, roomID string, userIDs []string, deadline time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.residents[roomID]; exists {
		return false, nil
	}
	set := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		set[id] = struct{}{}
	}
	m.residents[roomID] = set
	m.deadlines[roomID] = deadline
	return true, nil
}

func (m *MemoryStore) RemoveResident(ctx context.Context, roomID, userID string) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, exists := m.residents[roomID]
	if !exists {
		return 0, false, nil
	}
	delete(set, userID)
	return len(set), true, nil
}

func (m *MemoryStore) ResidencyExists(ctx context.Context, roomID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.residents[roomID]
	return exists, nil
}

func (m *MemoryStore) DeleteResidency(ctx context.Context, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.residents, roomID)
	delete(m.deadlines, roomID)
	return nil
}

func (m *MemoryStore) DueReclaims(ctx context.Context, now time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var due []string
	for roomID, deadline := range m.deadlines {
		if !deadline.After(now) {
			due = append(due, roomID)
		}
	}
	return due, nil
}
