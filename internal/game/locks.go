package game

import "sync"

// roomLocks provides per-room mutual exclusion for the read-validate-apply-
// persist sequence of move handling. The scope is one room, not the whole
// engine; locks are dropped from the map once unreferenced.
type roomLocks struct {
	mu    sync.Mutex
	locks map[string]*roomLock
}

type roomLock struct {
	mu   sync.Mutex
	refs int
}

func newRoomLocks() *roomLocks {
	return &roomLocks{locks: make(map[string]*roomLock)}
}

// Lock acquires the lock for roomID and returns its release function.
func (r *roomLocks) Lock(roomID string) func() {
	r.mu.Lock()
	l, exists := r.locks[roomID]
	if !exists {
		l = &roomLock{}
		r.locks[roomID] = l
	}
	l.refs++
	r.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, roomID)
		}
		r.mu.Unlock()
	}
}
