package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gridrivals/backend/internal/models"
)

func entry(userID string) models.QueueEntry {
	return models.QueueEntry{UserID: userID, DisplayName: userID, JoinedAt: time.Now()}
}

func TestQueueFIFOAndDedup(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	s.Enqueue(ctx, "tictactoe", entry("a"))
	s.Enqueue(ctx, "tictactoe", entry("b"))
	s.Enqueue(ctx, "tictactoe", entry("c"))
	// Re-enqueue of "a" supersedes the old entry and moves it to the back.
	s.Enqueue(ctx, "tictactoe", entry("a"))

	if n, _ := s.QueueLen(ctx, "tictactoe"); n != 3 {
		t.Fatalf("expected 3 entries after dedup, got %d", n)
	}

	popped, err := s.DequeueUpTo(ctx, "tictactoe", 2)
	if err != nil {
		t.Fatalf("DequeueUpTo: %v", err)
	}
	if len(popped) != 2 || popped[0].UserID != "b" || popped[1].UserID != "c" {
		t.Errorf("expected [b c], got %v", popped)
	}
}

func TestRequeueRestoresOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	s.Enqueue(ctx, "tictactoe", entry("a"))
	s.Enqueue(ctx, "tictactoe", entry("b"))
	s.Enqueue(ctx, "tictactoe", entry("c"))

	popped, _ := s.DequeueUpTo(ctx, "tictactoe", 2)
	if err := s.Requeue(ctx, "tictactoe", popped); err != nil {
		t.Fatalf("Requeue: %v", err)
	}

	all, _ := s.DequeueUpTo(ctx, "tictactoe", 3)
	got := []string{all[0].UserID, all[1].UserID, all[2].UserID}
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("FIFO order not restored: got %v want %v", got, want)
		}
	}
}

func TestRemoveQueued(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	s.Enqueue(ctx, "connectfour", entry("a"))
	removed, _ := s.RemoveQueued(ctx, "connectfour", "a")
	if !removed {
		t.Error("expected removal of queued entry")
	}
	removed, _ = s.RemoveQueued(ctx, "connectfour", "a")
	if removed {
		t.Error("second removal should report false")
	}
	if queued, _ := s.IsQueued(ctx, "connectfour", "a"); queued {
		t.Error("removed entry still reported as queued")
	}
}

// Concurrent dequeuers must never observe the same entry twice, and no entry
// may be lost.
func TestDequeueUpToAtomicUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	const total = 200
	for i := 0; i < total; i++ {
		s.Enqueue(ctx, "tictactoe", entry(fmt.Sprintf("u%03d", i)))
	}

	var mu sync.Mutex
	seen := make(map[string]int)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				popped, err := s.DequeueUpTo(ctx, "tictactoe", 2)
				if err != nil {
					t.Errorf("DequeueUpTo: %v", err)
					return
				}
				if len(popped) == 0 {
					return
				}
				mu.Lock()
				for _, e := range popped {
					seen[e.UserID]++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != total {
		t.Errorf("expected %d distinct entries, got %d", total, len(seen))
	}
	for id, count := range seen {
		if count != 1 {
			t.Errorf("entry %s dequeued %d times", id, count)
		}
	}
}

func TestSessionAndIndexRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	sess := &models.Session{
		RoomID:   "ttt_0001",
		GameType: "tictactoe",
		Players: []models.Player{
			{UserID: "a", DisplayName: "A"},
			{UserID: "b", DisplayName: "B"},
		},
		GameState: []byte(`{"turn":0}`),
		Status:    models.StatusActive,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.PutSession(ctx, sess); err != nil {
		t.Fatalf("PutSession: %v", err)
	}

	got, err := s.GetSession(ctx, "ttt_0001")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.GameType != "tictactoe" || len(got.Players) != 2 || got.Status != models.StatusActive {
		t.Errorf("session did not round-trip: %+v", got)
	}

	if _, err := s.GetSession(ctx, "ttt_missing"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	s.SetUserRoom(ctx, "a", "ttt_0001")
	if roomID, _ := s.GetUserRoom(ctx, "a"); roomID != "ttt_0001" {
		t.Errorf("index lookup returned %q", roomID)
	}
	s.DeleteUserRoom(ctx, "a")
	if roomID, _ := s.GetUserRoom(ctx, "a"); roomID != "" {
		t.Errorf("deleted index still resolves to %q", roomID)
	}
}

func TestResidencyLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	deadline := time.Now().Add(time.Minute)

	created, err := s.InitResidency(ctx, "ttt_0001", []string{"a", "b"}, deadline)
	if err != nil || !created {
		t.Fatalf("InitResidency: created=%v err=%v", created, err)
	}
	// Double-initialization is refused.
	created, _ = s.InitResidency(ctx, "ttt_0001", []string{"a", "b"}, deadline)
	if created {
		t.Error("second InitResidency should report already tracked")
	}

	remaining, ok, _ := s.RemoveResident(ctx, "ttt_0001", "a")
	if !ok || remaining != 1 {
		t.Errorf("expected remaining=1 ok=true, got remaining=%d ok=%v", remaining, ok)
	}
	remaining, ok, _ = s.RemoveResident(ctx, "ttt_0001", "b")
	if !ok || remaining != 0 {
		t.Errorf("expected remaining=0 ok=true, got remaining=%d ok=%v", remaining, ok)
	}

	s.DeleteResidency(ctx, "ttt_0001")
	if _, ok, _ := s.RemoveResident(ctx, "ttt_0001", "a"); ok {
		t.Error("RemoveResident on reclaimed room should report not tracked")
	}
	if exists, _ := s.ResidencyExists(ctx, "ttt_0001"); exists {
		t.Error("residency should be gone after delete")
	}
}

func TestDueReclaims(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now()

	s.InitResidency(ctx, "ttt_old", []string{"a", "b"}, now.Add(-time.Second))
	s.InitResidency(ctx, "ttt_new", []string{"c", "d"}, now.Add(time.Hour))

	due, err := s.DueReclaims(ctx, now)
	if err != nil {
		t.Fatalf("DueReclaims: %v", err)
	}
	if len(due) != 1 || due[0] != "ttt_old" {
		t.Errorf("expected [ttt_old], got %v", due)
	}
}
