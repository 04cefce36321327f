package game

import (
	"context"
	"testing"
	"time"

	"github.com/gridrivals/backend/internal/store"
)

func TestReclaimTimerFires(t *testing.T) {
	c, st := newTestCoordinator(50 * time.Millisecond)
	ctx := context.Background()

	roomID := mustMatchPair(t, c, "tictactoe", "alice", "bob")
	if _, err := c.LeaveMatch(ctx, roomID, "alice"); err != nil {
		t.Fatalf("LeaveMatch: %v", err)
	}

	// Nobody acknowledges; the timer must reclaim the room on its own.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := st.GetSession(ctx, roomID); err == store.ErrNotFound {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("room was not reclaimed after the residency timeout")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if room, err := st.GetUserRoom(ctx, "alice"); err != nil || room != "" {
		t.Fatalf("alice's index should be purged, got %q err=%v", room, err)
	}
	if tracked, _ := st.ResidencyExists(ctx, roomID); tracked {
		t.Fatal("residency should be gone after reclaim")
	}
}

func TestTrackIsIdempotent(t *testing.T) {
	st := store.NewMemoryStore()
	tr := NewResidencyTracker(st, NopPublisher{}, time.Minute)
	ctx := context.Background()

	if err := tr.Track(ctx, "ttt_deadbeef00000000", []string{"alice", "bob"}); err != nil {
		t.Fatalf("Track: %v", err)
	}
	if err := tr.Track(ctx, "ttt_deadbeef00000000", []string{"alice", "bob"}); err != nil {
		t.Fatalf("repeat Track: %v", err)
	}

	// One ack must still leave the room tracked: the repeat Track may not
	// have reset the resident set.
	remaining, ok, err := st.RemoveResident(ctx, "ttt_deadbeef00000000", "alice")
	if err != nil || !ok || remaining != 1 {
		t.Fatalf("expected one remaining resident, got remaining=%d ok=%v err=%v", remaining, ok, err)
	}
}

func TestAcknowledgeUntrackedRoomIsNoop(t *testing.T) {
	st := store.NewMemoryStore()
	tr := NewResidencyTracker(st, NopPublisher{}, time.Minute)

	if err := tr.Acknowledge(context.Background(), "ttt_0000000000000000", "alice"); err != nil {
		t.Fatalf("ack of untracked room should be a no-op, got %v", err)
	}
}

func TestSweeperRecoversPersistedDeadlines(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := store.NewMemoryStore()

	// Simulate a restart: the deadline is persisted but no in-process
	// timer exists because the tracker is brand new.
	if _, err := st.InitResidency(ctx, "ttt_cafecafe00000000", []string{"alice", "bob"}, time.Now().Add(-time.Second)); err != nil {
		t.Fatalf("InitResidency: %v", err)
	}

	tr := NewResidencyTracker(st, NopPublisher{}, time.Minute)
	tr.StartSweeper(ctx, 20*time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for {
		tracked, err := st.ResidencyExists(ctx, "ttt_cafecafe00000000")
		if err != nil {
			t.Fatalf("ResidencyExists: %v", err)
		}
		if !tracked {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("sweeper did not reclaim the overdue room")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
