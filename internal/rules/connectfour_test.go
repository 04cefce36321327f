package rules

import (
	"encoding/json"
	"fmt"
	"testing"
)

func c4EngineUnderTest(t *testing.T) Engine {
	t.Helper()
	e, ok := Get("connectfour")
	if !ok {
		t.Fatal("connectfour engine not registered")
	}
	return e
}

func colMove(col int) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"column":%d}`, col))
}

func TestConnectFourVerticalWin(t *testing.T) {
	e := c4EngineUnderTest(t)
	state, err := e.NewInitialState(tttPlayers)
	if err != nil {
		t.Fatalf("NewInitialState: %v", err)
	}

	// alice stacks column 0, bob wastes moves in column 1
	users := []string{"alice", "bob"}
	cols := []int{0, 1, 0, 1, 0, 1, 0}
	for i, c := range cols {
		state, err = e.ApplyMove(state, users[i%2], colMove(c))
		if err != nil {
			t.Fatalf("move %d: %v", i, err)
		}
	}

	out, _ := e.CheckEnd(state)
	if !out.Finished || out.WinnerID != "alice" {
		t.Errorf("expected alice vertical win, got %+v", out)
	}
}

func TestConnectFourHorizontalWin(t *testing.T) {
	e := c4EngineUnderTest(t)
	state, err := e.NewInitialState(tttPlayers)
	if err != nil {
		t.Fatalf("NewInitialState: %v", err)
	}

	users := []string{"alice", "bob"}
	cols := []int{0, 0, 1, 1, 2, 2, 3}
	for i, c := range cols {
		state, err = e.ApplyMove(state, users[i%2], colMove(c))
		if err != nil {
			t.Fatalf("move %d: %v", i, err)
		}
	}

	out, _ := e.CheckEnd(state)
	if !out.Finished || out.WinnerID != "alice" {
		t.Errorf("expected alice horizontal win, got %+v", out)
	}
}

func TestConnectFourDiagonalWin(t *testing.T) {
	e := c4EngineUnderTest(t)
	state, err := e.NewInitialState(tttPlayers)
	if err != nil {
		t.Fatalf("NewInitialState: %v", err)
	}

	// Build an ascending diagonal for alice:
	// a@0 row5, a@1 row4 (on bob's piece), a@2 row3, a@3 row2
	moves := []struct {
		user string
		col  int
	}{
		{"alice", 0},
		{"bob", 1}, {"alice", 1},
		{"bob", 2}, {"alice", 3}, {"bob", 2}, {"alice", 2},
		{"bob", 3}, {"alice", 4}, {"bob", 3}, {"alice", 3},
	}
	for i, m := range moves {
		state, err = e.ApplyMove(state, m.user, colMove(m.col))
		if err != nil {
			t.Fatalf("move %d: %v", i, err)
		}
	}

	out, _ := e.CheckEnd(state)
	if !out.Finished || out.WinnerID != "alice" {
		t.Errorf("expected alice diagonal win, got %+v", out)
	}
}

func TestConnectFourColumnFull(t *testing.T) {
	e := c4EngineUnderTest(t)
	state, err := e.NewInitialState(tttPlayers)
	if err != nil {
		t.Fatalf("NewInitialState: %v", err)
	}

	users := []string{"alice", "bob"}
	for i := 0; i < 6; i++ {
		state, err = e.ApplyMove(state, users[i%2], colMove(3))
		if err != nil {
			t.Fatalf("fill move %d: %v", i, err)
		}
	}

	if err := e.ValidateMove(state, "alice", colMove(3)); violationCode(err) != CodeColumnFull {
		t.Errorf("expected column_full, got %v", err)
	}
	if err := e.ValidateMove(state, "alice", colMove(7)); violationCode(err) != CodeInvalidTarget {
		t.Errorf("expected invalid_target, got %v", err)
	}
}

func TestConnectFourTurnOrder(t *testing.T) {
	e := c4EngineUnderTest(t)
	state, _ := e.NewInitialState(tttPlayers)

	if err := e.ValidateMove(state, "bob", colMove(0)); violationCode(err) != CodeNotYourTurn {
		t.Errorf("expected not_your_turn for bob opening, got %v", err)
	}

	state, err := e.ApplyMove(state, "alice", colMove(0))
	if err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}
	if err := e.ValidateMove(state, "alice", colMove(1)); violationCode(err) != CodeNotYourTurn {
		t.Errorf("expected not_your_turn for alice moving twice, got %v", err)
	}
}

func TestRoomIDRoundTrip(t *testing.T) {
	for _, gameType := range []string{"tictactoe", "connectfour"} {
		roomID, err := NewRoomID(gameType)
		if err != nil {
			t.Fatalf("NewRoomID(%s): %v", gameType, err)
		}
		e, ok := EngineForRoom(roomID)
		if !ok {
			t.Fatalf("EngineForRoom(%s) did not resolve", roomID)
		}
		if e.Key() != gameType {
			t.Errorf("room %s resolved to %s, want %s", roomID, e.Key(), gameType)
		}
	}

	if _, ok := EngineForRoom("bogus_deadbeef"); ok {
		t.Error("unknown prefix should not resolve")
	}
	if _, err := NewRoomID("chess"); err == nil {
		t.Error("unknown game type should fail")
	}
}
