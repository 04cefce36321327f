package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/gridrivals/backend/internal/models"
)

var tttPlayers = []models.Player{
	{UserID: "alice", DisplayName: "Alice"},
	{UserID: "bob", DisplayName: "Bob"},
}

func tttEngine(t *testing.T) Engine {
	t.Helper()
	e, ok := Get("tictactoe")
	if !ok {
		t.Fatal("tictactoe engine not registered")
	}
	return e
}

func cellMove(cell int) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"cell":%d}`, cell))
}

func TestTicTacToeRowWin(t *testing.T) {
	e := tttEngine(t)
	state, err := e.NewInitialState(tttPlayers)
	if err != nil {
		t.Fatalf("NewInitialState: %v", err)
	}

	// alice: 0, bob: 4, alice: 1, bob: 8, alice: 2 -> row 0 is alice's
	moves := []struct {
		user string
		cell int
	}{
		{"alice", 0}, {"bob", 4}, {"alice", 1}, {"bob", 8}, {"alice", 2},
	}
	for i, m := range moves {
		state, err = e.ApplyMove(state, m.user, cellMove(m.cell))
		if err != nil {
			t.Fatalf("move %d (%s -> %d): %v", i, m.user, m.cell, err)
		}
	}

	out, err := e.CheckEnd(state)
	if err != nil {
		t.Fatalf("CheckEnd: %v", err)
	}
	if !out.Finished || out.WinnerID != "alice" || out.IsDraw {
		t.Errorf("expected alice to win, got %+v", out)
	}
}

func TestTicTacToeColumnAndDiagonalWins(t *testing.T) {
	e := tttEngine(t)

	cases := []struct {
		name  string
		cells []int // alternating alice, bob
		want  string
	}{
		{"column", []int{0, 1, 3, 2, 6}, "alice"},        // alice 0,3,6
		{"diagonal", []int{0, 1, 4, 2, 8}, "alice"},      // alice 0,4,8
		{"anti-diagonal", []int{2, 1, 4, 3, 6}, "alice"}, // alice 2,4,6
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			state, err := e.NewInitialState(tttPlayers)
			if err != nil {
				t.Fatalf("NewInitialState: %v", err)
			}
			users := []string{"alice", "bob"}
			for i, cell := range tc.cells {
				state, err = e.ApplyMove(state, users[i%2], cellMove(cell))
				if err != nil {
					t.Fatalf("move %d: %v", i, err)
				}
			}
			out, _ := e.CheckEnd(state)
			if !out.Finished || out.WinnerID != tc.want {
				t.Errorf("expected winner %s, got %+v", tc.want, out)
			}
		})
	}
}

func TestTicTacToeDraw(t *testing.T) {
	e := tttEngine(t)
	state, err := e.NewInitialState(tttPlayers)
	if err != nil {
		t.Fatalf("NewInitialState: %v", err)
	}

	// a b a
	// a b b
	// b a a  -> full board, no line
	seq := []struct {
		user string
		cell int
	}{
		{"alice", 0}, {"bob", 1}, {"alice", 2},
		{"bob", 4}, {"alice", 3}, {"bob", 5},
		{"alice", 7}, {"bob", 6}, {"alice", 8},
	}
	for i, m := range seq {
		state, err = e.ApplyMove(state, m.user, cellMove(m.cell))
		if err != nil {
			t.Fatalf("move %d: %v", i, err)
		}
	}

	out, _ := e.CheckEnd(state)
	if !out.Finished || !out.IsDraw || out.WinnerID != "" {
		t.Errorf("expected draw, got %+v", out)
	}
}

func TestTicTacToeRejections(t *testing.T) {
	e := tttEngine(t)
	state, _ := e.NewInitialState(tttPlayers)

	// bob moving first is not his turn
	if err := e.ValidateMove(state, "bob", cellMove(0)); violationCode(err) != CodeNotYourTurn {
		t.Errorf("expected not_your_turn, got %v", err)
	}

	state, err := e.ApplyMove(state, "alice", cellMove(0))
	if err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}

	if err := e.ValidateMove(state, "bob", cellMove(0)); violationCode(err) != CodeCellOccupied {
		t.Errorf("expected cell_occupied, got %v", err)
	}
	if err := e.ValidateMove(state, "bob", cellMove(9)); violationCode(err) != CodeInvalidTarget {
		t.Errorf("expected invalid_target, got %v", err)
	}
	if err := e.ValidateMove(state, "bob", json.RawMessage(`{"column":1}`)); violationCode(err) != CodeInvalidTarget {
		t.Errorf("expected invalid_target for wrong payload shape, got %v", err)
	}
}

func TestTicTacToeValidateDoesNotMutate(t *testing.T) {
	e := tttEngine(t)
	state, _ := e.NewInitialState(tttPlayers)

	before := append(json.RawMessage(nil), state...)
	_ = e.ValidateMove(state, "bob", cellMove(0)) // rejected: not bob's turn
	if !bytes.Equal(before, state) {
		t.Error("ValidateMove mutated state on rejection")
	}

	if _, err := e.ApplyMove(state, "bob", cellMove(0)); err == nil {
		t.Fatal("expected rejection")
	}
	if !bytes.Equal(before, state) {
		t.Error("rejected ApplyMove mutated the original state")
	}
}

func TestTicTacToeMoveAfterFinish(t *testing.T) {
	e := tttEngine(t)
	state, _ := e.NewInitialState(tttPlayers)
	seq := []struct {
		user string
		cell int
	}{
		{"alice", 0}, {"bob", 4}, {"alice", 1}, {"bob", 8}, {"alice", 2},
	}
	var err error
	for _, m := range seq {
		state, err = e.ApplyMove(state, m.user, cellMove(m.cell))
		if err != nil {
			t.Fatalf("setup move: %v", err)
		}
	}

	if err := e.ValidateMove(state, "bob", cellMove(3)); violationCode(err) != CodeGameFinished {
		t.Errorf("expected game_finished, got %v", err)
	}
}

func violationCode(err error) string {
	if v, ok := err.(*Violation); ok {
		return v.Code
	}
	return ""
}
