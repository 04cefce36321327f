package rules

import (
	"encoding/json"
	"fmt"

	"github.com/gridrivals/backend/internal/models"
)

func init() {
	Register(&ticTacToe{}, "ttt")
}

// ticTacToe is the three-in-a-row variant on a 3x3 grid. Cells are addressed
// 0..8 row-major. The first listed player moves first.
type ticTacToe struct{}

type tttState struct {
	Cells  [9]string `json:"cells"` // owning user id, "" when empty
	Order  []string  `json:"order"` // turn order by user id
	Turn   int       `json:"turn"`  // index into Order
	Winner string    `json:"winner,omitempty"`
	Draw   bool      `json:"draw"`
	Over   bool      `json:"over"`
}

type tttMove struct {
	Cell *int `json:"cell"`
}

func (g *ticTacToe) Key() string     { return "tictactoe" }
func (g *ticTacToe) Name() string    { return "Tic-Tac-Toe" }
func (g *ticTacToe) MinPlayers() int { return 2 }
func (g *ticTacToe) MaxPlayers() int { return 2 }

func (g *ticTacToe) NewInitialState(players []models.Player) (json.RawMessage, error) {
	if len(players) != 2 {
		return nil, fmt.Errorf("tictactoe: need exactly 2 players, got %d", len(players))
	}
	st := tttState{Order: []string{players[0].UserID, players[1].UserID}}
	return json.Marshal(st)
}

func (g *ticTacToe) decode(state json.RawMessage) (*tttState, error) {
	var st tttState
	if err := json.Unmarshal(state, &st); err != nil {
		return nil, fmt.Errorf("tictactoe: corrupt state: %w", err)
	}
	return &st, nil
}

func (g *ticTacToe) decodeMove(move json.RawMessage) (int, error) {
	var m tttMove
	if err := json.Unmarshal(move, &m); err != nil || m.Cell == nil {
		return 0, &Violation{Code: CodeInvalidTarget, Message: "move requires a cell index"}
	}
	return *m.Cell, nil
}

func (g *ticTacToe) ValidateMove(state json.RawMessage, userID string, move json.RawMessage) error {
	st, err := g.decode(state)
	if err != nil {
		return err
	}
	if st.Over {
		return errGameFinished()
	}
	if st.Order[st.Turn] != userID {
		return errNotYourTurn()
	}
	cell, err := g.decodeMove(move)
	if err != nil {
		return err
	}
	if cell < 0 || cell > 8 {
		return &Violation{Code: CodeInvalidTarget, Message: fmt.Sprintf("cell %d out of range", cell)}
	}
	if st.Cells[cell] != "" {
		return &Violation{Code: CodeCellOccupied, Message: fmt.Sprintf("cell %d is occupied", cell)}
	}
	return nil
}

func (g *ticTacToe) ApplyMove(state json.RawMessage, userID string, move json.RawMessage) (json.RawMessage, error) {
	if err := g.ValidateMove(state, userID, move); err != nil {
		return nil, err
	}
	st, err := g.decode(state)
	if err != nil {
		return nil, err
	}
	cell, err := g.decodeMove(move)
	if err != nil {
		return nil, err
	}

	st.Cells[cell] = userID
	st.Turn = (st.Turn + 1) % len(st.Order)

	// Outcome is embedded in the same transition that ends the game.
	if winner := scanWinner(g.grid(st), 3); winner != "" {
		st.Winner = winner
		st.Over = true
	} else if gridFull(g.grid(st)) {
		st.Draw = true
		st.Over = true
	}

	return json.Marshal(st)
}

func (g *ticTacToe) CheckEnd(state json.RawMessage) (Outcome, error) {
	st, err := g.decode(state)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Finished: st.Over, WinnerID: st.Winner, IsDraw: st.Draw}, nil
}

func (g *ticTacToe) grid(st *tttState) [][]string {
	grid := make([][]string, 3)
	for r := 0; r < 3; r++ {
		grid[r] = st.Cells[r*3 : r*3+3]
	}
	return grid
}
