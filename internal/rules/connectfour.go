package rules

import (
	"encoding/json"
	"fmt"

	"github.com/gridrivals/backend/internal/models"
)

const (
	c4Rows = 6
	c4Cols = 7
)

func init() {
	Register(&connectFour{}, "c4")
}

// connectFour is the four-in-a-row drop variant on a 6x7 grid. A move names
// a column; the piece settles on the lowest empty row of that column.
type connectFour struct{}

type c4State struct {
	Grid   [c4Rows][c4Cols]string `json:"grid"` // row 0 is the top
	Order  []string               `json:"order"`
	Turn   int                    `json:"turn"`
	Winner string                 `json:"winner,omitempty"`
	Draw   bool                   `json:"draw"`
	Over   bool                   `json:"over"`
}

type c4Move struct {
	Column *int `json:"column"`
}

func (g *connectFour) Key() string     { return "connectfour" }
func (g *connectFour) Name() string    { return "Connect Four" }
func (g *connectFour) MinPlayers() int { return 2 }
func (g *connectFour) MaxPlayers() int { return 2 }

func (g *connectFour) NewInitialState(players []models.Player) (json.RawMessage, error) {
	if len(players) != 2 {
		return nil, fmt.Errorf("connectfour: need exactly 2 players, got %d", len(players))
	}
	st := c4State{Order: []string{players[0].UserID, players[1].UserID}}
	return json.Marshal(st)
}

func (g *connectFour) decode(state json.RawMessage) (*c4State, error) {
	var st c4State
	if err := json.Unmarshal(state, &st); err != nil {
		return nil, fmt.Errorf("connectfour: corrupt state: %w", err)
	}
	return &st, nil
}

func (g *connectFour) decodeMove(move json.RawMessage) (int, error) {
	var m c4Move
	if err := json.Unmarshal(move, &m); err != nil || m.Column == nil {
		return 0, &Violation{Code: CodeInvalidTarget, Message: "move requires a column index"}
	}
	return *m.Column, nil
}

func (g *connectFour) ValidateMove(state json.RawMessage, userID string, move json.RawMessage) error {
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
	col, err := g.decodeMove(move)
	if err != nil {
		return err
	}
	if col < 0 || col >= c4Cols {
		return &Violation{Code: CodeInvalidTarget, Message: fmt.Sprintf("column %d out of range", col)}
	}
	if st.Grid[0][col] != "" {
		return &Violation{Code: CodeColumnFull, Message: fmt.Sprintf("column %d is full", col)}
	}
	return nil
}

func (g *connectFour) ApplyMove(state json.RawMessage, userID string, move json.RawMessage) (json.RawMessage, error) {
	if err := g.ValidateMove(state, userID, move); err != nil {
		return nil, err
	}
	st, err := g.decode(state)
	if err != nil {
		return nil, err
	}
	col, err := g.decodeMove(move)
	if err != nil {
		return nil, err
	}

	// Drop: lowest empty row wins the piece.
	for row := c4Rows - 1; row >= 0; row-- {
		if st.Grid[row][col] == "" {
			st.Grid[row][col] = userID
			break
		}
	}
	st.Turn = (st.Turn + 1) % len(st.Order)

	if winner := scanWinner(g.grid(st), 4); winner != "" {
		st.Winner = winner
		st.Over = true
	} else if gridFull(g.grid(st)) {
		st.Draw = true
		st.Over = true
	}

	return json.Marshal(st)
}

func (g *connectFour) CheckEnd(state json.RawMessage) (Outcome, error) {
	st, err := g.decode(state)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Finished: st.Over, WinnerID: st.Winner, IsDraw: st.Draw}, nil
}

func (g *connectFour) grid(st *c4State) [][]string {
	grid := make([][]string, c4Rows)
	for r := 0; r < c4Rows; r++ {
		grid[r] = st.Grid[r][:]
	}
	return grid
}
