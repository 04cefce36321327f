package game

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gridrivals/backend/internal/models"
	"github.com/jmoiron/sqlx"
)

// Result describes a concluded match for the durable stats store.
type Result struct {
	RoomID   string
	GameType string
	WinnerID string // empty on draw
	Draw     bool
	Forfeit  bool
}

// StatsRecorder is the external statistics collaborator. Implementations
// must be safe to call concurrently; callers treat failures as non-fatal.
type StatsRecorder interface {
	RecordOutcome(ctx context.Context, players []models.Player, res Result) error
}

// SQLStats records outcomes into Postgres under a transaction: one atomic
// increment per player plus a match_history row.
type SQLStats struct {
	db *sqlx.DB
}

func NewSQLStats(db *sqlx.DB) *SQLStats {
	return &SQLStats{db: db}
}

func (s *SQLStats) RecordOutcome(ctx context.Context, players []models.Player, res Result) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, p := range players {
		wonInc, lostInc, drawnInc, forfeitInc := 0, 0, 0, 0
		switch {
		case res.Draw:
			drawnInc = 1
		case p.UserID == res.WinnerID:
			wonInc = 1
		default:
			lostInc = 1
			if res.Forfeit {
				forfeitInc = 1
			}
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO player_stats (user_id, display_name, games_played, games_won, games_lost, games_drawn, games_forfeited, updated_at)
			VALUES ($1, $2, 1, $3, $4, $5, $6, NOW())
			ON CONFLICT (user_id) DO UPDATE SET
				display_name = EXCLUDED.display_name,
				games_played = player_stats.games_played + 1,
				games_won = player_stats.games_won + $3,
				games_lost = player_stats.games_lost + $4,
				games_drawn = player_stats.games_drawn + $5,
				games_forfeited = player_stats.games_forfeited + $6,
				updated_at = NOW()
		`, p.UserID, p.DisplayName, wonInc, lostInc, drawnInc, forfeitInc); err != nil {
			return fmt.Errorf("upsert stats for %s: %w", p.UserID, err)
		}
	}

	var winner interface{}
	if res.WinnerID != "" {
		winner = res.WinnerID
	}
	var p2 interface{}
	if len(players) > 1 {
		p2 = players[1].UserID
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO match_history (room_id, game_type, player1_id, player2_id, winner_id, draw, forfeit, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (room_id) DO NOTHING
	`, res.RoomID, res.GameType, players[0].UserID, p2, winner, res.Draw, res.Forfeit); err != nil {
		return fmt.Errorf("insert match_history: %w", err)
	}

	return tx.Commit()
}

// GetPlayerStats returns the durable stats row for one user.
func (s *SQLStats) GetPlayerStats(ctx context.Context, userID string) (*models.PlayerStats, error) {
	var row models.PlayerStats
	err := s.db.GetContext(ctx, &row, `
		SELECT user_id, display_name, games_played, games_won, games_lost, games_drawn, games_forfeited, updated_at
		FROM player_stats WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// NopStats discards outcomes; used when no database is configured and by
// tests that don't care about the collaborator.
type NopStats struct{}

func (NopStats) RecordOutcome(ctx context.Context, players []models.Player, res Result) error {
	return nil
}

// recordOutcomeAsync fires the stats update without blocking the caller.
// Failures are logged, never propagated.
func recordOutcomeAsync(stats StatsRecorder, players []models.Player, res Result) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := stats.RecordOutcome(ctx, players, res); err != nil {
			log.Printf("[STATS] Failed to record outcome for room %s: %v", res.RoomID, err)
		}
	}()
}
