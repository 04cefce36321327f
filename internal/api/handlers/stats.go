package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gridrivals/backend/internal/game"
)

// GetPlayerStats returns the durable win/loss record for one player
func GetPlayerStats(stats *game.SQLStats) gin.HandlerFunc {
	return func(c *gin.Context) {
		row, err := stats.GetPlayerStats(c.Request.Context(), c.Param("user_id"))
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no stats for player"})
			return
		}
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, row)
	}
}
