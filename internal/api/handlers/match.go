package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gridrivals/backend/internal/game"
)

// ListGames returns the supported game variants
func ListGames(coord *game.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"games": coord.ListGames()})
	}
}

// GetQueueLengths returns the number of waiting players per game type
func GetQueueLengths(coord *game.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		lengths, err := coord.QueueLengths(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"queues": lengths})
	}
}

// RequestMatch puts the caller into matchmaking for a game type
func RequestMatch(coord *game.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			GameType string `json:"game_type" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "game_type is required"})
			return
		}

		res, err := coord.RequestMatch(c.Request.Context(), req.GameType, c.GetString("user_id"), c.GetString("display_name"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// CancelMatch withdraws the caller from the queue
func CancelMatch(coord *game.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			GameType string `json:"game_type" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "game_type is required"})
			return
		}

		if err := coord.CancelMatchmaking(c.Request.Context(), req.GameType, c.GetString("user_id")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"cancelled": true})
	}
}

// MatchStatus reports whether the caller is matched or still waiting
func MatchStatus(coord *game.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		gameType := c.Query("game_type")
		if gameType == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "game_type is required"})
			return
		}

		status, err := coord.PollMatchStatus(c.Request.Context(), gameType, c.GetString("user_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, status)
	}
}
