package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gridrivals/backend/internal/game"
)

// GetSession returns the session a room id resolves to
func GetSession(coord *game.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		gameType := c.Query("game_type")
		if gameType == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "game_type is required"})
			return
		}

		sess, err := coord.GetSession(c.Request.Context(), gameType, c.Param("room_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, sess)
	}
}

// SubmitMove applies the caller's move to a room
func SubmitMove(coord *game.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Move json.RawMessage `json:"move" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "move is required"})
			return
		}

		sess, err := coord.SubmitMove(c.Request.Context(), c.Param("room_id"), c.GetString("user_id"), req.Move)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, sess)
	}
}

// LeaveMatch forfeits the caller's active game
func LeaveMatch(coord *game.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := coord.LeaveMatch(c.Request.Context(), c.Param("room_id"), c.GetString("user_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, sess)
	}
}

// AckResult records that the caller has left the result screen
func AckResult(coord *game.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := coord.LeaveResult(c.Request.Context(), c.Param("room_id"), c.GetString("user_id")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"acknowledged": true})
	}
}
