package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gridrivals/backend/internal/game"
	"github.com/gridrivals/backend/internal/rules"
)

// respondError maps engine errors to HTTP. Rule violations carry their
// stable code so clients can branch without parsing messages.
func respondError(c *gin.Context, err error) {
	var viol *rules.Violation
	switch {
	case errors.As(err, &viol):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": viol.Message, "code": viol.Code})
	case errors.Is(err, game.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, game.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, game.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Printf("[API] Internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
