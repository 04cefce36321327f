package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gridrivals/backend/internal/auth"
)

// IssueTicket hands out an anonymous player ticket. Clients may supply a
// previous user_id to keep their identity across page reloads.
func IssueTicket(issuer *auth.TicketIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			UserID      string `json:"user_id"`
			DisplayName string `json:"display_name"`
		}
		if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		userID := req.UserID
		if userID == "" {
			userID = generateUserID()
		}
		displayName := sanitizeDisplayName(req.DisplayName)

		ticket, err := issuer.Issue(userID, displayName)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"ticket":       ticket,
			"user_id":      userID,
			"display_name": displayName,
		})
	}
}

// RequireTicket authenticates requests with a bearer ticket and stores the
// caller's identity on the context. WebSocket upgrades can't set headers, so
// a ?ticket= query parameter is accepted too.
func RequireTicket(issuer *auth.TicketIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ticket := ""
		if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
			ticket = strings.TrimPrefix(header, "Bearer ")
		} else if q := c.Query("ticket"); q != "" {
			ticket = q
		}
		if ticket == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing ticket"})
			return
		}

		userID, displayName, err := issuer.Verify(ticket)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired ticket"})
			return
		}
		c.Set("user_id", userID)
		c.Set("display_name", displayName)
		c.Next()
	}
}
