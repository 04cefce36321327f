package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/gridrivals/backend/internal/api/handlers"
	"github.com/gridrivals/backend/internal/auth"
	"github.com/gridrivals/backend/internal/config"
	"github.com/gridrivals/backend/internal/game"
	"github.com/gridrivals/backend/internal/ws"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, coord *game.Coordinator, stats *game.SQLStats, issuer *auth.TicketIssuer, cfg *config.Config) {
	// CORS middleware for the browser client
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] Aggressive no-cache headers enabled for all routes")
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)
		v1.POST("/auth/ticket", handlers.IssueTicket(issuer))

		v1.GET("/games", handlers.ListGames(coord))
		v1.GET("/games/queues", handlers.GetQueueLengths(coord))

		authed := v1.Group("", handlers.RequireTicket(issuer))
		{
			match := authed.Group("/match")
			{
				match.POST("/request", handlers.RequestMatch(coord))
				match.POST("/cancel", handlers.CancelMatch(coord))
				match.GET("/status", handlers.MatchStatus(coord))
			}

			session := authed.Group("/session")
			{
				session.GET("/:room_id", handlers.GetSession(coord))
				session.POST("/:room_id/move", handlers.SubmitMove(coord))
				session.POST("/:room_id/leave", handlers.LeaveMatch(coord))
				session.POST("/:room_id/result/ack", handlers.AckResult(coord))
				session.GET("/:room_id/ws", ws.HandleSessionWS)
			}
		}

		if stats != nil {
			v1.GET("/player/:user_id/stats", handlers.GetPlayerStats(stats))
		}
	}
}
