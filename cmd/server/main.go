package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/gridrivals/backend/internal/api"
	"github.com/gridrivals/backend/internal/auth"
	"github.com/gridrivals/backend/internal/config"
	"github.com/gridrivals/backend/internal/database"
	"github.com/gridrivals/backend/internal/game"
	"github.com/gridrivals/backend/internal/migrations"
	"github.com/gridrivals/backend/internal/redis"
	"github.com/gridrivals/backend/internal/store"
	"github.com/gridrivals/backend/internal/ws"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	// Postgres holds durable stats only; the engine state lives in Redis.
	var stats *game.SQLStats
	var recorder game.StatsRecorder = game.NopStats{}
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Printf("[DB] Postgres unavailable, stats disabled: %v", err)
	} else {
		defer db.Close()

		if os.Getenv("MIGRATE_ON_START") == "true" {
			log.Println("↗ Running DB migrations on startup...")
			if err := migrations.RunMigrations(cfg.DatabaseURL); err != nil {
				log.Fatalf("Failed to run migrations: %v", err)
			}
		}

		stats = game.NewSQLStats(db)
		recorder = stats
	}

	rdb, err := redis.Connect(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	st := store.NewRedisStore(rdb)
	events := game.NewRedisPublisher(rdb)
	resultTTL := time.Duration(cfg.ResultTTLSeconds) * time.Second
	coord := game.NewCoordinator(st, recorder, events, resultTTL)

	// The sweeper reclaims finished rooms whose deadline survived a restart.
	ctx := context.Background()
	coord.Tracker().StartSweeper(ctx, time.Duration(cfg.ReclaimSweepSeconds)*time.Second)

	// Relay session events to connected WebSocket clients.
	ws.StartEventSubscriber(ctx, rdb)

	issuer := auth.NewTicketIssuer(cfg.JWTSecret, time.Duration(cfg.TicketTTLMinutes)*time.Minute)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	api.SetupRoutes(router, coord, stats, issuer, cfg)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting GridRivals server on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
