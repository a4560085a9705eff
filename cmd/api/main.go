// server/cmd/api/main.go
package main

import (
	"context"
	"log"
	"time"

	"freight-exchange-api-server/config"
	"freight-exchange-api-server/internal/api/routes"
	"freight-exchange-api-server/internal/database"
	"freight-exchange-api-server/internal/matching"
	"freight-exchange-api-server/internal/notify"
	"freight-exchange-api-server/internal/routing"
	"freight-exchange-api-server/internal/s3"
	"freight-exchange-api-server/internal/socket"
	"freight-exchange-api-server/internal/storage"
	"freight-exchange-api-server/internal/tracking"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// 1. Load environment and configuration
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}
	cfg, err := config.LoadConfig("./config")
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}
	if cfg.Server.GinMode != "" {
		gin.SetMode(cfg.Server.GinMode)
	}

	// 2. Mongo: connection, indexes, seed data
	db, err := database.Connect(cfg.Mongo)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	store := storage.NewMongo(db)
	if err := store.EnsureIndexes(context.Background()); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}
	if err := database.SeedAdmin(db); err != nil {
		log.Fatalf("Failed to seed admin: %v", err)
	}
	if err := database.SeedCatalog(db); err != nil {
		log.Fatalf("Failed to seed route catalog: %v", err)
	}

	// 3. Redis backs the GPS trail; fall back to memory when unreachable
	var trail tracking.Store
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Printf("Redis unreachable (%v), GPS trails will not survive restarts", err)
		trail = tracking.NewMemoryTrail()
	} else {
		trail = tracking.NewRedisTrail(redisClient)
	}
	cancel()

	// 4. S3 uploader for proof photos
	s3Uploader, err := s3.NewUploader(cfg.S3)
	if err != nil {
		log.Fatalf("Failed to initialize S3 uploader: %v", err)
	}

	// 5. Live push hub, notification dispatcher, matching engine
	wsHub := socket.NewHub()
	dispatcher := notify.NewDispatcher(store, wsHub)
	routeEngine := routing.NewEngine(store)
	engine := matching.NewEngine(store, routeEngine, dispatcher, cfg.Platform.CommissionPct, cfg.Platform.Currency)

	// 6. Router
	router := routes.SetupRouter(cfg, engine, routeEngine, store, store, s3Uploader, trail, wsHub)

	// 7. Start server
	log.Printf("Starting API server on port %s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
