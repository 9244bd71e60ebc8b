// main.go
package main

import (
	"context"
	"log"

	"nesterlify-api/cmd"
	"nesterlify-api/internal/data/repository"
	"nesterlify-api/internal/wire"
	"nesterlify-api/pkg/database"
	"nesterlify-api/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Fail fast on missing gateway/provider credentials
	if err := config.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	// Connect to Redis (optional: caching and webhook dedupe)
	cache, err := database.InitRedis(config.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, running without cache", zap.Error(err))
		cache = nil
	}

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)

	// Wire all dependencies
	app := wire.Wiring(repos, cache, config, logger)

	// Start payment poller
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	app.StartPoller(ctx)

	// Start server
	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))

	cmd.APIServer(app.Router, config.App.Port)
}
