package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up

	"forexscalper/config"
	"forexscalper/internal/adapters/logger"
	"forexscalper/internal/adapters/marketdata"
	"forexscalper/internal/adapters/sqlite"
	"forexscalper/internal/app"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Trade Journal (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize trade journal")
		log.Fatalf("FATAL: Failed to initialize trade journal: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing trade journal")
		}
	}()

	// 4. Initialize Market Data Feed
	feed, err := marketdata.NewSimulatedFeed(marketdata.Config{
		Seed:   cfg.FeedSeed,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize market data feed")
		log.Fatalf("FATAL: Failed to initialize market data feed: %v", err)
	}
	appLogger.Info(context.Background(), "Market data feed initialized", map[string]interface{}{"seed": cfg.FeedSeed})

	// 5. Initialize Application Service
	tradingService, err := app.NewTradingService(cfg, appLogger, feed, repo)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize trading service")
		log.Fatalf("FATAL: Failed to initialize trading service: %v", err)
	}
	appLogger.Info(context.Background(), "Trading service initialized")

	// 6. Start the Service
	if err := tradingService.Start(context.Background()); err != nil {
		appLogger.Error(context.Background(), err, "Trading service exited with error")
		log.Fatalf("FATAL: Trading service exited with error: %v", err)
	}

	appLogger.Info(context.Background(), "Application finished gracefully.")
}
