package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/agenthands/clustercheck/internal/app"
	"github.com/agenthands/clustercheck/internal/config"
	"github.com/agenthands/clustercheck/internal/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using defaults")
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		log.Fatalf("Invalid environment: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	input := os.Getenv("CLUSTERCHECK_INPUT")
	if len(os.Args) > 1 {
		input = os.Args[1]
	}
	if input == "" {
		logger.Fatal("no input clustering; pass a path or set CLUSTERCHECK_INPUT")
	}

	ctx := context.Background()
	a, err := app.Start(ctx, cfg, input, os.Getenv("CLUSTERCHECK_RESUME"), logger)
	if err != nil {
		logger.Fatal("failed to start session", zap.Error(err))
	}
	defer a.Close(ctx)

	if err := a.Serve(); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
