package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"

	"ZoningHarvester/internal/app"
	"ZoningHarvester/internal/config"
	"ZoningHarvester/internal/logging"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	application := app.New(cfg, logger)

	start := time.Now()
	if err := application.Run(ctx); err != nil {
		logger.Error("harvest failed", "error", err)
		os.Exit(1)
	}
	logger.Info("harvest finished", "elapsed", time.Since(start).Round(time.Millisecond).String())
}
