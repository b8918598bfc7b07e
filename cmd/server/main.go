package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/grovemarket/search-service/pkg/logger"

	"github.com/grovemarket/search-service/internal/app"
	"github.com/grovemarket/search-service/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("search-service", "error").Error("load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.ServiceName, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}

	if err := a.Run(ctx); err != nil {
		log.Error("service exited with error", "error", err)
		os.Exit(1)
	}
}
