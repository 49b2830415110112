package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/adradar-hq/ad-radar/internal/app"
	"github.com/adradar-hq/ad-radar/internal/config"
	"github.com/adradar-hq/ad-radar/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "radar start failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	log.InfoObj("radar starting", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	radar, err := app.New(ctx, cfg, log)
	if err != nil {
		log.ErrorObj("failed to initialize radar", "error", err)
		return err
	}

	if err := radar.Run(ctx); err != nil {
		return fmt.Errorf("radar run: %w", err)
	}

	return nil
}
