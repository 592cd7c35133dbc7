package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/suhuf-hq/suhuf-ingest/internal/app"
	"github.com/suhuf-hq/suhuf-ingest/internal/config"
	"github.com/suhuf-hq/suhuf-ingest/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ingestd start failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if _, err := logger.Init(cfg.LogLevel); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("ingestd starting", "config", map[string]any{
		"app_name":      cfg.AppName,
		"env":           cfg.Env,
		"http_addr":     cfg.HTTPAddr,
		"sync_interval": cfg.SyncInterval.String(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ingestor, err := app.NewIngestor(ctx, cfg, logger.Std{})
	if err != nil {
		logger.ErrorObj("failed to initialize ingestor", "error", err.Error())
		return err
	}

	if err := ingestor.Run(ctx); err != nil {
		return fmt.Errorf("ingestor run: %w", err)
	}

	return nil
}
