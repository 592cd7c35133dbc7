package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/suhuf-hq/suhuf-ingest/internal/config"
	"github.com/suhuf-hq/suhuf-ingest/internal/ingest"
	"github.com/suhuf-hq/suhuf-ingest/internal/logger"
	"github.com/suhuf-hq/suhuf-ingest/internal/storage"
	"github.com/suhuf-hq/suhuf-ingest/pkg/providers"
)

// seed runs one initial population pass against an empty database and exits.
// Against a database that already holds articles it is a no-op.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	registry, err := providers.LoadRegistry(cfg.ProvidersFile, nil)
	if err != nil {
		return fmt.Errorf("load providers registry: %w", err)
	}

	syncer, err := ingest.NewSyncer(store, registry, ingest.Options{
		PageSize: cfg.SyncPageSize,
		Logger:   logger.Std{},
	})
	if err != nil {
		return fmt.Errorf("build syncer: %w", err)
	}

	result, err := syncer.InitialSeed(ctx)
	if err != nil {
		return fmt.Errorf("initial seed: %w", err)
	}

	logger.InfoObj("seed finished", "result", result)
	if !result.Success {
		return fmt.Errorf("seed completed with %d errors", result.ErrorCount())
	}
	return nil
}
