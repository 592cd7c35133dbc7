package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/suhuf-hq/suhuf-ingest/internal/config"
	"github.com/suhuf-hq/suhuf-ingest/internal/ingest"
	"github.com/suhuf-hq/suhuf-ingest/internal/logger"
	"github.com/suhuf-hq/suhuf-ingest/internal/runlog"
	"github.com/suhuf-hq/suhuf-ingest/internal/scrape"
	"github.com/suhuf-hq/suhuf-ingest/internal/server"
	"github.com/suhuf-hq/suhuf-ingest/internal/storage"
	"github.com/suhuf-hq/suhuf-ingest/pkg/httpclient"
	"github.com/suhuf-hq/suhuf-ingest/pkg/providers"
	"github.com/suhuf-hq/suhuf-ingest/pkg/publishers"
)

const enrichFetchDelay = 500 * time.Millisecond

// Ingestor is the ingestion runtime. It owns the sync schedule, the admin
// HTTP server, and the storage lifecycle.
type Ingestor struct {
	cfg     *config.Config
	syncer  *ingest.Syncer
	srv     *server.Server
	store   storage.Store
	journal *runlog.Journal
	log     logger.Logger
}

// NewIngestor builds the runtime from config: database, provider registry,
// optional publishers and enricher, run journal, syncer, and admin server.
func NewIngestor(ctx context.Context, cfg *config.Config, log logger.Logger) (*Ingestor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := storage.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	log.InfoObj("database ready", "database", map[string]any{"migrated": true})

	providerReg, err := providers.LoadRegistry(cfg.ProvidersFile, nil)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("load providers registry: %w", err)
	}
	providerList := providerReg.All()
	providerIDs := make([]string, 0, len(providerList))
	for _, p := range providerList {
		providerIDs = append(providerIDs, p.ID)
	}
	log.InfoObj("providers registry loaded", "providers_meta", map[string]any{
		"count": len(providerIDs),
		"ids":   providerIDs,
	})

	fanout, err := buildFanout(ctx, cfg.PublishersFile, log)
	if err != nil {
		store.Close()
		return nil, err
	}

	var enricher *scrape.Enricher
	if cfg.EnrichEnabled {
		enricher = scrape.NewEnricher(httpclient.NewRestyClient(10*time.Second), enrichFetchDelay, log)
		log.InfoObj("article image enrichment enabled", "fetch_delay", enrichFetchDelay.String())
	}

	journal, err := runlog.Open(cfg.RunLogPath, runlog.Options{
		TTL:             cfg.RunLogTTL,
		CleanupInterval: cfg.RunLogCleanupEvery,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("open run journal: %w", err)
	}

	syncer, err := ingest.NewSyncer(store, providerReg, ingest.Options{
		PageSize:        cfg.SyncPageSize,
		RefreshOnResync: cfg.RefreshOnResync,
		Enricher:        enricher,
		Fanout:          fanout,
		Journal:         journal,
		Logger:          log,
	})
	if err != nil {
		journal.Close()
		store.Close()
		return nil, fmt.Errorf("build syncer: %w", err)
	}

	srv := server.New(cfg.HTTPAddr, cfg.SyncAPIKey, syncer, store, journal, log)

	return &Ingestor{
		cfg:     cfg,
		syncer:  syncer,
		srv:     srv,
		store:   store,
		journal: journal,
		log:     log,
	}, nil
}

// buildFanout assembles the article-created event fanout. A missing
// publishers file means publishing is disabled.
func buildFanout(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	cfgs, err := publishers.LoadConfigs(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers: %w", err)
	}
	if len(cfgs) == 0 {
		log.InfoObj("no publishers configured; event fanout disabled", "publishers_file", path)
		return publishers.NewFanout(nil), nil
	}

	pubs, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), cfgs, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	summaries := make([]map[string]string, 0, len(cfgs))
	for _, c := range cfgs {
		summaries = append(summaries, map[string]string{"id": c.ID, "type": c.Type})
	}
	log.InfoObj("publishers loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubs), nil
}

// Run starts the admin server and the sync schedule, blocking until ctx is
// cancelled. The first sync fires immediately, later ones on the interval.
func (in *Ingestor) Run(ctx context.Context) error {
	if in == nil || in.syncer == nil {
		return fmt.Errorf("ingestor is not initialized")
	}
	defer in.closeResources()

	srvErr := make(chan error, 1)
	go func() { srvErr <- in.srv.Run(ctx) }()

	in.log.InfoObj("sync schedule starting", "schedule", map[string]any{
		"interval": in.cfg.SyncInterval.String(),
	})

	in.runOnce(ctx)

	ticker := time.NewTicker(in.cfg.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			in.log.InfoObj("sync schedule exiting", "reason", ctx.Err().Error())
			return <-srvErr
		case err := <-srvErr:
			if err != nil {
				return fmt.Errorf("admin server: %w", err)
			}
			return nil
		case <-ticker.C:
			in.runOnce(ctx)
		}
	}
}

// runOnce triggers one scheduled sync. A run already started from the admin
// surface simply wins; the scheduler retries on the next tick.
func (in *Ingestor) runOnce(ctx context.Context) {
	result, err := in.syncer.SyncAll(ctx)
	if errors.Is(err, ingest.ErrSyncAlreadyRunning) {
		in.log.WarnObj("scheduled sync skipped; run already in progress", "interval", in.cfg.SyncInterval.String())
		return
	}
	if err != nil {
		in.log.ErrorObj("scheduled sync failed", "error", err.Error())
		return
	}
	if !result.Success {
		in.log.WarnObj("scheduled sync finished with errors", "errors", result.Errors)
	}
}

func (in *Ingestor) closeResources() {
	if in.journal != nil {
		if err := in.journal.Close(); err != nil {
			in.log.ErrorObj("run journal close failed", "error", err.Error())
		}
	}
	if in.store != nil {
		in.store.Close()
	}
}
