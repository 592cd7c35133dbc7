package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/suhuf-hq/suhuf-ingest/internal/domain"
	"github.com/suhuf-hq/suhuf-ingest/internal/logger"
	"github.com/suhuf-hq/suhuf-ingest/internal/metrics"
	"github.com/suhuf-hq/suhuf-ingest/internal/runlog"
	"github.com/suhuf-hq/suhuf-ingest/internal/scrape"
	"github.com/suhuf-hq/suhuf-ingest/internal/storage"
	"github.com/suhuf-hq/suhuf-ingest/pkg/providers"
	"github.com/suhuf-hq/suhuf-ingest/pkg/publishers"
)

// ErrSyncAlreadyRunning is returned when a sync trigger arrives while a prior
// run has not finished. Callers must not queue behind the active run.
var ErrSyncAlreadyRunning = errors.New("sync is already running")

const defaultPageSize = 50

// Syncer orchestrates one complete pass over all registered news sources:
// fetch, normalize, dedup, persist. At most one run is active per instance.
type Syncer struct {
	store    storage.Store
	registry *providers.Registry
	enricher *scrape.Enricher
	fanout   *publishers.Fanout
	journal  *runlog.Journal
	log      logger.Logger

	pageSize        int
	refreshOnResync bool

	running atomic.Bool
	now     func() time.Time
}

// Options tunes optional syncer collaborators and behavior.
type Options struct {
	PageSize        int
	RefreshOnResync bool
	Enricher        *scrape.Enricher
	Fanout          *publishers.Fanout
	Journal         *runlog.Journal
	Logger          logger.Logger
}

// NewSyncer wires the orchestrator over its storage gateway and provider registry.
func NewSyncer(store storage.Store, registry *providers.Registry, opts Options) (*Syncer, error) {
	if store == nil {
		return nil, fmt.Errorf("storage gateway must not be nil")
	}
	if registry == nil {
		return nil, fmt.Errorf("provider registry must not be nil")
	}

	log := opts.Logger
	if log == nil {
		log = logger.NopLogger{}
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	return &Syncer{
		store:           store,
		registry:        registry,
		enricher:        opts.Enricher,
		fanout:          opts.Fanout,
		journal:         opts.Journal,
		log:             log,
		pageSize:        pageSize,
		refreshOnResync: opts.RefreshOnResync,
		now:             time.Now,
	}, nil
}

// IsRunning reports whether a sync run is currently active.
func (s *Syncer) IsRunning() bool { return s.running.Load() }

// SyncAll fetches news from every registered source and saves new articles.
// A second call while one is in flight fails fast with ErrSyncAlreadyRunning.
// Per-source and per-article failures are collected, never fatal; the run is
// successful when fewer errors accumulated than sources are registered.
func (s *Syncer) SyncAll(ctx context.Context) (domain.SyncResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return domain.SyncResult{}, ErrSyncAlreadyRunning
	}
	defer s.running.Store(false)

	start := s.now()
	stats := domain.SyncStats{}
	var errs []string
	cancelled := false

	entries := s.registry.All()
	s.log.InfoObj("sync started", "sync_meta", map[string]any{
		"sources":    len(entries),
		"page_size":  s.pageSize,
		"started_at": start.UTC(),
	})

	for _, cfg := range entries {
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		s.syncSource(ctx, cfg, &stats, &errs)
	}

	duration := s.now().Sub(start)
	success := stats.Errors < len(entries)
	if cancelled {
		success = false
		errs = append(errs, fmt.Sprintf("sync cancelled: %v", ctx.Err()))
	}

	result := domain.SyncResult{
		Success:         success,
		ArticlesAdded:   stats.TotalSaved,
		ArticlesUpdated: 0,
		Errors:          errs,
		DurationMs:      duration.Milliseconds(),
		StartedAt:       start.UTC(),
	}

	s.finishRun(result, stats, duration)
	return result, nil
}

// InitialSeed populates an empty database via SyncAll. When articles already
// exist it performs zero fetches and reports the store as seeded.
func (s *Syncer) InitialSeed(ctx context.Context) (domain.SyncResult, error) {
	count, err := s.store.CountArticles(ctx)
	if err != nil {
		return domain.SyncResult{}, fmt.Errorf("count articles: %w", err)
	}
	if count > 0 {
		s.log.WarnObj("database already has articles; skipping seed", "article_count", count)
		return domain.SyncResult{
			Success:       true,
			ArticlesAdded: 0,
			Errors:        []string{"Database already seeded"},
			StartedAt:     s.now().UTC(),
		}, nil
	}
	return s.SyncAll(ctx)
}

// syncSource runs one provider end to end. Failures are recorded in stats and
// errs; they never abort the overall run.
func (s *Syncer) syncSource(ctx context.Context, cfg providers.Provider, stats *domain.SyncStats, errs *[]string) {
	record := func(err error) {
		stats.Errors++
		*errs = append(*errs, fmt.Sprintf("Error syncing %s: %v", cfg.ID, err))
		metrics.SyncErrors.WithLabelValues(cfg.ID).Inc()
		s.log.ErrorObj("source sync failed", "source_error", map[string]any{
			"source": cfg.ID,
			"error":  err.Error(),
		})
	}

	client, err := s.registry.ClientFor(cfg.ID)
	if err != nil {
		record(err)
		return
	}

	source, err := s.ensureSource(ctx, cfg)
	if err != nil {
		record(err)
		return
	}

	res, err := client.Fetch(ctx, domain.FetchParams{PageSize: s.pageSize})
	if err != nil {
		record(err)
		return
	}

	stats.TotalFetched += len(res.Articles)
	metrics.ArticlesFetched.WithLabelValues(cfg.ID).Add(float64(len(res.Articles)))

	articles := res.Articles
	if s.enricher != nil {
		articles = s.enricher.Enrich(ctx, articles)
	}

	for _, art := range articles {
		saved, err := s.saveArticle(ctx, source, art)
		if err != nil {
			stats.Errors++
			*errs = append(*errs, fmt.Sprintf("Error saving article: %v", err))
			metrics.SyncErrors.WithLabelValues(cfg.ID).Inc()
			continue
		}
		if saved {
			stats.TotalSaved++
			metrics.ArticlesSaved.WithLabelValues(cfg.ID).Inc()
			s.publishCreated(ctx, cfg, art)
		} else {
			stats.Duplicates++
			metrics.Duplicates.WithLabelValues(cfg.ID).Inc()
		}
	}

	s.log.InfoObj("source sync completed", "source_result", map[string]any{
		"source":  cfg.ID,
		"fetched": len(res.Articles),
	})
}

// ensureSource resolves the Source row for a provider, creating it on first
// sighting.
func (s *Syncer) ensureSource(ctx context.Context, cfg providers.Provider) (domain.Source, error) {
	source, err := s.store.FindSourceByAPIIdentifier(ctx, cfg.ID)
	if err == nil {
		return source, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return domain.Source{}, err
	}

	created, err := s.store.CreateSource(ctx, domain.Source{
		Name:          cfg.Name,
		Slug:          cfg.ID,
		APIIdentifier: cfg.ID,
		IsActive:      true,
	})
	if err != nil {
		return domain.Source{}, err
	}
	s.log.InfoObj("created source", "source", map[string]any{
		"name":           created.Name,
		"api_identifier": created.APIIdentifier,
	})
	return created, nil
}

// saveArticle performs the per-article upsert. Returns true when a new row
// was created, false for a repeat sighting (only last_synced_at is touched,
// unless content refresh is enabled).
func (s *Syncer) saveArticle(ctx context.Context, source domain.Source, art domain.NormalizedArticle) (bool, error) {
	now := s.now()

	existing, err := s.store.FindArticleBySourceAndExternalID(ctx, source.ID, art.ExternalID)
	if err == nil {
		return false, s.markResynced(ctx, existing.ID, art, now)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return false, err
	}

	var authorID *uuid.UUID
	if art.Author != "" {
		author, err := s.resolveAuthor(ctx, source.ID, art.Author)
		if err != nil {
			return false, err
		}
		authorID = &author.ID
	}

	categoryIDs, err := s.resolveCategories(ctx, art.Categories)
	if err != nil {
		return false, err
	}

	_, err = s.store.CreateArticle(ctx, domain.Article{
		Title:        art.Title,
		Description:  art.Description,
		URL:          art.URL,
		ImageURL:     art.ImageURL,
		PublishedAt:  art.PublishedAt,
		SourceID:     source.ID,
		AuthorID:     authorID,
		ExternalID:   art.ExternalID,
		LastSyncedAt: now,
	}, categoryIDs)
	if errors.Is(err, storage.ErrDuplicate) {
		// A concurrent writer won the race past the read check; the storage
		// constraint reclassifies this as a repeat sighting.
		if raced, ferr := s.store.FindArticleBySourceAndExternalID(ctx, source.ID, art.ExternalID); ferr == nil {
			_ = s.store.TouchArticleLastSynced(ctx, raced.ID, now)
		}
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Syncer) markResynced(ctx context.Context, articleID uuid.UUID, art domain.NormalizedArticle, now time.Time) error {
	if s.refreshOnResync {
		return s.store.RefreshArticleContent(ctx, articleID, art.Title, art.Description, art.ImageURL, now)
	}
	return s.store.TouchArticleLastSynced(ctx, articleID, now)
}

func (s *Syncer) resolveAuthor(ctx context.Context, sourceID uuid.UUID, name string) (domain.Author, error) {
	author, err := s.store.FindAuthorBySourceAndName(ctx, sourceID, name)
	if err == nil {
		return author, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return domain.Author{}, err
	}
	return s.store.CreateAuthor(ctx, domain.Author{Name: name, SourceID: sourceID})
}

func (s *Syncer) resolveCategories(ctx context.Context, names []string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, name := range names {
		slug := Slugify(name)
		if slug == "" {
			continue
		}

		category, err := s.store.FindCategoryBySlug(ctx, slug)
		if errors.Is(err, storage.ErrNotFound) {
			category, err = s.store.CreateCategory(ctx, domain.Category{Name: name, Slug: slug})
		}
		if err != nil {
			return nil, err
		}
		ids = append(ids, category.ID)
	}
	return ids, nil
}

// publishCreated fans the article-created event out to configured sinks.
// Delivery failures are logged, never counted against the sync run.
func (s *Syncer) publishCreated(ctx context.Context, cfg providers.Provider, art domain.NormalizedArticle) {
	if s.fanout == nil || s.fanout.Size() == 0 {
		return
	}
	if _, err := s.fanout.Publish(ctx, publishers.NewArticleCreated(cfg.ID, cfg.Name, art)); err != nil {
		s.log.WarnObj("article event publish failed", "publish_error", map[string]any{
			"source": cfg.ID,
			"url":    art.URL,
			"error":  err.Error(),
		})
	}
}

func (s *Syncer) finishRun(result domain.SyncResult, stats domain.SyncStats, duration time.Duration) {
	outcome := "success"
	if !result.Success {
		outcome = "failure"
	}
	metrics.RunsTotal.WithLabelValues(outcome).Inc()
	metrics.RunDuration.Observe(duration.Seconds())

	if s.journal != nil {
		if err := s.journal.Record(result); err != nil {
			s.log.WarnObj("run journal record failed", "error", err.Error())
		}
	}

	s.log.InfoObj("sync completed", "sync_result", map[string]any{
		"success":     result.Success,
		"fetched":     stats.TotalFetched,
		"saved":       stats.TotalSaved,
		"duplicates":  stats.Duplicates,
		"errors":      stats.Errors,
		"duration_ms": result.DurationMs,
	})
}
