package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sync-run metrics, labeled by source identifier where it makes sense.
var (
	ArticlesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "suhuf_sync_articles_fetched_total",
		Help: "Articles returned by provider clients, per source.",
	}, []string{"source"})

	ArticlesSaved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "suhuf_sync_articles_saved_total",
		Help: "New articles persisted, per source.",
	}, []string{"source"})

	Duplicates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "suhuf_sync_duplicates_total",
		Help: "Repeat sightings of already-stored articles, per source.",
	}, []string{"source"})

	SyncErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "suhuf_sync_errors_total",
		Help: "Source-level and article-level sync errors, per source.",
	}, []string{"source"})

	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "suhuf_sync_runs_total",
		Help: "Completed sync runs by outcome.",
	}, []string{"outcome"})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "suhuf_sync_duration_seconds",
		Help:    "Wall-clock duration of complete sync runs.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})
)
