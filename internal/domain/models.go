package domain

import (
	"time"

	"github.com/google/uuid"
)

// Domain contains the canonical article model produced by provider clients
// and the persisted entities the ingestion pipeline writes.

// NormalizedArticle is the transient, provider-neutral article shape.
// ExternalID is stable across repeated fetches and unique within its source;
// together with the source it forms the dedup key.
type NormalizedArticle struct {
	ExternalID       string    `json:"external_id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	URL              string    `json:"url"`
	ImageURL         string    `json:"image_url,omitempty"`
	PublishedAt      time.Time `json:"published_at"`
	Author           string    `json:"author,omitempty"`
	SourceIdentifier string    `json:"source_identifier"`
	Categories       []string  `json:"categories"`
}

// FetchParams carries the optional fetch filters. Each provider client maps
// only the subset its upstream API supports; the rest is ignored.
type FetchParams struct {
	Query    string
	Category string
	From     string
	To       string
	PageSize int
	Page     int
}

// Source is one external news provider registered in the system.
type Source struct {
	ID            uuid.UUID
	Name          string
	Slug          string
	APIIdentifier string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Author is a byline owned by a source; unique per (source, name).
type Author struct {
	ID         uuid.UUID
	Name       string
	SourceID   uuid.UUID
	ExternalID string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Category is shared across sources and looked up by slug.
type Category struct {
	ID        uuid.UUID
	Name      string
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Article is the persisted article row. The pair (SourceID, ExternalID) is
// unique, as is URL; both are enforced by the storage layer.
type Article struct {
	ID           uuid.UUID
	Title        string
	Description  string
	URL          string
	ImageURL     string
	PublishedAt  time.Time
	SourceID     uuid.UUID
	AuthorID     *uuid.UUID
	ExternalID   string
	ViewCount    int
	LastSyncedAt time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SyncResult summarizes one complete pass over all registered sources.
type SyncResult struct {
	Success         bool      `json:"success"`
	ArticlesAdded   int       `json:"articles_added"`
	ArticlesUpdated int       `json:"articles_updated"`
	Errors          []string  `json:"errors"`
	DurationMs      int64     `json:"duration_ms"`
	StartedAt       time.Time `json:"started_at"`
}

// ErrorCount reports the number of collected error messages.
func (r SyncResult) ErrorCount() int { return len(r.Errors) }

// SyncStats is the per-run accumulator kept by the orchestrator.
type SyncStats struct {
	TotalFetched int
	TotalSaved   int
	Duplicates   int
	Errors       int
}
