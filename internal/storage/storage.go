package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/suhuf-hq/suhuf-ingest/internal/domain"
)

// Package storage is the persistence boundary of the ingestion pipeline.

var (
	// ErrNotFound is returned by lookups that match no row.
	ErrNotFound = errors.New("storage: not found")
	// ErrDuplicate is returned when a create trips a uniqueness constraint;
	// it is the safety net behind the orchestrator's read-then-write dedup.
	ErrDuplicate = errors.New("storage: duplicate record")
)

// ArticleFilter narrows ListArticles for the read-path collaborators.
type ArticleFilter struct {
	SourceIDs    []uuid.UUID
	CategorySlug string
	Query        string
	From         time.Time
	To           time.Time
	Limit        int
	Offset       int
}

// Store is the read/write contract consumed by the sync orchestrator. All
// creates are idempotent-safe under the unique constraints: they either
// return the existing row (sources, authors, categories) or ErrDuplicate
// (articles).
type Store interface {
	FindSourceByAPIIdentifier(ctx context.Context, apiIdentifier string) (domain.Source, error)
	CreateSource(ctx context.Context, src domain.Source) (domain.Source, error)

	FindAuthorBySourceAndName(ctx context.Context, sourceID uuid.UUID, name string) (domain.Author, error)
	CreateAuthor(ctx context.Context, author domain.Author) (domain.Author, error)

	FindCategoryBySlug(ctx context.Context, slug string) (domain.Category, error)
	CreateCategory(ctx context.Context, category domain.Category) (domain.Category, error)

	FindArticleBySourceAndExternalID(ctx context.Context, sourceID uuid.UUID, externalID string) (domain.Article, error)
	CreateArticle(ctx context.Context, article domain.Article, categoryIDs []uuid.UUID) (domain.Article, error)
	TouchArticleLastSynced(ctx context.Context, articleID uuid.UUID, syncedAt time.Time) error
	RefreshArticleContent(ctx context.Context, articleID uuid.UUID, title, description, imageURL string, syncedAt time.Time) error
	CountArticles(ctx context.Context) (int64, error)
	ListArticles(ctx context.Context, filter ArticleFilter) ([]domain.Article, error)

	Ping(ctx context.Context) error
	Close()
}
