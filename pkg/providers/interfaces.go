package providers

import (
	"context"

	"github.com/suhuf-hq/suhuf-ingest/internal/domain"
	"github.com/suhuf-hq/suhuf-ingest/pkg/httpclient"
)

// Client retrieves and normalizes articles for one upstream news API.
// Concrete implementations live in provider-specific files (e.g., guardian.go)
// and never leak provider response types past their own boundary.
type Client interface {
	// Identifier returns the source key used for registry lookup and as the
	// persisted api_identifier.
	Identifier() string
	// Fetch issues one upstream call (with the shared retry policy applied)
	// and returns only articles passing the validity filter: non-empty title,
	// description, and URL. Invalid items are dropped silently.
	Fetch(ctx context.Context, params domain.FetchParams) (FetchResult, error)
}

// FetchResult carries a normalized batch plus the upstream total, when the
// provider reports one.
type FetchResult struct {
	Articles       []domain.NormalizedArticle
	TotalAvailable int
}

// HTTPClient aliases the shared httpclient.Client interface for clarity within providers.
type HTTPClient = httpclient.Client
