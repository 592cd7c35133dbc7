package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/suhuf-hq/suhuf-ingest/internal/domain"
)

const BBCProviderID = "bbc"

// bbcClient fetches the latest-headlines feed of the public BBC news API.
// The upstream needs no credential and supports no query surface.
type bbcClient struct {
	cfg    Provider
	client HTTPClient
	policy Policy
	now    func() time.Time
}

// NewBBCClient builds the BBC provider client.
func NewBBCClient(cfg Provider, client HTTPClient) Client {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &bbcClient{
		cfg:    cfg,
		client: client,
		policy: DefaultPolicy(),
		now:    time.Now,
	}
}

func (c *bbcClient) Identifier() string { return BBCProviderID }

type bbcArticle struct {
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	ImageLink string `json:"image_link"`
	NewsLink  string `json:"news_link"`
}

type bbcResponse struct {
	Status int          `json:"status"`
	Latest []bbcArticle `json:"latest"`
}

func (c *bbcClient) Fetch(ctx context.Context, _ domain.FetchParams) (FetchResult, error) {
	endpoint, err := url.Parse(c.cfg.BaseURL + "/news")
	if err != nil {
		return FetchResult{}, fmt.Errorf("parse bbc base_url: %w", err)
	}
	q := endpoint.Query()
	q.Set("lang", "english")
	endpoint.RawQuery = q.Encode()

	var payload bbcResponse
	if err := fetchJSON(ctx, c.client, c.policy, BBCProviderID, endpoint.String(), nil, &payload); err != nil {
		return FetchResult{}, err
	}

	fetchedAt := c.now().UTC()
	articles := make([]domain.NormalizedArticle, 0, len(payload.Latest))
	for _, art := range payload.Latest {
		norm, ok := c.transform(art, fetchedAt)
		if !ok {
			continue
		}
		articles = append(articles, norm)
	}

	return FetchResult{Articles: articles, TotalAvailable: len(articles)}, nil
}

func (c *bbcClient) transform(art bbcArticle, fetchedAt time.Time) (domain.NormalizedArticle, bool) {
	title := strings.TrimSpace(art.Title)
	link := strings.TrimSpace(art.NewsLink)
	if title == "" || link == "" {
		return domain.NormalizedArticle{}, false
	}

	description := strings.TrimSpace(art.Summary)
	if description == "" {
		description = title
	}

	// The feed has no per-article id; derive one from the stable trailing
	// permalink segment, prefixed with the source to avoid cross-source
	// collisions.
	externalID := BBCProviderID + "-" + trailingPathSegment(link)

	return domain.NormalizedArticle{
		ExternalID:       externalID,
		Title:            title,
		Description:      description,
		URL:              link,
		ImageURL:         strings.TrimSpace(art.ImageLink),
		PublishedAt:      fetchedAt, // upstream supplies no per-article timestamp
		Author:           "BBC News",
		SourceIdentifier: BBCProviderID,
		Categories:       nil,
	}, true
}
