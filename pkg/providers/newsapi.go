package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/suhuf-hq/suhuf-ingest/internal/domain"
	"github.com/suhuf-hq/suhuf-ingest/internal/logger"
)

const NewsAPIProviderID = "newsapi"

// newsAPIClient fetches top headlines from NewsAPI.org.
type newsAPIClient struct {
	cfg    Provider
	apiKey string
	client HTTPClient
	policy Policy
}

// NewNewsAPIClient builds the NewsAPI.org provider client.
func NewNewsAPIClient(cfg Provider, client HTTPClient) Client {
	if client == nil {
		client = DefaultHTTPClient()
	}
	apiKey := cfg.APIKey()
	if apiKey == "" {
		logger.WarnObj("newsapi API key not configured", "provider_id", NewsAPIProviderID)
	}
	return &newsAPIClient{
		cfg:    cfg,
		apiKey: apiKey,
		client: client,
		policy: DefaultPolicy(),
	}
}

func (c *newsAPIClient) Identifier() string { return NewsAPIProviderID }

type newsAPISource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type newsAPIArticle struct {
	Source      newsAPISource `json:"source"`
	Author      string        `json:"author"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	URL         string        `json:"url"`
	URLToImage  string        `json:"urlToImage"`
	PublishedAt string        `json:"publishedAt"`
}

type newsAPIResponse struct {
	Status       string           `json:"status"`
	TotalResults int              `json:"totalResults"`
	Articles     []newsAPIArticle `json:"articles"`
}

func (c *newsAPIClient) Fetch(ctx context.Context, params domain.FetchParams) (FetchResult, error) {
	endpoint, err := url.Parse(c.cfg.BaseURL + "/top-headlines")
	if err != nil {
		return FetchResult{}, fmt.Errorf("parse newsapi base_url: %w", err)
	}

	q := endpoint.Query()
	q.Set("apiKey", c.apiKey)
	q.Set("pageSize", strconv.Itoa(pageSizeOrDefault(params.PageSize)))
	q.Set("page", strconv.Itoa(pageOrDefault(params.Page)))
	q.Set("language", "en")
	if params.Query != "" {
		q.Set("q", params.Query)
	}
	if params.Category != "" {
		q.Set("category", params.Category)
	}
	endpoint.RawQuery = q.Encode()

	var payload newsAPIResponse
	if err := fetchJSON(ctx, c.client, c.policy, NewsAPIProviderID, endpoint.String(), nil, &payload); err != nil {
		return FetchResult{}, err
	}
	if payload.Status != "ok" {
		return FetchResult{}, fmt.Errorf("newsapi returned error status %q", payload.Status)
	}

	articles := make([]domain.NormalizedArticle, 0, len(payload.Articles))
	for _, art := range payload.Articles {
		norm, ok := c.transform(art)
		if !ok {
			continue
		}
		articles = append(articles, norm)
	}

	return FetchResult{Articles: articles, TotalAvailable: payload.TotalResults}, nil
}

func (c *newsAPIClient) transform(art newsAPIArticle) (domain.NormalizedArticle, bool) {
	title := strings.TrimSpace(art.Title)
	description := strings.TrimSpace(art.Description)
	link := strings.TrimSpace(art.URL)
	if title == "" || description == "" || link == "" {
		return domain.NormalizedArticle{}, false
	}

	// NewsAPI has no stable per-article id; derive one from the upstream
	// source key and the publication instant. When the timestamp does not
	// parse, fall back to the URL's trailing segment so the id stays the
	// same across fetches of the same story.
	sourceKey := art.Source.ID
	if sourceKey == "" {
		sourceKey = art.Source.Name
	}
	var externalID string
	publishedAt, err := time.Parse(time.RFC3339, art.PublishedAt)
	if err != nil {
		publishedAt = time.Now().UTC()
		externalID = fmt.Sprintf("%s-%s", sourceKey, trailingPathSegment(link))
	} else {
		externalID = fmt.Sprintf("%s-%d", sourceKey, publishedAt.UnixMilli())
	}

	return domain.NormalizedArticle{
		ExternalID:       externalID,
		Title:            title,
		Description:      description,
		URL:              link,
		ImageURL:         strings.TrimSpace(art.URLToImage),
		PublishedAt:      publishedAt,
		Author:           strings.TrimSpace(art.Author),
		SourceIdentifier: NewsAPIProviderID,
		Categories:       nil, // top-headlines carries no taxonomy
	}, true
}
