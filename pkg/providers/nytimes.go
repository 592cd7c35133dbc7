package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/suhuf-hq/suhuf-ingest/internal/domain"
	"github.com/suhuf-hq/suhuf-ingest/internal/logger"
)

const NYTimesProviderID = "nytimes"

// nyTimesClient fetches the NY Times Top Stories home feed. The endpoint has
// no query/paging surface, so all fetch params are ignored.
type nyTimesClient struct {
	cfg    Provider
	apiKey string
	client HTTPClient
	policy Policy
}

// NewNYTimesClient builds the NY Times provider client.
func NewNYTimesClient(cfg Provider, client HTTPClient) Client {
	if client == nil {
		client = DefaultHTTPClient()
	}
	apiKey := cfg.APIKey()
	if apiKey == "" {
		logger.WarnObj("nytimes API key not configured", "provider_id", NYTimesProviderID)
	}
	return &nyTimesClient{
		cfg:    cfg,
		apiKey: apiKey,
		client: client,
		policy: DefaultPolicy(),
	}
}

func (c *nyTimesClient) Identifier() string { return NYTimesProviderID }

type nyTimesMultimedia struct {
	URL    string `json:"url"`
	Format string `json:"format"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
	Type   string `json:"type"`
}

type nyTimesArticle struct {
	URI           string              `json:"uri"`
	URL           string              `json:"url"`
	Title         string              `json:"title"`
	Abstract      string              `json:"abstract"`
	PublishedDate string              `json:"published_date"`
	Byline        string              `json:"byline"`
	Section       string              `json:"section"`
	Subsection    string              `json:"subsection"`
	Multimedia    []nyTimesMultimedia `json:"multimedia"`
}

type nyTimesResponse struct {
	Status     string           `json:"status"`
	NumResults int              `json:"num_results"`
	Results    []nyTimesArticle `json:"results"`
}

func (c *nyTimesClient) Fetch(ctx context.Context, _ domain.FetchParams) (FetchResult, error) {
	endpoint, err := url.Parse(c.cfg.BaseURL + "/home.json")
	if err != nil {
		return FetchResult{}, fmt.Errorf("parse nytimes base_url: %w", err)
	}
	q := endpoint.Query()
	q.Set("api-key", c.apiKey)
	endpoint.RawQuery = q.Encode()

	var payload nyTimesResponse
	if err := fetchJSON(ctx, c.client, c.policy, NYTimesProviderID, endpoint.String(), nil, &payload); err != nil {
		return FetchResult{}, err
	}
	if payload.Status != "OK" {
		return FetchResult{}, fmt.Errorf("nytimes returned error status %q", payload.Status)
	}

	articles := make([]domain.NormalizedArticle, 0, len(payload.Results))
	for _, art := range payload.Results {
		norm, ok := c.transform(art)
		if !ok {
			continue
		}
		articles = append(articles, norm)
	}

	return FetchResult{Articles: articles, TotalAvailable: payload.NumResults}, nil
}

func (c *nyTimesClient) transform(art nyTimesArticle) (domain.NormalizedArticle, bool) {
	title := strings.TrimSpace(art.Title)
	description := strings.TrimSpace(art.Abstract)
	link := strings.TrimSpace(art.URL)
	if title == "" || description == "" || link == "" {
		return domain.NormalizedArticle{}, false
	}

	publishedAt, err := time.Parse(time.RFC3339, art.PublishedDate)
	if err != nil {
		publishedAt = time.Now().UTC()
	}

	author := strings.TrimSpace(art.Byline)
	if author == "" {
		author = "The New York Times"
	}

	categories := make([]string, 0, 2)
	if section := strings.TrimSpace(art.Section); section != "" {
		categories = append(categories, section)
		if sub := strings.TrimSpace(art.Subsection); sub != "" && !strings.EqualFold(sub, section) {
			categories = append(categories, sub)
		}
	}

	return domain.NormalizedArticle{
		ExternalID:       art.URI,
		Title:            title,
		Description:      description,
		URL:              link,
		ImageURL:         pickMultimedia(art.Multimedia),
		PublishedAt:      publishedAt,
		Author:           author,
		SourceIdentifier: NYTimesProviderID,
		Categories:       categories,
	}, true
}

// pickMultimedia prefers the larger named formats, falling back to the first
// variant; empty when the article carries none.
func pickMultimedia(media []nyTimesMultimedia) string {
	if len(media) == 0 {
		return ""
	}
	for _, m := range media {
		if m.Format == "superJumbo" || m.Format == "threeByTwoSmallAt2X" {
			return strings.TrimSpace(m.URL)
		}
	}
	return strings.TrimSpace(media[0].URL)
}
