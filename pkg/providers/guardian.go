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

const GuardianProviderID = "guardian"

// guardianClient fetches from the Guardian content search API.
type guardianClient struct {
	cfg    Provider
	apiKey string
	client HTTPClient
	policy Policy
}

// NewGuardianClient builds the Guardian provider client. A missing API key is
// a configuration warning, not a failure; calls proceed and fail upstream.
func NewGuardianClient(cfg Provider, client HTTPClient) Client {
	if client == nil {
		client = DefaultHTTPClient()
	}
	apiKey := cfg.APIKey()
	if apiKey == "" {
		logger.WarnObj("guardian API key not configured", "provider_id", GuardianProviderID)
	}
	return &guardianClient{
		cfg:    cfg,
		apiKey: apiKey,
		client: client,
		policy: DefaultPolicy(),
	}
}

func (c *guardianClient) Identifier() string { return GuardianProviderID }

type guardianFields struct {
	Thumbnail string `json:"thumbnail"`
	TrailText string `json:"trailText"`
	Byline    string `json:"byline"`
}

type guardianArticle struct {
	ID                 string          `json:"id"`
	WebTitle           string          `json:"webTitle"`
	WebURL             string          `json:"webUrl"`
	WebPublicationDate string          `json:"webPublicationDate"`
	Fields             *guardianFields `json:"fields"`
	SectionName        string          `json:"sectionName"`
}

type guardianResponse struct {
	Response struct {
		Status  string            `json:"status"`
		Results []guardianArticle `json:"results"`
		Total   int               `json:"total"`
	} `json:"response"`
}

func (c *guardianClient) Fetch(ctx context.Context, params domain.FetchParams) (FetchResult, error) {
	endpoint, err := url.Parse(c.cfg.BaseURL + "/search")
	if err != nil {
		return FetchResult{}, fmt.Errorf("parse guardian base_url: %w", err)
	}

	q := endpoint.Query()
	q.Set("api-key", c.apiKey)
	q.Set("show-fields", "thumbnail,trailText,byline")
	q.Set("page-size", strconv.Itoa(pageSizeOrDefault(params.PageSize)))
	q.Set("page", strconv.Itoa(pageOrDefault(params.Page)))
	if params.Query != "" {
		q.Set("q", params.Query)
	}
	if params.Category != "" {
		q.Set("section", params.Category)
	}
	if params.From != "" {
		q.Set("from-date", params.From)
	}
	if params.To != "" {
		q.Set("to-date", params.To)
	}
	endpoint.RawQuery = q.Encode()

	var payload guardianResponse
	if err := fetchJSON(ctx, c.client, c.policy, GuardianProviderID, endpoint.String(), nil, &payload); err != nil {
		return FetchResult{}, err
	}

	articles := make([]domain.NormalizedArticle, 0, len(payload.Response.Results))
	for _, art := range payload.Response.Results {
		norm, ok := c.transform(art)
		if !ok {
			continue
		}
		articles = append(articles, norm)
	}

	return FetchResult{Articles: articles, TotalAvailable: payload.Response.Total}, nil
}

func (c *guardianClient) transform(art guardianArticle) (domain.NormalizedArticle, bool) {
	var fields guardianFields
	if art.Fields != nil {
		fields = *art.Fields
	}

	title := strings.TrimSpace(art.WebTitle)
	description := strings.TrimSpace(fields.TrailText)
	link := strings.TrimSpace(art.WebURL)
	if title == "" || description == "" || link == "" {
		return domain.NormalizedArticle{}, false
	}

	publishedAt, err := time.Parse(time.RFC3339, art.WebPublicationDate)
	if err != nil {
		publishedAt = time.Now().UTC()
	}

	var categories []string
	if section := strings.TrimSpace(art.SectionName); section != "" {
		categories = append(categories, section)
	}

	return domain.NormalizedArticle{
		ExternalID:       art.ID,
		Title:            title,
		Description:      description,
		URL:              link,
		ImageURL:         strings.TrimSpace(fields.Thumbnail),
		PublishedAt:      publishedAt,
		Author:           strings.TrimSpace(fields.Byline),
		SourceIdentifier: GuardianProviderID,
		Categories:       categories,
	}, true
}

func pageSizeOrDefault(size int) int {
	if size <= 0 {
		return 20
	}
	return size
}

func pageOrDefault(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}
