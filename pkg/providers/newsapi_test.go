package providers

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/suhuf-hq/suhuf-ingest/internal/domain"
)

const newsAPIBody = `{
  "status": "ok",
  "totalResults": 97,
  "articles": [
    {
      "source": {"id": "the-verge", "name": "The Verge"},
      "author": "Sam Writer",
      "title": "Headline one",
      "description": "Summary one",
      "url": "https://www.theverge.com/one",
      "urlToImage": "https://cdn.vox-cdn.com/one.jpg",
      "publishedAt": "2025-03-01T12:00:00Z"
    },
    {
      "source": {"id": "", "name": "Indie Blog"},
      "author": "",
      "title": "Headline two",
      "description": "Summary two",
      "url": "https://indie.example/two",
      "publishedAt": "2025-03-02T08:15:00Z"
    },
    {
      "source": {"id": "cnn", "name": "CNN"},
      "title": "[Removed]",
      "description": "",
      "url": "https://removed.example",
      "publishedAt": "2025-03-02T09:00:00Z"
    }
  ]
}`

func TestNewsAPIFetchTransforms(t *testing.T) {
	t.Setenv("NEWSAPI_KEY_TEST", "test-key")

	client := &mockHTTPClient{t: t, body: newsAPIBody}
	c := NewNewsAPIClient(Provider{
		ID:        NewsAPIProviderID,
		Name:      "NewsAPI",
		BaseURL:   "https://newsapi.test/v2",
		APIKeyEnv: "NEWSAPI_KEY_TEST",
	}, client)

	res, err := c.Fetch(context.Background(), domain.FetchParams{PageSize: 50, Category: "technology"})
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if res.TotalAvailable != 97 {
		t.Errorf("total = %d, want 97", res.TotalAvailable)
	}
	if len(res.Articles) != 2 {
		t.Fatalf("expected the description-less result to be dropped, got %d articles", len(res.Articles))
	}

	first := res.Articles[0]
	wantTime := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	if wantID := "the-verge-" + unixMilliString(wantTime); first.ExternalID != wantID {
		t.Errorf("external id = %q, want %q", first.ExternalID, wantID)
	}
	if first.Author != "Sam Writer" {
		t.Errorf("author = %q", first.Author)
	}
	if len(first.Categories) != 0 {
		t.Errorf("top headlines carry no categories, got %v", first.Categories)
	}

	// Source key falls back to the display name when the id is empty.
	second := res.Articles[1]
	wantTime = time.Date(2025, 3, 2, 8, 15, 0, 0, time.UTC)
	if wantID := "Indie Blog-" + unixMilliString(wantTime); second.ExternalID != wantID {
		t.Errorf("external id = %q, want %q", second.ExternalID, wantID)
	}

	q := client.lastQuery()
	if q.Get("apiKey") != "test-key" {
		t.Errorf("apiKey = %q", q.Get("apiKey"))
	}
	if q.Get("language") != "en" {
		t.Errorf("language = %q", q.Get("language"))
	}
	if q.Get("category") != "technology" || q.Get("pageSize") != "50" {
		t.Errorf("filters = %q/%q", q.Get("category"), q.Get("pageSize"))
	}
}

func TestNewsAPIFetchStableIDWithoutTimestamp(t *testing.T) {
	body := `{
	  "status": "ok",
	  "totalResults": 1,
	  "articles": [
	    {
	      "source": {"id": "indie", "name": "Indie Blog"},
	      "title": "Headline",
	      "description": "Summary",
	      "url": "https://indie.example/stories/late-breaking",
	      "publishedAt": null
	    }
	  ]
	}`
	client := &mockHTTPClient{t: t, body: body}
	c := NewNewsAPIClient(Provider{ID: NewsAPIProviderID, BaseURL: "https://newsapi.test/v2"}, client)

	first, err := c.Fetch(context.Background(), domain.FetchParams{})
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	second, err := c.Fetch(context.Background(), domain.FetchParams{})
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(first.Articles) != 1 || len(second.Articles) != 1 {
		t.Fatalf("expected 1 article per fetch, got %d and %d", len(first.Articles), len(second.Articles))
	}

	// With no usable timestamp the id must not drift between fetches of the
	// same story, or dedup by (source, external_id) never matches.
	if got := first.Articles[0].ExternalID; got != "indie-late-breaking" {
		t.Errorf("external id = %q, want %q", got, "indie-late-breaking")
	}
	if a, b := first.Articles[0].ExternalID, second.Articles[0].ExternalID; a != b {
		t.Errorf("external id changed between fetches: %q vs %q", a, b)
	}
	if first.Articles[0].PublishedAt.IsZero() {
		t.Error("published_at should still be populated")
	}
}

func TestNewsAPIFetchErrorStatus(t *testing.T) {
	client := &mockHTTPClient{t: t, body: `{"status": "error", "code": "apiKeyInvalid"}`}
	c := NewNewsAPIClient(Provider{ID: NewsAPIProviderID, BaseURL: "https://newsapi.test/v2"}, client)

	if _, err := c.Fetch(context.Background(), domain.FetchParams{}); err == nil {
		t.Fatal("expected error for non-ok payload status")
	}
}

func unixMilliString(ts time.Time) string {
	return strconv.FormatInt(ts.UnixMilli(), 10)
}
