package providers

import (
	"context"
	"testing"

	"github.com/suhuf-hq/suhuf-ingest/internal/domain"
)

const nyTimesBody = `{
  "status": "OK",
  "num_results": 2,
  "results": [
    {
      "uri": "nyt://article/abc-123",
      "url": "https://www.nytimes.com/2025/03/01/us/sample.html",
      "title": "Top story",
      "abstract": "What happened today",
      "published_date": "2025-03-01T07:00:00-05:00",
      "byline": "By Alex Correspondent",
      "section": "us",
      "subsection": "politics",
      "multimedia": [
        {"url": "https://static01.nyt.com/small.jpg", "format": "mediumThreeByTwo210"},
        {"url": "https://static01.nyt.com/large.jpg", "format": "superJumbo"}
      ]
    },
    {
      "uri": "nyt://article/def-456",
      "url": "https://www.nytimes.com/2025/03/01/world/other.html",
      "title": "Second story",
      "abstract": "More news",
      "published_date": "2025-03-01T08:00:00-05:00",
      "byline": "",
      "section": "World",
      "subsection": "world",
      "multimedia": []
    }
  ]
}`

func TestNYTimesFetchTransforms(t *testing.T) {
	t.Setenv("NYTIMES_KEY_TEST", "test-key")

	client := &mockHTTPClient{t: t, body: nyTimesBody}
	c := NewNYTimesClient(Provider{
		ID:        NYTimesProviderID,
		Name:      "The New York Times",
		BaseURL:   "https://api.nytimes.test/svc/topstories/v2",
		APIKeyEnv: "NYTIMES_KEY_TEST",
	}, client)

	res, err := c.Fetch(context.Background(), domain.FetchParams{})
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(res.Articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(res.Articles))
	}

	first := res.Articles[0]
	if first.ExternalID != "nyt://article/abc-123" {
		t.Errorf("external id = %q", first.ExternalID)
	}
	if first.ImageURL != "https://static01.nyt.com/large.jpg" {
		t.Errorf("image = %q, want the superJumbo variant", first.ImageURL)
	}
	if first.Author != "By Alex Correspondent" {
		t.Errorf("author = %q", first.Author)
	}
	if len(first.Categories) != 2 || first.Categories[0] != "us" || first.Categories[1] != "politics" {
		t.Errorf("categories = %v", first.Categories)
	}

	second := res.Articles[1]
	if second.Author != "The New York Times" {
		t.Errorf("empty byline must fall back to the masthead, got %q", second.Author)
	}
	if second.ImageURL != "" {
		t.Errorf("image = %q, want empty for no multimedia", second.ImageURL)
	}
	// Subsection equal to section (case-insensitive) is not repeated.
	if len(second.Categories) != 1 || second.Categories[0] != "World" {
		t.Errorf("categories = %v", second.Categories)
	}

	q := client.lastQuery()
	if q.Get("api-key") != "test-key" {
		t.Errorf("api-key = %q", q.Get("api-key"))
	}
}

func TestNYTimesFetchErrorStatus(t *testing.T) {
	client := &mockHTTPClient{t: t, body: `{"status": "ERROR", "results": []}`}
	c := NewNYTimesClient(Provider{ID: NYTimesProviderID, BaseURL: "https://api.nytimes.test"}, client)

	if _, err := c.Fetch(context.Background(), domain.FetchParams{}); err == nil {
		t.Fatal("expected error for non-OK payload status")
	}
}
