package providers

import (
	"context"
	"testing"
	"time"

	"github.com/suhuf-hq/suhuf-ingest/internal/domain"
)

const bbcBody = `{
  "status": 200,
  "latest": [
    {
      "title": "Breaking headline",
      "summary": "Something broke",
      "image_link": "https://ichef.bbci.co.uk/pic.jpg",
      "news_link": "https://www.bbc.com/news/articles/c1234abcd"
    },
    {
      "title": "Summaryless headline",
      "summary": "",
      "news_link": "https://www.bbc.com/news/articles/c5678efgh"
    },
    {
      "title": "",
      "summary": "No title",
      "news_link": "https://www.bbc.com/news/articles/cXXXX"
    }
  ]
}`

func TestBBCFetchTransforms(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC)

	client := &mockHTTPClient{t: t, body: bbcBody}
	c := NewBBCClient(Provider{ID: BBCProviderID, Name: "BBC News", BaseURL: "https://bbc-api.test"}, client)
	c.(*bbcClient).now = func() time.Time { return fixed }

	res, err := c.Fetch(context.Background(), domain.FetchParams{})
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(res.Articles) != 2 {
		t.Fatalf("expected the title-less item to be dropped, got %d articles", len(res.Articles))
	}

	first := res.Articles[0]
	if first.ExternalID != "bbc-c1234abcd" {
		t.Errorf("external id = %q", first.ExternalID)
	}
	if !first.PublishedAt.Equal(fixed) {
		t.Errorf("published at = %v, want fetch time %v", first.PublishedAt, fixed)
	}
	if first.Author != "BBC News" {
		t.Errorf("author = %q", first.Author)
	}

	second := res.Articles[1]
	if second.Description != second.Title {
		t.Errorf("empty summary must fall back to the title, got %q", second.Description)
	}

	q := client.lastQuery()
	if q.Get("lang") != "english" {
		t.Errorf("lang = %q", q.Get("lang"))
	}
}

func TestTrailingPathSegment(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://www.bbc.com/news/articles/c1234abcd", "c1234abcd"},
		{"https://www.bbc.com/news/articles/c1234abcd/", "c1234abcd"},
		{"https://www.bbc.com", "www.bbc.com"},
	}
	for _, tc := range cases {
		if got := trailingPathSegment(tc.in); got != tc.want {
			t.Errorf("trailingPathSegment(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
