package providers

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/suhuf-hq/suhuf-ingest/internal/domain"
	"github.com/suhuf-hq/suhuf-ingest/pkg/httpclient"
)

type mockHTTPClient struct {
	t       *testing.T
	expect  map[string]string
	status  int
	body    string
	gotURLs []string
}

type mockResponse struct {
	body       []byte
	statusCode int
}

func (r mockResponse) Body() []byte    { return r.body }
func (r mockResponse) StatusCode() int { return r.statusCode }

func (m *mockHTTPClient) Get(_ context.Context, rawURL string, headers map[string]string) (httpclient.Response, error) {
	m.gotURLs = append(m.gotURLs, rawURL)
	for key, want := range m.expect {
		if got := headers[key]; got != want {
			m.t.Fatalf("expected header %s=%q, got %q", key, want, got)
		}
	}
	status := m.status
	if status == 0 {
		status = 200
	}
	return mockResponse{body: []byte(m.body), statusCode: status}, nil
}

func (m *mockHTTPClient) lastQuery() url.Values {
	m.t.Helper()
	if len(m.gotURLs) == 0 {
		m.t.Fatal("no request was made")
	}
	u, err := url.Parse(m.gotURLs[len(m.gotURLs)-1])
	if err != nil {
		m.t.Fatalf("parse request url: %v", err)
	}
	return u.Query()
}

const guardianBody = `{
  "response": {
    "status": "ok",
    "total": 1234,
    "results": [
      {
        "id": "world/2025/mar/01/sample",
        "webTitle": "Sample headline",
        "webUrl": "https://www.theguardian.com/world/2025/mar/01/sample",
        "webPublicationDate": "2025-03-01T09:30:00Z",
        "sectionName": "World news",
        "fields": {
          "trailText": "Short summary",
          "thumbnail": "https://media.guim.co.uk/thumb.jpg",
          "byline": "Jane Reporter"
        }
      },
      {
        "id": "world/2025/mar/01/no-trail",
        "webTitle": "No trail text",
        "webUrl": "https://www.theguardian.com/world/2025/mar/01/no-trail",
        "webPublicationDate": "2025-03-01T10:00:00Z",
        "sectionName": "World news"
      }
    ]
  }
}`

func TestGuardianFetchTransformsAndFilters(t *testing.T) {
	t.Setenv("GUARDIAN_KEY_TEST", "test-key")

	client := &mockHTTPClient{t: t, body: guardianBody}
	c := NewGuardianClient(Provider{
		ID:        GuardianProviderID,
		Name:      "The Guardian",
		BaseURL:   "https://content.test",
		APIKeyEnv: "GUARDIAN_KEY_TEST",
	}, client)

	res, err := c.Fetch(context.Background(), domain.FetchParams{PageSize: 25, Query: "climate", Category: "world"})
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if res.TotalAvailable != 1234 {
		t.Errorf("total = %d, want 1234", res.TotalAvailable)
	}
	if len(res.Articles) != 1 {
		t.Fatalf("expected the trailText-less result to be dropped, got %d articles", len(res.Articles))
	}

	art := res.Articles[0]
	if art.ExternalID != "world/2025/mar/01/sample" {
		t.Errorf("external id = %q", art.ExternalID)
	}
	if art.Author != "Jane Reporter" {
		t.Errorf("author = %q", art.Author)
	}
	if art.SourceIdentifier != GuardianProviderID {
		t.Errorf("source identifier = %q", art.SourceIdentifier)
	}
	if want := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC); !art.PublishedAt.Equal(want) {
		t.Errorf("published at = %v, want %v", art.PublishedAt, want)
	}
	if len(art.Categories) != 1 || art.Categories[0] != "World news" {
		t.Errorf("categories = %v", art.Categories)
	}

	q := client.lastQuery()
	if q.Get("api-key") != "test-key" {
		t.Errorf("api-key = %q", q.Get("api-key"))
	}
	if q.Get("page-size") != "25" || q.Get("page") != "1" {
		t.Errorf("paging = %q/%q", q.Get("page-size"), q.Get("page"))
	}
	if q.Get("q") != "climate" || q.Get("section") != "world" {
		t.Errorf("filters = %q/%q", q.Get("q"), q.Get("section"))
	}
	if q.Get("show-fields") != "thumbnail,trailText,byline" {
		t.Errorf("show-fields = %q", q.Get("show-fields"))
	}
}

func TestGuardianFetchTerminalStatus(t *testing.T) {
	client := &mockHTTPClient{t: t, status: 401, body: `{"message":"invalid key"}`}
	c := NewGuardianClient(Provider{ID: GuardianProviderID, BaseURL: "https://content.test"}, client)

	_, err := c.Fetch(context.Background(), domain.FetchParams{})
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	if len(client.gotURLs) != 1 {
		t.Fatalf("terminal status must not be retried, got %d requests", len(client.gotURLs))
	}
}
