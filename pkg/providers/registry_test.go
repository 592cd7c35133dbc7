package providers

import (
	"context"
	"strings"
	"testing"

	"github.com/suhuf-hq/suhuf-ingest/internal/domain"
)

func TestRegistryRejectsUnknownSource(t *testing.T) {
	_, err := NewRegistry([]Provider{
		{ID: "mystery", Name: "Mystery", BaseURL: "https://mystery.test"},
	}, nil)
	if err == nil || !strings.Contains(err.Error(), "unknown news source") {
		t.Fatalf("err = %v, want unknown news source error", err)
	}
}

func TestRegistrySkipsDisabledProviders(t *testing.T) {
	off := false
	reg, err := NewRegistry([]Provider{
		{ID: GuardianProviderID, Name: "The Guardian", BaseURL: "https://g.test"},
		{ID: BBCProviderID, Name: "BBC News", BaseURL: "https://b.test", Enabled: &off},
	}, nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if reg.Len() != 1 {
		t.Fatalf("Len = %d, want 1", reg.Len())
	}
	if _, err := reg.ClientFor(BBCProviderID); err == nil {
		t.Fatal("disabled provider must not resolve a client")
	}
}

func TestRegistryPreservesFileOrder(t *testing.T) {
	reg, err := NewRegistry([]Provider{
		{ID: NYTimesProviderID, Name: "NYT", BaseURL: "https://n.test"},
		{ID: GuardianProviderID, Name: "Guardian", BaseURL: "https://g.test"},
		{ID: BBCProviderID, Name: "BBC", BaseURL: "https://b.test"},
	}, nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	all := reg.All()
	want := []string{NYTimesProviderID, GuardianProviderID, BBCProviderID}
	for i, id := range want {
		if all[i].ID != id {
			t.Fatalf("All()[%d] = %s, want %s", i, all[i].ID, id)
		}
	}
}

func TestRegistryMemoizesClients(t *testing.T) {
	built := 0
	reg, err := NewRegistryWithBuilders(
		[]Provider{{ID: "alpha", Name: "Alpha"}},
		nil,
		map[string]Builder{
			"alpha": func(cfg Provider, client HTTPClient) Client {
				built++
				return &stubRegistryClient{id: cfg.ID}
			},
		},
	)
	if err != nil {
		t.Fatalf("NewRegistryWithBuilders: %v", err)
	}

	first, err := reg.ClientFor("alpha")
	if err != nil {
		t.Fatalf("ClientFor: %v", err)
	}
	second, err := reg.ClientFor("Alpha ")
	if err != nil {
		t.Fatalf("ClientFor (normalized id): %v", err)
	}
	if first != second {
		t.Fatal("expected the memoized client instance")
	}
	if built != 1 {
		t.Fatalf("builder ran %d times, want 1", built)
	}
}

type stubRegistryClient struct {
	id string
}

func (c *stubRegistryClient) Identifier() string { return c.id }

func (c *stubRegistryClient) Fetch(_ context.Context, _ domain.FetchParams) (FetchResult, error) {
	return FetchResult{}, nil
}
