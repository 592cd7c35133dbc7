package providers

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/suhuf-hq/suhuf-ingest/pkg/httpclient"
)

// Builder creates a provider client from its config entry.
type Builder func(cfg Provider, client HTTPClient) Client

// Registry maps source identifiers to provider clients. Construction is
// memoized: the first ClientFor call per id builds the client, later calls
// return the same instance.
type Registry struct {
	mu       sync.Mutex
	entries  []Provider
	idx      map[string]Provider
	builders map[string]Builder
	clients  map[string]Client
	http     HTTPClient
}

// NewRegistry builds a registry over the given provider configs using the
// default builders. Disabled entries are kept out entirely.
func NewRegistry(cfgs []Provider, client HTTPClient) (*Registry, error) {
	return NewRegistryWithBuilders(cfgs, client, DefaultBuilders())
}

// NewRegistryWithBuilders is NewRegistry with an explicit builder set, used
// by tests to register stub clients.
func NewRegistryWithBuilders(cfgs []Provider, client HTTPClient, builders map[string]Builder) (*Registry, error) {
	if client == nil {
		client = DefaultHTTPClient()
	}

	reg := &Registry{
		idx:      make(map[string]Provider),
		builders: make(map[string]Builder),
		clients:  make(map[string]Client),
		http:     client,
	}
	for id, b := range builders {
		id = strings.ToLower(strings.TrimSpace(id))
		if id == "" || b == nil {
			continue
		}
		reg.builders[id] = b
	}

	for _, cfg := range cfgs {
		if !cfg.IsEnabled() {
			continue
		}
		if _, known := reg.builders[cfg.ID]; !known {
			return nil, fmt.Errorf("unknown news source %q", cfg.ID)
		}
		reg.entries = append(reg.entries, cfg)
		reg.idx[cfg.ID] = cfg
	}

	return reg, nil
}

// LoadRegistry reads the providers file and builds the registry.
func LoadRegistry(path string, client HTTPClient) (*Registry, error) {
	cfgs, err := LoadProviders(path)
	if err != nil {
		return nil, err
	}
	return NewRegistry(cfgs, client)
}

// All returns the enabled provider configs in file order.
func (r *Registry) All() []Provider {
	out := make([]Provider, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len reports the number of registered providers.
func (r *Registry) Len() int { return len(r.entries) }

// ClientFor resolves (building once) the client for the given source identifier.
func (r *Registry) ClientFor(id string) (Client, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return nil, fmt.Errorf("provider id is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.clients[id]; ok {
		return c, nil
	}

	cfg, ok := r.idx[id]
	if !ok {
		return nil, fmt.Errorf("no provider registered for id %q", id)
	}
	build := r.builders[cfg.ID]
	if build == nil {
		return nil, fmt.Errorf("no client builder for provider %q", cfg.ID)
	}

	c := build(cfg, r.http)
	r.clients[id] = c
	return c, nil
}

// DefaultBuilders wires up the known news source clients.
func DefaultBuilders() map[string]Builder {
	return map[string]Builder{
		GuardianProviderID: NewGuardianClient,
		NewsAPIProviderID:  NewNewsAPIClient,
		NYTimesProviderID:  NewNYTimesClient,
		BBCProviderID:      NewBBCClient,
	}
}

// DefaultHTTPClient returns a tuned http client for provider fetches.
func DefaultHTTPClient() HTTPClient { return httpclient.NewRestyClient(15 * time.Second) }
