package httpclient

import "context"

// Response exposes the pieces of an upstream reply the provider clients and
// the page enricher actually consume.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Client is the GET surface shared by the news provider clients and the
// scraper, kept small so tests can swap in canned responses. The resty
// adapter in resty_client.go is the production implementation.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}
