package scrape

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/suhuf-hq/suhuf-ingest/internal/domain"
	"github.com/suhuf-hq/suhuf-ingest/internal/logger"
	"github.com/suhuf-hq/suhuf-ingest/pkg/httpclient"
)

const maxHTMLBodyBytes = 1 << 20 // 1 MiB

// Enricher fills a missing article image by fetching the article page and
// reading its og:image tag. Provider-supplied fields are never overridden,
// and scrape failures are warnings only.
type Enricher struct {
	client httpclient.Client
	delay  time.Duration
	log    logger.Logger
}

// NewEnricher constructs an enricher; a zero delay disables throttling.
func NewEnricher(client httpclient.Client, delay time.Duration, log logger.Logger) *Enricher {
	if client == nil {
		client = httpclient.NewRestyClient(15 * time.Second)
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Enricher{client: client, delay: delay, log: log}
}

// Enrich returns the batch with image URLs filled where possible. Articles
// already carrying an image are passed through untouched. Returns early with
// what it has when ctx is cancelled.
func (e *Enricher) Enrich(ctx context.Context, articles []domain.NormalizedArticle) []domain.NormalizedArticle {
	if e == nil {
		return articles
	}

	out := append([]domain.NormalizedArticle(nil), articles...)
	for i, art := range out {
		if art.ImageURL != "" || art.URL == "" {
			continue
		}

		select {
		case <-ctx.Done():
			return out
		default:
		}

		imageURL, err := e.fetchImage(ctx, art.URL)
		if err != nil {
			e.log.WarnObj("article image scrape failed", "scrape_error", map[string]any{
				"source": art.SourceIdentifier,
				"url":    art.URL,
				"error":  err.Error(),
			})
		} else if imageURL != "" {
			out[i].ImageURL = imageURL
		}

		if e.delay > 0 && i < len(out)-1 {
			timer := time.NewTimer(e.delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return out
			case <-timer.C:
			}
		}
	}
	return out
}

func (e *Enricher) fetchImage(ctx context.Context, pageURL string) (string, error) {
	resp, err := e.client.Get(ctx, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("http fetch: %w", err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("status %d", resp.StatusCode())
	}

	body := resp.Body()
	if len(body) > maxHTMLBodyBytes {
		body = body[:maxHTMLBodyBytes]
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	if node := doc.Find(`meta[property="og:image"]`).First(); node.Length() > 0 {
		if val, ok := node.Attr("content"); ok {
			return strings.TrimSpace(val), nil
		}
	}
	return "", nil
}
