package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/suhuf-hq/suhuf-ingest/pkg/httpclient"
)

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}

// fetchJSON performs the single upstream GET for a provider with the retry
// policy applied, then decodes the JSON body into out. All concrete clients
// funnel their one HTTP call through here.
func fetchJSON(ctx context.Context, client httpclient.Client, policy Policy, providerID, url string, headers map[string]string, out any) error {
	resp, err := policy.Do(ctx, providerID, func() (httpclient.Response, error) {
		return client.Get(ctx, url, headers)
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode %s response: %w", providerID, err)
	}
	return nil
}

// trailingPathSegment extracts the last non-empty path segment of a permalink,
// used to synthesize deterministic external ids for providers without one.
func trailingPathSegment(rawURL string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(rawURL), "/")
	if trimmed == "" {
		return ""
	}
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		if seg := trimmed[idx+1:]; seg != "" {
			return seg
		}
	}
	return trimmed
}
