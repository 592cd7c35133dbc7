package providers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/suhuf-hq/suhuf-ingest/pkg/httpclient"
)

// Policy is the shared retry/backoff algorithm applied around every upstream
// call: a bounded number of attempts with exponentially increasing delay.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultPolicy returns the standard policy: 3 attempts total, 1s base delay.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: time.Second}
}

// Delay returns the backoff before retrying after the given 1-indexed attempt:
// BaseDelay * 2^(attempt-1). Strictly increasing per attempt.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return p.BaseDelay << (attempt - 1)
}

// UpstreamError is the terminal failure of a provider call, carrying the
// provider identifier and the last status or transport error observed.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Attempts   int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s upstream failed after %d attempt(s): status %d: %v", e.Provider, e.Attempts, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s upstream failed after %d attempt(s): %v", e.Provider, e.Attempts, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// retryableStatus reports whether an HTTP status warrants another attempt:
// 429 and all 5xx. Every other 4xx is terminal.
func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// Do runs fn up to MaxAttempts times, sleeping per Delay between attempts.
// Transport errors and retryable statuses are re-attempted; terminal statuses
// fail immediately. The backoff sleep respects ctx cancellation.
func (p Policy) Do(ctx context.Context, providerID string, fn func() (httpclient.Response, error)) (httpclient.Response, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var (
		lastStatus int
		lastErr    error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := fn()
		if err != nil {
			lastStatus = 0
			lastErr = err
		} else {
			code := resp.StatusCode()
			if code >= 200 && code < 300 {
				return resp, nil
			}
			lastStatus = code
			lastErr = fmt.Errorf("status %d body: %s", code, responseSnippet(resp.Body()))
			if !retryableStatus(code) {
				return nil, &UpstreamError{Provider: providerID, StatusCode: code, Attempts: attempt, Err: lastErr}
			}
		}

		if attempt == attempts {
			break
		}
		if err := sleepCtx(ctx, p.Delay(attempt)); err != nil {
			return nil, &UpstreamError{Provider: providerID, StatusCode: lastStatus, Attempts: attempt, Err: err}
		}
	}

	return nil, &UpstreamError{Provider: providerID, StatusCode: lastStatus, Attempts: attempts, Err: lastErr}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
