package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// HTTPFetcher retrieves raw feed documents over HTTP. It is the concrete
// implementation of the orchestrator's fetch collaborator: bounded retries on
// transient failures, polite pacing across requests, and a hard response size
// cap. Auth schemes beyond static headers are out of scope here.
type HTTPFetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	retries int
	maxBody int64
}

// FetcherOption customizes an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithClient replaces the underlying HTTP client (custom transport, TLS).
func WithClient(c *http.Client) FetcherOption {
	return func(f *HTTPFetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithRetries sets how many times a transient failure is retried. Values < 0
// are coerced to 0.
func WithRetries(n int) FetcherOption {
	return func(f *HTTPFetcher) {
		if n < 0 {
			n = 0
		}
		f.retries = n
	}
}

// WithPacing limits outgoing requests to rps with the given burst, shared by
// all providers using this fetcher.
func WithPacing(rps float64, burst int) FetcherOption {
	return func(f *HTTPFetcher) {
		if rps > 0 {
			if burst < 1 {
				burst = 1
			}
			f.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// NewHTTPFetcher constructs a fetcher with a 30s request timeout, two retries
// and a 32 MiB response cap by default.
func NewHTTPFetcher(opts ...FetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:  &http.Client{Timeout: 30 * time.Second},
		retries: 2,
		maxBody: 32 << 20,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Fetch downloads the document at url, honoring ctx for cancellation.
// Transient failures (network errors, 5xx, 429) are retried with a short
// backoff; 4xx responses other than 429 fail immediately since a retry
// cannot help.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= f.retries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * 500 * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		body, retryable, err := f.fetchOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, fmt.Errorf("feed: fetch %s: %w", url, lastErr)
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, url string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/xml, application/json, text/csv, */*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		b, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
		if err != nil {
			return nil, true, err
		}
		return b, false, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("unexpected status %d", resp.StatusCode)
	default:
		return nil, false, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}
