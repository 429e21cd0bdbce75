// Package crawler implements the three content crawlers: AWS blog RSS feeds,
// documentation sitemaps, and YouTube playlists. Each crawler normalizes what
// it finds into domain.NewContent and stores it through a shared repository
// interface; URL dedup happens at insert time.
package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// maxBodyBytes caps how much of a response body is read. Documentation pages
// can be large; anything past this is useless to the analyzer anyway.
const maxBodyBytes = 10 << 20

// Fetcher is a rate-limited HTTP client shared by all crawlers. One token is
// consumed per request, so a single Fetcher bounds the total request rate of
// a crawl regardless of which crawler issues the request.
type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// NewFetcher creates a Fetcher. rps bounds requests per second; zero or
// negative disables throttling.
func NewFetcher(rps float64, timeout time.Duration, userAgent string) *Fetcher {
	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}

	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		limiter:   limiter,
		userAgent: userAgent,
	}
}

// Get fetches url and returns the response body. Non-2xx statuses are
// errors.
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("fetch %s: %w", url, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: read body: %w", url, err)
	}
	return body, nil
}
