// Package fetcher retrieves page HTML over HTTP, backed by the on-disk
// HTML cache.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/webslide/webslide/pkg/htmlcache"
)

type Fetcher struct {
	client *http.Client
	cache  *htmlcache.Cache
}

// New creates a fetcher. cache may be nil to disable caching.
func New(cache *htmlcache.Cache) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: 30 * time.Second},
		cache:  cache,
	}
}

// GetHTML fetches a page, preferring the cache unless force is set.
func (f *Fetcher) GetHTML(ctx context.Context, url string, force bool) (string, error) {
	if f.cache != nil && !force {
		if data, ok := f.cache.Get(url); ok {
			return string(data), nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "webslide/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch HTML, status code: %d", resp.StatusCode)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if f.cache != nil {
		_ = f.cache.Set(url, bodyBytes)
	}
	return string(bodyBytes), nil
}
