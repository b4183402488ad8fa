package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// CachedClient wraps an HTTP client with a process-wide response cache.
// The same URL+query returns the cached body until the entry expires.
// Entries are evicted lazily on lookup, not by a background sweep.
type CachedClient struct {
	client *http.Client
	ttl    time.Duration

	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	expiresAt time.Time
	status    int
	body      []byte
}

// NewCachedClient builds a cached client with the given request timeout
// and cache TTL.
func NewCachedClient(timeout, ttl time.Duration) *CachedClient {
	return &CachedClient{
		client:  &http.Client{Timeout: timeout},
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// cacheKey builds a deterministic key. url.Values.Encode sorts keys, so
// the same params in a different order yield the same key.
func cacheKey(rawURL string, params url.Values) string {
	if len(params) == 0 {
		return rawURL
	}
	return rawURL + "?" + params.Encode()
}

// Get fetches the URL with optional query params, serving from cache
// when a fresh entry exists. Only JSON bodies are cached.
func (c *CachedClient) Get(ctx context.Context, rawURL string, params url.Values) (int, []byte, error) {
	key := cacheKey(rawURL, params)

	c.mu.Lock()
	if entry, ok := c.entries[key]; ok {
		if c.now().Before(entry.expiresAt) {
			c.mu.Unlock()
			return entry.status, entry.body, nil
		}
		delete(c.entries, key)
	}
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, key, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("building request for %s: %w", rawURL, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response from %s: %w", rawURL, err)
	}

	if json.Valid(body) {
		c.mu.Lock()
		c.entries[key] = cacheEntry{
			expiresAt: c.now().Add(c.ttl),
			status:    resp.StatusCode,
			body:      body,
		}
		c.mu.Unlock()
	}

	return resp.StatusCode, body, nil
}
