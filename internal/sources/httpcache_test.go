package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

func TestCachedClient_ServesFromCache(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewCachedClient(5*time.Second, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		status, body, err := client.Get(ctx, server.URL, nil)
		if err != nil {
			t.Fatalf("Get %d failed: %v", i, err)
		}
		if status != http.StatusOK {
			t.Errorf("Get %d: status %d", i, status)
		}
		if string(body) != `{"ok":true}` {
			t.Errorf("Get %d: body %s", i, body)
		}
	}

	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("Expected 1 upstream hit, got %d", n)
	}
}

func TestCachedClient_ParamOrderSharesEntry(t *testing.T) {
	a := url.Values{}
	a.Set("city", "Oslo")
	a.Set("kind", "news")
	b := url.Values{}
	b.Set("kind", "news")
	b.Set("city", "Oslo")

	if cacheKey("http://example/api", a) != cacheKey("http://example/api", b) {
		t.Error("Same params in different order produced different cache keys")
	}
}

func TestCachedClient_ExpiredEntryRefetches(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`[1,2,3]`))
	}))
	defer server.Close()

	client := NewCachedClient(5*time.Second, time.Hour)
	current := time.Now()
	client.now = func() time.Time { return current }

	ctx := context.Background()
	if _, _, err := client.Get(ctx, server.URL, nil); err != nil {
		t.Fatalf("First get failed: %v", err)
	}
	if _, _, err := client.Get(ctx, server.URL, nil); err != nil {
		t.Fatalf("Cached get failed: %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("Expected 1 hit before expiry, got %d", n)
	}

	current = current.Add(time.Hour + time.Minute)
	if _, _, err := client.Get(ctx, server.URL, nil); err != nil {
		t.Fatalf("Post-expiry get failed: %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Errorf("Expected refetch after expiry, got %d hits", n)
	}
}

func TestCachedClient_NonJSONNotCached(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	client := NewCachedClient(5*time.Second, time.Hour)
	ctx := context.Background()
	client.Get(ctx, server.URL, nil)
	client.Get(ctx, server.URL, nil)

	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Errorf("Non-JSON response must not be cached, got %d hits", n)
	}
}
