package summarizer

import (
	"strings"
	"testing"
	"time"

	"linkgist/internal/domain"
)

func TestCacheGetSet(t *testing.T) {
	cache := NewCache(2, time.Hour)
	if cache == nil {
		t.Fatalf("expected cache instance")
	}

	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	cache.Set("key", "value", now)

	summary, ok := cache.Get("key", now)
	if !ok {
		t.Fatalf("expected cached summary to be present")
	}

	if summary != "value" {
		t.Fatalf("unexpected summary: %q", summary)
	}
}

func TestCacheExpiresEntries(t *testing.T) {
	cache := NewCache(2, time.Minute)
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	cache.Set("key", "value", now)

	if _, ok := cache.Get("key", now.Add(2*time.Minute)); ok {
		t.Fatalf("expected cache entry to expire")
	}

	if cache.Len() != 0 {
		t.Fatalf("expected expired cache entry to be removed")
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	cache := NewCache(2, time.Hour)
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	cache.Set("a", "summary-a", now)
	cache.Set("b", "summary-b", now)

	if _, ok := cache.Get("a", now); !ok {
		t.Fatalf("expected entry a to exist before eviction check")
	}

	cache.Set("c", "summary-c", now)

	if _, ok := cache.Get("a", now); !ok {
		t.Fatalf("expected entry a to remain after evicting least recently used")
	}

	if _, ok := cache.Get("b", now); ok {
		t.Fatalf("expected entry b to be evicted")
	}

	if _, ok := cache.Get("c", now); !ok {
		t.Fatalf("expected entry c to be cached")
	}
}

func TestCacheEvictExpired(t *testing.T) {
	cache := NewCache(8, time.Minute)
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	cache.Set("old-1", "x", now)
	cache.Set("old-2", "x", now)
	cache.Set("fresh", "x", now.Add(50*time.Second))

	if removed := cache.EvictExpired(now.Add(90 * time.Second)); removed != 2 {
		t.Fatalf("expected 2 evicted entries, got %d", removed)
	}

	if cache.Len() != 1 {
		t.Fatalf("expected one remaining entry, got %d", cache.Len())
	}
}

func TestDisabledCache(t *testing.T) {
	cache := NewCache(0, time.Hour)
	if cache != nil {
		t.Fatalf("expected nil cache when size is zero")
	}

	cache.Set("key", "value", time.Now())
	if _, ok := cache.Get("key", time.Now()); ok {
		t.Fatalf("expected disabled cache to miss")
	}

	if cache.EvictExpired(time.Now()) != 0 || cache.Len() != 0 {
		t.Fatalf("expected disabled cache to stay empty")
	}
}

func TestCacheKey(t *testing.T) {
	docs := []domain.Document{{Text: " Example text "}}

	keyA := CacheKey("key-a", "HTTPS://Example.com/post#comments", docs)
	keyB := CacheKey(" key-a ", "https://example.com/post", []domain.Document{{Text: "Example text"}})

	if keyA == "" || keyA != keyB {
		t.Fatalf("expected canonicalized cache keys to match, got %q vs %q", keyA, keyB)
	}

	if key := CacheKey("key-a", "https://example.com/post", []domain.Document{{Text: "Other text"}}); key == keyA {
		t.Fatalf("expected different content to change the key")
	}

	if key := CacheKey("key-b", "https://example.com/post", docs); key == keyA {
		t.Fatalf("expected a different credential to change the key")
	}

	if strings.Contains(keyA, "key-a") {
		t.Fatalf("credential leaked into cache key: %q", keyA)
	}

	if key := CacheKey("key-a", "https://example.com/post", []domain.Document{{Text: " "}}); key != "" {
		t.Fatalf("expected empty cache key when text is empty, got %q", key)
	}
}
