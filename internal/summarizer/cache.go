package summarizer

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"sync"
	"time"

	"linkgist/internal/domain"
)

// Cache keeps recent summaries in memory, evicting the least recently used
// entry once full. It is safe for concurrent use; a nil *Cache is a valid,
// always-empty cache.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List
	maxEntries int
	ttl        time.Duration
}

type cacheEntry struct {
	key       string
	summary   string
	expiresAt time.Time
}

// NewCache returns nil when caching is disabled.
func NewCache(maxEntries int, ttl time.Duration) *Cache {
	if maxEntries <= 0 || ttl <= 0 {
		return nil
	}

	return &Cache{
		entries:    make(map[string]*list.Element, maxEntries),
		order:      list.New(),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
}

// CacheKey identifies loaded content by where it came from and what it said,
// scoped to the credential that paid for the summary. Only a digest of the
// credential ends up in the key. It returns an empty key when there is
// nothing to summarize.
func CacheKey(credential string, sourceURL string, docs []domain.Document) string {
	h := sha256.New()
	h.Write([]byte(strings.TrimSpace(credential)))
	h.Write([]byte{0})

	empty := true

	for _, doc := range docs {
		text := strings.TrimSpace(doc.Text)
		if text == "" {
			continue
		}

		empty = false
		h.Write([]byte(text))
		h.Write([]byte{0})
	}

	if empty {
		return ""
	}

	return canonicalURL(sourceURL) + "#" + hex.EncodeToString(h.Sum(nil))
}

func canonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""

	return u.String()
}

func (c *Cache) Get(key string, now time.Time) (string, bool) {
	if c == nil || key == "" {
		return "", false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return "", false
	}

	entry, ok := elem.Value.(*cacheEntry)
	if !ok {
		return "", false
	}

	if now.After(entry.expiresAt) {
		c.removeElement(elem)

		return "", false
	}

	c.order.MoveToFront(elem)

	return entry.summary, true
}

func (c *Cache) Set(key string, summary string, now time.Time) {
	if c == nil || key == "" || summary == "" {
		return
	}

	expiresAt := now.Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		entry, castOk := elem.Value.(*cacheEntry)
		if !castOk {
			return
		}

		entry.summary = summary
		entry.expiresAt = expiresAt
		c.order.MoveToFront(elem)

		return
	}

	elem := c.order.PushFront(&cacheEntry{
		key:       key,
		summary:   summary,
		expiresAt: expiresAt,
	})
	c.entries[key] = elem

	c.evictExpiredLocked(now)
	c.enforceSizeLimitLocked()
}

// EvictExpired drops every expired entry and reports how many were removed.
func (c *Cache) EvictExpired(now time.Time) int {
	if c == nil {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	before := len(c.entries)
	c.evictExpiredLocked(now)

	return before - len(c.entries)
}

func (c *Cache) Len() int {
	if c == nil {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

func (c *Cache) evictExpiredLocked(now time.Time) {
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()

		if entry, ok := elem.Value.(*cacheEntry); ok && now.After(entry.expiresAt) {
			c.removeElement(elem)
		}

		elem = prev
	}
}

func (c *Cache) enforceSizeLimitLocked() {
	for len(c.entries) > c.maxEntries {
		elem := c.order.Back()
		if elem == nil {
			return
		}
		c.removeElement(elem)
	}
}

func (c *Cache) removeElement(elem *list.Element) {
	entry, ok := elem.Value.(*cacheEntry)
	if !ok {
		return
	}

	delete(c.entries, entry.key)
	c.order.Remove(elem)
}
