package icd11

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultCacheTTL is how long a search result stays fresh.
const DefaultCacheTTL = time.Hour

// CacheKey identifies one search: the lower-cased term and the result limit.
type CacheKey struct {
	Term       string
	MaxResults int
}

// NewCacheKey normalizes term so equivalent searches share an entry.
func NewCacheKey(term string, maxResults int) CacheKey {
	return CacheKey{Term: strings.ToLower(strings.TrimSpace(term)), MaxResults: maxResults}
}

func (k CacheKey) String() string {
	return k.Term + "|" + strconv.Itoa(k.MaxResults)
}

// Cache stores search results for a bounded time. An entry older than the
// TTL is never returned: Get treats it as absent.
type Cache interface {
	Get(ctx context.Context, key CacheKey) ([]ExternalConcept, bool)
	Put(ctx context.Context, key CacheKey, concepts []ExternalConcept)
	// EvictIfExpired removes key when its entry is stale and reports whether
	// an entry was removed.
	EvictIfExpired(ctx context.Context, key CacheKey) bool
}

type memoryEntry struct {
	concepts  []ExternalConcept
	timestamp time.Time
}

// MemoryCache is a process-local Cache with lazy expiration on read.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[CacheKey]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// MemoryCacheOption configures a MemoryCache.
type MemoryCacheOption func(*MemoryCache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) MemoryCacheOption {
	return func(c *MemoryCache) { c.now = now }
}

// NewMemoryCache creates a MemoryCache. A non-positive ttl falls back to
// DefaultCacheTTL.
func NewMemoryCache(ttl time.Duration, opts ...MemoryCacheOption) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c := &MemoryCache{
		entries: make(map[CacheKey]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *MemoryCache) expired(e memoryEntry, now time.Time) bool {
	return now.Sub(e.timestamp) >= c.ttl
}

func (c *MemoryCache) Get(ctx context.Context, key CacheKey) ([]ExternalConcept, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.expired(entry, c.now()) {
		c.EvictIfExpired(ctx, key)
		return nil, false
	}
	return cloneConcepts(entry.concepts), true
}

// Put stores concepts under key. A concurrent writer holding an older
// timestamp never replaces a fresher entry.
func (c *MemoryCache) Put(_ context.Context, key CacheKey, concepts []ExternalConcept) {
	entry := memoryEntry{concepts: cloneConcepts(concepts), timestamp: c.now()}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[key]; ok && existing.timestamp.After(entry.timestamp) {
		return
	}
	c.entries[key] = entry
}

func (c *MemoryCache) EvictIfExpired(_ context.Context, key CacheKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok || !c.expired(entry, c.now()) {
		return false
	}
	delete(c.entries, key)
	return true
}

// Len returns the number of stored entries, fresh or stale.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Purge removes every stale entry and returns how many were dropped.
func (c *MemoryCache) Purge() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k, e := range c.entries {
		if c.expired(e, now) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

func cloneConcepts(in []ExternalConcept) []ExternalConcept {
	out := make([]ExternalConcept, len(in))
	copy(out, in)
	return out
}
