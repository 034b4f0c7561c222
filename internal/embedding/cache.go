package embedding

import (
	"container/list"
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

// DefaultCacheTTL is how long a computed embedding stays cached.
const DefaultCacheTTL = 24 * time.Hour

// CachedEmbedding is a cached embedding result with its provenance.
type CachedEmbedding struct {
	Vector    []float32 `json:"vector"`
	Dimension int       `json:"dimension"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
}

// Cache is a fingerprint-keyed embedding cache with time-based expiry.
// Get misses silently (including on backend failure); Set reports backend
// failure but callers treat it as non-fatal and keep the computed value.
// Concurrent writers for the same fingerprint race benignly: embeddings
// for identical text are identical, so last-writer-wins is harmless.
type Cache interface {
	Get(ctx context.Context, text string) (*CachedEmbedding, bool)
	Set(ctx context.Context, text string, result *CachedEmbedding, ttl time.Duration) error
}

// Fingerprint derives the cache key for a text: a sha256 digest over the
// exact UTF-8 bytes, so keys are reproducible across processes and
// restarts. Any text normalization is the caller's job, not the cache's.
func Fingerprint(text string) string {
	return fmt.Sprintf("embedding:%x", sha256.Sum256([]byte(text)))
}

// DefaultMemoryCacheCapacity bounds the in-process cache; the oldest
// entry is evicted once it is full.
const DefaultMemoryCacheCapacity = 10000

// MemoryCache is an in-process Cache for single-node deployments and
// tests: an LRU bounded at capacity, with per-entry expiry on top.
type MemoryCache struct {
	capacity int
	entries  map[string]*list.Element
	lru      *list.List
	mu       sync.Mutex
}

type memoryCacheEntry struct {
	key       string
	value     *CachedEmbedding
	expiresAt time.Time
}

// NewMemoryCache creates an empty in-process cache with the default capacity.
func NewMemoryCache() *MemoryCache {
	return NewMemoryCacheWithCapacity(DefaultMemoryCacheCapacity)
}

// NewMemoryCacheWithCapacity creates an empty in-process cache holding at
// most capacity entries.
func NewMemoryCacheWithCapacity(capacity int) *MemoryCache {
	if capacity <= 0 {
		capacity = DefaultMemoryCacheCapacity
	}
	return &MemoryCache{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Get returns the cached embedding if present and unexpired. Expired
// entries are removed on access.
func (c *MemoryCache) Get(ctx context.Context, text string) (*CachedEmbedding, bool) {
	key := Fingerprint(text)
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	entry := elem.Value.(*memoryCacheEntry)
	if time.Now().After(entry.expiresAt) {
		c.lru.Remove(elem)
		delete(c.entries, key)
		return nil, false
	}
	c.lru.MoveToFront(elem)
	return entry.value, true
}

// Set stores the result with an absolute expiry of ttl from now, evicting
// the least recently used entry if at capacity.
func (c *MemoryCache) Set(ctx context.Context, text string, result *CachedEmbedding, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	key := Fingerprint(text)
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.lru.MoveToFront(elem)
		entry := elem.Value.(*memoryCacheEntry)
		entry.value = result
		entry.expiresAt = time.Now().Add(ttl)
		return nil
	}

	entry := &memoryCacheEntry{key: key, value: result, expiresAt: time.Now().Add(ttl)}
	c.entries[key] = c.lru.PushFront(entry)

	if c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest != nil {
			c.lru.Remove(oldest)
			delete(c.entries, oldest.Value.(*memoryCacheEntry).key)
		}
	}
	return nil
}

var _ Cache = (*MemoryCache)(nil)
