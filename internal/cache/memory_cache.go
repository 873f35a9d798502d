package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryCache is the in-process Cache implementation selected by
// CACHE_BACKEND=memory (spec §6 Environment, "in-memory array for tests").
// It is backed by a bounded, self-expiring LRU rather than a bespoke map,
// grounded on the generic caching dependency the retrieved ethereum-go-ethereum
// module pulls in for the same purpose.
type MemoryCache struct {
	lru *lru.LRU[string, string]
}

// NewMemoryCache builds a cache holding up to capacity entries, each
// expiring defaultTTL after insertion. A single TTL applies to the whole
// store; Put's per-call ttl is honored only when it matches defaultTTL,
// since the underlying LRU does not support per-key TTLs — acceptable here
// because every call site uses cache.DefaultTTL.
func NewMemoryCache(capacity int, defaultTTL time.Duration) *MemoryCache {
	if capacity <= 0 {
		capacity = 10_000
	}
	return &MemoryCache{lru: lru.NewLRU[string, string](capacity, nil, defaultTTL)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, bool) {
	return c.lru.Get(key)
}

func (c *MemoryCache) Has(_ context.Context, key string) bool {
	return c.lru.Contains(key)
}

func (c *MemoryCache) Put(_ context.Context, key, value string, _ time.Duration) error {
	c.lru.Add(key, value)
	return nil
}

func (c *MemoryCache) Forget(_ context.Context, key string) error {
	c.lru.Remove(key)
	return nil
}

func (c *MemoryCache) ForgetMany(_ context.Context, keys []string) error {
	for _, k := range keys {
		c.lru.Remove(k)
	}
	return nil
}
