package badger

import (
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"github.com/onflow/txhistory/module"
	"github.com/onflow/txhistory/storage"
)

// Cache is a read-through LRU cache in front of a database lookup keyed by
// K. The history is append-only, so entries never need invalidation.
type Cache[K comparable, V any] struct {
	metrics  module.CacheMetrics
	resource string
	retrieve func(K) (V, error)
	entries  *lru.Cache
}

func newCache[K comparable, V any](collector module.CacheMetrics, resource string, limit uint, retrieve func(K) (V, error)) *Cache[K, V] {
	if limit == 0 {
		limit = DefaultCacheSize
	}
	// lru.New only fails for a non-positive size
	entries, _ := lru.New(int(limit))
	c := &Cache[K, V]{
		metrics:  collector,
		resource: resource,
		retrieve: retrieve,
		entries:  entries,
	}
	c.metrics.CacheEntries(c.resource, 0)
	return c
}

// Get returns the cached value for key, and otherwise retrieves and caches it.
func (c *Cache[K, V]) Get(key K) (V, error) {
	if cached, ok := c.entries.Get(key); ok {
		c.metrics.CacheHit(c.resource)
		return cached.(V), nil
	}

	value, err := c.retrieve(key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.metrics.CacheNotFound(c.resource)
		}
		var zero V
		return zero, fmt.Errorf("could not retrieve %s %v: %w", c.resource, key, err)
	}
	c.metrics.CacheMiss(c.resource)
	c.Insert(key, value)
	return value, nil
}

// Insert caches a value that was just persisted.
func (c *Cache[K, V]) Insert(key K, value V) {
	if evicted := c.entries.Add(key, value); !evicted {
		c.metrics.CacheEntries(c.resource, uint(c.entries.Len()))
	}
}
