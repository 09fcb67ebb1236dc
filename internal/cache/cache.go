// Package cache provides a small expiring cache for upstream API responses.
//
// Every outbound data source is polled by dashboards on short intervals, so
// responses are held for a configurable TTL to keep the service within the
// public APIs' rate limits.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/ShivanshCoding36/alert-aid/internal/observability"
)

// Cache is a size-bounded TTL cache for values of type V. Entries expire
// after the configured TTL, and the least recently used entry is evicted
// once the size bound is reached.
type Cache[V any] struct {
	lru     *expirable.LRU[string, V]
	source  string
	metrics *observability.Metrics
}

// New builds a cache identified by source in cache metrics.
func New[V any](source string, size int, ttl time.Duration, metrics *observability.Metrics) *Cache[V] {
	return &Cache[V]{
		lru:     expirable.NewLRU[string, V](size, nil, ttl),
		source:  source,
		metrics: metrics,
	}
}

// Get returns the cached value for key if present and unexpired.
func (c *Cache[V]) Get(key string) (V, bool) {
	v, ok := c.lru.Get(key)
	if c.metrics != nil {
		result := "miss"
		if ok {
			result = "hit"
		}
		c.metrics.CacheLookups.WithLabelValues(c.source, result).Inc()
	}
	return v, ok
}

// Set stores value under key, replacing any existing entry.
func (c *Cache[V]) Set(key string, value V) {
	c.lru.Add(key, value)
}

// Len returns the number of live entries.
func (c *Cache[V]) Len() int {
	return c.lru.Len()
}
