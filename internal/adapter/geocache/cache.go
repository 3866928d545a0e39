// Package geocache memoizes geocoding lookups for the lifetime of a session.
package geocache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/couchcryptid/wireline-recovery-map/internal/domain"
	"github.com/couchcryptid/wireline-recovery-map/internal/observability"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache.
//
// Failed lookups are cached as well: an address that did not resolve is not
// retried until Purge is called, so a reload never repeats a slow miss.
// Cancelled or timed-out calls are not cached.
type CachedGeocoder struct {
	inner   domain.Geocoder
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedGeocoder) ForwardGeocode(ctx context.Context, address string) (domain.GeocodingResult, error) {
	key := "fwd:" + strings.TrimSpace(address)
	return c.lookup(ctx, "forward", key, func() (domain.GeocodingResult, error) {
		return c.inner.ForwardGeocode(ctx, address)
	})
}

func (c *CachedGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	key := fmt.Sprintf("rev:%.6f,%.6f", lat, lon)
	return c.lookup(ctx, "reverse", key, func() (domain.GeocodingResult, error) {
		return c.inner.ReverseGeocode(ctx, lat, lon)
	})
}

// Purge drops every cached result, including remembered failures.
func (c *CachedGeocoder) Purge() {
	c.cache.clear()
}

// Len reports the number of cached lookups.
func (c *CachedGeocoder) Len() int {
	return c.cache.len()
}

func (c *CachedGeocoder) lookup(ctx context.Context, method, key string, fetch func() (domain.GeocodingResult, error)) (domain.GeocodingResult, error) {
	if e, ok := c.cache.get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues(method, "hit").Inc()
		return e.result, e.err
	}
	c.metrics.GeocodeCache.WithLabelValues(method, "miss").Inc()

	result, err := fetch()
	if err != nil && (ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return result, err
	}
	c.cache.put(key, cached{result: result, err: err})
	return result, err
}

type cached struct {
	result domain.GeocodingResult
	err    error
}

// lruCache is a simple thread-safe LRU cache for geocoding outcomes.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value cached
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (cached, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return cached{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value cached) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if c.maxEntries > 0 && len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry)
	c.head = nil
	c.tail = nil
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
