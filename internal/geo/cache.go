package geo

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// CoordinateCache memoizes lookups for a bounded time. When full, the
// least recently used entry is evicted.
type CoordinateCache struct {
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List
}

type cacheEntry struct {
	key     string
	coords  Coordinates
	expires time.Time
}

// NewCoordinateCache creates a cache. A non-positive maxEntries means
// unbounded size; a non-positive ttl disables expiry.
func NewCoordinateCache(ttl time.Duration, maxEntries int) *CoordinateCache {
	return &CoordinateCache{
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		entries:    make(map[string]*list.Element),
		order:      list.New(),
	}
}

// WithClock replaces the time source
func (c *CoordinateCache) WithClock(now func() time.Time) *CoordinateCache {
	c.now = now
	return c
}

// Get returns a live entry for city
func (c *CoordinateCache) Get(city string) (Coordinates, bool) {
	key := normalize(city)

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return Coordinates{}, false
	}
	entry := el.Value.(*cacheEntry)
	if c.ttl > 0 && !c.now().Before(entry.expires) {
		c.remove(el)
		return Coordinates{}, false
	}
	c.order.MoveToFront(el)
	return entry.coords, true
}

// Put stores coordinates for city
func (c *CoordinateCache) Put(city string, coords Coordinates) {
	key := normalize(city)
	expires := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		entry := el.Value.(*cacheEntry)
		entry.coords = coords
		entry.expires = expires
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, coords: coords, expires: expires})
	for c.maxEntries > 0 && c.order.Len() > c.maxEntries {
		c.remove(c.order.Back())
	}
}

// Len returns the number of stored entries, expired or not
func (c *CoordinateCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *CoordinateCache) remove(el *list.Element) {
	c.order.Remove(el)
	delete(c.entries, el.Value.(*cacheEntry).key)
}

// CachedSource consults the cache before the underlying source. Only
// successful lookups are cached.
type CachedSource struct {
	source Source
	cache  *CoordinateCache
}

// NewCachedSource wraps source with cache
func NewCachedSource(source Source, cache *CoordinateCache) *CachedSource {
	return &CachedSource{source: source, cache: cache}
}

func (s *CachedSource) Lookup(ctx context.Context, city string) (Coordinates, error) {
	if coords, ok := s.cache.Get(city); ok {
		return coords, nil
	}
	coords, err := s.source.Lookup(ctx, city)
	if err != nil {
		return Coordinates{}, err
	}
	s.cache.Put(city, coords)
	return coords, nil
}
