package georef

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rotisserie/eris"
)

type cacheEntry struct {
	data     any
	storedAt time.Time
	ttl      time.Duration
}

func (e cacheEntry) expired(now time.Time) bool {
	return now.Sub(e.storedAt) > e.ttl
}

// entryStore is the backing map of the cache: a plain map (unbounded) or an
// LRU when a capacity is configured.
type entryStore interface {
	get(key string) (cacheEntry, bool)
	add(key string, e cacheEntry)
	remove(key string)
	len() int
}

type mapStore map[string]cacheEntry

func (m mapStore) get(key string) (cacheEntry, bool) {
	e, ok := m[key]
	return e, ok
}

func (m mapStore) add(key string, e cacheEntry) { m[key] = e }

func (m mapStore) remove(key string) { delete(m, key) }

func (m mapStore) len() int { return len(m) }

type lruStore struct {
	c *lru.Cache[string, cacheEntry]
}

func (s lruStore) get(key string) (cacheEntry, bool) { return s.c.Get(key) }

func (s lruStore) add(key string, e cacheEntry) { s.c.Add(key, e) }

func (s lruStore) remove(key string) { s.c.Remove(key) }

func (s lruStore) len() int { return s.c.Len() }

// responseCache memoizes successful responses keyed by request URL. Entries
// expire by time only and are evicted lazily on read.
type responseCache struct {
	mu         sync.Mutex
	items      entryStore
	defaultTTL time.Duration

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// newResponseCache creates a cache. maxEntries <= 0 means unbounded.
func newResponseCache(defaultTTL time.Duration, maxEntries int) (*responseCache, error) {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTLs().Default
	}
	c := &responseCache{
		items:      mapStore{},
		defaultTTL: defaultTTL,
		nowFunc:    time.Now,
	}
	if maxEntries > 0 {
		l, err := lru.New[string, cacheEntry](maxEntries)
		if err != nil {
			return nil, eris.Wrap(err, "georef: create lru cache")
		}
		c.items = lruStore{c: l}
	}
	return c, nil
}

// set stores data under key, replacing any existing entry. ttl <= 0 uses the
// default ttl.
func (c *responseCache) set(key string, data any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.add(key, cacheEntry{data: data, storedAt: c.nowFunc(), ttl: ttl})
}

// get returns the data stored under key if it has not expired. Expired
// entries are removed.
func (c *responseCache) get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items.get(key)
	if !ok {
		return nil, false
	}
	if e.expired(c.nowFunc()) {
		c.items.remove(key)
		return nil, false
	}
	return e.data, true
}

func (c *responseCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items.len()
}
