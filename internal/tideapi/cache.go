package tideapi

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// responseCache is an optional TTL-expiring cache for GET responses, keyed
// by URL + query parameters and isolated per API profile (§4.5). Grounded
// on the pack's mapbox CachedGeocoder decorator, generalized from an LRU
// eviction policy to TTL expiry (the tidal API's cache contract is
// time-bounded freshness, not bounded memory).
type responseCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	clock   clockwork.Clock
}

type cacheEntry struct {
	value    Response
	expireAt time.Time
}

func newResponseCache(ttl time.Duration) *responseCache {
	return &responseCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		clock:   clockwork.NewRealClock(),
	}
}

func (c *responseCache) get(key string) (Response, bool) {
	if c.ttl <= 0 {
		return Response{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Response{}, false
	}
	if c.clock.Now().After(e.expireAt) {
		delete(c.entries, key)
		return Response{}, false
	}
	return e.value, true
}

func (c *responseCache) put(key string, value Response) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, expireAt: c.clock.Now().Add(c.ttl)}
}

// metadataCache is the process-wide, TTL-expiring cache for station lists
// and other metadata lookups (§4.5, §5: "writes serialized via the cache
// library's lock; reads lock-free after warmup" is approximated here with
// a read-write mutex, since no sync.Map-style lock-free cache library appears
// anywhere in the retrieved pack).
type metadataCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
	clock   clockwork.Clock
}

func newMetadataCache(ttl time.Duration) *metadataCache {
	return &metadataCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		clock:   clockwork.NewRealClock(),
	}
}

func (c *metadataCache) get(key string) (Response, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.clock.Now().After(e.expireAt) {
		return Response{}, false
	}
	return e.value, true
}

func (c *metadataCache) put(key string, value Response) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, expireAt: c.clock.Now().Add(c.ttl)}
}
