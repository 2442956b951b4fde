package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/wildmap/sightings-aggregation/internal/sightings"
)

// entry is one cached response with its capture timestamp.
type entry struct {
	observations []sightings.Observation
	storedAt     time.Time
}

// ResponseCache is a concurrency-safe, process-local TTL+capacity bounded
// store keyed by request fingerprints. Stale entries are evicted on read;
// capacity is enforced by an oldest-first sweep on write. There is no
// background timer.
type ResponseCache struct {
	mu sync.Mutex

	data map[string]entry

	ttl        time.Duration
	maxEntries int
	evictCount int

	now func() time.Time
}

// New creates a ResponseCache. When the store grows past maxEntries, the
// evictCount oldest entries are removed on the next write.
func New(ttl time.Duration, maxEntries, evictCount int) *ResponseCache {
	return &ResponseCache{
		data:       make(map[string]entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		evictCount: evictCount,
		now:        time.Now,
	}
}

// Get returns the cached observations if present and younger than the TTL.
// An expired entry is deleted on the spot.
func (c *ResponseCache) Get(key string) ([]sightings.Observation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.data[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		delete(c.data, key)
		return nil, false
	}
	return e.observations, true
}

// Set inserts or overwrites an entry with the current timestamp, then sweeps
// the oldest entries if the store exceeds its ceiling.
func (c *ResponseCache) Set(key string, obs []sightings.Observation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = entry{observations: obs, storedAt: c.now()}

	if c.maxEntries <= 0 || len(c.data) <= c.maxEntries {
		return
	}

	type aged struct {
		key      string
		storedAt time.Time
	}
	all := make([]aged, 0, len(c.data))
	for k, e := range c.data {
		all = append(all, aged{key: k, storedAt: e.storedAt})
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].storedAt.Before(all[j].storedAt)
	})

	n := c.evictCount
	if n > len(all) {
		n = len(all)
	}
	for _, a := range all[:n] {
		delete(c.data, a.key)
	}
}

// Len reports the current number of entries.
func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}
