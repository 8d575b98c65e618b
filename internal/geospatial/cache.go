// Package geospatial serves basemap raster tiles through an in-memory cache in
// front of an upstream slippy-map tile server.
package geospatial

import (
	"container/list"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Tile addresses one slippy-map tile.
type Tile struct {
	Z, X, Y int
}

func (t Tile) String() string {
	return strconv.Itoa(t.Z) + "/" + strconv.Itoa(t.X) + "/" + strconv.Itoa(t.Y)
}

// TileCache is a concurrency-safe LRU cache of tile bodies with TTL expiry.
type TileCache struct {
	mu         sync.Mutex
	entries    map[Tile]*list.Element
	lru        *list.List // front = most recently used
	maxEntries int
	ttl        time.Duration
	hits       atomic.Int64
	misses     atomic.Int64

	now func() time.Time
}

type cacheEntry struct {
	tile     Tile
	data     []byte
	storedAt time.Time
}

// CacheStats reports cache usage.
type CacheStats struct {
	Entries    int     `json:"entries"`
	MaxEntries int     `json:"max_entries"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
}

// NewTileCache creates a cache holding at most maxEntries tiles for ttl each.
func NewTileCache(maxEntries int, ttl time.Duration) *TileCache {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &TileCache{
		entries:    make(map[Tile]*list.Element),
		lru:        list.New(),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Get returns a cached tile, or nil on a miss or an expired entry.
func (c *TileCache) Get(t Tile) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[t]
	if !ok {
		c.misses.Add(1)
		return nil
	}
	entry := el.Value.(*cacheEntry)
	if c.ttl > 0 && c.now().Sub(entry.storedAt) > c.ttl {
		c.lru.Remove(el)
		delete(c.entries, t)
		c.misses.Add(1)
		return nil
	}

	c.lru.MoveToFront(el)
	c.hits.Add(1)
	return entry.data
}

// Put stores a tile, evicting the least recently used tile when full.
func (c *TileCache) Put(t Tile, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[t]; ok {
		el.Value = &cacheEntry{tile: t, data: data, storedAt: c.now()}
		c.lru.MoveToFront(el)
		return
	}

	for c.lru.Len() >= c.maxEntries {
		oldest := c.lru.Back()
		c.lru.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).tile)
	}
	c.entries[t] = c.lru.PushFront(&cacheEntry{tile: t, data: data, storedAt: c.now()})
}

// Stats returns usage counters.
func (c *TileCache) Stats() CacheStats {
	c.mu.Lock()
	entries := c.lru.Len()
	c.mu.Unlock()

	hits, misses := c.hits.Load(), c.misses.Load()
	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return CacheStats{Entries: entries, MaxEntries: c.maxEntries, Hits: hits, Misses: misses, HitRate: rate}
}
