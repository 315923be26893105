package search

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"strconv"
	"sync"
	"time"

	"cinesearch/internal/models"
)

type cacheItem struct {
	results []models.CatalogDocument
	expires time.Time
}

// Cache memoizes search results for a fixed TTL. Eviction is lazy: an
// expired item is discarded when its key is next looked up, never by a
// background sweeper.
type Cache struct {
	mu    sync.Mutex
	items map[string]cacheItem
	ttl   time.Duration
	now   func() time.Time
}

func NewCache(ttl time.Duration, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		items: make(map[string]cacheItem),
		ttl:   ttl,
		now:   now,
	}
}

// Key derives the cache key from everything that shapes a result set:
// the collection searched, the query vector, the limit and the filter.
func Key(kind models.MediaKind, vector []float32, limit int, filter Filter) string {
	h := sha256.New()
	h.Write([]byte(kind))
	h.Write([]byte{0})
	var buf [4]byte
	for _, v := range vector {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
		h.Write(buf[:])
	}
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(limit)))
	h.Write([]byte{0})
	h.Write([]byte(FilterKey(filter)))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached results for key, or nil and false when absent
// or expired.
func (c *Cache) Get(key string) ([]models.CatalogDocument, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if c.now().After(item.expires) {
		delete(c.items, key)
		return nil, false
	}
	return item.results, true
}

func (c *Cache) Set(key string, results []models.CatalogDocument) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = cacheItem{
		results: results,
		expires: c.now().Add(c.ttl),
	}
}

// Len reports the number of entries held, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
