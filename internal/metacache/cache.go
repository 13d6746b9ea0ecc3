package metacache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"solana-wallet-watcher/internal/models"
)

// Cache is a time-expiring mint → metadata map consulted before any asset
// batch goes upstream. Expired entries are removed by a periodic sweep; a
// hit is only returned while the entry is younger than its TTL.
type Cache struct {
	entries *gocache.Cache
	ttl     time.Duration
}

func New(ttl, sweepInterval time.Duration) *Cache {
	return &Cache{
		entries: gocache.New(ttl, sweepInterval),
		ttl:     ttl,
	}
}

// Get returns the cached metadata for a mint, or ok=false on miss/expiry.
func (c *Cache) Get(mint string) (models.AssetMetadata, bool) {
	v, ok := c.entries.Get(mint)
	if !ok {
		return models.AssetMetadata{}, false
	}
	return v.(models.AssetMetadata), true
}

// Put stores metadata under the cache's configured TTL.
func (c *Cache) Put(mint string, meta models.AssetMetadata) {
	c.entries.Set(mint, meta, c.ttl)
}

// PutTTL stores metadata with an explicit TTL.
func (c *Cache) PutTTL(mint string, meta models.AssetMetadata, ttl time.Duration) {
	c.entries.Set(mint, meta, ttl)
}

// Size returns the number of live entries.
func (c *Cache) Size() int {
	return c.entries.ItemCount()
}

// Partition splits the requested mints into cached metadata and the subset
// that must be fetched upstream. Order of misses follows the request order.
func (c *Cache) Partition(mints []string) (hits map[string]models.AssetMetadata, misses []string) {
	hits = make(map[string]models.AssetMetadata)
	for _, mint := range mints {
		if meta, ok := c.Get(mint); ok {
			hits[mint] = meta
			continue
		}
		misses = append(misses, mint)
	}
	return hits, misses
}
