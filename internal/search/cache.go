package search

import (
	"context"
	"sync"
	"time"

	"distributorsearch_api/internal/core/models"
)

// CatalogCache holds the merged supplier catalog in memory. It is populated
// lazily on the first request and kept until invalidated or refreshed, so
// repeated searches do not hammer the upstream feeds.
type CatalogCache struct {
	aggregator *Aggregator

	mu       sync.Mutex
	loaded   bool
	products []models.SupplierProduct
	loadedAt time.Time
}

func NewCatalogCache(aggregator *Aggregator) *CatalogCache {
	return &CatalogCache{aggregator: aggregator}
}

// Products returns the cached catalog, fetching it first if the cache is
// cold. Concurrent cold-start callers serialize on one fetch.
func (c *CatalogCache) Products(ctx context.Context) []models.SupplierProduct {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		c.products = c.aggregator.FetchAll(ctx)
		c.loaded = true
		c.loadedAt = time.Now()
	}
	return c.products
}

// Refresh re-fetches the catalog unconditionally and returns the new count.
func (c *CatalogCache) Refresh(ctx context.Context) int {
	products := c.aggregator.FetchAll(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = products
	c.loaded = true
	c.loadedAt = time.Now()
	return len(products)
}

// Invalidate drops the cached catalog; the next Products call re-fetches.
func (c *CatalogCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = false
	c.products = nil
}

// LoadedAt reports when the current catalog was fetched; zero if cold.
func (c *CatalogCache) LoadedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		return time.Time{}
	}
	return c.loadedAt
}

// Search runs a query against the cached catalog.
func (c *CatalogCache) Search(ctx context.Context, query Query) Result {
	return query.Apply(c.Products(ctx))
}
