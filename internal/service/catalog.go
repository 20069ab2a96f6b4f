package service

import (
	"context"
	"sync"
	"time"

	"storefront-client/internal/backend"
	"storefront-client/internal/models"
	"storefront-client/internal/notify"
	"storefront-client/internal/util"

	"go.uber.org/zap"
)

// DefaultCatalogTimeout is generous because the backend may be cold
// starting on its hosting platform.
const DefaultCatalogTimeout = 30 * time.Second

// CatalogBackend is the backend surface the catalog cache depends on.
type CatalogBackend interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
}

// CatalogCache holds the last-fetched product list, most recent first.
// The cart engine reads it to resolve prices; rendering reads it for
// product metadata.
type CatalogCache struct {
	backend CatalogBackend
	notify  notify.Notifier
	logger  *zap.Logger
	timeout time.Duration

	mu       sync.RWMutex
	products []models.Product
	loading  bool
}

// NewCatalogCache creates a catalog cache. A zero timeout selects
// DefaultCatalogTimeout.
func NewCatalogCache(b CatalogBackend, n notify.Notifier, timeout time.Duration) *CatalogCache {
	if timeout <= 0 {
		timeout = DefaultCatalogTimeout
	}
	return &CatalogCache{
		backend: b,
		notify:  n,
		logger:  util.GetLogger(),
		timeout: timeout,
	}
}

// Refresh fetches the product list from the backend. On any failure the
// cache is emptied and a notification distinguishes a timeout from a
// generic failure.
func (c *CatalogCache) Refresh(ctx context.Context) {
	c.setLoading(true)
	defer c.setLoading(false)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	products, err := c.backend.ListProducts(ctx)
	util.CatalogFetchLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		reason, msg := "error", backend.Message(err, "Failed to connect to the server. Please try again later.")
		if backend.IsTimeout(err) {
			reason, msg = "timeout", "Server took too long to respond. Please refresh the page."
		}
		util.CatalogFetchFailuresTotal.WithLabelValues(reason).Inc()
		c.logger.Error("Failed to fetch products", zap.String("reason", reason), zap.Error(err))
		c.notify.Error(msg)

		c.mu.Lock()
		c.products = nil
		c.mu.Unlock()
		return
	}

	// Server order is oldest first; display wants most recent first.
	reversed := make([]models.Product, len(products))
	for i, p := range products {
		reversed[len(products)-1-i] = p
	}

	c.mu.Lock()
	c.products = reversed
	c.mu.Unlock()

	c.logger.Info("Catalog refreshed", zap.Int("count", len(reversed)))
}

// Products returns a copy of the cached product list.
func (c *CatalogCache) Products() []models.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Product, len(c.products))
	copy(out, c.products)
	return out
}

// Find resolves a product by id.
func (c *CatalogCache) Find(id string) (models.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

// Loading reports whether a fetch is in flight.
func (c *CatalogCache) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

func (c *CatalogCache) setLoading(v bool) {
	c.mu.Lock()
	c.loading = v
	c.mu.Unlock()
}
