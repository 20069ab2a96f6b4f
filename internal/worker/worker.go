package worker

import (
	"context"
	"time"

	"storefront-client/internal/service"
	"storefront-client/internal/util"

	"go.uber.org/zap"
)

// CatalogWorker refreshes the catalog cache in the background so a
// long-running gateway keeps serving fresh product data.
type CatalogWorker struct {
	catalog  *service.CatalogCache
	interval time.Duration
	logger   *zap.Logger
	stop     chan struct{}
}

// NewCatalogWorker creates a catalog worker refreshing every interval.
func NewCatalogWorker(catalog *service.CatalogCache, interval time.Duration) *CatalogWorker {
	return &CatalogWorker{
		catalog:  catalog,
		interval: interval,
		logger:   util.GetLogger(),
		stop:     make(chan struct{}),
	}
}

// Start runs the refresh loop until the context is cancelled or Stop is
// called.
func (w *CatalogWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting catalog worker", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Catalog worker context cancelled, stopping...")
			return ctx.Err()
		case <-w.stop:
			return nil
		case <-ticker.C:
			w.catalog.Refresh(ctx)
		}
	}
}

// Stop stops the worker
func (w *CatalogWorker) Stop() {
	close(w.stop)
}
