package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CartOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_operations_total",
		Help: "Total number of cart operations",
	}, []string{"op"})

	CartSyncFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_sync_failures_total",
		Help: "Total number of failed cart syncs to the backend",
	}, []string{"op"})

	WishlistOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wishlist_operations_total",
		Help: "Total number of wishlist operations",
	}, []string{"op"})

	WishlistSyncFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wishlist_sync_failures_total",
		Help: "Total number of failed wishlist syncs to the backend",
	}, []string{"op"})

	WishlistMergePushesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wishlist_merge_pushes_total",
		Help: "Total number of local-only wishlist items pushed during login merge",
	})

	CatalogFetchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_fetch_latency_seconds",
		Help:    "Latency of catalog fetches from the backend",
		Buckets: prometheus.DefBuckets,
	})

	CatalogFetchFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_fetch_failures_total",
		Help: "Total number of failed catalog fetches",
	}, []string{"reason"})

	OrdersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Total number of orders placed through checkout",
	})

	ReviewsSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reviews_submitted_total",
		Help: "Total number of product reviews submitted",
	})

	SessionExpirationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "session_expirations_total",
		Help: "Total number of sessions invalidated by a 401 response",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
