package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"storefront-client/internal/backend"
	"storefront-client/internal/models"
	"storefront-client/internal/notify"
	"storefront-client/internal/util"

	"go.uber.org/zap"
)

var (
	// ErrAuthRequired is returned when a protected action runs without
	// a session. The caller has already been redirected to login.
	ErrAuthRequired = errors.New("authentication required")

	// ErrSizeRequired is returned when an add-to-cart call carries no size.
	ErrSizeRequired = errors.New("size is required")
)

// CartBackend is the backend surface the cart engine depends on.
type CartBackend interface {
	UpdateCart(ctx context.Context, itemID, size string, quantity int) (models.CartData, error)
	GetCart(ctx context.Context) (models.CartData, error)
	ClearCart(ctx context.Context) error
}

// CartService reconciles the local cart with the server cart. Adds are
// confirmed server-first; removals and quantity edits apply
// optimistically with the rules of each operation deciding whether a
// failed sync rolls back.
type CartService struct {
	backend CartBackend
	session *SessionStore
	catalog *CatalogCache
	notify  notify.Notifier
	nav     notify.Navigator
	logger  *zap.Logger

	mu    sync.Mutex
	items models.CartData
}

// NewCartService creates a cart engine. The cart resets whenever the
// session clears.
func NewCartService(b CartBackend, session *SessionStore, catalog *CatalogCache, n notify.Notifier, nav notify.Navigator) *CartService {
	s := &CartService{
		backend: b,
		session: session,
		catalog: catalog,
		notify:  n,
		nav:     nav,
		logger:  util.GetLogger(),
		items:   models.CartData{},
	}
	session.OnClear(s.Reset)
	return s
}

// AddItem increments the quantity for (productID, size) by one through a
// server round-trip. Local state is only replaced with the server's
// authoritative cart, never incremented ahead of confirmation.
func (s *CartService) AddItem(ctx context.Context, productID, size string) error {
	ctx, span := util.StartSpan(ctx, "CartService.AddItem")
	defer span.End()

	if !s.session.Authenticated() {
		s.notify.Error("Please login to add items to cart")
		s.nav.Navigate(notify.RouteLogin)
		return ErrAuthRequired
	}
	if size == "" {
		s.notify.Error("Please select a size")
		return ErrSizeRequired
	}

	util.CartOperationsTotal.WithLabelValues("add").Inc()

	data, err := s.backend.UpdateCart(ctx, productID, size, s.Quantity(productID, size)+1)
	if err != nil {
		util.CartSyncFailuresTotal.WithLabelValues("add").Inc()
		s.logger.Error("Failed to add item to cart",
			zap.String("product_id", productID),
			zap.String("size", size),
			zap.Error(err))
		s.notify.Error("Failed to update cart")
		return fmt.Errorf("failed to add item to cart: %w", err)
	}

	s.replace(data)
	s.notify.Success("Item added to cart!")
	return nil
}

// RemoveItem decrements the quantity for (productID, size) by one,
// optimistically. The local cart is the source of truth here; a failed
// sync surfaces an error notification and nothing else.
func (s *CartService) RemoveItem(ctx context.Context, productID, size string) error {
	ctx, span := util.StartSpan(ctx, "CartService.RemoveItem")
	defer span.End()

	s.mu.Lock()
	if s.items[productID][size] <= 0 {
		s.mu.Unlock()
		return nil
	}
	s.items[productID][size]--
	remaining := s.items[productID][size]
	s.items.Prune()
	s.mu.Unlock()

	util.CartOperationsTotal.WithLabelValues("remove").Inc()

	if s.session.Authenticated() {
		if _, err := s.backend.UpdateCart(ctx, productID, size, remaining); err != nil {
			util.CartSyncFailuresTotal.WithLabelValues("remove").Inc()
			s.logger.Warn("Cart sync failed after removal",
				zap.String("product_id", productID),
				zap.Error(err))
			s.notify.Error("Failed to update cart")
			return nil
		}
	}

	s.notify.Success("Item updated in cart")
	return nil
}

// SetQuantity sets the quantity for (productID, size). A negative
// quantity coerces to zero, which deletes the entry. The edit applies
// optimistically and rolls back to the previous snapshot if the server
// rejects it, surfacing the server message verbatim.
func (s *CartService) SetQuantity(ctx context.Context, productID, size string, quantity int) error {
	ctx, span := util.StartSpan(ctx, "CartService.SetQuantity")
	defer span.End()

	if quantity < 0 {
		quantity = 0
	}

	s.mu.Lock()
	snapshot := s.items.Clone()
	if quantity <= 0 {
		if sizes, ok := s.items[productID]; ok {
			delete(sizes, size)
			if len(sizes) == 0 {
				delete(s.items, productID)
			}
		}
	} else {
		if s.items[productID] == nil {
			s.items[productID] = make(map[string]int)
		}
		s.items[productID][size] = quantity
	}
	s.mu.Unlock()

	util.CartOperationsTotal.WithLabelValues("set_quantity").Inc()

	if s.session.Authenticated() {
		if _, err := s.backend.UpdateCart(ctx, productID, size, quantity); err != nil {
			util.CartSyncFailuresTotal.WithLabelValues("set_quantity").Inc()

			s.mu.Lock()
			s.items = snapshot
			s.mu.Unlock()

			s.logger.Error("Failed to update cart quantity",
				zap.String("product_id", productID),
				zap.Int("quantity", quantity),
				zap.Error(err))
			s.notify.Error(backend.Message(err, "Failed to update cart"))
			return fmt.Errorf("failed to update quantity: %w", err)
		}
	}
	return nil
}

// Count returns the sum of all positive quantities. Entries holding
// non-positive values are skipped rather than trusted.
func (s *CartService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, sizes := range s.items {
		for _, qty := range sizes {
			if qty > 0 {
				total += qty
			}
		}
	}
	return total
}

// Amount returns the cart total: effective unit price times quantity,
// summed and rounded to the nearest integer. Entries whose product is
// not in the catalog are skipped silently.
func (s *CartService) Amount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total float64
	for id, sizes := range s.items {
		product, ok := s.catalog.Find(id)
		if !ok {
			continue
		}
		for _, qty := range sizes {
			if qty > 0 {
				total += product.EffectivePrice() * float64(qty)
			}
		}
	}
	return int(math.Round(total))
}

// Quantity returns the quantity held for (productID, size).
func (s *CartService) Quantity(productID, size string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[productID][size]
}

// Items returns a deep copy of the cart.
func (s *CartService) Items() models.CartData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.Clone()
}

// Load replaces the local cart with the server's authoritative copy.
func (s *CartService) Load(ctx context.Context) error {
	ctx, span := util.StartSpan(ctx, "CartService.Load")
	defer span.End()

	data, err := s.backend.GetCart(ctx)
	if err != nil {
		s.logger.Warn("Failed to load server cart", zap.Error(err))
		return fmt.Errorf("failed to load cart: %w", err)
	}
	s.replace(data)
	return nil
}

// Clear empties the cart. The remote clear is attempted first for an
// authenticated session; the local cart empties regardless, with the
// remote error still surfaced.
func (s *CartService) Clear(ctx context.Context) error {
	ctx, span := util.StartSpan(ctx, "CartService.Clear")
	defer span.End()

	util.CartOperationsTotal.WithLabelValues("clear").Inc()

	var remoteErr error
	if s.session.Authenticated() {
		if err := s.backend.ClearCart(ctx); err != nil {
			util.CartSyncFailuresTotal.WithLabelValues("clear").Inc()
			s.logger.Error("Failed to clear server cart", zap.Error(err))
			s.notify.Error(backend.Message(err, "Failed to clear cart"))
			remoteErr = err
		}
	}

	s.Reset()
	return remoteErr
}

// Reset empties the local cart without touching the server.
func (s *CartService) Reset() {
	s.mu.Lock()
	s.items = models.CartData{}
	s.mu.Unlock()
}

func (s *CartService) replace(data models.CartData) {
	if data == nil {
		data = models.CartData{}
	}
	data = data.Clone()
	data.Prune()

	s.mu.Lock()
	s.items = data
	s.mu.Unlock()
}
