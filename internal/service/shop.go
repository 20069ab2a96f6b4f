package service

import (
	"context"
	"errors"
	"fmt"

	"storefront-client/internal/backend"
	"storefront-client/internal/broker"
	"storefront-client/internal/models"
	"storefront-client/internal/notify"
	"storefront-client/internal/util"

	"go.uber.org/zap"
)

var (
	// ErrInvalidRating is returned for a review rating outside 1-5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	// ErrFeedbackTooLong is returned when review feedback exceeds 1000 chars.
	ErrFeedbackTooLong = errors.New("feedback must be at most 1000 characters")

	// ErrEmptyCart is returned when checkout runs against an empty cart.
	ErrEmptyCart = errors.New("cart is empty")
)

// DeliveryFee is the flat shipping fee added to every order amount.
const DeliveryFee = 10

// ShopBackend is the backend surface the shop orchestrator depends on.
type ShopBackend interface {
	Login(ctx context.Context, email, password string) (models.Session, error)
	Register(ctx context.Context, name, email, password string) (models.Session, error)
	CreateOrder(ctx context.Context, req models.OrderRequest) (*models.Order, error)
	ListUserOrders(ctx context.Context) ([]models.Order, error)
	SubmitReview(ctx context.Context, productID string, rating int, feedback string) (string, error)
}

// Shop ties the session, cart, wishlist and catalog together and owns
// the flows that span them: login, logout, checkout, order history and
// review submission.
type Shop struct {
	backend  ShopBackend
	session  *SessionStore
	cart     *CartService
	wishlist *WishlistService
	catalog  *CatalogCache
	notify   notify.Notifier
	nav      notify.Navigator
	events   *broker.EventPublisher
	logger   *zap.Logger
}

// NewShop creates the shop orchestrator. events may be nil.
func NewShop(
	b ShopBackend,
	session *SessionStore,
	cart *CartService,
	wishlist *WishlistService,
	catalog *CatalogCache,
	n notify.Notifier,
	nav notify.Navigator,
	events *broker.EventPublisher,
) *Shop {
	return &Shop{
		backend:  b,
		session:  session,
		cart:     cart,
		wishlist: wishlist,
		catalog:  catalog,
		notify:   n,
		nav:      nav,
		events:   events,
		logger:   util.GetLogger(),
	}
}

// Session returns the session store.
func (s *Shop) Session() *SessionStore { return s.session }

// Cart returns the cart engine.
func (s *Shop) Cart() *CartService { return s.cart }

// Wishlist returns the wishlist engine.
func (s *Shop) Wishlist() *WishlistService { return s.wishlist }

// Catalog returns the catalog cache.
func (s *Shop) Catalog() *CatalogCache { return s.catalog }

// Bootstrap runs the startup flow: restore the local wishlist, fetch the
// catalog, and when a persisted session exists, pull the server cart and
// wishlist best effort.
func (s *Shop) Bootstrap(ctx context.Context) {
	ctx, span := util.StartSpan(ctx, "Shop.Bootstrap")
	defer span.End()

	s.wishlist.LoadLocal(ctx)
	s.catalog.Refresh(ctx)

	if !s.session.Authenticated() {
		return
	}
	if err := s.cart.Load(ctx); err != nil {
		s.expireIfNeeded(ctx, err)
		s.logger.Warn("Startup cart load failed", zap.Error(err))
	}
	if err := s.wishlist.LoadRemote(ctx); err != nil {
		s.logger.Warn("Startup wishlist load failed", zap.Error(err))
	}
}

// Login authenticates, begins the session, loads the server cart and
// runs the wishlist merge. A failed login returns the server message.
func (s *Shop) Login(ctx context.Context, email, password string) error {
	ctx, span := util.StartSpan(ctx, "Shop.Login")
	defer span.End()

	sess, err := s.backend.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if err := s.session.Begin(ctx, sess); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	if err := s.cart.Load(ctx); err != nil {
		s.logger.Warn("Cart load after login failed", zap.Error(err))
	}
	if err := s.wishlist.MergeOnLogin(ctx); err != nil {
		s.logger.Warn("Wishlist merge after login failed", zap.Error(err))
	}

	s.events.UserLoggedIn(ctx, sess.UserID)
	return nil
}

// Register creates an account and begins the session from the returned
// token. The local wishlist is pushed to the fresh account.
func (s *Shop) Register(ctx context.Context, name, email, password string) error {
	ctx, span := util.StartSpan(ctx, "Shop.Register")
	defer span.End()

	sess, err := s.backend.Register(ctx, name, email, password)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	if err := s.session.Begin(ctx, sess); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	if err := s.wishlist.MergeOnLogin(ctx); err != nil {
		s.logger.Warn("Wishlist merge after registration failed", zap.Error(err))
	}

	s.events.UserLoggedIn(ctx, sess.UserID)
	return nil
}

// Logout clears the session; the cart and wishlist reset through the
// session's clear listeners.
func (s *Shop) Logout(ctx context.Context) error {
	ctx, span := util.StartSpan(ctx, "Shop.Logout")
	defer span.End()

	return s.session.Clear(ctx)
}

// Checkout places an order and clears the cart on success.
func (s *Shop) Checkout(ctx context.Context, req models.OrderRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "Shop.Checkout")
	defer span.End()

	if !s.session.Authenticated() {
		s.nav.Navigate(notify.RouteLogin)
		return nil, ErrAuthRequired
	}

	order, err := s.backend.CreateOrder(ctx, req)
	if err != nil {
		s.expireIfNeeded(ctx, err)
		return nil, fmt.Errorf("checkout failed: %w", err)
	}

	if err := s.cart.Clear(ctx); err != nil {
		s.logger.Warn("Cart clear after checkout failed", zap.Error(err))
	}

	util.OrdersPlacedTotal.Inc()
	orderID := ""
	if order != nil {
		orderID = order.ID
	}
	s.events.OrderPlaced(ctx, s.session.UserID(), orderID, req.Amount, len(req.Items))
	return order, nil
}

// CheckoutCart builds an order from the current cart and catalog, adds
// the delivery fee and places it. Cart entries whose product is missing
// from the catalog are skipped, matching how the amount is computed.
func (s *Shop) CheckoutCart(ctx context.Context, address interface{}, paymentMethod string) (*models.Order, error) {
	items := make([]models.OrderItem, 0)
	for id, sizes := range s.cart.Items() {
		product, ok := s.catalog.Find(id)
		if !ok {
			continue
		}
		for size, qty := range sizes {
			if qty > 0 {
				items = append(items, models.OrderItem{Product: product, Size: size, Quantity: qty})
			}
		}
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	return s.Checkout(ctx, models.OrderRequest{
		Items:         items,
		Amount:        float64(s.cart.Amount() + DeliveryFee),
		Address:       address,
		PaymentMethod: paymentMethod,
	})
}

// Orders returns the user's order history.
func (s *Shop) Orders(ctx context.Context) ([]models.Order, error) {
	ctx, span := util.StartSpan(ctx, "Shop.Orders")
	defer span.End()

	if !s.session.Authenticated() {
		s.nav.Navigate(notify.RouteLogin)
		return nil, ErrAuthRequired
	}

	orders, err := s.backend.ListUserOrders(ctx)
	if err != nil {
		s.expireIfNeeded(ctx, err)
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// SubmitReview validates and submits a review, then refreshes the
// catalog so the new review shows up in product data.
func (s *Shop) SubmitReview(ctx context.Context, productID string, rating int, feedback string) error {
	ctx, span := util.StartSpan(ctx, "Shop.SubmitReview")
	defer span.End()

	if !s.session.Authenticated() {
		s.notify.Error("You must be logged in to submit a review.")
		s.nav.Navigate(notify.RouteLogin)
		return ErrAuthRequired
	}
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	if len(feedback) > 1000 {
		return ErrFeedbackTooLong
	}

	if _, err := s.backend.SubmitReview(ctx, productID, rating, feedback); err != nil {
		s.notify.Error(backend.Message(err, "Failed to submit review"))
		s.expireIfNeeded(ctx, err)
		return fmt.Errorf("failed to submit review: %w", err)
	}

	util.ReviewsSubmittedTotal.Inc()
	s.notify.Success("Review submitted!")
	s.events.ReviewSubmitted(ctx, s.session.UserID(), productID, rating)
	s.catalog.Refresh(ctx)
	return nil
}

// CanReview reports whether the user may review productID: a Delivered
// order containing the product must exist. Recomputed on every read,
// never stored.
func (s *Shop) CanReview(ctx context.Context, productID string) (bool, error) {
	orders, err := s.Orders(ctx)
	if err != nil {
		return false, err
	}
	for _, order := range orders {
		if order.Status != models.OrderStatusDelivered {
			continue
		}
		for _, item := range order.Items {
			if item.ID == productID {
				return true, nil
			}
		}
	}
	return false, nil
}

// expireIfNeeded invalidates the session after a 401 from any
// authenticated call; the cart and wishlist reset with it.
func (s *Shop) expireIfNeeded(ctx context.Context, err error) {
	if !backend.IsSessionExpired(err) {
		return
	}
	util.SessionExpirationsTotal.Inc()
	if cerr := s.session.Clear(ctx); cerr != nil {
		s.logger.Warn("Failed to clear expired session", zap.Error(cerr))
	}
	s.nav.Navigate(notify.RouteLogin)
}
