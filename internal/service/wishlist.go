package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"storefront-client/internal/backend"
	"storefront-client/internal/notify"
	"storefront-client/internal/store"
	"storefront-client/internal/util"

	"go.uber.org/zap"
)

// WishlistBackend is the backend surface the wishlist engine depends on.
type WishlistBackend interface {
	GetWishlist(ctx context.Context) ([]string, error)
	AddWishlistItem(ctx context.Context, productID string) ([]string, error)
	RemoveWishlistItem(ctx context.Context, productID string) ([]string, error)
}

// WishlistService reconciles the local wishlist set with the server copy.
// Mutations apply optimistically and persist to storage immediately; the
// server's authoritative list, when returned, replaces the optimistic one.
type WishlistService struct {
	backend WishlistBackend
	session *SessionStore
	storage store.Store
	notify  notify.Notifier
	nav     notify.Navigator
	logger  *zap.Logger

	mu    sync.Mutex
	items []string
}

// NewWishlistService creates a wishlist engine. The wishlist resets
// whenever the session clears.
func NewWishlistService(b WishlistBackend, session *SessionStore, storage store.Store, n notify.Notifier, nav notify.Navigator) *WishlistService {
	s := &WishlistService{
		backend: b,
		session: session,
		storage: storage,
		notify:  n,
		nav:     nav,
		logger:  util.GetLogger(),
	}
	session.OnClear(s.resetLocal)
	return s
}

// Toggle flips membership for productID, dispatching to Add or Remove.
func (s *WishlistService) Toggle(ctx context.Context, productID string) error {
	ctx, span := util.StartSpan(ctx, "WishlistService.Toggle")
	defer span.End()

	if !s.session.Authenticated() {
		s.nav.Navigate(notify.RouteLogin)
		s.notify.Warning("Please login to manage your wishlist")
		return ErrAuthRequired
	}

	if s.Contains(productID) {
		return s.Remove(ctx, productID)
	}
	return s.Add(ctx, productID)
}

// Add inserts productID into the set (a no-op when already present),
// persists, then syncs to the server. A 401 invalidates the session and
// redirects to login; the failure is still returned to the caller.
func (s *WishlistService) Add(ctx context.Context, productID string) error {
	ctx, span := util.StartSpan(ctx, "WishlistService.Add")
	defer span.End()

	util.WishlistOperationsTotal.WithLabelValues("add").Inc()

	s.mu.Lock()
	if !contains(s.items, productID) {
		s.items = append(s.items, productID)
	}
	s.persistLocked(ctx)
	s.mu.Unlock()

	list, err := s.backend.AddWishlistItem(ctx, productID)
	if err != nil {
		util.WishlistSyncFailuresTotal.WithLabelValues("add").Inc()
		s.notify.Error(backend.Message(err, "Failed to add to wishlist"))
		s.handleAuthFailure(ctx, err)
		return fmt.Errorf("failed to add to wishlist: %w", err)
	}

	if list != nil {
		s.setItems(ctx, list)
	}
	s.notify.Success("Added to your wishlist")
	return nil
}

// Remove is symmetric to Add, using set difference.
func (s *WishlistService) Remove(ctx context.Context, productID string) error {
	ctx, span := util.StartSpan(ctx, "WishlistService.Remove")
	defer span.End()

	util.WishlistOperationsTotal.WithLabelValues("remove").Inc()

	s.mu.Lock()
	kept := s.items[:0]
	for _, id := range s.items {
		if id != productID {
			kept = append(kept, id)
		}
	}
	s.items = kept
	s.persistLocked(ctx)
	s.mu.Unlock()

	list, err := s.backend.RemoveWishlistItem(ctx, productID)
	if err != nil {
		util.WishlistSyncFailuresTotal.WithLabelValues("remove").Inc()
		s.notify.Error(backend.Message(err, "Failed to remove from wishlist"))
		s.handleAuthFailure(ctx, err)
		return fmt.Errorf("failed to remove from wishlist: %w", err)
	}

	if list != nil {
		s.setItems(ctx, list)
	}
	s.notify.Success("Removed from your wishlist")
	return nil
}

// Contains reports membership. Pure lookup, no side effects.
func (s *WishlistService) Contains(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return contains(s.items, productID)
}

// Items returns a copy of the wishlist.
func (s *WishlistService) Items() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// LoadLocal restores the persisted wishlist. A corrupt persisted value
// is discarded rather than fatal.
func (s *WishlistService) LoadLocal(ctx context.Context) {
	raw, err := s.storage.Get(ctx, store.KeyWishlist)
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	if err != nil {
		s.logger.Warn("Failed to read persisted wishlist", zap.Error(err))
		return
	}

	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.logger.Warn("Discarding corrupt persisted wishlist", zap.Error(err))
		_ = s.storage.Delete(ctx, store.KeyWishlist)
		return
	}

	s.mu.Lock()
	s.items = dedupe(items)
	s.mu.Unlock()
}

// LoadRemote replaces the local wishlist with the server copy.
func (s *WishlistService) LoadRemote(ctx context.Context) error {
	list, err := s.backend.GetWishlist(ctx)
	if err != nil {
		return fmt.Errorf("failed to load wishlist: %w", err)
	}
	s.setItems(ctx, list)
	return nil
}

// MergeOnLogin reconciles the pre-login local wishlist with the server
// copy: the union becomes the new state, and every element present
// locally but missing remotely is pushed to the server. The merge is
// additive only; it cannot distinguish a locally removed entry from one
// that was never synced.
func (s *WishlistService) MergeOnLogin(ctx context.Context) error {
	ctx, span := util.StartSpan(ctx, "WishlistService.MergeOnLogin")
	defer span.End()

	local := s.Items()

	server, err := s.backend.GetWishlist(ctx)
	if err != nil {
		// The local list stands when the server copy is unavailable.
		s.logger.Warn("Wishlist merge skipped, server list unavailable", zap.Error(err))
		return fmt.Errorf("failed to fetch server wishlist: %w", err)
	}

	onServer := make(map[string]bool, len(server))
	for _, id := range server {
		onServer[id] = true
	}

	s.setItems(ctx, append(local, server...))

	var wg sync.WaitGroup
	for _, id := range local {
		if onServer[id] {
			continue
		}
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := s.backend.AddWishlistItem(ctx, id); err != nil {
				s.logger.Warn("Failed to push wishlist item during merge",
					zap.String("product_id", id), zap.Error(err))
				return
			}
			util.WishlistMergePushesTotal.Inc()
		}(id)
	}
	wg.Wait()

	s.logger.Info("Wishlist merged",
		zap.Int("local", len(local)),
		zap.Int("server", len(server)),
		zap.Int("merged", len(s.Items())))
	return nil
}

// Reset empties the wishlist and removes the persisted copy.
func (s *WishlistService) Reset(ctx context.Context) {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()
	if err := s.storage.Delete(ctx, store.KeyWishlist); err != nil {
		s.logger.Warn("Failed to remove persisted wishlist", zap.Error(err))
	}
}

func (s *WishlistService) resetLocal() {
	s.Reset(context.Background())
}

func (s *WishlistService) handleAuthFailure(ctx context.Context, err error) {
	if !backend.IsSessionExpired(err) {
		return
	}
	util.SessionExpirationsTotal.Inc()
	if cerr := s.session.Clear(ctx); cerr != nil {
		s.logger.Warn("Failed to clear expired session", zap.Error(cerr))
	}
	s.nav.Navigate(notify.RouteLogin)
}

func (s *WishlistService) setItems(ctx context.Context, items []string) {
	s.mu.Lock()
	s.items = dedupe(items)
	s.persistLocked(ctx)
	s.mu.Unlock()
}

// persistLocked writes the wishlist to storage. Callers hold s.mu.
func (s *WishlistService) persistLocked(ctx context.Context) {
	raw, err := json.Marshal(s.items)
	if err != nil {
		s.logger.Error("Failed to marshal wishlist", zap.Error(err))
		return
	}
	if err := s.storage.Set(ctx, store.KeyWishlist, string(raw)); err != nil {
		s.logger.Warn("Failed to persist wishlist", zap.Error(err))
	}
}

func contains(items []string, id string) bool {
	for _, v := range items {
		if v == id {
			return true
		}
	}
	return false
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, id := range items {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
