package service

import (
	"context"
	"errors"
	"sync"

	"storefront-client/internal/models"
	"storefront-client/internal/store"
	"storefront-client/internal/util"

	"go.uber.org/zap"
)

// SessionStore owns the authenticated identity. It has two states,
// anonymous and authenticated, and persists token, user id and email so
// a session survives restarts. A persisted token is trusted until the
// first authenticated call fails.
type SessionStore struct {
	storage store.Store
	logger  *zap.Logger

	mu      sync.RWMutex
	current models.Session
	onClear []func()
}

// NewSessionStore creates a session store and restores any persisted
// session from storage.
func NewSessionStore(storage store.Store) *SessionStore {
	s := &SessionStore{
		storage: storage,
		logger:  util.GetLogger(),
	}
	s.restore()
	return s
}

func (s *SessionStore) restore() {
	ctx := context.Background()

	read := func(key string) string {
		v, err := s.storage.Get(ctx, key)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("Failed to read persisted session field",
				zap.String("key", key), zap.Error(err))
		}
		return v
	}

	s.current = models.Session{
		Token:     read(store.KeyToken),
		UserID:    read(store.KeyUserID),
		UserEmail: read(store.KeyUserEmail),
	}
	if s.current.Authenticated() {
		s.logger.Info("Restored persisted session", zap.String("user_id", s.current.UserID))
	}
}

// Current returns a copy of the session.
func (s *SessionStore) Current() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Authenticated reports whether a session is active.
func (s *SessionStore) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Authenticated()
}

// Token returns the current auth token, or "" when anonymous.
func (s *SessionStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Token
}

// UserID returns the current user id, or "" when anonymous.
func (s *SessionStore) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.UserID
}

// OnClear registers a callback invoked whenever the session transitions
// to anonymous, so dependent state (cart, wishlist) resets with it.
func (s *SessionStore) OnClear(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClear = append(s.onClear, fn)
}

// Begin transitions to authenticated and persists the session fields.
func (s *SessionStore) Begin(ctx context.Context, sess models.Session) error {
	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()

	for key, value := range map[string]string{
		store.KeyToken:     sess.Token,
		store.KeyUserID:    sess.UserID,
		store.KeyUserEmail: sess.UserEmail,
	} {
		if err := s.storage.Set(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}

// Clear transitions to anonymous, removes the persisted fields and
// notifies registered listeners. Used on logout and on a 401 response.
func (s *SessionStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.current = models.Session{}
	listeners := make([]func(), len(s.onClear))
	copy(listeners, s.onClear)
	s.mu.Unlock()

	var firstErr error
	for _, key := range []string{store.KeyToken, store.KeyUserID, store.KeyUserEmail} {
		if err := s.storage.Delete(ctx, key); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for _, fn := range listeners {
		fn()
	}
	return firstErr
}
