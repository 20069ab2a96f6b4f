package service

import (
	"context"
	"errors"
	"testing"

	"storefront-client/internal/backend"
	"storefront-client/internal/models"
	"storefront-client/internal/notify"
	"storefront-client/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cartBackendStub struct {
	updateFn    func(itemID, size string, quantity int) (models.CartData, error)
	getFn       func() (models.CartData, error)
	clearFn     func() error
	updateCalls int
}

func (s *cartBackendStub) UpdateCart(ctx context.Context, itemID, size string, quantity int) (models.CartData, error) {
	s.updateCalls++
	if s.updateFn == nil {
		return models.CartData{}, nil
	}
	return s.updateFn(itemID, size, quantity)
}

func (s *cartBackendStub) GetCart(ctx context.Context) (models.CartData, error) {
	if s.getFn == nil {
		return models.CartData{}, nil
	}
	return s.getFn()
}

func (s *cartBackendStub) ClearCart(ctx context.Context) error {
	if s.clearFn == nil {
		return nil
	}
	return s.clearFn()
}

func newTestSession(t *testing.T, authenticated bool) *SessionStore {
	t.Helper()
	s := NewSessionStore(store.NewMemory())
	if authenticated {
		require.NoError(t, s.Begin(context.Background(), models.Session{
			Token:     "test-token",
			UserID:    "user-1",
			UserEmail: "user@example.com",
		}))
	}
	return s
}

func newTestCatalog(products ...models.Product) *CatalogCache {
	c := NewCatalogCache(nil, &notify.Recorder{}, 0)
	c.products = products
	return c
}

func newTestCart(t *testing.T, b *cartBackendStub, authenticated bool, catalog *CatalogCache) (*CartService, *notify.Recorder) {
	t.Helper()
	rec := &notify.Recorder{}
	if catalog == nil {
		catalog = newTestCatalog()
	}
	return NewCartService(b, newTestSession(t, authenticated), catalog, rec, rec), rec
}

func TestAddItemUnauthenticated(t *testing.T) {
	b := &cartBackendStub{}
	cart, rec := newTestCart(t, b, false, nil)

	err := cart.AddItem(context.Background(), "p1", "M")

	assert.ErrorIs(t, err, ErrAuthRequired)
	assert.Zero(t, b.updateCalls, "no network call for unauthenticated add")
	assert.Empty(t, cart.Items())
	assert.Equal(t, []string{notify.RouteLogin}, rec.Routes)
	assert.Contains(t, rec.Errors, "Please login to add items to cart")
}

func TestAddItemRequiresSize(t *testing.T) {
	b := &cartBackendStub{}
	cart, rec := newTestCart(t, b, true, nil)

	err := cart.AddItem(context.Background(), "p1", "")

	assert.ErrorIs(t, err, ErrSizeRequired)
	assert.Zero(t, b.updateCalls)
	assert.Contains(t, rec.Errors, "Please select a size")
}

func TestAddItemAdoptsServerCart(t *testing.T) {
	b := &cartBackendStub{
		updateFn: func(itemID, size string, quantity int) (models.CartData, error) {
			assert.Equal(t, "p1", itemID)
			assert.Equal(t, "M", size)
			assert.Equal(t, 1, quantity)
			return models.CartData{"p1": {"M": 1}}, nil
		},
	}
	cart, rec := newTestCart(t, b, true, nil)

	require.NoError(t, cart.AddItem(context.Background(), "p1", "M"))

	assert.Equal(t, models.CartData{"p1": {"M": 1}}, cart.Items())
	assert.Contains(t, rec.Successes, "Item added to cart!")
}

func TestAddItemServerErrorLeavesCartUntouched(t *testing.T) {
	b := &cartBackendStub{
		updateFn: func(string, string, int) (models.CartData, error) {
			return nil, errors.New("boom")
		},
	}
	cart, rec := newTestCart(t, b, true, nil)

	err := cart.AddItem(context.Background(), "p1", "M")

	assert.Error(t, err)
	assert.Empty(t, cart.Items())
	assert.Contains(t, rec.Errors, "Failed to update cart")
}

func TestRemoveItemDecrementsAndPrunes(t *testing.T) {
	b := &cartBackendStub{}
	cart, _ := newTestCart(t, b, true, nil)
	cart.items = models.CartData{"p1": {"M": 2, "L": 1}}

	require.NoError(t, cart.RemoveItem(context.Background(), "p1", "M"))
	assert.Equal(t, 1, cart.Quantity("p1", "M"))

	require.NoError(t, cart.RemoveItem(context.Background(), "p1", "M"))
	assert.Zero(t, cart.Quantity("p1", "M"))
	assert.Equal(t, models.CartData{"p1": {"L": 1}}, cart.Items())

	require.NoError(t, cart.RemoveItem(context.Background(), "p1", "L"))
	assert.Empty(t, cart.Items(), "product entry removed when no sizes remain")
}

func TestRemoveItemSyncFailureKeepsLocalState(t *testing.T) {
	b := &cartBackendStub{
		updateFn: func(string, string, int) (models.CartData, error) {
			return nil, errors.New("network down")
		},
	}
	cart, rec := newTestCart(t, b, true, nil)
	cart.items = models.CartData{"p1": {"M": 3}}

	require.NoError(t, cart.RemoveItem(context.Background(), "p1", "M"))

	assert.Equal(t, 2, cart.Quantity("p1", "M"), "local state stands despite failed sync")
	assert.Contains(t, rec.Errors, "Failed to update cart")
}

func TestSetQuantityZeroDeletesEntry(t *testing.T) {
	b := &cartBackendStub{}
	cart, _ := newTestCart(t, b, true, nil)
	cart.items = models.CartData{"p1": {"M": 3}}

	require.NoError(t, cart.SetQuantity(context.Background(), "p1", "M", 0))

	assert.Empty(t, cart.Items())
}

func TestSetQuantityNegativeCoercesToZero(t *testing.T) {
	b := &cartBackendStub{
		updateFn: func(_, _ string, quantity int) (models.CartData, error) {
			assert.Equal(t, 0, quantity)
			return models.CartData{}, nil
		},
	}
	cart, _ := newTestCart(t, b, true, nil)
	cart.items = models.CartData{"p1": {"M": 3}}

	require.NoError(t, cart.SetQuantity(context.Background(), "p1", "M", -5))

	assert.Empty(t, cart.Items())
}

func TestSetQuantityRollsBackOnServerError(t *testing.T) {
	b := &cartBackendStub{
		updateFn: func(string, string, int) (models.CartData, error) {
			return nil, &backend.Error{Status: 400, Message: "quantity exceeds stock"}
		},
	}
	cart, rec := newTestCart(t, b, true, nil)
	cart.items = models.CartData{"p1": {"M": 3}}

	err := cart.SetQuantity(context.Background(), "p1", "M", 7)

	assert.Error(t, err)
	assert.Equal(t, 3, cart.Quantity("p1", "M"), "reverted to previous snapshot")
	assert.Contains(t, rec.Errors, "quantity exceeds stock", "server message surfaced verbatim")
}

func TestCountSkipsMalformedEntries(t *testing.T) {
	cart, _ := newTestCart(t, &cartBackendStub{}, true, nil)
	cart.items = models.CartData{
		"p1": {"M": 2, "L": 0},
		"p2": {"S": -4, "M": 3},
	}

	assert.Equal(t, 5, cart.Count())
}

func TestAmountSkipsUnknownProductsAndRounds(t *testing.T) {
	catalog := newTestCatalog(
		models.Product{ID: "p1", Price: 100, Discount: 10}, // effective 90
		models.Product{ID: "p2", Price: 33.33},
	)
	cart, _ := newTestCart(t, &cartBackendStub{}, true, catalog)
	cart.items = models.CartData{
		"p1":      {"M": 2},  // 180
		"p2":      {"S": 1},  // 33.33
		"unknown": {"M": 10}, // skipped
	}

	assert.Equal(t, 213, cart.Amount())
}

func TestClearAlwaysResetsLocalState(t *testing.T) {
	b := &cartBackendStub{
		clearFn: func() error { return &backend.Error{Status: 500, Message: "server busy"} },
	}
	cart, rec := newTestCart(t, b, true, nil)
	cart.items = models.CartData{"p1": {"M": 1}}

	err := cart.Clear(context.Background())

	assert.Error(t, err, "remote failure still surfaced")
	assert.Empty(t, cart.Items(), "local cart cleared regardless")
	assert.Contains(t, rec.Errors, "server busy")
}

func TestLoadReplacesWithServerCart(t *testing.T) {
	b := &cartBackendStub{
		getFn: func() (models.CartData, error) {
			return models.CartData{"p9": {"XL": 2, "S": 0}}, nil
		},
	}
	cart, _ := newTestCart(t, b, true, nil)
	cart.items = models.CartData{"p1": {"M": 1}}

	require.NoError(t, cart.Load(context.Background()))

	assert.Equal(t, models.CartData{"p9": {"XL": 2}}, cart.Items(), "non-positive entries pruned")
}

func TestCartResetsWhenSessionClears(t *testing.T) {
	session := newTestSession(t, true)
	rec := &notify.Recorder{}
	cart := NewCartService(&cartBackendStub{}, session, newTestCatalog(), rec, rec)
	cart.items = models.CartData{"p1": {"M": 1}}

	require.NoError(t, session.Clear(context.Background()))

	assert.Empty(t, cart.Items())
}
