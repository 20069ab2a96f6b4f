package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront-client/internal/backend"
	"storefront-client/internal/models"
	"storefront-client/internal/notify"
	"storefront-client/internal/service"
	"storefront-client/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatewayBackendStub covers every backend surface the engines need, so
// one stub can stand behind a fully wired router.
type gatewayBackendStub struct {
	products  []models.Product
	cartData  models.CartData
	orders    []models.Order
	ordersErr error
	orderErr  error
}

func (s *gatewayBackendStub) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.products, nil
}

func (s *gatewayBackendStub) UpdateCart(ctx context.Context, itemID, size string, quantity int) (models.CartData, error) {
	return s.cartData, nil
}

func (s *gatewayBackendStub) GetCart(ctx context.Context) (models.CartData, error) {
	return s.cartData, nil
}

func (s *gatewayBackendStub) ClearCart(ctx context.Context) error { return nil }

func (s *gatewayBackendStub) GetWishlist(ctx context.Context) ([]string, error) { return nil, nil }

func (s *gatewayBackendStub) AddWishlistItem(ctx context.Context, productID string) ([]string, error) {
	return nil, nil
}

func (s *gatewayBackendStub) RemoveWishlistItem(ctx context.Context, productID string) ([]string, error) {
	return nil, nil
}

func (s *gatewayBackendStub) Login(ctx context.Context, email, password string) (models.Session, error) {
	return models.Session{Token: "tok", UserID: "user-1", UserEmail: email}, nil
}

func (s *gatewayBackendStub) Register(ctx context.Context, name, email, password string) (models.Session, error) {
	return models.Session{Token: "tok", UserID: "user-1", UserEmail: email}, nil
}

func (s *gatewayBackendStub) CreateOrder(ctx context.Context, req models.OrderRequest) (*models.Order, error) {
	if s.orderErr != nil {
		return nil, s.orderErr
	}
	return &models.Order{ID: "order-1", Amount: req.Amount, Status: models.OrderStatusPlaced}, nil
}

func (s *gatewayBackendStub) ListUserOrders(ctx context.Context) ([]models.Order, error) {
	return s.orders, s.ordersErr
}

func (s *gatewayBackendStub) SubmitReview(ctx context.Context, productID string, rating int, feedback string) (string, error) {
	return "Review submitted", nil
}

type gatewayFixture struct {
	router  *gin.Engine
	backend *gatewayBackendStub
	cart    *service.CartService
	catalog *service.CatalogCache
}

func newGatewayFixture(t *testing.T, authenticated bool) *gatewayFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	b := &gatewayBackendStub{}
	st := store.NewMemory()
	session := service.NewSessionStore(st)
	if authenticated {
		require.NoError(t, session.Begin(context.Background(), models.Session{
			Token:     "tok",
			UserID:    "user-1",
			UserEmail: "u@example.com",
		}))
	}

	rec := &notify.Recorder{}
	catalog := service.NewCatalogCache(b, rec, 0)
	cart := service.NewCartService(b, session, catalog, rec, rec)
	wishlist := service.NewWishlistService(b, session, st, rec, rec)
	shop := service.NewShop(b, session, cart, wishlist, catalog, rec, rec, nil)

	router := gin.New()
	NewHandler(shop, nil).SetupRoutes(router)

	return &gatewayFixture{router: router, backend: b, cart: cart, catalog: catalog}
}

func (f *gatewayFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestAddToCartUnauthenticatedIs401(t *testing.T) {
	f := newGatewayFixture(t, false)

	w := f.do(t, http.MethodPost, "/api/cart/add", gin.H{"productId": "p1", "size": "M"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Authentication required", body.Error)
}

func TestAddToCartMissingSizeIs400(t *testing.T) {
	f := newGatewayFixture(t, true)

	w := f.do(t, http.MethodPost, "/api/cart/add", gin.H{"productId": "p1"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "size is required", body.Error)
}

func TestCheckoutUpstreamRejectionIs502(t *testing.T) {
	f := newGatewayFixture(t, true)
	f.backend.products = []models.Product{{ID: "p1", Name: "Shirt", Price: 100}}
	f.catalog.Refresh(context.Background())
	f.backend.cartData = models.CartData{"p1": {"M": 1}}
	require.NoError(t, f.cart.AddItem(context.Background(), "p1", "M"))
	f.backend.orderErr = &backend.Error{Status: 500, Message: "stock unavailable"}

	w := f.do(t, http.MethodPost, "/api/orders", gin.H{"paymentMethod": "COD"})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "stock unavailable", body.Error, "server message surfaced verbatim")
}

func TestCheckoutEmptyCartIs400(t *testing.T) {
	f := newGatewayFixture(t, true)

	w := f.do(t, http.MethodPost, "/api/orders", gin.H{"paymentMethod": "COD"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrdersSessionExpiryIs401(t *testing.T) {
	f := newGatewayFixture(t, true)
	f.backend.ordersErr = &backend.Error{Status: 401, Message: "jwt expired"}

	w := f.do(t, http.MethodGet, "/api/orders", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOrdersUnknownFailureIs500(t *testing.T) {
	f := newGatewayFixture(t, true)
	f.backend.ordersErr = errors.New("connection reset")

	w := f.do(t, http.MethodGet, "/api/orders", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Internal error", body.Error)
}

func TestGetCartReturnsCartShape(t *testing.T) {
	f := newGatewayFixture(t, true)
	f.backend.cartData = models.CartData{"p1": {"M": 2}}
	require.NoError(t, f.cart.AddItem(context.Background(), "p1", "M"))

	w := f.do(t, http.MethodGet, "/api/cart", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Cart models.CartData `json:"cart"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, models.CartData{"p1": {"M": 2}}, body.Cart)
}

func TestListProductsCarriesDisplayPrice(t *testing.T) {
	f := newGatewayFixture(t, false)
	f.backend.products = []models.Product{{ID: "p1", Name: "Shirt", Price: 19.99, Discount: 15}}
	f.catalog.Refresh(context.Background())

	w := f.do(t, http.MethodGet, "/api/products", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Products []struct {
			ID           string  `json:"_id"`
			Price        float64 `json:"price"`
			DisplayPrice float64 `json:"displayPrice"`
		} `json:"products"`
		Loading bool `json:"loading"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Products, 1)
	assert.Equal(t, "p1", body.Products[0].ID)
	assert.Equal(t, 19.99, body.Products[0].Price)
	assert.Equal(t, 16.99, body.Products[0].DisplayPrice, "discounted price rounded to cents")
	assert.False(t, body.Loading)
}

func TestReviewInvalidRatingIs400(t *testing.T) {
	f := newGatewayFixture(t, true)

	w := f.do(t, http.MethodPost, "/api/reviews", gin.H{"productId": "p1", "rating": 7})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "rating must be between 1 and 5", body.Error)
}

func TestCoerceQuantity(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want int
	}{
		{"json number", float64(3), 3},
		{"numeric string", "4", 4},
		{"non-numeric string", "lots", 0},
		{"nil", nil, 0},
		{"bool", true, 0},
		{"negative number", float64(-2), -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, coerceQuantity(tt.in))
		})
	}
}
