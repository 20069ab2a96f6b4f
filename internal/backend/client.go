package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"storefront-client/internal/models"
	"storefront-client/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenSource supplies the auth token attached to protected calls.
// An empty token means anonymous.
type TokenSource interface {
	Token() string
}

// Client is a typed HTTP client for the shop backend REST API.
//
// The backend historically accepted either an Authorization bearer header
// or a bare "token" header depending on the endpoint. This client
// normalizes to Authorization: Bearer on every protected call.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  *zap.Logger
}

// NewClient creates a backend client. Per-call deadlines are controlled
// by the caller's context; the transport itself sets no global timeout.
func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		tokens:  tokens,
		logger:  util.GetLogger(),
	}
}

// response is the backend's common envelope. Endpoint-specific fields
// are simply absent when not applicable.
type response struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	Token    string          `json:"token"`
	UserID   string          `json:"userId"`
	Email    string          `json:"email"`
	Products []models.Product `json:"products"`
	CartData models.CartData `json:"cartData"`
	Wishlist []string        `json:"wishlist"`
	Orders   []models.Order  `json:"orders"`
	Order    *models.Order   `json:"order"`
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, authed bool) (*response, error) {
	var buf bytes.Buffer
	if body == nil && method != http.MethodGet {
		body = struct{}{}
	}
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if authed {
		req.Header.Set("Authorization", "Bearer "+c.tokens.Token())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && resp.StatusCode < 400 {
		return nil, fmt.Errorf("failed to decode response from %s: %w", path, err)
	}

	if resp.StatusCode >= 400 {
		c.logger.Warn("Backend rejected request",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", out.Message))
		return nil, &Error{Status: resp.StatusCode, Message: out.Message}
	}
	if !out.Success {
		return nil, &Error{Status: resp.StatusCode, Message: out.Message}
	}
	return &out, nil
}

// ListProducts fetches the full product catalog.
func (c *Client) ListProducts(ctx context.Context) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "backend.ListProducts")
	defer span.End()

	out, err := c.do(ctx, http.MethodGet, "/api/product/list", nil, false)
	if err != nil {
		return nil, err
	}
	return out.Products, nil
}

// UpdateCart sets the quantity for (itemId, size) and returns the
// authoritative server cart.
func (c *Client) UpdateCart(ctx context.Context, itemID, size string, quantity int) (models.CartData, error) {
	ctx, span := util.StartSpan(ctx, "backend.UpdateCart")
	defer span.End()

	body := map[string]interface{}{"itemId": itemID, "size": size, "quantity": quantity}
	out, err := c.do(ctx, http.MethodPost, "/api/cart/update", body, true)
	if err != nil {
		return nil, err
	}
	return out.CartData, nil
}

// GetCart fetches the authoritative server cart.
func (c *Client) GetCart(ctx context.Context) (models.CartData, error) {
	ctx, span := util.StartSpan(ctx, "backend.GetCart")
	defer span.End()

	out, err := c.do(ctx, http.MethodPost, "/api/cart/get", nil, true)
	if err != nil {
		return nil, err
	}
	return out.CartData, nil
}

// ClearCart empties the server-side cart.
func (c *Client) ClearCart(ctx context.Context) error {
	ctx, span := util.StartSpan(ctx, "backend.ClearCart")
	defer span.End()

	_, err := c.do(ctx, http.MethodPost, "/api/cart/clear", nil, true)
	return err
}

// GetWishlist fetches the server-side wishlist.
func (c *Client) GetWishlist(ctx context.Context) ([]string, error) {
	ctx, span := util.StartSpan(ctx, "backend.GetWishlist")
	defer span.End()

	out, err := c.do(ctx, http.MethodGet, "/api/wishlist", nil, true)
	if err != nil {
		return nil, err
	}
	return out.Wishlist, nil
}

// AddWishlistItem adds a product to the server-side wishlist and returns
// the updated list when the server provides one.
func (c *Client) AddWishlistItem(ctx context.Context, productID string) ([]string, error) {
	ctx, span := util.StartSpan(ctx, "backend.AddWishlistItem")
	defer span.End()

	out, err := c.do(ctx, http.MethodPost, "/api/wishlist/add", map[string]string{"productId": productID}, true)
	if err != nil {
		return nil, err
	}
	return out.Wishlist, nil
}

// RemoveWishlistItem removes a product from the server-side wishlist and
// returns the updated list when the server provides one.
func (c *Client) RemoveWishlistItem(ctx context.Context, productID string) ([]string, error) {
	ctx, span := util.StartSpan(ctx, "backend.RemoveWishlistItem")
	defer span.End()

	out, err := c.do(ctx, http.MethodPost, "/api/wishlist/remove", map[string]string{"productId": productID}, true)
	if err != nil {
		return nil, err
	}
	return out.Wishlist, nil
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, email, password string) (models.Session, error) {
	ctx, span := util.StartSpan(ctx, "backend.Login")
	defer span.End()

	body := map[string]string{"email": email, "password": password}
	out, err := c.do(ctx, http.MethodPost, "/api/user/login", body, false)
	if err != nil {
		return models.Session{}, err
	}
	userEmail := out.Email
	if userEmail == "" {
		userEmail = email
	}
	return models.Session{Token: out.Token, UserID: out.UserID, UserEmail: userEmail}, nil
}

// Register creates a new account. The backend returns only a token, so
// the session starts without a user id.
func (c *Client) Register(ctx context.Context, name, email, password string) (models.Session, error) {
	ctx, span := util.StartSpan(ctx, "backend.Register")
	defer span.End()

	body := map[string]string{"name": name, "email": email, "password": password}
	out, err := c.do(ctx, http.MethodPost, "/api/user/register", body, false)
	if err != nil {
		return models.Session{}, err
	}
	return models.Session{Token: out.Token, UserID: out.UserID, UserEmail: email}, nil
}

// CreateOrder places an order.
func (c *Client) CreateOrder(ctx context.Context, req models.OrderRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "backend.CreateOrder")
	defer span.End()

	out, err := c.do(ctx, http.MethodPost, "/api/order/create", req, true)
	if err != nil {
		return nil, err
	}
	return out.Order, nil
}

// ListUserOrders fetches the authenticated user's order history.
func (c *Client) ListUserOrders(ctx context.Context) ([]models.Order, error) {
	ctx, span := util.StartSpan(ctx, "backend.ListUserOrders")
	defer span.End()

	out, err := c.do(ctx, http.MethodPost, "/api/order/userorders", nil, true)
	if err != nil {
		return nil, err
	}
	return out.Orders, nil
}

// SubmitReview submits or overwrites the user's review for a product.
func (c *Client) SubmitReview(ctx context.Context, productID string, rating int, feedback string) (string, error) {
	ctx, span := util.StartSpan(ctx, "backend.SubmitReview")
	defer span.End()

	body := map[string]interface{}{"productId": productID, "rating": rating, "feedback": feedback}
	out, err := c.do(ctx, http.MethodPost, "/api/product/review", body, true)
	if err != nil {
		return "", err
	}
	return out.Message, nil
}
