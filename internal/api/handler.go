package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"storefront-client/internal/backend"
	"storefront-client/internal/broker"
	"storefront-client/internal/models"
	"storefront-client/internal/service"
	"storefront-client/internal/util"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler exposes the storefront engines over HTTP for local UIs.
type Handler struct {
	shop   *service.Shop
	events *broker.EventPublisher
}

// NewHandler creates a new HTTP handler
func NewHandler(shop *service.Shop, events *broker.EventPublisher) *Handler {
	return &Handler{shop: shop, events: events}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())
	router.Use(cors.Default())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/products", h.listProducts)
		api.POST("/products/refresh", h.refreshProducts)

		api.GET("/cart", h.getCart)
		api.GET("/cart/summary", h.cartSummary)
		api.POST("/cart/add", h.addToCart)
		api.POST("/cart/remove", h.removeFromCart)
		api.POST("/cart/update", h.updateCartQuantity)
		api.POST("/cart/clear", h.clearCart)

		api.GET("/wishlist", h.getWishlist)
		api.POST("/wishlist/toggle", h.toggleWishlist)

		api.GET("/session", h.currentSession)
		api.POST("/session/login", h.login)
		api.POST("/session/register", h.register)
		api.POST("/session/logout", h.logout)

		api.GET("/orders", h.listOrders)
		api.POST("/orders", h.checkout)
		api.GET("/orders/eligibility", h.reviewEligibility)

		api.POST("/reviews", h.submitReview)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// productView is a Product plus the price shown to the user, rounded
// to two decimals.
type productView struct {
	models.Product
	DisplayPrice float64 `json:"displayPrice"`
}

func productViews(products []models.Product) []productView {
	views := make([]productView, len(products))
	for i, p := range products {
		views[i] = productView{Product: p, DisplayPrice: p.DisplayPrice()}
	}
	return views
}

func (h *Handler) listProducts(c *gin.Context) {
	catalog := h.shop.Catalog()
	c.JSON(http.StatusOK, gin.H{
		"products": productViews(catalog.Products()),
		"loading":  catalog.Loading(),
	})
}

func (h *Handler) refreshProducts(c *gin.Context) {
	h.shop.Catalog().Refresh(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"products": productViews(h.shop.Catalog().Products())})
}

func (h *Handler) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"cart": h.shop.Cart().Items()})
}

func (h *Handler) cartSummary(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"count":  h.shop.Cart().Count(),
		"amount": h.shop.Cart().Amount(),
	})
}

type cartItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Size      string `json:"size"`
}

func (h *Handler) addToCart(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.shop.Cart().AddItem(c.Request.Context(), req.ProductID, req.Size); err != nil {
		h.renderError(c, err)
		return
	}

	h.events.CartUpdated(c.Request.Context(), h.shop.Session().UserID(),
		req.ProductID, req.Size, h.shop.Cart().Quantity(req.ProductID, req.Size), h.shop.Cart().Count())
	c.JSON(http.StatusOK, gin.H{"cart": h.shop.Cart().Items()})
}

func (h *Handler) removeFromCart(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.shop.Cart().RemoveItem(c.Request.Context(), req.ProductID, req.Size); err != nil {
		h.renderError(c, err)
		return
	}

	h.events.CartUpdated(c.Request.Context(), h.shop.Session().UserID(),
		req.ProductID, req.Size, h.shop.Cart().Quantity(req.ProductID, req.Size), h.shop.Cart().Count())
	c.JSON(http.StatusOK, gin.H{"cart": h.shop.Cart().Items()})
}

type updateQuantityRequest struct {
	ProductID string      `json:"productId" binding:"required"`
	Size      string      `json:"size"`
	Quantity  interface{} `json:"quantity"`
}

// coerceQuantity turns whatever the client sent into an int; anything
// non-numeric or negative means zero, i.e. delete.
func coerceQuantity(v interface{}) int {
	switch q := v.(type) {
	case float64:
		return int(q)
	case string:
		n, err := strconv.Atoi(q)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func (h *Handler) updateCartQuantity(c *gin.Context) {
	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	quantity := coerceQuantity(req.Quantity)
	if err := h.shop.Cart().SetQuantity(c.Request.Context(), req.ProductID, req.Size, quantity); err != nil {
		h.renderError(c, err)
		return
	}

	h.events.CartUpdated(c.Request.Context(), h.shop.Session().UserID(),
		req.ProductID, req.Size, quantity, h.shop.Cart().Count())
	c.JSON(http.StatusOK, gin.H{"cart": h.shop.Cart().Items()})
}

func (h *Handler) clearCart(c *gin.Context) {
	if err := h.shop.Cart().Clear(c.Request.Context()); err != nil {
		h.renderError(c, err)
		return
	}

	h.events.CartCleared(c.Request.Context(), h.shop.Session().UserID())
	c.JSON(http.StatusOK, gin.H{"cart": h.shop.Cart().Items()})
}

func (h *Handler) getWishlist(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"wishlist": h.shop.Wishlist().Items()})
}

type wishlistRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

func (h *Handler) toggleWishlist(c *gin.Context) {
	var req wishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.shop.Wishlist().Toggle(c.Request.Context(), req.ProductID); err != nil {
		h.renderError(c, err)
		return
	}

	added := h.shop.Wishlist().Contains(req.ProductID)
	h.events.WishlistChanged(c.Request.Context(), h.shop.Session().UserID(),
		req.ProductID, added, len(h.shop.Wishlist().Items()))
	c.JSON(http.StatusOK, gin.H{"wishlist": h.shop.Wishlist().Items()})
}

func (h *Handler) currentSession(c *gin.Context) {
	sess := h.shop.Session().Current()
	c.JSON(http.StatusOK, gin.H{
		"authenticated": sess.Authenticated(),
		"userId":        sess.UserID,
		"userEmail":     sess.UserEmail,
	})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.shop.Login(c.Request.Context(), req.Email, req.Password); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": backend.Message(err, "Login failed. Please try again."),
		})
		return
	}
	h.currentSession(c)
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.shop.Register(c.Request.Context(), req.Name, req.Email, req.Password); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error": backend.Message(err, "Registration failed. Please try again."),
		})
		return
	}
	h.currentSession(c)
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.shop.Logout(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Logout failed", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": false})
}

func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.shop.Orders(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) checkout(c *gin.Context) {
	var req struct {
		Address       interface{} `json:"address"`
		PaymentMethod string      `json:"paymentMethod"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	order, err := h.shop.CheckoutCart(c.Request.Context(), req.Address, req.PaymentMethod)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": order})
}

func (h *Handler) reviewEligibility(c *gin.Context) {
	productID := c.Query("productId")
	if productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "productId is required"})
		return
	}

	eligible, err := h.shop.CanReview(c.Request.Context(), productID)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"canReview": eligible})
}

type reviewRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Rating    int    `json:"rating" binding:"required"`
	Feedback  string `json:"feedback"`
}

func (h *Handler) submitReview(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.shop.SubmitReview(c.Request.Context(), req.ProductID, req.Rating, req.Feedback); err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// renderError maps engine errors to HTTP statuses.
func (h *Handler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAuthRequired) || backend.IsSessionExpired(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
	case errors.Is(err, service.ErrSizeRequired),
		errors.Is(err, service.ErrInvalidRating),
		errors.Is(err, service.ErrFeedbackTooLong),
		errors.Is(err, service.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		var be *backend.Error
		if errors.As(err, &be) {
			c.JSON(http.StatusBadGateway, gin.H{"error": backend.Message(err, "Upstream request failed")})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error", "details": err.Error()})
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
