package models

import "time"

// Analytics event types
const (
	EventTypeCartUpdated     = "CART_UPDATED"
	EventTypeCartCleared     = "CART_CLEARED"
	EventTypeWishlistChanged = "WISHLIST_CHANGED"
	EventTypeOrderPlaced     = "ORDER_PLACED"
	EventTypeUserLoggedIn    = "USER_LOGGED_IN"
	EventTypeReviewSubmitted = "REVIEW_SUBMITTED"
)

// BaseEvent contains common fields for all analytics events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// CartUpdatedEvent published after a cart mutation
type CartUpdatedEvent struct {
	BaseEvent
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
	CartCount int    `json:"cart_count"`
}

// WishlistChangedEvent published after a wishlist toggle
type WishlistChangedEvent struct {
	BaseEvent
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	Added     bool   `json:"added"`
	Size      int    `json:"size"`
}

// CartClearedEvent published after the cart is emptied
type CartClearedEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
}

// OrderPlacedEvent published after a successful checkout
type OrderPlacedEvent struct {
	BaseEvent
	UserID  string  `json:"user_id"`
	OrderID string  `json:"order_id"`
	Amount  float64 `json:"amount"`
	Items   int     `json:"items"`
}

// UserLoggedInEvent published after a successful login or registration
type UserLoggedInEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
}

// ReviewSubmittedEvent published after a successful review submission
type ReviewSubmittedEvent struct {
	BaseEvent
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	Rating    int    `json:"rating"`
}
