package broker

import (
	"context"
	"time"

	"storefront-client/internal/models"
	"storefront-client/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventPublisher publishes storefront analytics events. Publishing is
// best effort: failures are logged, never surfaced to the user flow.
// A nil EventPublisher is valid and drops every event.
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

func newBase(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

func (ep *EventPublisher) publish(ctx context.Context, key string, event interface{}) {
	if ep == nil || ep.producer == nil {
		return
	}
	if err := ep.producer.PublishEvent(ctx, key, event); err != nil {
		util.GetLogger().Warn("Failed to publish analytics event",
			zap.String("key", key), zap.Error(err))
	}
}

// CartUpdated publishes a CART_UPDATED event
func (ep *EventPublisher) CartUpdated(ctx context.Context, userID, productID, size string, quantity, cartCount int) {
	ep.publish(ctx, "user-"+userID, &models.CartUpdatedEvent{
		BaseEvent: newBase(models.EventTypeCartUpdated),
		UserID:    userID,
		ProductID: productID,
		Size:      size,
		Quantity:  quantity,
		CartCount: cartCount,
	})
}

// WishlistChanged publishes a WISHLIST_CHANGED event
func (ep *EventPublisher) WishlistChanged(ctx context.Context, userID, productID string, added bool, size int) {
	ep.publish(ctx, "user-"+userID, &models.WishlistChangedEvent{
		BaseEvent: newBase(models.EventTypeWishlistChanged),
		UserID:    userID,
		ProductID: productID,
		Added:     added,
		Size:      size,
	})
}

// CartCleared publishes a CART_CLEARED event
func (ep *EventPublisher) CartCleared(ctx context.Context, userID string) {
	ep.publish(ctx, "user-"+userID, &models.CartClearedEvent{
		BaseEvent: newBase(models.EventTypeCartCleared),
		UserID:    userID,
	})
}

// OrderPlaced publishes an ORDER_PLACED event
func (ep *EventPublisher) OrderPlaced(ctx context.Context, userID, orderID string, amount float64, items int) {
	ep.publish(ctx, "user-"+userID, &models.OrderPlacedEvent{
		BaseEvent: newBase(models.EventTypeOrderPlaced),
		UserID:    userID,
		OrderID:   orderID,
		Amount:    amount,
		Items:     items,
	})
}

// UserLoggedIn publishes a USER_LOGGED_IN event
func (ep *EventPublisher) UserLoggedIn(ctx context.Context, userID string) {
	ep.publish(ctx, "user-"+userID, &models.UserLoggedInEvent{
		BaseEvent: newBase(models.EventTypeUserLoggedIn),
		UserID:    userID,
	})
}

// ReviewSubmitted publishes a REVIEW_SUBMITTED event
func (ep *EventPublisher) ReviewSubmitted(ctx context.Context, userID, productID string, rating int) {
	ep.publish(ctx, "user-"+userID, &models.ReviewSubmittedEvent{
		BaseEvent: newBase(models.EventTypeReviewSubmitted),
		UserID:    userID,
		ProductID: productID,
		Rating:    rating,
	})
}
