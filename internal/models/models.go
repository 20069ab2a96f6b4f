package models

import "math"

// Product represents a catalog product as served by the backend.
type Product struct {
	ID          string   `json:"_id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price"`
	Discount    float64  `json:"discount,omitempty"`
	Images      []string `json:"image,omitempty"`
	Category    string   `json:"category,omitempty"`
	SubCategory string   `json:"subCategory,omitempty"`
	Sizes       []string `json:"sizes,omitempty"`
	Bestseller  bool     `json:"bestseller,omitempty"`
	Date        int64    `json:"date,omitempty"`
	Reviews     []Review `json:"reviews,omitempty"`
}

// EffectivePrice returns the unit price after applying the discount percentage.
func (p Product) EffectivePrice() float64 {
	if p.Discount > 0 {
		return p.Price - p.Price*p.Discount/100
	}
	return p.Price
}

// DisplayPrice returns the effective price rounded to two decimals.
func (p Product) DisplayPrice() float64 {
	return math.Round(p.EffectivePrice()*100) / 100
}

// Review is a customer review attached to a product. One review per
// (user, product); resubmission overwrites.
type Review struct {
	UserID   string `json:"userId"`
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback,omitempty"`
	Date     int64  `json:"date,omitempty"`
}

// CartData maps product id to size to quantity. Absence of a key means
// zero; no entry may hold a quantity <= 0.
type CartData map[string]map[string]int

// Clone returns a deep copy of the cart.
func (c CartData) Clone() CartData {
	out := make(CartData, len(c))
	for id, sizes := range c {
		cp := make(map[string]int, len(sizes))
		for size, qty := range sizes {
			cp[size] = qty
		}
		out[id] = cp
	}
	return out
}

// Prune drops entries with non-positive quantities and products left
// without sizes.
func (c CartData) Prune() {
	for id, sizes := range c {
		for size, qty := range sizes {
			if qty <= 0 {
				delete(sizes, size)
			}
		}
		if len(sizes) == 0 {
			delete(c, id)
		}
	}
}

// OrderItem is a line item inside an order: the ordered product snapshot
// plus the chosen size and quantity.
type OrderItem struct {
	Product
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

// Order statuses used by the backend.
const (
	OrderStatusPlaced     = "Order Placed"
	OrderStatusProcessing = "Processing"
	OrderStatusShipped    = "Shipped"
	OrderStatusDelivered  = "Delivered"
	OrderStatusCancelled  = "Cancelled"
)

// Order is a placed order as returned by the backend.
type Order struct {
	ID            string      `json:"_id"`
	UserID        string      `json:"userId,omitempty"`
	Items         []OrderItem `json:"items"`
	Amount        float64     `json:"amount"`
	Address       interface{} `json:"address,omitempty"`
	Status        string      `json:"status"`
	PaymentMethod string      `json:"paymentMethod,omitempty"`
	Payment       bool        `json:"payment,omitempty"`
	Date          int64       `json:"date,omitempty"`
}

// OrderRequest is the checkout payload sent to the backend.
type OrderRequest struct {
	Items         []OrderItem `json:"items"`
	Amount        float64     `json:"amount"`
	Address       interface{} `json:"address"`
	PaymentMethod string      `json:"paymentMethod,omitempty"`
}

// Session holds the authenticated identity attached to backend calls.
// An empty token means anonymous.
type Session struct {
	Token     string `json:"token"`
	UserID    string `json:"userId"`
	UserEmail string `json:"userEmail"`
}

// Authenticated reports whether the session carries a token.
func (s Session) Authenticated() bool {
	return s.Token != ""
}
