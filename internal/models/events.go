package models

import "time"

// Event types published on the order topic.
const (
	EventTypeOrderPlaced     = "ORDER_PLACED"
	EventTypeOrderCancelled  = "ORDER_CANCELLED"
	EventTypePaymentCaptured = "PAYMENT_CAPTURED"
	EventTypePaymentFailed   = "PAYMENT_FAILED"
)

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPlacedEvent is published after an order commits.
type OrderPlacedEvent struct {
	BaseEvent
	OrderID     int64  `json:"order_id"`
	UserEmail   string `json:"user_email"`
	UserName    string `json:"user_name"`
	TotalAmount int64  `json:"total_amount"`
	TotalItems  int    `json:"total_items"`
}

// OrderCancelledEvent is published after a cancellation restores stock.
type OrderCancelledEvent struct {
	BaseEvent
	OrderID   int64  `json:"order_id"`
	UserEmail string `json:"user_email"`
	UserName  string `json:"user_name"`
}

// PaymentCapturedEvent is published when the provider confirms capture.
type PaymentCapturedEvent struct {
	BaseEvent
	OrderID   int64  `json:"order_id"`
	UserEmail string `json:"user_email"`
	UserName  string `json:"user_name"`
	Amount    int64  `json:"amount"`
	PaymentID string `json:"payment_id"`
}

// PaymentFailedEvent is published when the provider declines a payment.
type PaymentFailedEvent struct {
	BaseEvent
	OrderID   int64  `json:"order_id"`
	UserEmail string `json:"user_email"`
	PaymentID string `json:"payment_id"`
}
