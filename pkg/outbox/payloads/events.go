package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/fitlinehq/fitline-backend/pkg/enums"
)

// OrderPlacedEvent is emitted once per order created by a checkout.
type OrderPlacedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      uuid.UUID `json:"user_id"`
	TotalCents  int64     `json:"total_cents"`
	ItemCount   int       `json:"item_count"`
	PlacedAt    time.Time `json:"placed_at"`
}

// OrderShippedEvent is emitted when an order leaves the warehouse.
type OrderShippedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      uuid.UUID `json:"user_id"`
	ShippedAt   time.Time `json:"shipped_at"`
}

// OrderCancelledEvent is emitted when a buyer cancels a pre-shipment order.
type OrderCancelledEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      uuid.UUID `json:"user_id"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// OrderCompletedEvent is emitted when the buyer confirms receipt.
type OrderCompletedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      uuid.UUID `json:"user_id"`
	ReceivedAt  time.Time `json:"received_at"`
}

// ReturnRequestedEvent is emitted when a return is filed against a
// completed order.
type ReturnRequestedEvent struct {
	ReturnID    uuid.UUID          `json:"return_id"`
	OrderID     uuid.UUID          `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	UserID      uuid.UUID          `json:"user_id"`
	Reason      enums.ReturnReason `json:"reason"`
	Method      enums.ReturnMethod `json:"method"`
	RefundCents int64              `json:"refund_cents"`
	RequestedAt time.Time          `json:"requested_at"`
}
