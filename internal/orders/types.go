package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/fitlinehq/fitline-backend/pkg/enums"
	"github.com/fitlinehq/fitline-backend/pkg/types"
)

// CheckoutInput places orders from the user's selected cart lines.
// Token is the client idempotency token; replaying it returns the
// original placement instead of charging stock twice. AddressID is
// optional; nil means the default address.
type CheckoutInput struct {
	UserID    uuid.UUID
	AddressID *uuid.UUID
	Token     string
}

// CancelInput cancels one pre-shipment order.
type CancelInput struct {
	UserID  uuid.UUID
	OrderID uuid.UUID
	Token   string
}

// ReceiveInput confirms delivery of one order.
type ReceiveInput struct {
	UserID  uuid.UUID
	OrderID uuid.UUID
	Token   string
}

// RepeatInput re-places the lines of a terminal order as new orders.
type RepeatInput struct {
	UserID    uuid.UUID
	OrderID   uuid.UUID
	AddressID *uuid.UUID
	Token     string
}

// PlacedOrder is the per-order outcome of a checkout. Checkout groups
// cart lines by (product, size), so one checkout can place several
// orders at once.
type PlacedOrder struct {
	OrderID     uuid.UUID   `json:"order_id"`
	OrderNumber string      `json:"order_number"`
	Total       types.Money `json:"total"`
	ItemCount   int         `json:"item_count"`
}

// OrderLineDTO is one frozen line of an order view.
type OrderLineDTO struct {
	ProductID uuid.UUID   `json:"product_id"`
	Name      string      `json:"name"`
	ImageURL  *string     `json:"image_url,omitempty"`
	SizeLabel string      `json:"size_label"`
	Qty       int         `json:"qty"`
	UnitPrice types.Money `json:"unit_price"`
	LineTotal types.Money `json:"line_total"`
}

// OrderDTO is the full order view, served from the live table or a
// terminal projection depending on status.
type OrderDTO struct {
	ID              uuid.UUID             `json:"id"`
	OrderNumber     string                `json:"order_number"`
	Status          enums.OrderStatus     `json:"status"`
	Items           []OrderLineDTO        `json:"items"`
	ShippingAddress types.ShippingAddress `json:"shipping_address"`
	DeliveryFee     types.Money           `json:"delivery_fee"`
	Subtotal        types.Money           `json:"subtotal"`
	Total           types.Money           `json:"total"`
	PlacedAt        time.Time             `json:"placed_at"`
	PackedAt        *time.Time            `json:"packed_at,omitempty"`
	ShippedAt       *time.Time            `json:"shipped_at,omitempty"`
	CancelledAt     *time.Time            `json:"cancelled_at,omitempty"`
	ReceivedAt      *time.Time            `json:"received_at,omitempty"`
}

// OrderPage is one cursor page of orders in a single status.
type OrderPage struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// RepeatLine is a frozen line annotated with the product's current
// price and stock so the client can show what changed since the
// original purchase.
type RepeatLine struct {
	ProductID    uuid.UUID   `json:"product_id"`
	Name         string      `json:"name"`
	ImageURL     *string     `json:"image_url,omitempty"`
	SizeLabel    string      `json:"size_label"`
	Qty          int         `json:"qty"`
	PaidUnit     types.Money `json:"paid_unit_price"`
	CurrentUnit  types.Money `json:"current_unit_price"`
	AvailableQty int         `json:"available_qty"`
	InStock      bool        `json:"in_stock"`
}

// RepeatDraft is the buy-again preview for a terminal order.
type RepeatDraft struct {
	OrderID     uuid.UUID             `json:"order_id"`
	OrderNumber string                `json:"order_number"`
	Lines       []RepeatLine          `json:"lines"`
	Address     types.ShippingAddress `json:"address"`
}
