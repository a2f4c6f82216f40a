package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fitlinehq/fitline-backend/pkg/types"
)

// CancelledOrder is the terminal projection written when a user
// cancels. The original order row is deleted in the same transaction
// that creates this copy.
type CancelledOrder struct {
	ID               uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	OrderID          uuid.UUID                `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	OrderNumber      string                   `gorm:"column:order_number;not null"`
	UserID           uuid.UUID                `gorm:"column:user_id;type:uuid;not null;index"`
	ShippingAddress  types.ShippingAddress    `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	DeliveryFeeCents int                      `gorm:"column:delivery_fee_cents;not null"`
	SubtotalCents    int                      `gorm:"column:subtotal_cents;not null"`
	TotalCents       int                      `gorm:"column:total_cents;not null"`
	Items            types.OrderLineSnapshots `gorm:"column:items;type:jsonb;serializer:json"`
	PlacedAt         time.Time                `gorm:"column:placed_at;not null"`
	CancelledAt      time.Time                `gorm:"column:cancelled_at;not null"`
	CreatedAt        time.Time                `gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate assigns the cancellation id when the caller did not.
func (c *CancelledOrder) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CompletedOrder is the terminal projection written when the buyer
// confirms receipt. Creation, the sold-count bump and the original
// row's deletion share one transaction.
type CompletedOrder struct {
	ID               uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	OrderID          uuid.UUID                `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	OrderNumber      string                   `gorm:"column:order_number;not null"`
	UserID           uuid.UUID                `gorm:"column:user_id;type:uuid;not null;index"`
	ShippingAddress  types.ShippingAddress    `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	DeliveryFeeCents int                      `gorm:"column:delivery_fee_cents;not null"`
	SubtotalCents    int                      `gorm:"column:subtotal_cents;not null"`
	TotalCents       int                      `gorm:"column:total_cents;not null"`
	Items            types.OrderLineSnapshots `gorm:"column:items;type:jsonb;serializer:json"`
	PlacedAt         time.Time                `gorm:"column:placed_at;not null"`
	ReceivedAt       time.Time                `gorm:"column:received_at;not null"`
	CreatedAt        time.Time                `gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate assigns the completion id when the caller did not.
func (c *CompletedOrder) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
