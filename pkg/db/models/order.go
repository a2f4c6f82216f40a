package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fitlinehq/fitline-backend/pkg/enums"
	"github.com/fitlinehq/fitline-backend/pkg/types"
)

// Order is a live order between checkout and a terminal state.
// Totals are frozen at creation: TotalCents = SubtotalCents +
// DeliveryFeeCents, never recomputed afterward.
type Order struct {
	ID               uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber      string                `gorm:"column:order_number;not null;uniqueIndex"`
	UserID           uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index"`
	Status           enums.OrderStatus     `gorm:"column:status;not null;default:'pending'"`
	ShippingAddress  types.ShippingAddress `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	DeliveryFeeCents int                   `gorm:"column:delivery_fee_cents;not null"`
	SubtotalCents    int                   `gorm:"column:subtotal_cents;not null"`
	TotalCents       int                   `gorm:"column:total_cents;not null"`
	PlacedAt         time.Time             `gorm:"column:placed_at;not null"`
	PackedAt         *time.Time            `gorm:"column:packed_at"`
	ShippedAt        *time.Time            `gorm:"column:shipped_at"`
	Items            []OrderLineItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the id when the caller did not.
func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderLineItem is the frozen copy of one ordered (product, size)
// group: product id, name, image, size, quantity and unit price as
// they were at checkout time.
type OrderLineItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Name           string    `gorm:"column:name;not null"`
	ImageURL       *string   `gorm:"column:image_url"`
	SizeLabel      string    `gorm:"column:size_label;not null"`
	Qty            int       `gorm:"column:qty;not null"`
	UnitPriceCents int       `gorm:"column:unit_price_cents;not null"`
	TotalCents     int       `gorm:"column:total_cents;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate assigns the id when the caller did not.
func (l *OrderLineItem) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// Snapshot converts the line into its frozen projection form.
func (l OrderLineItem) Snapshot() types.OrderLineSnapshot {
	return types.OrderLineSnapshot{
		ProductID:      l.ProductID,
		Name:           l.Name,
		ImageURL:       l.ImageURL,
		SizeLabel:      l.SizeLabel,
		Qty:            l.Qty,
		UnitPriceCents: l.UnitPriceCents,
		TotalCents:     l.TotalCents,
	}
}
