package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartItem is one (product, size) line in a user's cart. The unique
// index means re-adding the same pair increments quantity instead of
// duplicating the line.
type CartItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID         uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_cart_items_user_product_size"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_cart_items_user_product_size"`
	SizeLabel      string    `gorm:"column:size_label;not null;uniqueIndex:ux_cart_items_user_product_size"`
	Quantity       int       `gorm:"column:quantity;not null"`
	UnitPriceCents int       `gorm:"column:unit_price_cents;not null"`
	Selected       bool      `gorm:"column:selected;not null;default:true"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the id when the caller did not.
func (c *CartItem) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
