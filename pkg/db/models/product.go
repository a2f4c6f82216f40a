package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fitlinehq/fitline-backend/pkg/enums"
)

// Product is a catalog listing. Pricing is per product; stock is kept
// per size in ProductSize rows.
type Product struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Name             string             `gorm:"column:name;not null"`
	Description      *string            `gorm:"column:description"`
	ImageURL         *string            `gorm:"column:image_url"`
	PriceCents       int                `gorm:"column:price_cents;not null"`
	GarmentClass     enums.GarmentClass `gorm:"column:garment_class;type:varchar(10);not null;default:'top'"`
	DeliveryEstimate string             `gorm:"column:delivery_estimate;not null;default:''"`
	SoldCount        int                `gorm:"column:sold_count;not null;default:0"`
	IsActive         bool               `gorm:"column:is_active;not null;default:true"`
	Sizes            []ProductSize      `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the id when the caller did not.
func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ProductSize tracks available/reserved counts per (product, size).
// AvailableQty is what buyers see; ReservedQty is stock already
// committed to live orders.
type ProductSize struct {
	ProductID    uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	SizeLabel    string    `gorm:"column:size_label;primaryKey"`
	AvailableQty int       `gorm:"column:available_qty;not null;default:0"`
	ReservedQty  int       `gorm:"column:reserved_qty;not null;default:0"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
