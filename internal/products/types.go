package products

import (
	"time"

	"github.com/google/uuid"

	"github.com/fitlinehq/fitline-backend/pkg/types"
)

// ProductSummary is the list-view projection of a catalog product.
type ProductSummary struct {
	ID               uuid.UUID   `json:"id"`
	Name             string      `json:"name"`
	ImageURL         *string     `json:"image_url,omitempty"`
	Price            types.Money `json:"price"`
	SoldCount        int         `json:"sold_count"`
	DeliveryEstimate string      `json:"delivery_estimate"`
	CreatedAt        time.Time   `json:"created_at"`
}

// SizeAvailability is the buyer-visible stock for one size.
type SizeAvailability struct {
	SizeLabel    string `json:"size_label"`
	AvailableQty int    `json:"available_qty"`
}

// ProductDetail is the full product page projection including per-size
// stock and, when the caller has saved measurements, the recommended size.
type ProductDetail struct {
	ID               uuid.UUID          `json:"id"`
	Name             string             `json:"name"`
	Description      *string            `json:"description,omitempty"`
	ImageURL         *string            `json:"image_url,omitempty"`
	Price            types.Money        `json:"price"`
	SoldCount        int                `json:"sold_count"`
	DeliveryEstimate string             `json:"delivery_estimate"`
	Sizes            []SizeAvailability `json:"sizes"`
	RecommendedSize  string             `json:"recommended_size,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
}

// ProductPage is a cursor-paginated product listing.
type ProductPage struct {
	Items      []ProductSummary `json:"items"`
	NextCursor string           `json:"next_cursor,omitempty"`
}
