package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/fitlinehq/fitline-backend/pkg/types"
)

// CartItemDTO is one cart row joined with its product.
type CartItemDTO struct {
	ID           uuid.UUID   `json:"id"`
	ProductID    uuid.UUID   `json:"product_id"`
	Name         string      `json:"name"`
	ImageURL     *string     `json:"image_url,omitempty"`
	SizeLabel    string      `json:"size_label"`
	Quantity     int         `json:"quantity"`
	UnitPrice    types.Money `json:"unit_price"`
	LineTotal    types.Money `json:"line_total"`
	Selected     bool        `json:"selected"`
	AvailableQty int         `json:"available_qty"`
	AddedAt      time.Time   `json:"added_at"`
}

// CartDTO is the full cart view. Subtotal covers selected rows only;
// unselected rows ride along but do not price into checkout.
type CartDTO struct {
	Items         []CartItemDTO `json:"items"`
	SelectedCount int           `json:"selected_count"`
	Subtotal      types.Money   `json:"subtotal"`
}
