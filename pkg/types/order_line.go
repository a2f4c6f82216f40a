package types

import "github.com/google/uuid"

// OrderLineSnapshot is the frozen copy of an ordered item carried by
// terminal projections and return requests. It never reads back to
// the live product.
type OrderLineSnapshot struct {
	ProductID      uuid.UUID `json:"product_id"`
	Name           string    `json:"name"`
	ImageURL       *string   `json:"image_url,omitempty"`
	SizeLabel      string    `json:"size_label"`
	Qty            int       `json:"qty"`
	UnitPriceCents int       `json:"unit_price_cents"`
	TotalCents     int       `json:"total_cents"`
}

// OrderLineSnapshots is the jsonb-serialized slice form.
type OrderLineSnapshots []OrderLineSnapshot
