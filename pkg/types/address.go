package types

import (
	"fmt"
	"strings"
)

// ShippingAddress is the address snapshot frozen onto orders at
// checkout time. It is stored as jsonb; it never references the
// address book row it was copied from.
type ShippingAddress struct {
	RecipientName string  `json:"recipient_name"`
	Phone         string  `json:"phone"`
	Line1         string  `json:"line1"`
	Line2         *string `json:"line2,omitempty"`
	City          string  `json:"city"`
	Province      string  `json:"province"`
	PostalCode    string  `json:"postal_code"`
}

// Validate checks the fields an order cannot ship without.
func (a ShippingAddress) Validate() error {
	if strings.TrimSpace(a.RecipientName) == "" {
		return fmt.Errorf("shipping address: missing recipient name")
	}
	if strings.TrimSpace(a.Phone) == "" {
		return fmt.Errorf("shipping address: missing phone")
	}
	if strings.TrimSpace(a.Line1) == "" {
		return fmt.Errorf("shipping address: missing line1")
	}
	if strings.TrimSpace(a.City) == "" {
		return fmt.Errorf("shipping address: missing city")
	}
	if strings.TrimSpace(a.PostalCode) == "" {
		return fmt.Errorf("shipping address: missing postal code")
	}
	return nil
}

// IsZero reports whether no field has been set.
func (a ShippingAddress) IsZero() bool {
	return a.RecipientName == "" && a.Phone == "" && a.Line1 == "" &&
		a.City == "" && a.Province == "" && a.PostalCode == ""
}
