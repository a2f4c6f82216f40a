package types

import "github.com/shopspring/decimal"

// Money renders an integer cent amount for API payloads. Storage and
// arithmetic stay in cents; decimal only enters at the display edge.
type Money struct {
	Cents int `json:"cents"`
}

// NewMoney wraps a cent amount.
func NewMoney(cents int) Money {
	return Money{Cents: cents}
}

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m.Cents), -2)
}

// Display returns the amount formatted with two decimal places.
func (m Money) Display() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON emits both cents and a display string.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`{"cents":` + decimal.NewFromInt(int64(m.Cents)).String() +
		`,"display":"` + m.Display() + `"}`), nil
}
