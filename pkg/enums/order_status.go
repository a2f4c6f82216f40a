package enums

import "fmt"

// OrderStatus tracks an active order through its lifecycle. Terminal
// states (cancelled, completed) live in their projection tables and
// only appear here when rendering those projections.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusToShip    OrderStatus = "to_ship"
	OrderStatusToReceive OrderStatus = "to_receive"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusToShip,
	OrderStatusToReceive,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Cancellable reports whether a user may still cancel an order in
// this state. Once the parcel is out for delivery it cannot be
// recalled.
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPending || s == OrderStatusToShip
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
