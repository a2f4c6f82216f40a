package enums

import "fmt"

// ReturnReason enumerates the reasons a buyer may open a return.
type ReturnReason string

const (
	ReturnReasonWrongSize      ReturnReason = "wrong_size"
	ReturnReasonDamaged        ReturnReason = "damaged"
	ReturnReasonNotAsDescribed ReturnReason = "not_as_described"
	ReturnReasonWrongItem      ReturnReason = "wrong_item"
	ReturnReasonChangedMind    ReturnReason = "changed_mind"
)

var validReturnReasons = []ReturnReason{
	ReturnReasonWrongSize,
	ReturnReasonDamaged,
	ReturnReasonNotAsDescribed,
	ReturnReasonWrongItem,
	ReturnReasonChangedMind,
}

func (r ReturnReason) String() string {
	return string(r)
}

func (r ReturnReason) IsValid() bool {
	for _, candidate := range validReturnReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReturnReason converts raw input into a ReturnReason.
func ParseReturnReason(value string) (ReturnReason, error) {
	for _, candidate := range validReturnReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid return reason %q", value)
}

// ReturnMethod is how the returned item travels back.
type ReturnMethod string

const (
	ReturnMethodPickup  ReturnMethod = "pickup"
	ReturnMethodDropoff ReturnMethod = "dropoff"
)

func (m ReturnMethod) String() string {
	return string(m)
}

func (m ReturnMethod) IsValid() bool {
	return m == ReturnMethodPickup || m == ReturnMethodDropoff
}

// ReturnStatus tracks a return request. Settlement happens outside
// this system, so "pending" is the only state we ever write.
type ReturnStatus string

const (
	ReturnStatusPending  ReturnStatus = "pending"
	ReturnStatusRefunded ReturnStatus = "refunded"
)

func (s ReturnStatus) String() string {
	return string(s)
}

func (s ReturnStatus) IsValid() bool {
	return s == ReturnStatusPending || s == ReturnStatusRefunded
}
