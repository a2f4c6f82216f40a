package enums

import "fmt"

// OutboxEventType names the domain events written to the outbox table.
type OutboxEventType string

const (
	EventOrderPlaced     OutboxEventType = "order.placed"
	EventOrderShipped    OutboxEventType = "order.shipped"
	EventOrderCancelled  OutboxEventType = "order.cancelled"
	EventOrderCompleted  OutboxEventType = "order.completed"
	EventReturnRequested OutboxEventType = "order.return_requested"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderPlaced,
	EventOrderShipped,
	EventOrderCancelled,
	EventOrderCompleted,
	EventReturnRequested,
}

func (t OutboxEventType) String() string {
	return string(t)
}

func (t OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into an OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder         OutboxAggregateType = "order"
	AggregateReturnRequest OutboxAggregateType = "return_request"
)

func (t OutboxAggregateType) String() string {
	return string(t)
}

// OutboxDLQErrorReason classifies why a row was dead-lettered.
type OutboxDLQErrorReason string

const (
	DLQReasonNonRetryable     OutboxDLQErrorReason = "non_retryable"
	DLQReasonAttemptsExceeded OutboxDLQErrorReason = "attempts_exceeded"
)

func (r OutboxDLQErrorReason) String() string {
	return string(r)
}
