package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type column on outbox_events.
type OutboxAggregateType string

const (
	AggregateOrder         OutboxAggregateType = "order"
	AggregateFailedAttempt OutboxAggregateType = "failed_attempt"
	AggregateAccount       OutboxAggregateType = "account"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateFailedAttempt,
	AggregateAccount,
}

// IsValid reports whether the value matches the canonical aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// OutboxEventType maps to the event_type column on outbox_events.
type OutboxEventType string

const (
	EventOrderCommitted     OutboxEventType = "order_committed"
	EventAttemptRejected    OutboxEventType = "attempt_rejected"
	EventHouseholdRecompute OutboxEventType = "household_recomputed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCommitted,
	EventAttemptRejected,
	EventHouseholdRecompute,
}

// IsValid reports whether the value matches the canonical event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
