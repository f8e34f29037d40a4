package enums

import "fmt"

// OrderStatus tracks the lifecycle of a group order.
type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "open"
	OrderStatusClosed    OrderStatus = "closed"
	OrderStatusCompleted OrderStatus = "completed"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusOpen,
	OrderStatusClosed,
	OrderStatusCompleted,
}

// IsValid checks whether the given status matches the canonical enum.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the status may move forward to target.
// Transitions only ever move forward: open -> closed -> completed; an open
// order may also jump straight to completed. Completed is terminal.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	if s == target {
		return false
	}
	switch s {
	case OrderStatusOpen:
		return target == OrderStatusClosed || target == OrderStatusCompleted
	case OrderStatusClosed:
		return target == OrderStatusCompleted
	default:
		return false
	}
}

// ParseOrderStatus converts raw strings into OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
