package enums

import "fmt"

// OverallStatus is the customer-facing order status derived from unit statuses.
type OverallStatus string

const (
	OverallStatusPlaced              OverallStatus = "placed"
	OverallStatusProcessing          OverallStatus = "processing"
	OverallStatusShipped             OverallStatus = "shipped"
	OverallStatusDelivered           OverallStatus = "delivered"
	OverallStatusCancelled           OverallStatus = "cancelled"
	OverallStatusCancelledByCustomer OverallStatus = "cancelled_by_customer"
)

var validOverallStatuses = []OverallStatus{
	OverallStatusPlaced,
	OverallStatusProcessing,
	OverallStatusShipped,
	OverallStatusDelivered,
	OverallStatusCancelled,
	OverallStatusCancelledByCustomer,
}

// String implements fmt.Stringer.
func (o OverallStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OverallStatus.
func (o OverallStatus) IsValid() bool {
	for _, candidate := range validOverallStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the order can change after reaching this status.
func (o OverallStatus) IsTerminal() bool {
	switch o {
	case OverallStatusDelivered, OverallStatusCancelled, OverallStatusCancelledByCustomer:
		return true
	default:
		return false
	}
}

// ParseOverallStatus converts raw input into an OverallStatus.
func ParseOverallStatus(value string) (OverallStatus, error) {
	for _, candidate := range validOverallStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid overall status %q", value)
}
