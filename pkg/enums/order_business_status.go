package enums

import "fmt"

// OrderBusinessStatus is the order-level status derived from the order's
// assignments. It is computed on read and recorded through status history
// rows, never stored as a column on the ingestion-owned order.
type OrderBusinessStatus string

const (
	OrderBusinessStatusUnassigned OrderBusinessStatus = "unassigned"
	OrderBusinessStatusAssigned   OrderBusinessStatus = "assigned"
	OrderBusinessStatusInProgress OrderBusinessStatus = "in_progress"
	OrderBusinessStatusCompleted  OrderBusinessStatus = "completed"
	OrderBusinessStatusCancelled  OrderBusinessStatus = "cancelled"
)

var validOrderBusinessStatuses = []OrderBusinessStatus{
	OrderBusinessStatusUnassigned,
	OrderBusinessStatusAssigned,
	OrderBusinessStatusInProgress,
	OrderBusinessStatusCompleted,
	OrderBusinessStatusCancelled,
}

// String implements fmt.Stringer.
func (o OrderBusinessStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderBusinessStatus.
func (o OrderBusinessStatus) IsValid() bool {
	for _, candidate := range validOrderBusinessStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// DeriveOrderBusinessStatus computes the aggregate order status from the
// statuses of its assignments.
func DeriveOrderBusinessStatus(assignments []AssignmentStatus) OrderBusinessStatus {
	if len(assignments) == 0 {
		return OrderBusinessStatusUnassigned
	}

	var active, completed, cancelled, inProgress int
	for _, status := range assignments {
		switch status {
		case AssignmentStatusCancelled:
			cancelled++
		case AssignmentStatusCompleted:
			completed++
		case AssignmentStatusInProgress:
			active++
			inProgress++
		default:
			active++
		}
	}

	switch {
	case cancelled == len(assignments):
		// Every assignment was cancelled; nothing is working the order.
		return OrderBusinessStatusUnassigned
	case active == 0 && completed > 0:
		return OrderBusinessStatusCompleted
	case inProgress > 0 || completed > 0:
		return OrderBusinessStatusInProgress
	default:
		return OrderBusinessStatusAssigned
	}
}

// ParseOrderBusinessStatus converts raw input into an OrderBusinessStatus.
func ParseOrderBusinessStatus(value string) (OrderBusinessStatus, error) {
	for _, candidate := range validOrderBusinessStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order business status %q", value)
}
