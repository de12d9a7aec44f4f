package enums

import "fmt"

// NotificationKind categorizes outbound notification records.
type NotificationKind string

const (
	NotificationKindAssignmentCreated NotificationKind = "assignment_created"
	NotificationKindAssignmentStatus  NotificationKind = "assignment_status"
	NotificationKindProofRequested    NotificationKind = "proof_requested"
	NotificationKindProofResolved     NotificationKind = "proof_resolved"
	NotificationKindMonitoringAlert   NotificationKind = "monitoring_alert"
	NotificationKindPayoutStatus      NotificationKind = "payout_status"
)

var validNotificationKinds = []NotificationKind{
	NotificationKindAssignmentCreated,
	NotificationKindAssignmentStatus,
	NotificationKindProofRequested,
	NotificationKindProofResolved,
	NotificationKindMonitoringAlert,
	NotificationKindPayoutStatus,
}

// String implements fmt.Stringer.
func (n NotificationKind) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationKind.
func (n NotificationKind) IsValid() bool {
	for _, candidate := range validNotificationKinds {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationKind converts raw input into a NotificationKind.
func ParseNotificationKind(value string) (NotificationKind, error) {
	for _, candidate := range validNotificationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification kind %q", value)
}

// NotificationStatus tracks delivery outcomes for a notification record.
// Delivery failures never roll back the state change that emitted them.
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

var validNotificationStatuses = []NotificationStatus{
	NotificationStatusPending,
	NotificationStatusSent,
	NotificationStatusFailed,
}

// String implements fmt.Stringer.
func (n NotificationStatus) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationStatus.
func (n NotificationStatus) IsValid() bool {
	for _, candidate := range validNotificationStatuses {
		if candidate == n {
			return true
		}
	}
	return false
}
