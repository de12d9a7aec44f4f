package enums

import "fmt"

// AlertType identifies the staleness condition a monitoring alert reports.
type AlertType string

const (
	AlertTypeUnassigned      AlertType = "unassigned"
	AlertTypeNotAccepted     AlertType = "not_accepted"
	AlertTypeNotStarted      AlertType = "not_started"
	AlertTypeStaleInProgress AlertType = "stale_in_progress"
	AlertTypeMissingTracking AlertType = "missing_tracking"
	AlertTypeStaleTracking   AlertType = "stale_tracking"
	AlertTypeOverdueProof    AlertType = "overdue_proof"
)

var validAlertTypes = []AlertType{
	AlertTypeUnassigned,
	AlertTypeNotAccepted,
	AlertTypeNotStarted,
	AlertTypeStaleInProgress,
	AlertTypeMissingTracking,
	AlertTypeStaleTracking,
	AlertTypeOverdueProof,
}

// String implements fmt.Stringer.
func (a AlertType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AlertType.
func (a AlertType) IsValid() bool {
	for _, candidate := range validAlertTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// AlertTypes returns every known alert type in scan order.
func AlertTypes() []AlertType {
	out := make([]AlertType, len(validAlertTypes))
	copy(out, validAlertTypes)
	return out
}

// ParseAlertType converts raw input into an AlertType.
func ParseAlertType(value string) (AlertType, error) {
	for _, candidate := range validAlertTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid alert type %q", value)
}
