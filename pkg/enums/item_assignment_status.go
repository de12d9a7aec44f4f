package enums

import "fmt"

// ItemAssignmentStatus marks whether an item allocation still consumes
// quantity from its order item.
type ItemAssignmentStatus string

const (
	ItemAssignmentStatusActive    ItemAssignmentStatus = "active"
	ItemAssignmentStatusCancelled ItemAssignmentStatus = "cancelled"
)

var validItemAssignmentStatuses = []ItemAssignmentStatus{
	ItemAssignmentStatusActive,
	ItemAssignmentStatusCancelled,
}

// String implements fmt.Stringer.
func (i ItemAssignmentStatus) String() string {
	return string(i)
}

// IsValid reports whether the value is a known ItemAssignmentStatus.
func (i ItemAssignmentStatus) IsValid() bool {
	for _, candidate := range validItemAssignmentStatuses {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseItemAssignmentStatus converts raw input into an ItemAssignmentStatus.
func ParseItemAssignmentStatus(value string) (ItemAssignmentStatus, error) {
	for _, candidate := range validItemAssignmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item assignment status %q", value)
}
