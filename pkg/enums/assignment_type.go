package enums

import "fmt"

// AssignmentType distinguishes whole-order assignments from item-level splits.
type AssignmentType string

const (
	AssignmentTypeFull    AssignmentType = "full"
	AssignmentTypePartial AssignmentType = "partial"
)

var validAssignmentTypes = []AssignmentType{
	AssignmentTypeFull,
	AssignmentTypePartial,
}

// String implements fmt.Stringer.
func (a AssignmentType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AssignmentType.
func (a AssignmentType) IsValid() bool {
	for _, candidate := range validAssignmentTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAssignmentType converts raw input into an AssignmentType.
func ParseAssignmentType(value string) (AssignmentType, error) {
	for _, candidate := range validAssignmentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid assignment type %q", value)
}
