package enums

import "fmt"

// AssignmentStatus tracks the lifecycle of a vendor assignment.
type AssignmentStatus string

const (
	AssignmentStatusAssigned   AssignmentStatus = "assigned"
	AssignmentStatusAccepted   AssignmentStatus = "accepted"
	AssignmentStatusInProgress AssignmentStatus = "in_progress"
	AssignmentStatusCompleted  AssignmentStatus = "completed"
	AssignmentStatusCancelled  AssignmentStatus = "cancelled"
)

var validAssignmentStatuses = []AssignmentStatus{
	AssignmentStatusAssigned,
	AssignmentStatusAccepted,
	AssignmentStatusInProgress,
	AssignmentStatusCompleted,
	AssignmentStatusCancelled,
}

// assignmentTransitions is the closed legal transition graph. Completed and
// cancelled are terminal.
var assignmentTransitions = map[AssignmentStatus][]AssignmentStatus{
	AssignmentStatusAssigned:   {AssignmentStatusAccepted, AssignmentStatusCancelled},
	AssignmentStatusAccepted:   {AssignmentStatusInProgress, AssignmentStatusCancelled},
	AssignmentStatusInProgress: {AssignmentStatusCompleted, AssignmentStatusCancelled},
	AssignmentStatusCompleted:  nil,
	AssignmentStatusCancelled:  nil,
}

// String implements fmt.Stringer.
func (a AssignmentStatus) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AssignmentStatus.
func (a AssignmentStatus) IsValid() bool {
	for _, candidate := range validAssignmentStatuses {
		if candidate == a {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (a AssignmentStatus) IsTerminal() bool {
	return a == AssignmentStatusCompleted || a == AssignmentStatusCancelled
}

// CanTransitionTo reports whether the transition a -> next is legal.
func (a AssignmentStatus) CanTransitionTo(next AssignmentStatus) bool {
	for _, candidate := range assignmentTransitions[a] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseAssignmentStatus converts raw input into an AssignmentStatus.
func ParseAssignmentStatus(value string) (AssignmentStatus, error) {
	for _, candidate := range validAssignmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid assignment status %q", value)
}
