package enums

import "fmt"

// TrackingStatus tracks shipment progress for a tracking entry.
type TrackingStatus string

const (
	TrackingStatusPending   TrackingStatus = "pending"
	TrackingStatusShipped   TrackingStatus = "shipped"
	TrackingStatusDelivered TrackingStatus = "delivered"
	TrackingStatusException TrackingStatus = "exception"
)

var validTrackingStatuses = []TrackingStatus{
	TrackingStatusPending,
	TrackingStatusShipped,
	TrackingStatusDelivered,
	TrackingStatusException,
}

// Exception may occur at any point before delivery; delivered is terminal.
var trackingTransitions = map[TrackingStatus][]TrackingStatus{
	TrackingStatusPending:   {TrackingStatusShipped, TrackingStatusException},
	TrackingStatusShipped:   {TrackingStatusDelivered, TrackingStatusException},
	TrackingStatusException: {TrackingStatusShipped, TrackingStatusDelivered},
	TrackingStatusDelivered: nil,
}

// String implements fmt.Stringer.
func (t TrackingStatus) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TrackingStatus.
func (t TrackingStatus) IsValid() bool {
	for _, candidate := range validTrackingStatuses {
		if candidate == t {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the transition t -> next is legal.
func (t TrackingStatus) CanTransitionTo(next TrackingStatus) bool {
	for _, candidate := range trackingTransitions[t] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseTrackingStatus converts raw input into a TrackingStatus.
func ParseTrackingStatus(value string) (TrackingStatus, error) {
	for _, candidate := range validTrackingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tracking status %q", value)
}
