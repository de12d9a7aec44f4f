package enums

import "testing"

func TestAssignmentTransitionGraph(t *testing.T) {
	legal := map[AssignmentStatus][]AssignmentStatus{
		AssignmentStatusAssigned:   {AssignmentStatusAccepted, AssignmentStatusCancelled},
		AssignmentStatusAccepted:   {AssignmentStatusInProgress, AssignmentStatusCancelled},
		AssignmentStatusInProgress: {AssignmentStatusCompleted, AssignmentStatusCancelled},
	}

	for _, from := range validAssignmentStatuses {
		for _, to := range validAssignmentStatuses {
			want := false
			for _, allowed := range legal[from] {
				if allowed == to {
					want = true
				}
			}
			if got := from.CanTransitionTo(to); got != want {
				t.Fatalf("CanTransitionTo(%s -> %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestAssignmentSkippingAcceptedIsIllegal(t *testing.T) {
	if AssignmentStatusAssigned.CanTransitionTo(AssignmentStatusInProgress) {
		t.Fatal("assigned -> in_progress must pass through accepted")
	}
}

func TestTerminalAssignmentStatesHaveNoExits(t *testing.T) {
	for _, terminal := range []AssignmentStatus{AssignmentStatusCompleted, AssignmentStatusCancelled} {
		if !terminal.IsTerminal() {
			t.Fatalf("%s should be terminal", terminal)
		}
		for _, to := range validAssignmentStatuses {
			if terminal.CanTransitionTo(to) {
				t.Fatalf("terminal state %s allows transition to %s", terminal, to)
			}
		}
	}
}

func TestTrackingTransitionGraph(t *testing.T) {
	tests := []struct {
		from, to TrackingStatus
		want     bool
	}{
		{TrackingStatusPending, TrackingStatusShipped, true},
		{TrackingStatusPending, TrackingStatusException, true},
		{TrackingStatusPending, TrackingStatusDelivered, false},
		{TrackingStatusShipped, TrackingStatusDelivered, true},
		{TrackingStatusShipped, TrackingStatusException, true},
		{TrackingStatusException, TrackingStatusShipped, true},
		{TrackingStatusDelivered, TrackingStatusShipped, false},
		{TrackingStatusDelivered, TrackingStatusException, false},
	}
	for _, tc := range tests {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Fatalf("tracking %s -> %s = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestPayoutTransitionGraph(t *testing.T) {
	tests := []struct {
		from, to PayoutStatus
		want     bool
	}{
		{PayoutStatusPending, PayoutStatusProcessing, true},
		{PayoutStatusPending, PayoutStatusCompleted, false},
		{PayoutStatusProcessing, PayoutStatusCompleted, true},
		{PayoutStatusProcessing, PayoutStatusFailed, true},
		{PayoutStatusCompleted, PayoutStatusProcessing, false},
		{PayoutStatusFailed, PayoutStatusPending, false},
	}
	for _, tc := range tests {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Fatalf("payout %s -> %s = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestDeriveOrderBusinessStatus(t *testing.T) {
	tests := []struct {
		name string
		in   []AssignmentStatus
		want OrderBusinessStatus
	}{
		{"no assignments", nil, OrderBusinessStatusUnassigned},
		{"all cancelled", []AssignmentStatus{AssignmentStatusCancelled}, OrderBusinessStatusUnassigned},
		{"single assigned", []AssignmentStatus{AssignmentStatusAssigned}, OrderBusinessStatusAssigned},
		{"accepted only", []AssignmentStatus{AssignmentStatusAccepted}, OrderBusinessStatusAssigned},
		{"one in progress", []AssignmentStatus{AssignmentStatusAssigned, AssignmentStatusInProgress}, OrderBusinessStatusInProgress},
		{"all complete", []AssignmentStatus{AssignmentStatusCompleted, AssignmentStatusCompleted}, OrderBusinessStatusCompleted},
		{"complete plus cancelled", []AssignmentStatus{AssignmentStatusCompleted, AssignmentStatusCancelled}, OrderBusinessStatusCompleted},
		{"complete plus open", []AssignmentStatus{AssignmentStatusCompleted, AssignmentStatusAccepted}, OrderBusinessStatusInProgress},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := DeriveOrderBusinessStatus(tc.in); got != tc.want {
				t.Fatalf("DeriveOrderBusinessStatus(%v) = %s, want %s", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseRejectsUnknownValues(t *testing.T) {
	if _, err := ParseAssignmentStatus("shipped"); err == nil {
		t.Fatal("expected parse error for unknown assignment status")
	}
	if _, err := ParseAssignmentType("split"); err == nil {
		t.Fatal("expected parse error for unknown assignment type")
	}
	if _, err := ParseProofType("invoice"); err == nil {
		t.Fatal("expected parse error for unknown proof type")
	}
	if _, err := ParseAlertType("whatever"); err == nil {
		t.Fatal("expected parse error for unknown alert type")
	}
}

func TestProofStatusIsDecision(t *testing.T) {
	for _, status := range []ProofStatus{ProofStatusApproved, ProofStatusRejected, ProofStatusRevisionRequested} {
		if !status.IsDecision() {
			t.Fatalf("%s should be a decision", status)
		}
	}
	for _, status := range []ProofStatus{ProofStatusPending, ProofStatusExpired} {
		if status.IsDecision() {
			t.Fatalf("%s should not be a decision", status)
		}
	}
}
