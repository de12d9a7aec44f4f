package enums

import "fmt"

// ProofStatus tracks the customer decision lifecycle of a proof approval.
type ProofStatus string

const (
	ProofStatusPending           ProofStatus = "pending"
	ProofStatusApproved          ProofStatus = "approved"
	ProofStatusRejected          ProofStatus = "rejected"
	ProofStatusRevisionRequested ProofStatus = "revision_requested"
	// ProofStatusExpired is written by the optional sweep; lazy evaluation
	// against expires_at is authoritative regardless of the stored value.
	ProofStatusExpired ProofStatus = "expired"
)

var validProofStatuses = []ProofStatus{
	ProofStatusPending,
	ProofStatusApproved,
	ProofStatusRejected,
	ProofStatusRevisionRequested,
	ProofStatusExpired,
}

// String implements fmt.Stringer.
func (p ProofStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProofStatus.
func (p ProofStatus) IsValid() bool {
	for _, candidate := range validProofStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsDecision reports whether the status is a customer decision a token
// resolution may produce.
func (p ProofStatus) IsDecision() bool {
	switch p {
	case ProofStatusApproved, ProofStatusRejected, ProofStatusRevisionRequested:
		return true
	}
	return false
}

// ParseProofStatus converts raw input into a ProofStatus.
func ParseProofStatus(value string) (ProofStatus, error) {
	for _, candidate := range validProofStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid proof status %q", value)
}
