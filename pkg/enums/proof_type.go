package enums

import "fmt"

// ProofType distinguishes pre-production design proofs from production proofs.
type ProofType string

const (
	ProofTypeDesign     ProofType = "design_proof"
	ProofTypeProduction ProofType = "production_proof"
)

var validProofTypes = []ProofType{
	ProofTypeDesign,
	ProofTypeProduction,
}

// String implements fmt.Stringer.
func (p ProofType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProofType.
func (p ProofType) IsValid() bool {
	for _, candidate := range validProofTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProofType converts raw input into a ProofType.
func ParseProofType(value string) (ProofType, error) {
	for _, candidate := range validProofTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid proof type %q", value)
}
