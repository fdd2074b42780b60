package model

import "fmt"

type DecisionKind string

const (
	// DecisionSame and DecisionDifferent answer a cross-cluster pairing.
	DecisionSame      DecisionKind = "same"
	DecisionDifferent DecisionKind = "different"

	// DecisionSelfCheckPassed and DecisionSelfCheckFailed answer a self-check,
	// where both images were drawn from the cluster in Left.
	DecisionSelfCheckPassed DecisionKind = "self_check_passed"
	DecisionSelfCheckFailed DecisionKind = "self_check_failed"
)

func ParseDecisionKind(s string) (DecisionKind, error) {
	switch k := DecisionKind(s); k {
	case DecisionSame, DecisionDifferent, DecisionSelfCheckPassed, DecisionSelfCheckFailed:
		return k, nil
	default:
		return "", fmt.Errorf("unknown decision kind %q", s)
	}
}

func (k DecisionKind) IsSelfCheck() bool {
	return k == DecisionSelfCheckPassed || k == DecisionSelfCheckFailed
}

// Decision is one human answer to a Proposal.
type Decision struct {
	Kind   DecisionKind `json:"kind"`
	Left   ClusterID    `json:"left"`
	Right  ClusterID    `json:"right"`
	ImageA string       `json:"image_a"`
	ImageB string       `json:"image_b"`
}

type ProposalMode string

const (
	ModePairing   ProposalMode = "pairing"
	ModeSelfCheck ProposalMode = "self_check"
)

// Proposal is the comparison a reviewer should be shown next.
type Proposal struct {
	Mode      ProposalMode `json:"mode"`
	Left      ClusterID    `json:"left"`
	Right     ClusterID    `json:"right"`
	ImageA    string       `json:"image_a"`
	ImageB    string       `json:"image_b"`
	Potency   int          `json:"potency"`
	Exhausted bool         `json:"exhausted"`
}
