// Package suggest decides which comparison a reviewer should see next.
package suggest

import (
	"errors"
	"math/rand/v2"

	"github.com/agenthands/clustercheck/internal/core/constraint"
	"github.com/agenthands/clustercheck/internal/core/model"
)

// MaxTrust is the upper bound of the trust scale.
const MaxTrust = 100

var ErrEmptyCluster = errors.New("cluster has no members")

// State is the part of the constraint tracker the policy reads.
type State interface {
	IDs() []model.ClusterID
	Unresolved() []model.ClusterID
	Relations(id model.ClusterID) (constraint.Relations, error)
	Members(id model.ClusterID) ([]string, error)
}

// Pairing is a cross-cluster comparison of Left against one of its candidates.
type Pairing struct {
	Left  model.ClusterID `json:"left"`
	Right model.ClusterID `json:"right"`
}

// Policy draws every random choice from one injected source, so a fixed seed
// reproduces a whole session.
type Policy struct {
	state State
	rng   *rand.Rand
}

func New(state State, rng *rand.Rand) *Policy {
	return &Policy{state: state, rng: rng}
}

// ChooseMode draws an integer in [0, MaxTrust]; anything above trust asks for
// a self-check.
func (p *Policy) ChooseMode(trust int) model.ProposalMode {
	if p.rng.IntN(MaxTrust+1) > trust {
		return model.ModeSelfCheck
	}
	return model.ModePairing
}

// SuggestPairing picks an unresolved cluster and one of its candidates. It
// returns false once nothing is left to resolve.
func (p *Policy) SuggestPairing() (Pairing, bool) {
	open := p.state.Unresolved()
	if len(open) == 0 {
		return Pairing{}, false
	}
	left := open[p.rng.IntN(len(open))]

	rel, err := p.state.Relations(left)
	if err != nil || len(rel.CanBe) == 0 {
		return Pairing{}, false
	}
	return Pairing{Left: left, Right: rel.CanBe[p.rng.IntN(len(rel.CanBe))]}, true
}

// SuggestSelfCheck picks any live cluster, resolved or not.
func (p *Policy) SuggestSelfCheck() (model.ClusterID, bool) {
	ids := p.state.IDs()
	if len(ids) == 0 {
		return 0, false
	}
	return ids[p.rng.IntN(len(ids))], true
}

// SampleMember draws one member image of id uniformly.
func (p *Policy) SampleMember(id model.ClusterID) (string, error) {
	members, err := p.state.Members(id)
	if err != nil {
		return "", err
	}
	if len(members) == 0 {
		return "", ErrEmptyCluster
	}
	return members[p.rng.IntN(len(members))], nil
}
