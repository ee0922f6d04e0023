package resolve

import (
	"github.com/BaSui01/accord/negotiation/utility"
	"github.com/BaSui01/accord/types"
)

// NashBargaining maximizes the product of participant utilities over a
// disagreement point of zero. Candidates are every submitted proposal plus
// the compromise proposal, so the candidate set is never empty.
type NashBargaining struct{}

// Name implements Strategy.
func (NashBargaining) Name() string { return NameNashBargaining }

// Resolve implements Strategy.
func (NashBargaining) Resolve(n *types.Negotiation, participants []*types.Participant) types.Proposal {
	_, proposals := n.OrderedProposals()
	candidates := make([]types.Proposal, 0, len(proposals)+1)
	candidates = append(candidates, proposals...)
	candidates = append(candidates, compromiseOf(proposals))

	if len(participants) == 0 {
		return candidates[len(candidates)-1]
	}

	var best types.Proposal
	bestProduct := -1.0
	for _, c := range candidates {
		product := 1.0
		for _, p := range participants {
			product *= utility.Score(p, c)
		}
		if product > bestProduct {
			bestProduct = product
			best = c
		}
	}
	if best == nil {
		return compromiseOf(proposals)
	}
	return best.Clone()
}
