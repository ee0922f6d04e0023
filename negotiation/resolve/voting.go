package resolve

import "github.com/BaSui01/accord/types"

// Voting treats each submitted proposal as a ballot: the proposal with the
// most identical submissions wins, ties going to the earliest submitter.
// Proposals are compared by order-independent canonical serialization.
type Voting struct{}

// Name implements Strategy.
func (Voting) Name() string { return NameVoting }

// Resolve implements Strategy.
func (Voting) Resolve(n *types.Negotiation, _ []*types.Participant) types.Proposal {
	_, proposals := n.OrderedProposals()
	if len(proposals) == 0 {
		return types.Proposal{}
	}

	votes := make(map[string]int, len(proposals))
	for _, p := range proposals {
		votes[p.Canonical()]++
	}

	var winner types.Proposal
	bestVotes := 0
	for _, p := range proposals {
		if v := votes[p.Canonical()]; v > bestVotes {
			bestVotes = v
			winner = p
		}
	}
	return winner.Clone()
}
