package resolve

import "github.com/BaSui01/accord/types"

// Priority returns the proposal of the highest-priority agent that has
// submitted one, initiator included. Ties go to the earlier submitter.
type Priority struct{}

// Name implements Strategy.
func (Priority) Name() string { return NamePriority }

// Resolve implements Strategy.
func (Priority) Resolve(n *types.Negotiation, participants []*types.Participant) types.Proposal {
	ids, proposals := n.OrderedProposals()
	if len(proposals) == 0 {
		return types.Proposal{}
	}

	priorities := make(map[string]int, len(participants))
	for _, p := range participants {
		priorities[p.ID] = p.Priority
	}

	best := 0
	for i := 1; i < len(ids); i++ {
		if priorities[ids[i]] > priorities[ids[best]] {
			best = i
		}
	}
	return proposals[best].Clone()
}
