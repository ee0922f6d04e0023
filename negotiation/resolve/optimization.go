package resolve

import "github.com/BaSui01/accord/types"

// Optimization picks, per key, the submitted value preferred by the most
// participants (exact preference match). When no participant prefers any
// submitted value for a key, the first-seen value stands.
type Optimization struct{}

// Name implements Strategy.
func (Optimization) Name() string { return NameOptimization }

// Resolve implements Strategy.
func (Optimization) Resolve(n *types.Negotiation, participants []*types.Participant) types.Proposal {
	_, proposals := n.OrderedProposals()
	out := make(types.Proposal)
	for _, key := range keyUnion(proposals) {
		values := valuesForKey(proposals, key)
		best := values[0]
		bestScore := matchCount(participants, key, values[0])
		for _, v := range values[1:] {
			if s := matchCount(participants, key, v); s > bestScore {
				bestScore = s
				best = v
			}
		}
		out[key] = best
	}
	return out
}

// matchCount counts participants whose stored preference for the key
// equals the candidate value exactly.
func matchCount(participants []*types.Participant, key string, v types.Value) int {
	count := 0
	for _, p := range participants {
		if pref, ok := p.Preferences[key]; ok && pref.Equal(v) {
			count++
		}
	}
	return count
}
