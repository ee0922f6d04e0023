package resolve

import "github.com/BaSui01/accord/types"

// FairDivision assigns each contested key to the participant who values it
// most: the one whose preference for the key has the largest magnitude.
// Keys no participant has a preference for fall back to the compromise rule.
type FairDivision struct{}

// Name implements Strategy.
func (FairDivision) Name() string { return NameFairDivision }

// Resolve implements Strategy.
func (FairDivision) Resolve(n *types.Negotiation, participants []*types.Participant) types.Proposal {
	_, proposals := n.OrderedProposals()
	out := make(types.Proposal)
	for _, key := range keyUnion(proposals) {
		if pref, ok := strongestPreference(participants, key); ok {
			out[key] = pref
			continue
		}
		out[key] = compromiseValue(valuesForKey(proposals, key))
	}
	return out
}

// strongestPreference returns the preference value of the participant with
// the largest-magnitude preference for the key. Participant order (initiator
// first) breaks ties.
func strongestPreference(participants []*types.Participant, key string) (types.Value, bool) {
	var best types.Value
	bestMag := -1.0
	found := false
	for _, p := range participants {
		pref, ok := p.Preferences[key]
		if !ok {
			continue
		}
		if mag := pref.Magnitude(); mag > bestMag {
			bestMag = mag
			best = pref
			found = true
		}
	}
	return best, found
}
