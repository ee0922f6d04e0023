package resolve

import (
	"github.com/BaSui01/accord/negotiation/utility"
	"github.com/BaSui01/accord/types"
)

// ParetoOptimal discards every submitted proposal dominated by another and
// returns the non-dominated proposal with the highest mean utility across
// participants. With no proposals it falls back to Compromise.
type ParetoOptimal struct{}

// Name implements Strategy.
func (ParetoOptimal) Name() string { return NameParetoOptimal }

// Resolve implements Strategy.
func (ParetoOptimal) Resolve(n *types.Negotiation, participants []*types.Participant) types.Proposal {
	_, proposals := n.OrderedProposals()
	if len(proposals) == 0 || len(participants) == 0 {
		return Compromise{}.Resolve(n, participants)
	}

	vectors := make([][]float64, len(proposals))
	for i, p := range proposals {
		vectors[i] = utilityVector(participants, p)
	}

	var best types.Proposal
	bestMean := -1.0
	for i, p := range proposals {
		if isDominated(vectors, i) {
			continue
		}
		if m := mean(vectors[i]); m > bestMean {
			bestMean = m
			best = p
		}
	}
	if best == nil {
		return Compromise{}.Resolve(n, participants)
	}
	return best.Clone()
}

// utilityVector scores one proposal for every participant, in order.
func utilityVector(participants []*types.Participant, p types.Proposal) []float64 {
	out := make([]float64, len(participants))
	for i, part := range participants {
		out[i] = utility.Score(part, p)
	}
	return out
}

// isDominated reports whether vector i is weakly-or-equal beaten on every
// coordinate and strictly beaten on at least one by some other vector.
func isDominated(vectors [][]float64, i int) bool {
	for j, other := range vectors {
		if j == i {
			continue
		}
		if dominates(other, vectors[i]) {
			return true
		}
	}
	return false
}

func dominates(a, b []float64) bool {
	strict := false
	for k := range a {
		if a[k] < b[k] {
			return false
		}
		if a[k] > b[k] {
			strict = true
		}
	}
	return strict
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}
