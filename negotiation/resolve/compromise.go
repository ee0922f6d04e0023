package resolve

import "github.com/BaSui01/accord/types"

// Compromise builds a middle-ground agreement key by key: numeric values
// average, booleans follow the majority (ties favor true), and anything
// else takes the most frequent value (ties favor first-seen).
type Compromise struct{}

// Name implements Strategy.
func (Compromise) Name() string { return NameCompromise }

// Resolve implements Strategy.
func (Compromise) Resolve(n *types.Negotiation, _ []*types.Participant) types.Proposal {
	_, proposals := n.OrderedProposals()
	return compromiseOf(proposals)
}

func compromiseOf(proposals []types.Proposal) types.Proposal {
	out := make(types.Proposal)
	for _, key := range keyUnion(proposals) {
		out[key] = compromiseValue(valuesForKey(proposals, key))
	}
	return out
}

// compromiseValue merges all submitted values for one key.
func compromiseValue(values []types.Value) types.Value {
	allNum, allBool := true, true
	for _, v := range values {
		if v.Kind != types.KindNumber {
			allNum = false
		}
		if v.Kind != types.KindBool {
			allBool = false
		}
	}

	switch {
	case allNum && len(values) > 0:
		var sum float64
		for _, v := range values {
			sum += v.Num
		}
		return types.Num(sum / float64(len(values)))

	case allBool && len(values) > 0:
		yes := 0
		for _, v := range values {
			if v.Bool {
				yes++
			}
		}
		return types.Boolean(2*yes >= len(values))

	default:
		return modeValue(values)
	}
}

// modeValue returns the most frequent value, first-seen on ties.
func modeValue(values []types.Value) types.Value {
	counts := make(map[string]int, len(values))
	for _, v := range values {
		counts[string(v.Kind)+":"+v.String()]++
	}
	var best types.Value
	bestCount := 0
	for _, v := range values {
		if c := counts[string(v.Kind)+":"+v.String()]; c > bestCount {
			bestCount = c
			best = v
		}
	}
	return best
}
