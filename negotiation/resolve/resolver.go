// Package resolve implements the conflict resolution strategies that turn a
// negotiation's accumulated proposals into one final agreement when rounds
// or consensus are exhausted.
//
// Strategies never fail: absence of data degrades to the compromise rule or
// an empty proposal. Ties are broken by first-seen proposal order.
package resolve

import "github.com/BaSui01/accord/types"

// Strategy turns a negotiation's latest proposals into a final agreement.
// Implementations must be side-effect free and must always return a
// proposal map, possibly empty.
type Strategy interface {
	Name() string
	Resolve(n *types.Negotiation, participants []*types.Participant) types.Proposal
}

// Strategy names accepted by ForName and carried in Negotiation.Strategy.
const (
	NamePriority       = "priority"
	NameCompromise     = "compromise"
	NameVoting         = "voting"
	NameOptimization   = "optimization"
	NameFairDivision   = "fair_division"
	NameParetoOptimal  = "pareto_optimal"
	NameNashBargaining = "nash_bargaining"
)

// ForName returns the strategy registered under the given name.
// Unknown names fall back to compromise, the engine's default.
func ForName(name string) Strategy {
	switch name {
	case NamePriority:
		return Priority{}
	case NameVoting:
		return Voting{}
	case NameOptimization:
		return Optimization{}
	case NameFairDivision:
		return FairDivision{}
	case NameParetoOptimal:
		return ParetoOptimal{}
	case NameNashBargaining:
		return NashBargaining{}
	default:
		return Compromise{}
	}
}

// Names lists all registered strategy names.
func Names() []string {
	return []string{
		NamePriority, NameCompromise, NameVoting, NameOptimization,
		NameFairDivision, NameParetoOptimal, NameNashBargaining,
	}
}

// keyUnion collects the union of keys across proposals. Each proposal
// contributes its keys in sorted order; the union keeps first-seen order
// across proposals so the result is deterministic.
func keyUnion(proposals []types.Proposal) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, p := range proposals {
		for _, k := range p.SortedKeys() {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}

// valuesForKey returns every submitted value for one key, in proposal
// first-seen order.
func valuesForKey(proposals []types.Proposal, key string) []types.Value {
	var out []types.Value
	for _, p := range proposals {
		if v, ok := p[key]; ok {
			out = append(out, v)
		}
	}
	return out
}
