// Package utility scores candidate proposals against participant profiles.
// It is a leaf package shared by the negotiation engine, the conflict
// resolution strategies, and the analytics layer.
package utility

import (
	"math"

	"github.com/BaSui01/accord/types"
)

// defaultStrategy is the similarity-based scoring used when a participant
// supplies no custom UtilityStrategy.
type defaultStrategy struct{}

// Default returns the engine's built-in utility strategy.
func Default() types.UtilityStrategy { return defaultStrategy{} }

// Utility averages per-key similarity over the preference keys present in
// both the proposal and the participant's preferences. With no shared keys
// the score is a neutral 0.5. The result is always in [0,1].
func (defaultStrategy) Utility(p *types.Participant, proposal types.Proposal) float64 {
	if p == nil {
		return 0.5
	}
	var sum float64
	var n int
	for key, pref := range p.Preferences {
		got, ok := proposal[key]
		if !ok {
			continue
		}
		sum += similarity(pref, got)
		n++
	}
	if n == 0 {
		return 0.5
	}
	return Clamp01(sum / float64(n))
}

// similarity scores one proposal value against one preference value.
// Exact matches score 1. Numeric pairs decay linearly with relative
// distance. Kind mismatches and unequal non-numerics score 0.
func similarity(pref, got types.Value) float64 {
	if pref.Equal(got) {
		return 1
	}
	if pref.Kind == types.KindNumber && got.Kind == types.KindNumber {
		denom := math.Max(1, math.Abs(pref.Num))
		return 1 - math.Min(1, math.Abs(got.Num-pref.Num)/denom)
	}
	return 0
}

// Score computes the participant's satisfaction for a proposal, delegating
// to the participant's own strategy when present.
func Score(p *types.Participant, proposal types.Proposal) float64 {
	if p != nil && p.Utility != nil {
		return Clamp01(p.Utility.Utility(p, proposal))
	}
	return defaultStrategy{}.Utility(p, proposal)
}

// Mean returns the average score of a proposal across participants,
// or 0 when the slice is empty.
func Mean(participants []*types.Participant, proposal types.Proposal) float64 {
	if len(participants) == 0 {
		return 0
	}
	var sum float64
	for _, p := range participants {
		sum += Score(p, proposal)
	}
	return sum / float64(len(participants))
}

// SatisfiesConstraints reports whether every constraint key present in the
// proposal passes. Constraint keys absent from the proposal are vacuously
// satisfied; participants without constraints always pass.
func SatisfiesConstraints(p *types.Participant, proposal types.Proposal) bool {
	if p == nil || len(p.Constraints) == 0 {
		return true
	}
	for key, c := range p.Constraints {
		v, ok := proposal[key]
		if !ok {
			continue
		}
		if !c.Satisfied(v) {
			return false
		}
	}
	return true
}

// Clamp01 bounds a score to [0,1], mapping NaN to 0.
func Clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
