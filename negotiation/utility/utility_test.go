package utility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/BaSui01/accord/types"
)

func TestDefault_Utility(t *testing.T) {
	tests := []struct {
		name        string
		preferences types.Proposal
		proposal    types.Proposal
		expected    float64
	}{
		{
			name:        "exact numeric match",
			preferences: types.Proposal{"price": types.Num(100)},
			proposal:    types.Proposal{"price": types.Num(100)},
			expected:    1.0,
		},
		{
			name:        "exact string match",
			preferences: types.Proposal{"delivery": types.Str("express")},
			proposal:    types.Proposal{"delivery": types.Str("express")},
			expected:    1.0,
		},
		{
			name:        "numeric distance scales with preference magnitude",
			preferences: types.Proposal{"price": types.Num(100)},
			proposal:    types.Proposal{"price": types.Num(80)},
			expected:    0.8,
		},
		{
			name:        "numeric distance capped at zero",
			preferences: types.Proposal{"price": types.Num(10)},
			proposal:    types.Proposal{"price": types.Num(1000)},
			expected:    0.0,
		},
		{
			name:        "string mismatch scores zero",
			preferences: types.Proposal{"delivery": types.Str("express")},
			proposal:    types.Proposal{"delivery": types.Str("standard")},
			expected:    0.0,
		},
		{
			name:        "kind mismatch scores zero",
			preferences: types.Proposal{"price": types.Num(100)},
			proposal:    types.Proposal{"price": types.Str("cheap")},
			expected:    0.0,
		},
		{
			name:        "no shared keys is neutral",
			preferences: types.Proposal{"price": types.Num(100)},
			proposal:    types.Proposal{"delivery": types.Str("express")},
			expected:    0.5,
		},
		{
			name:        "empty proposal is neutral",
			preferences: types.Proposal{"price": types.Num(100)},
			proposal:    types.Proposal{},
			expected:    0.5,
		},
		{
			name:        "mean over shared keys",
			preferences: types.Proposal{"price": types.Num(100), "qty": types.Num(10)},
			proposal:    types.Proposal{"price": types.Num(100), "qty": types.Num(5)},
			expected:    0.75,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &types.Participant{ID: "p", Preferences: tt.preferences}
			assert.InDelta(t, tt.expected, Score(p, tt.proposal), 1e-9)
		})
	}
}

func TestScore_CustomStrategy(t *testing.T) {
	p := &types.Participant{
		ID: "custom",
		Utility: types.UtilityFunc(func(_ *types.Participant, _ types.Proposal) float64 {
			return 0.42
		}),
	}
	assert.InDelta(t, 0.42, Score(p, types.Proposal{}), 1e-9)

	// Out-of-range custom scores are clamped.
	p.Utility = types.UtilityFunc(func(_ *types.Participant, _ types.Proposal) float64 {
		return 3.5
	})
	assert.InDelta(t, 1.0, Score(p, types.Proposal{}), 1e-9)
}

func TestScore_NilParticipant(t *testing.T) {
	assert.InDelta(t, 0.5, Score(nil, types.Proposal{"x": types.Num(1)}), 1e-9)
}

func TestSatisfiesConstraints(t *testing.T) {
	seller := &types.Participant{
		ID: "seller",
		Constraints: map[string]types.Constraint{
			"price":    types.AtLeast(90),
			"delivery": types.Exactly(types.Str("standard")),
		},
	}

	tests := []struct {
		name     string
		proposal types.Proposal
		want     bool
	}{
		{
			name:     "all constrained keys pass",
			proposal: types.Proposal{"price": types.Num(95), "delivery": types.Str("standard")},
			want:     true,
		},
		{
			name:     "range violation fails",
			proposal: types.Proposal{"price": types.Num(50)},
			want:     false,
		},
		{
			name:     "exact mismatch fails",
			proposal: types.Proposal{"delivery": types.Str("express")},
			want:     false,
		},
		{
			// Constraint keys absent from the proposal are vacuously
			// satisfied.
			name:     "absent keys pass",
			proposal: types.Proposal{"qty": types.Num(3)},
			want:     true,
		},
		{
			name:     "empty proposal passes",
			proposal: types.Proposal{},
			want:     true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SatisfiesConstraints(seller, tt.proposal))
		})
	}

	t.Run("participant without constraints always passes", func(t *testing.T) {
		p := &types.Participant{ID: "free"}
		assert.True(t, SatisfiesConstraints(p, types.Proposal{"price": types.Num(-1)}))
	})

	t.Run("non-numeric value fails range constraint", func(t *testing.T) {
		assert.False(t, SatisfiesConstraints(seller, types.Proposal{"price": types.Str("low")}))
	})
}

func TestScore_AlwaysInUnitInterval(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		genValue := rapid.OneOf(
			rapid.Custom(func(t *rapid.T) types.Value {
				return types.Num(rapid.Float64Range(-1e6, 1e6).Draw(t, "num"))
			}),
			rapid.Custom(func(t *rapid.T) types.Value {
				return types.Str(rapid.StringMatching(`[a-z]{0,8}`).Draw(t, "str"))
			}),
			rapid.Custom(func(t *rapid.T) types.Value {
				return types.Boolean(rapid.Bool().Draw(t, "bool"))
			}),
		)
		genProposal := rapid.MapOfN(rapid.StringMatching(`[a-e]`), genValue, 0, 5)

		p := &types.Participant{
			ID:          "p",
			Preferences: genProposal.Draw(t, "preferences"),
		}
		proposal := genProposal.Draw(t, "proposal")

		u := Score(p, proposal)
		if u < 0 || u > 1 {
			t.Fatalf("utility %v out of [0,1] for prefs=%v proposal=%v", u, p.Preferences, proposal)
		}
	})
}
