package types

// Participant is an agent's negotiation profile.
type Participant struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Priority    int                   `json:"priority"`
	Preferences Proposal              `json:"preferences,omitempty"`
	Constraints map[string]Constraint `json:"constraints,omitempty"`

	// Utility, when set, replaces the engine's default similarity-based
	// scoring for this participant.
	Utility UtilityStrategy `json:"-"`
}

// UtilityStrategy computes a participant's satisfaction score for a
// candidate proposal. Implementations must return a score in [0,1].
type UtilityStrategy interface {
	Utility(p *Participant, proposal Proposal) float64
}

// UtilityFunc adapts a plain function to a UtilityStrategy.
type UtilityFunc func(p *Participant, proposal Proposal) float64

// Utility implements UtilityStrategy.
func (f UtilityFunc) Utility(p *Participant, proposal Proposal) float64 { return f(p, proposal) }

// Clone returns an independent copy of the participant profile.
// The utility strategy handle is shared, not copied.
func (p *Participant) Clone() *Participant {
	if p == nil {
		return nil
	}
	out := &Participant{
		ID:       p.ID,
		Name:     p.Name,
		Priority: p.Priority,
		Utility:  p.Utility,
	}
	out.Preferences = p.Preferences.Clone()
	if p.Constraints != nil {
		out.Constraints = make(map[string]Constraint, len(p.Constraints))
		for k, v := range p.Constraints {
			out.Constraints[k] = v
		}
	}
	return out
}
