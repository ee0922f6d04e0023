package negotiation

import (
	"math"
	"sort"
	"time"

	"github.com/BaSui01/accord/negotiation/utility"
	"github.com/BaSui01/accord/types"
)

// KeyChange records one key that differs between the initial proposal and
// the final agreement.
type KeyChange struct {
	Key    string       `json:"key"`
	Before *types.Value `json:"before,omitempty"`
	After  *types.Value `json:"after,omitempty"`
}

// AnalysisReport summarizes a completed negotiation.
type AnalysisReport struct {
	NegotiationID   string                    `json:"negotiation_id"`
	Status          types.Status              `json:"status"`
	Resolution      types.Resolution          `json:"resolution,omitempty"`
	Rounds          int                       `json:"rounds"`
	Duration        time.Duration             `json:"duration"`
	MessagesByType  map[types.MessageType]int `json:"messages_by_type"`
	MessagesByAgent map[string]int            `json:"messages_by_agent"`
	ChangedKeys     []KeyChange               `json:"changed_keys"`
	Utilities       map[string]float64        `json:"utilities"`
	Fairness        float64                   `json:"fairness"`
}

// AnalyzeNegotiation builds a post-hoc report for a terminal negotiation.
// It fails with INVALID_STATE while the negotiation is still active.
func (e *Engine) AnalyzeNegotiation(negotiationID string) (*AnalysisReport, error) {
	s := e.session(negotiationID)
	if s == nil {
		return nil, types.NewErrorf(types.ErrNotFound, "negotiation %q not found", negotiationID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.n
	if !n.Status.Terminal() {
		return nil, types.NewErrorf(types.ErrInvalidState,
			"negotiation %q is still active (status %s)", negotiationID, n.Status)
	}

	report := &AnalysisReport{
		NegotiationID:   n.ID,
		Status:          n.Status,
		Resolution:      n.Resolution,
		Rounds:          n.CurrentRound,
		MessagesByType:  make(map[types.MessageType]int),
		MessagesByAgent: make(map[string]int),
		Utilities:       make(map[string]float64),
	}
	if n.EndTime != nil {
		report.Duration = n.EndTime.Sub(n.StartTime)
	}

	for _, m := range n.Messages {
		report.MessagesByType[m.Type]++
		report.MessagesByAgent[m.SenderID]++
	}

	report.ChangedKeys = diffProposals(initialProposal(n), n.FinalAgreement)

	if n.FinalAgreement != nil {
		for _, p := range e.registry.GetAll(n.Parties()) {
			report.Utilities[p.ID] = utility.Score(p, n.FinalAgreement)
		}
	}
	report.Fairness = fairnessLocked(e, n)

	return report, nil
}

// SuggestConcession proposes the smallest move toward the current proposal:
// the participant's latest proposal with the first differing key (in sorted
// key order) flipped to the current proposal's value. With no differences
// the latest proposal is returned unchanged.
func (e *Engine) SuggestConcession(negotiationID, participantID string) (types.Proposal, error) {
	s := e.session(negotiationID)
	if s == nil {
		return nil, types.NewErrorf(types.ErrNotFound, "negotiation %q not found", negotiationID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.n
	if !n.HasParty(participantID) {
		return nil, types.NewErrorf(types.ErrNotFound,
			"agent %q is not part of negotiation %q", participantID, negotiationID)
	}

	latest, ok := n.Proposals[participantID]
	if !ok {
		return n.CurrentProposal.Clone(), nil
	}

	suggestion := latest.Clone()
	keys := make([]string, 0, len(latest)+len(n.CurrentProposal))
	keys = append(keys, latest.SortedKeys()...)
	for _, k := range n.CurrentProposal.SortedKeys() {
		if _, seen := latest[k]; !seen {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		cur, inCurrent := n.CurrentProposal[k]
		own, inOwn := suggestion[k]
		if inCurrent && (!inOwn || !own.Equal(cur)) {
			suggestion[k] = cur
			return suggestion, nil
		}
		if !inCurrent && inOwn {
			delete(suggestion, k)
			return suggestion, nil
		}
	}
	return suggestion, nil
}

// CalculateFairness scores how evenly the final agreement satisfies the
// parties: the mean of the min/max utility ratio and Jain's fairness
// index, in [0,1]. Non-successful negotiations score 0.
func (e *Engine) CalculateFairness(negotiationID string) (float64, error) {
	s := e.session(negotiationID)
	if s == nil {
		return 0, types.NewErrorf(types.ErrNotFound, "negotiation %q not found", negotiationID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fairnessLocked(e, s.n), nil
}

func fairnessLocked(e *Engine, n *types.Negotiation) float64 {
	if n.Status != types.StatusSuccessful {
		return 0
	}

	parties := e.registry.GetAll(n.Parties())
	if len(parties) == 0 {
		return 0
	}
	utilities := make([]float64, len(parties))
	for i, p := range parties {
		utilities[i] = utility.Score(p, n.FinalAgreement)
	}

	minU, maxU := utilities[0], utilities[0]
	var sum, sumSq float64
	for _, u := range utilities {
		minU = math.Min(minU, u)
		maxU = math.Max(maxU, u)
		sum += u
		sumSq += u * u
	}

	ratio := minU / math.Max(0.001, maxU)

	// Jain's index of an all-zero vector is taken as 1: equal shares.
	jain := 1.0
	if sumSq > 0 {
		jain = (sum * sum) / (float64(len(utilities)) * sumSq)
	}

	return utility.Clamp01((ratio + jain) / 2)
}

// PredictNegotiationSuccess estimates the probability that a negotiation
// ends with an agreement. Terminal states are certain; active negotiations
// blend round pressure, time pressure, message sentiment, and proposal
// convergence.
func (e *Engine) PredictNegotiationSuccess(negotiationID string) (float64, error) {
	s := e.session(negotiationID)
	if s == nil {
		return 0, types.NewErrorf(types.ErrNotFound, "negotiation %q not found", negotiationID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.n

	switch n.Status {
	case types.StatusSuccessful:
		return 1, nil
	case types.StatusFailed, types.StatusTimeout:
		return 0, nil
	}

	roundScore := 1 - float64(n.CurrentRound)/float64(n.MaxRounds)
	timeScore := 0.0
	if n.Timeout > 0 {
		timeScore = 1 - float64(time.Since(n.StartTime))/float64(n.Timeout)
	}

	score := 0.2*utility.Clamp01(roundScore) +
		0.2*utility.Clamp01(timeScore) +
		0.3*messageSentiment(n) +
		0.3*utilityConvergence(e, n)
	return utility.Clamp01(score), nil
}

// messageSentiment is the share of converging message types among all
// sentiment-bearing messages, 0.5 when there are none.
func messageSentiment(n *types.Negotiation) float64 {
	var positive, negative int
	for _, m := range n.Messages {
		switch {
		case m.Type.Positive():
			positive++
		case m.Type.Negative():
			negative++
		}
	}
	if positive+negative == 0 {
		return 0.5
	}
	return float64(positive) / float64(positive+negative)
}

// utilityConvergence measures how stable each participant's own proposals
// score for themselves: 1 minus the capped mean standard deviation of
// per-participant utility across the proposals they submitted.
func utilityConvergence(e *Engine, n *types.Negotiation) float64 {
	var deviations []float64
	for _, id := range n.Parties() {
		p := e.registry.Get(id)
		var scores []float64
		for _, m := range n.Messages {
			if m.SenderID == id && m.Type.CarriesProposal() {
				scores = append(scores, utility.Score(p, m.Content))
			}
		}
		if len(scores) == 0 {
			continue
		}
		deviations = append(deviations, stddev(scores))
	}
	if len(deviations) == 0 {
		return 1
	}
	var sum float64
	for _, d := range deviations {
		sum += d
	}
	return 1 - math.Min(1, sum/float64(len(deviations)))
}

func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	return math.Sqrt(variance / float64(len(values)))
}

// initialProposal returns the content of the negotiation's seeding message.
func initialProposal(n *types.Negotiation) types.Proposal {
	if len(n.Messages) == 0 {
		return nil
	}
	return n.Messages[0].Content
}

// diffProposals lists keys whose values differ between two proposals,
// sorted by key.
func diffProposals(before, after types.Proposal) []KeyChange {
	keys := make(map[string]bool)
	for k := range before {
		keys[k] = true
	}
	for k := range after {
		keys[k] = true
	}

	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	var changes []KeyChange
	for _, k := range sorted {
		b, hasBefore := before[k]
		a, hasAfter := after[k]
		if hasBefore && hasAfter && b.Equal(a) {
			continue
		}
		change := KeyChange{Key: k}
		if hasBefore {
			v := b
			change.Before = &v
		}
		if hasAfter {
			v := a
			change.After = &v
		}
		changes = append(changes, change)
	}
	return changes
}
