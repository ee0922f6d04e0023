package types

import "time"

// Status is the lifecycle state of a negotiation.
type Status string

const (
	StatusInitiated          Status = "INITIATED"
	StatusInProgress         Status = "IN_PROGRESS"
	StatusSuccessful         Status = "SUCCESSFUL"
	StatusFailed             Status = "FAILED"
	StatusTimeout            Status = "TIMEOUT"
	StatusConflictResolution Status = "CONFLICT_RESOLUTION"
)

// Terminal reports whether the status permits no further message processing.
func (s Status) Terminal() bool {
	return s == StatusSuccessful || s == StatusFailed || s == StatusTimeout
}

// Resolution records how a negotiation reached its final agreement.
type Resolution string

const (
	ResolutionAccepted        Resolution = "accepted"
	ResolutionRoundsExhausted Resolution = "rounds_exhausted"
	ResolutionTimeout         Resolution = "timeout"
	ResolutionRejected        Resolution = "rejected"
	ResolutionAborted         Resolution = "aborted"
)

// Negotiation is the full mutable state of one multi-party negotiation.
// All mutation goes through the engine, which serializes access per id;
// callers only ever see deep-copied snapshots.
type Negotiation struct {
	ID             string     `json:"id"`
	Subject        string     `json:"subject"`
	InitiatorID    string     `json:"initiator_id"`
	ParticipantIDs []string   `json:"participant_ids"`
	Resources      Proposal   `json:"resources,omitempty"`
	Status         Status     `json:"status"`
	Resolution     Resolution `json:"resolution,omitempty"`
	Strategy       string     `json:"strategy"`

	StartTime    time.Time     `json:"start_time"`
	EndTime      *time.Time    `json:"end_time,omitempty"`
	CurrentRound int           `json:"current_round"`
	MaxRounds    int           `json:"max_rounds"`
	Timeout      time.Duration `json:"timeout"`

	Messages []Message `json:"messages"`

	// Proposals holds the latest proposal per agent; ProposalOrder records
	// first-submission order, the deterministic tie-break order for
	// resolvers.
	Proposals     map[string]Proposal `json:"proposals"`
	ProposalOrder []string            `json:"proposal_order"`

	CurrentProposal Proposal        `json:"current_proposal,omitempty"`
	Acceptances     map[string]bool `json:"acceptances"`
	Responded       map[string]bool `json:"responded"`
	FinalAgreement  Proposal        `json:"final_agreement,omitempty"`
}

// Parties returns every negotiating agent id, initiator first, in stable order.
func (n *Negotiation) Parties() []string {
	out := make([]string, 0, len(n.ParticipantIDs)+1)
	out = append(out, n.InitiatorID)
	for _, id := range n.ParticipantIDs {
		if id != n.InitiatorID {
			out = append(out, id)
		}
	}
	return out
}

// HasParty reports whether the given agent takes part in the negotiation.
func (n *Negotiation) HasParty(agentID string) bool {
	if agentID == n.InitiatorID {
		return true
	}
	for _, id := range n.ParticipantIDs {
		if id == agentID {
			return true
		}
	}
	return false
}

// SetProposal records an agent's latest proposal, keeping first-seen order.
func (n *Negotiation) SetProposal(agentID string, p Proposal) {
	if n.Proposals == nil {
		n.Proposals = make(map[string]Proposal)
	}
	if _, seen := n.Proposals[agentID]; !seen {
		n.ProposalOrder = append(n.ProposalOrder, agentID)
	}
	n.Proposals[agentID] = p
}

// OrderedProposals returns (agent id, proposal) pairs in first-seen order.
func (n *Negotiation) OrderedProposals() ([]string, []Proposal) {
	ids := make([]string, 0, len(n.ProposalOrder))
	props := make([]Proposal, 0, len(n.ProposalOrder))
	for _, id := range n.ProposalOrder {
		if p, ok := n.Proposals[id]; ok {
			ids = append(ids, id)
			props = append(props, p)
		}
	}
	return ids, props
}

// Deadline is the wall-clock instant after which the negotiation times out.
func (n *Negotiation) Deadline() time.Time {
	return n.StartTime.Add(n.Timeout)
}

// Clone returns a deep copy of the negotiation.
func (n *Negotiation) Clone() *Negotiation {
	if n == nil {
		return nil
	}
	out := *n
	if n.EndTime != nil {
		t := *n.EndTime
		out.EndTime = &t
	}
	out.ParticipantIDs = append([]string(nil), n.ParticipantIDs...)
	out.Resources = n.Resources.Clone()
	out.Messages = make([]Message, len(n.Messages))
	for i, m := range n.Messages {
		m.Content = m.Content.Clone()
		out.Messages[i] = m
	}
	if n.Proposals != nil {
		out.Proposals = make(map[string]Proposal, len(n.Proposals))
		for id, p := range n.Proposals {
			out.Proposals[id] = p.Clone()
		}
	}
	out.ProposalOrder = append([]string(nil), n.ProposalOrder...)
	out.CurrentProposal = n.CurrentProposal.Clone()
	if n.Acceptances != nil {
		out.Acceptances = make(map[string]bool, len(n.Acceptances))
		for id, v := range n.Acceptances {
			out.Acceptances[id] = v
		}
	}
	if n.Responded != nil {
		out.Responded = make(map[string]bool, len(n.Responded))
		for id, v := range n.Responded {
			out.Responded[id] = v
		}
	}
	out.FinalAgreement = n.FinalAgreement.Clone()
	return &out
}

// Outcome is the immutable record emitted to observers when a negotiation
// reaches a terminal state.
type Outcome struct {
	NegotiationID  string        `json:"negotiation_id"`
	Subject        string        `json:"subject"`
	Status         Status        `json:"status"`
	Resolution     Resolution    `json:"resolution,omitempty"`
	FinalAgreement Proposal      `json:"final_agreement,omitempty"`
	Participants   []string      `json:"participants"`
	Rounds         int           `json:"rounds"`
	Duration       time.Duration `json:"duration"`
}
