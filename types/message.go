package types

import "time"

// MessageType is the performative of a negotiation message.
type MessageType string

const (
	MessageProposal        MessageType = "PROPOSAL"
	MessageCounterProposal MessageType = "COUNTER_PROPOSAL"
	MessageAccept          MessageType = "ACCEPT"
	MessageReject          MessageType = "REJECT"
	MessageQuery           MessageType = "QUERY"
	MessageInform          MessageType = "INFORM"
	MessageConfirm         MessageType = "CONFIRM"
	MessageConcession      MessageType = "CONCESSION"
	MessageDemand          MessageType = "DEMAND"
	MessageCompromise      MessageType = "COMPROMISE"
	MessageResolution      MessageType = "RESOLUTION"
)

// Message is one entry in a negotiation's append-only history.
// Messages are immutable once appended.
type Message struct {
	ID        string      `json:"id"`
	SenderID  string      `json:"sender_id"`
	Type      MessageType `json:"type"`
	Content   Proposal    `json:"content,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewMessage creates a message stamped with the current time.
func NewMessage(senderID string, typ MessageType, content Proposal) Message {
	return Message{
		SenderID:  senderID,
		Type:      typ,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// CarriesProposal reports whether this message type updates the sender's
// latest proposal in the negotiation.
func (t MessageType) CarriesProposal() bool {
	switch t {
	case MessageProposal, MessageCounterProposal, MessageCompromise:
		return true
	}
	return false
}

// Positive reports whether the message type signals willingness to converge.
// Used by the success-prediction sentiment heuristic.
func (t MessageType) Positive() bool {
	switch t {
	case MessageAccept, MessageCompromise, MessageConcession:
		return true
	}
	return false
}

// Negative reports whether the message type signals resistance.
func (t MessageType) Negative() bool {
	return t == MessageReject || t == MessageDemand
}
