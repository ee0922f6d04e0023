package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_Terminal(t *testing.T) {
	assert.True(t, StatusSuccessful.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusTimeout.Terminal())
	assert.False(t, StatusInitiated.Terminal())
	assert.False(t, StatusInProgress.Terminal())
	assert.False(t, StatusConflictResolution.Terminal())
}

func TestNegotiation_Parties(t *testing.T) {
	n := &Negotiation{
		InitiatorID:    "seller",
		ParticipantIDs: []string{"buyer", "broker"},
	}
	assert.Equal(t, []string{"seller", "buyer", "broker"}, n.Parties())

	// The initiator never appears twice.
	n.ParticipantIDs = []string{"buyer", "seller"}
	assert.Equal(t, []string{"seller", "buyer"}, n.Parties())
}

func TestNegotiation_HasParty(t *testing.T) {
	n := &Negotiation{InitiatorID: "seller", ParticipantIDs: []string{"buyer"}}
	assert.True(t, n.HasParty("seller"))
	assert.True(t, n.HasParty("buyer"))
	assert.False(t, n.HasParty("broker"))
}

func TestNegotiation_SetProposalKeepsFirstSeenOrder(t *testing.T) {
	n := &Negotiation{}
	n.SetProposal("b", Proposal{"price": Num(1)})
	n.SetProposal("a", Proposal{"price": Num(2)})
	n.SetProposal("b", Proposal{"price": Num(3)}) // replace, not reorder

	assert.Equal(t, []string{"b", "a"}, n.ProposalOrder)

	ids, props := n.OrderedProposals()
	require.Equal(t, []string{"b", "a"}, ids)
	assert.True(t, props[0].Equal(Proposal{"price": Num(3)}))
	assert.True(t, props[1].Equal(Proposal{"price": Num(2)}))
}

func TestNegotiation_Deadline(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	n := &Negotiation{StartTime: start, Timeout: time.Minute}
	assert.Equal(t, start.Add(time.Minute), n.Deadline())
}

func TestNegotiation_CloneIsDeep(t *testing.T) {
	end := time.Now()
	n := &Negotiation{
		ID:             "neg-1",
		InitiatorID:    "seller",
		ParticipantIDs: []string{"buyer"},
		Status:         StatusInProgress,
		EndTime:        &end,
		Messages: []Message{
			NewMessage("seller", MessageProposal, Proposal{"price": Num(100)}),
		},
		CurrentProposal: Proposal{"price": Num(100)},
		Acceptances:     map[string]bool{"buyer": true},
		Responded:       map[string]bool{},
		FinalAgreement:  Proposal{"price": Num(90)},
	}
	n.SetProposal("seller", Proposal{"price": Num(100)})

	c := n.Clone()
	require.Equal(t, n, c)

	c.ParticipantIDs[0] = "mallory"
	c.Messages[0].Content["price"] = Num(-1)
	c.Proposals["seller"]["price"] = Num(-1)
	c.ProposalOrder[0] = "mallory"
	c.CurrentProposal["price"] = Num(-1)
	c.Acceptances["buyer"] = false
	c.FinalAgreement["price"] = Num(-1)
	*c.EndTime = end.Add(time.Hour)

	assert.Equal(t, "buyer", n.ParticipantIDs[0])
	assert.True(t, n.Messages[0].Content["price"].Equal(Num(100)))
	assert.True(t, n.Proposals["seller"]["price"].Equal(Num(100)))
	assert.Equal(t, "seller", n.ProposalOrder[0])
	assert.True(t, n.CurrentProposal["price"].Equal(Num(100)))
	assert.True(t, n.Acceptances["buyer"])
	assert.True(t, n.FinalAgreement["price"].Equal(Num(90)))
	assert.True(t, n.EndTime.Equal(end))

	var nilNeg *Negotiation
	assert.Nil(t, nilNeg.Clone())
}

func TestMessage_Classification(t *testing.T) {
	carries := []MessageType{MessageProposal, MessageCounterProposal, MessageCompromise}
	for _, typ := range carries {
		assert.True(t, typ.CarriesProposal(), string(typ))
	}
	for _, typ := range []MessageType{MessageAccept, MessageReject, MessageQuery, MessageInform} {
		assert.False(t, typ.CarriesProposal(), string(typ))
	}

	assert.True(t, MessageAccept.Positive())
	assert.True(t, MessageCompromise.Positive())
	assert.True(t, MessageConcession.Positive())
	assert.False(t, MessageReject.Positive())

	assert.True(t, MessageReject.Negative())
	assert.True(t, MessageDemand.Negative())
	assert.False(t, MessageAccept.Negative())
}

func TestNewMessage(t *testing.T) {
	before := time.Now()
	m := NewMessage("buyer", MessageCounterProposal, Proposal{"price": Num(80)})

	assert.Equal(t, "buyer", m.SenderID)
	assert.Equal(t, MessageCounterProposal, m.Type)
	assert.True(t, m.Content.Equal(Proposal{"price": Num(80)}))
	assert.False(t, m.Timestamp.Before(before))
}
