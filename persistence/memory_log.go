package persistence

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/BaSui01/accord/types"
)

// MemoryLog is the in-process Log implementation.
// Suitable for development and testing. Data is lost on restart.
type MemoryLog struct {
	messages map[string][]types.Message
	outcomes []*types.Outcome
	mu       sync.RWMutex
	closed   bool
}

// NewMemoryLog creates an empty in-memory negotiation log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{
		messages: make(map[string][]types.Message),
	}
}

// Close closes the log.
func (l *MemoryLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

// Ping checks if the log is healthy.
func (l *MemoryLog) Ping(ctx context.Context) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrStoreClosed
	}
	return nil
}

// AppendMessage persists one message of a negotiation's history.
func (l *MemoryLog) AppendMessage(ctx context.Context, negotiationID string, msg types.Message) error {
	if negotiationID == "" {
		return ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrStoreClosed
	}

	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	msg.Content = msg.Content.Clone()
	l.messages[negotiationID] = append(l.messages[negotiationID], msg)
	return nil
}

// Messages replays a negotiation's history in append order.
func (l *MemoryLog) Messages(ctx context.Context, negotiationID string) ([]types.Message, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return nil, ErrStoreClosed
	}

	msgs := l.messages[negotiationID]
	out := make([]types.Message, len(msgs))
	for i, m := range msgs {
		m.Content = m.Content.Clone()
		out[i] = m
	}
	return out, nil
}

// SaveOutcome archives a completed negotiation's outcome.
func (l *MemoryLog) SaveOutcome(ctx context.Context, outcome *types.Outcome) error {
	if outcome == nil {
		return ErrInvalidInput
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrStoreClosed
	}

	copied := *outcome
	copied.FinalAgreement = outcome.FinalAgreement.Clone()
	copied.Participants = append([]string(nil), outcome.Participants...)
	l.outcomes = append(l.outcomes, &copied)
	return nil
}

// Outcomes returns archived outcomes, oldest first.
func (l *MemoryLog) Outcomes(ctx context.Context, limit int) ([]*types.Outcome, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return nil, ErrStoreClosed
	}

	n := len(l.outcomes)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*types.Outcome, n)
	for i := 0; i < n; i++ {
		copied := *l.outcomes[i]
		out[i] = &copied
	}
	return out, nil
}

// Ensure MemoryLog implements Log.
var _ Log = (*MemoryLog)(nil)
