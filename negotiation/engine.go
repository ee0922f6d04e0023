// Package negotiation implements a multi-round, multi-party
// proposal/counter-proposal protocol for reaching agreement on resource or
// task allocation.
//
// Each negotiation is an independent unit of state: concurrent calls for
// different negotiation ids proceed in parallel, while all transitions of
// one negotiation are serialized behind a per-negotiation lock. Delivery of
// messages to the engine is the caller's concern; the protocol is agent-id
// addressed and transport-agnostic.
package negotiation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/accord/internal/metrics"
	"github.com/BaSui01/accord/negotiation/resolve"
	"github.com/BaSui01/accord/negotiation/utility"
	"github.com/BaSui01/accord/persistence"
	"github.com/BaSui01/accord/types"
)

const (
	// DefaultMaxRounds bounds round progression when the caller gives none.
	DefaultMaxRounds = 10

	// DefaultTimeout bounds wall-clock negotiation time when the caller
	// gives none.
	DefaultTimeout = 5 * time.Minute

	// compromiseThreshold is the mean utility above which a COMPROMISE
	// message is adopted as the current proposal.
	compromiseThreshold = 0.7

	// resolverSender identifies engine-generated RESOLUTION messages.
	resolverSender = "engine"
)

// OutcomeObserver receives completed negotiation outcomes. Observers are
// notified fire-and-forget; the engine never blocks on them.
type OutcomeObserver interface {
	OnOutcome(outcome *types.Outcome)
}

// OutcomeObserverFunc adapts a function to an OutcomeObserver.
type OutcomeObserverFunc func(outcome *types.Outcome)

// OnOutcome implements OutcomeObserver.
func (f OutcomeObserverFunc) OnOutcome(outcome *types.Outcome) { f(outcome) }

// Options configures an Engine.
type Options struct {
	// Logger receives structured engine logs. Defaults to a nop logger.
	Logger *zap.Logger

	// Log, when set, durably records message history and outcomes.
	// Writes are best-effort: failures are logged, never surfaced.
	Log persistence.Log

	// MetricsNamespace enables prometheus metrics under the given
	// namespace. Empty disables metrics.
	MetricsNamespace string

	// DefaultMaxRounds replaces DefaultMaxRounds when positive.
	DefaultMaxRounds int

	// DefaultTimeout replaces DefaultTimeout when positive.
	DefaultTimeout time.Duration

	// DefaultStrategy names the conflict resolution strategy used when a
	// negotiation specifies none. Defaults to compromise.
	DefaultStrategy string
}

// session pairs one negotiation with its exclusive-access lane.
type session struct {
	mu sync.Mutex
	n  *types.Negotiation
}

// Engine owns the negotiation lifecycle: round progression, timeout
// detection, acceptance tracking, and dispatch of inbound messages to
// per-type handlers.
type Engine struct {
	registry  *Registry
	logger    *zap.Logger
	metrics   *metrics.Collector
	log       persistence.Log
	tracer    trace.Tracer
	defaults  Options
	observers []OutcomeObserver
	obsMu     sync.RWMutex

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewEngine creates an engine backed by the given participant registry.
func NewEngine(registry *Registry, opts Options) *Engine {
	if registry == nil {
		registry = NewRegistry(opts.Logger)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.DefaultMaxRounds <= 0 {
		opts.DefaultMaxRounds = DefaultMaxRounds
	}
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = DefaultTimeout
	}
	if opts.DefaultStrategy == "" {
		opts.DefaultStrategy = resolve.NameCompromise
	}

	e := &Engine{
		registry: registry,
		logger:   logger.With(zap.String("component", "engine")),
		log:      opts.Log,
		tracer:   otel.Tracer("github.com/BaSui01/accord/negotiation"),
		defaults: opts,
		sessions: make(map[string]*session),
	}
	if opts.MetricsNamespace != "" {
		e.metrics = metrics.NewCollector(opts.MetricsNamespace, logger)
	}
	return e
}

// Registry returns the engine's participant registry.
func (e *Engine) Registry() *Registry { return e.registry }

// RegisterParticipant upserts a participant profile.
func (e *Engine) RegisterParticipant(p *types.Participant) error {
	return e.registry.Register(p)
}

// RegisterObserver adds an outcome observer. Observers registered after a
// negotiation completed do not receive its outcome retroactively.
func (e *Engine) RegisterObserver(o OutcomeObserver) {
	if o == nil {
		return
	}
	e.obsMu.Lock()
	defer e.obsMu.Unlock()
	e.observers = append(e.observers, o)
}

// InitiateRequest describes a new negotiation.
type InitiateRequest struct {
	InitiatorID     string
	ParticipantIDs  []string
	Subject         string
	Resources       types.Proposal
	InitialProposal types.Proposal
	MaxRounds int // 0 means engine default

	// Timeout is the wall-clock budget. 0 means engine default; a
	// negative value means the deadline has already passed, so the first
	// inbound message (or sweep) resolves the negotiation immediately.
	Timeout time.Duration

	Strategy string // "" means engine default
}

// InitiateNegotiation creates a negotiation seeded with the initiator's
// first proposal and returns its id. All referenced agents must already be
// registered.
func (e *Engine) InitiateNegotiation(ctx context.Context, req InitiateRequest) (string, error) {
	_, span := e.tracer.Start(ctx, "negotiation.Initiate",
		trace.WithAttributes(attribute.String("initiator", req.InitiatorID)))
	defer span.End()

	if !e.registry.Has(req.InitiatorID) {
		return "", types.NewErrorf(types.ErrUnknownParticipant,
			"initiator %q is not registered", req.InitiatorID)
	}
	for _, id := range req.ParticipantIDs {
		if !e.registry.Has(id) {
			return "", types.NewErrorf(types.ErrUnknownParticipant,
				"participant %q is not registered", id)
		}
	}

	maxRounds := req.MaxRounds
	if maxRounds <= 0 {
		maxRounds = e.defaults.DefaultMaxRounds
	}
	timeout := req.Timeout
	if timeout == 0 {
		timeout = e.defaults.DefaultTimeout
	}
	strategy := req.Strategy
	if strategy == "" {
		strategy = e.defaults.DefaultStrategy
	}

	// A malformed or empty initial proposal is treated as {} rather than
	// rejected; downstream validation is an external concern.
	initial := req.InitialProposal.Clone()
	if initial == nil {
		initial = types.Proposal{}
	}

	n := &types.Negotiation{
		ID:             uuid.New().String(),
		Subject:        req.Subject,
		InitiatorID:    req.InitiatorID,
		ParticipantIDs: dedupe(req.ParticipantIDs, req.InitiatorID),
		Resources:      req.Resources.Clone(),
		Status:         types.StatusInitiated,
		Strategy:       strategy,
		StartTime:      time.Now(),
		CurrentRound:   1,
		MaxRounds:      maxRounds,
		Timeout:        timeout,
		Proposals:      make(map[string]types.Proposal),
		Acceptances:    make(map[string]bool),
		Responded:      make(map[string]bool),
	}

	seed := types.NewMessage(req.InitiatorID, types.MessageProposal, initial)
	seed.ID = uuid.New().String()
	n.Messages = append(n.Messages, seed)
	n.SetProposal(req.InitiatorID, initial)
	n.CurrentProposal = initial

	e.mu.Lock()
	e.sessions[n.ID] = &session{n: n}
	e.mu.Unlock()

	e.metrics.RecordStart(strategy)
	e.metrics.RecordMessage(string(types.MessageProposal))
	e.appendToLog(n.ID, seed)

	e.logger.Info("negotiation initiated",
		zap.String("id", n.ID),
		zap.String("subject", req.Subject),
		zap.String("initiator", req.InitiatorID),
		zap.Int("participants", len(n.ParticipantIDs)),
		zap.String("strategy", strategy))

	return n.ID, nil
}

// GetNegotiation returns a deep-copied snapshot, or nil if unknown.
// Repeated calls without intervening writes return identical snapshots.
func (e *Engine) GetNegotiation(id string) *types.Negotiation {
	s := e.session(id)
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n.Clone()
}

// SubmitResponse processes one inbound message for a negotiation and
// returns the resulting snapshot.
//
// It fails with NOT_FOUND for unknown negotiations or agents outside the
// negotiation, and with INACTIVE_NEGOTIATION once a terminal state is
// reached. The wall-clock deadline is checked before anything else: a
// late call resolves the negotiation via the configured strategy instead
// of processing the message.
func (e *Engine) SubmitResponse(ctx context.Context, negotiationID, participantID string, msgType types.MessageType, content types.Proposal) (*types.Negotiation, error) {
	ctx, span := e.tracer.Start(ctx, "negotiation.SubmitResponse",
		trace.WithAttributes(
			attribute.String("negotiation_id", negotiationID),
			attribute.String("participant_id", participantID),
			attribute.String("message_type", string(msgType)),
		))
	defer span.End()

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
	if n.Status.Terminal() {
		return nil, types.NewErrorf(types.ErrInactiveNegotiation,
			"negotiation %q already ended with status %s", negotiationID, n.Status)
	}
	// RESOLUTION messages are authored by the engine only; accepting one
	// from a participant would let them forge a final agreement into the
	// history.
	if msgType == types.MessageResolution {
		return nil, types.NewErrorf(types.ErrInvalidRequest,
			"message type %s is reserved for the engine", msgType)
	}

	// Timeout is polled at the top of every call. Expiry does not mean
	// failure: the negotiation resolves now with whatever is available,
	// and the triggering message is dropped.
	if time.Since(n.StartTime) > n.Timeout {
		n.Status = types.StatusTimeout
		e.resolveLocked(ctx, n, types.ResolutionTimeout)
		return n.Clone(), nil
	}

	if n.Status == types.StatusInitiated && participantID != n.InitiatorID {
		n.Status = types.StatusInProgress
	}

	if content == nil {
		content = types.Proposal{}
	} else {
		content = content.Clone()
	}

	msg := types.NewMessage(participantID, msgType, content)
	msg.ID = uuid.New().String()
	n.Messages = append(n.Messages, msg)
	e.metrics.RecordMessage(string(msgType))
	e.appendToLog(n.ID, msg)

	if msgType.CarriesProposal() {
		n.SetProposal(participantID, content)
	}

	e.dispatchLocked(ctx, n, participantID, msgType, content)

	return n.Clone(), nil
}

// dispatchLocked routes a message to its per-type handler. The session
// lock is held.
func (e *Engine) dispatchLocked(ctx context.Context, n *types.Negotiation, senderID string, msgType types.MessageType, content types.Proposal) {
	switch msgType {
	case types.MessageProposal, types.MessageCounterProposal:
		e.replaceCurrentProposalLocked(n, content)
		e.markResponded(n, senderID)
		e.advanceRoundLocked(ctx, n)

	case types.MessageCompromise:
		e.handleCompromiseLocked(n, senderID, content)
		e.advanceRoundLocked(ctx, n)

	case types.MessageAccept:
		e.handleAcceptLocked(ctx, n, senderID)

	case types.MessageReject:
		e.handleRejectLocked(ctx, n, senderID)

	case types.MessageConcession:
		e.handleConcessionLocked(n, senderID, content)

	case types.MessageDemand:
		e.handleDemandLocked(n, senderID, content)

	case types.MessageQuery, types.MessageInform, types.MessageConfirm:
		// Informational only; recorded in the history, no state change.
	}
}

// replaceCurrentProposalLocked swaps in a new proposal under discussion.
// Acceptances only ever ratify the proposal their senders actually saw, so
// recorded ones are void once it changes.
func (e *Engine) replaceCurrentProposalLocked(n *types.Negotiation, p types.Proposal) {
	n.CurrentProposal = p
	n.Acceptances = make(map[string]bool)
}

// markResponded counts a counter-proposal or compromise toward the current
// round. Only non-initiator participants are required to respond.
func (e *Engine) markResponded(n *types.Negotiation, senderID string) {
	if senderID == n.InitiatorID {
		return
	}
	n.Responded[senderID] = true
}

// advanceRoundLocked increments the round once every required participant
// has countered or compromised, resetting acceptance bookkeeping. Round
// exhaustion hands the negotiation to the conflict resolver.
func (e *Engine) advanceRoundLocked(ctx context.Context, n *types.Negotiation) {
	for _, id := range n.ParticipantIDs {
		if !n.Responded[id] {
			return
		}
	}

	n.CurrentRound++
	n.Responded = make(map[string]bool)
	n.Acceptances = make(map[string]bool)

	e.logger.Debug("round advanced",
		zap.String("id", n.ID),
		zap.Int("round", n.CurrentRound),
		zap.Int("max_rounds", n.MaxRounds))

	if n.CurrentRound > n.MaxRounds {
		n.Status = types.StatusConflictResolution
		e.resolveLocked(ctx, n, types.ResolutionRoundsExhausted)
	}
}

// handleAcceptLocked records an acceptance; unanimous acceptance of the
// current proposal completes the negotiation.
func (e *Engine) handleAcceptLocked(ctx context.Context, n *types.Negotiation, senderID string) {
	n.Acceptances[senderID] = true
	for _, id := range n.Parties() {
		if !n.Acceptances[id] {
			return
		}
	}

	n.Status = types.StatusSuccessful
	n.Resolution = types.ResolutionAccepted
	n.FinalAgreement = n.CurrentProposal.Clone()
	e.finishLocked(ctx, n)
}

// handleRejectLocked records a rejection; a rejection in the final round
// fails the negotiation outright.
func (e *Engine) handleRejectLocked(ctx context.Context, n *types.Negotiation, senderID string) {
	n.Acceptances[senderID] = false
	if n.CurrentRound >= n.MaxRounds {
		n.Status = types.StatusFailed
		n.Resolution = types.ResolutionRejected
		e.finishLocked(ctx, n)
	}
}

// handleConcessionLocked adopts a concession as the current proposal only
// if every other party's registered constraints are satisfied by it.
// Parties without constraints always pass.
func (e *Engine) handleConcessionLocked(n *types.Negotiation, senderID string, content types.Proposal) {
	for _, id := range n.Parties() {
		if id == senderID {
			continue
		}
		if !utility.SatisfiesConstraints(e.registry.Get(id), content) {
			e.logger.Debug("concession rejected by constraints",
				zap.String("id", n.ID),
				zap.String("sender", senderID),
				zap.String("blocking_party", id))
			return
		}
	}
	e.replaceCurrentProposalLocked(n, content)
}

// handleDemandLocked installs each demanded key as an exact-match
// constraint on the sender's own profile.
func (e *Engine) handleDemandLocked(n *types.Negotiation, senderID string, content types.Proposal) {
	for key, v := range content {
		e.registry.SetConstraint(senderID, key, types.Exactly(v))
	}
}

// handleCompromiseLocked treats a compromise as a counter-proposal, and
// additionally adopts it as the current proposal when its mean utility
// across all parties clears the adoption threshold.
func (e *Engine) handleCompromiseLocked(n *types.Negotiation, senderID string, content types.Proposal) {
	e.markResponded(n, senderID)
	parties := e.registry.GetAll(n.Parties())
	if utility.Mean(parties, content) > compromiseThreshold {
		e.replaceCurrentProposalLocked(n, content)
		e.logger.Debug("compromise adopted as current proposal",
			zap.String("id", n.ID),
			zap.String("sender", senderID))
	}
}

// Abort administratively fails a non-terminal negotiation.
func (e *Engine) Abort(ctx context.Context, negotiationID, reason string) error {
	s := e.session(negotiationID)
	if s == nil {
		return types.NewErrorf(types.ErrNotFound, "negotiation %q not found", negotiationID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.n
	if n.Status.Terminal() {
		return types.NewErrorf(types.ErrInactiveNegotiation,
			"negotiation %q already ended with status %s", negotiationID, n.Status)
	}

	n.Status = types.StatusFailed
	n.Resolution = types.ResolutionAborted
	e.logger.Warn("negotiation aborted",
		zap.String("id", negotiationID),
		zap.String("reason", reason))
	e.finishLocked(ctx, n)
	return nil
}

// resolveLocked runs the configured strategy and completes the negotiation
// with its output. Resolvers never fail, so resolution always ends in
// SUCCESSFUL regardless of how degraded the agreement is.
func (e *Engine) resolveLocked(ctx context.Context, n *types.Negotiation, resolution types.Resolution) {
	strategy := resolve.ForName(n.Strategy)
	parties := e.registry.GetAll(n.Parties())

	start := time.Now()
	agreement := strategy.Resolve(n, parties)
	e.metrics.RecordResolver(strategy.Name(), time.Since(start))

	if agreement == nil {
		agreement = types.Proposal{}
	}

	msg := types.NewMessage(resolverSender, types.MessageResolution, agreement)
	msg.ID = uuid.New().String()
	n.Messages = append(n.Messages, msg)
	e.appendToLog(n.ID, msg)

	n.FinalAgreement = agreement
	n.CurrentProposal = agreement.Clone()
	n.Status = types.StatusSuccessful
	n.Resolution = resolution

	e.logger.Info("negotiation resolved",
		zap.String("id", n.ID),
		zap.String("strategy", strategy.Name()),
		zap.String("resolution", string(resolution)),
		zap.Int("rounds", n.CurrentRound))

	e.finishLocked(ctx, n)
}

// finishLocked stamps the end time, records completion metrics, archives
// the outcome, and notifies observers. The session lock is held; outcome
// emission happens on separate goroutines so the engine never blocks.
func (e *Engine) finishLocked(ctx context.Context, n *types.Negotiation) {
	now := time.Now()
	n.EndTime = &now

	e.metrics.RecordCompletion(string(n.Status), string(n.Resolution), n.CurrentRound)

	outcome := &types.Outcome{
		NegotiationID:  n.ID,
		Subject:        n.Subject,
		Status:         n.Status,
		Resolution:     n.Resolution,
		FinalAgreement: n.FinalAgreement.Clone(),
		Participants:   n.Parties(),
		Rounds:         n.CurrentRound,
		Duration:       now.Sub(n.StartTime),
	}

	if e.log != nil {
		if err := e.log.SaveOutcome(ctx, outcome); err != nil {
			e.logger.Warn("outcome archive failed",
				zap.String("id", n.ID),
				zap.Error(err))
		}
	}

	e.obsMu.RLock()
	observers := make([]OutcomeObserver, len(e.observers))
	copy(observers, e.observers)
	e.obsMu.RUnlock()
	for _, o := range observers {
		go o.OnOutcome(outcome)
	}

	e.logger.Info("negotiation finished",
		zap.String("id", n.ID),
		zap.String("status", string(n.Status)),
		zap.String("resolution", string(n.Resolution)),
		zap.Duration("duration", outcome.Duration))
}

// session returns the exclusive-access lane for a negotiation id.
func (e *Engine) session(id string) *session {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sessions[id]
}

// appendToLog records a message durably, best-effort.
func (e *Engine) appendToLog(negotiationID string, msg types.Message) {
	if e.log == nil {
		return
	}
	if err := e.log.AppendMessage(context.Background(), negotiationID, msg); err != nil {
		e.logger.Warn("message log append failed",
			zap.String("id", negotiationID),
			zap.Error(err))
	}
}

// dedupe returns ids without duplicates and without the excluded id,
// preserving order.
func dedupe(ids []string, exclude string) []string {
	seen := map[string]bool{exclude: true}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
