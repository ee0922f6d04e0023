package negotiation

import (
	"sync"

	"go.uber.org/zap"

	"github.com/BaSui01/accord/types"
)

// Registry holds the negotiation profiles of all known agents.
// It is read-mostly: lookups take a shared lock, while registration and
// DEMAND-driven constraint mutation are serialized per call.
type Registry struct {
	participants map[string]*types.Participant
	logger       *zap.Logger
	mu           sync.RWMutex
}

// NewRegistry creates an empty participant registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		participants: make(map[string]*types.Participant),
		logger:       logger.With(zap.String("component", "registry")),
	}
}

// Register upserts a participant profile by id.
func (r *Registry) Register(p *types.Participant) error {
	if p == nil || p.ID == "" {
		return types.NewError(types.ErrInvalidRequest, "participant requires an id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.participants[p.ID] = p.Clone()
	r.logger.Debug("registered participant",
		zap.String("id", p.ID),
		zap.Int("priority", p.Priority))
	return nil
}

// Get returns a copy of the participant profile, or nil if unknown.
func (r *Registry) Get(id string) *types.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.participants[id].Clone()
}

// Has reports whether the given agent id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.participants[id]
	return ok
}

// GetAll resolves a list of agent ids to profiles, skipping unknown ids.
func (r *Registry) GetAll(ids []string) []*types.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*types.Participant, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.participants[id]; ok {
			out = append(out, p.Clone())
		}
	}
	return out
}

// SetConstraint installs a hard constraint on a participant's profile.
// Used by the DEMAND message handler.
func (r *Registry) SetConstraint(id, key string, c types.Constraint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[id]
	if !ok {
		return false
	}
	if p.Constraints == nil {
		p.Constraints = make(map[string]types.Constraint)
	}
	p.Constraints[key] = c
	return true
}
