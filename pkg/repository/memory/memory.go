package memory

import (
	"context"
	"sync"
	"time"

	"github.com/secmon-lab/relmap/pkg/domain/interfaces"
	"github.com/secmon-lab/relmap/pkg/domain/model"
)

// store holds every collection behind one lock so that joins across
// collections and Reset see a consistent state.
type store struct {
	mu            sync.RWMutex
	users         map[model.UserID]*model.User
	userOrder     []model.UserID
	relationships []*model.Relationship
	interactions  map[string]*model.Interaction
}

func newStore() *store {
	return &store{
		users:        make(map[model.UserID]*model.User),
		interactions: make(map[string]*model.Interaction),
	}
}

// Memory is a process-local repository. It is the demo mode backend and the
// reference implementation for repository contract tests.
type Memory struct {
	store        *store
	user         *userRepository
	relationship *relationshipRepository
	interaction  *interactionRepository
	now          func() time.Time
}

var _ interfaces.Repository = &Memory{}

type Option func(*Memory)

// WithClock overrides the time source used for generated timestamps
func WithClock(now func() time.Time) Option {
	return func(m *Memory) {
		m.now = now
	}
}

func New(opts ...Option) *Memory {
	m := &Memory{
		store: newStore(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	clock := func() time.Time { return m.now().UTC() }
	m.user = &userRepository{store: m.store, now: clock}
	m.relationship = &relationshipRepository{store: m.store, now: clock}
	m.interaction = &interactionRepository{store: m.store, now: clock}
	return m
}

func (m *Memory) User() interfaces.UserRepository {
	return m.user
}

func (m *Memory) Relationship() interfaces.RelationshipRepository {
	return m.relationship
}

func (m *Memory) Interaction() interfaces.InteractionRepository {
	return m.interaction
}

// Reset replaces all collections with a deep copy of seed
func (m *Memory) Reset(ctx context.Context, seed *model.Seed) (*model.ResetResult, error) {
	data := seed.Clone()

	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = make(map[model.UserID]*model.User, len(data.Users))
	s.userOrder = make([]model.UserID, 0, len(data.Users))
	for _, u := range data.Users {
		if _, ok := s.users[u.ID]; !ok {
			s.userOrder = append(s.userOrder, u.ID)
		}
		s.users[u.ID] = u
	}

	s.relationships = data.Relationships

	s.interactions = make(map[string]*model.Interaction, len(data.Interactions))
	for _, x := range data.Interactions {
		s.interactions[x.ID] = x
	}

	return &model.ResetResult{
		Users:         len(s.users),
		Relationships: len(s.relationships),
		Interactions:  len(s.interactions),
	}, nil
}

func (m *Memory) Close() error {
	return nil
}
