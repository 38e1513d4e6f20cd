package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/trialset/pkg/domain"
)

// Store implements ports.PlanStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Plan
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Plan),
	}
}

// Save stores a copy of the plan.
func (s *Store) Save(ctx context.Context, plan *domain.Plan) error {
	copied := plan.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[plan.ID] = copied
	return nil
}

// Load returns a copy so callers can't mutate stored plans through the pointer.
func (s *Store) Load(ctx context.Context, id string) (*domain.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plan, ok := s.data[id]
	if !ok {
		return nil, domain.ErrPlanNotFound
	}
	return plan.Clone(), nil
}

// Delete removes the plan.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns stored plan IDs in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
