package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/cardflow/pkg/domain"
)

// Store implements ports.FlowStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string][]domain.Definition
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string][]domain.Definition),
	}
}

// NewStoreWith creates a store seeded with flows.
func NewStoreWith(flows map[string][]domain.Definition) *Store {
	s := NewStore()
	for id, defs := range flows {
		s.data[id] = cloneAll(defs)
	}
	return s
}

func cloneAll(defs []domain.Definition) []domain.Definition {
	out := make([]domain.Definition, len(defs))
	for i, def := range defs {
		out[i] = def.Clone()
	}
	return out
}

// Save persists a deep copy of the flow.
func (s *Store) Save(ctx context.Context, flowID string, defs []domain.Definition) error {
	if err := domain.ValidateFlowID(flowID); err != nil {
		return err
	}
	copied := cloneAll(defs)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[flowID] = copied
	return nil
}

// Load returns a copy so callers can't mutate the stored flow.
func (s *Store) Load(ctx context.Context, flowID string) ([]domain.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	defs, ok := s.data[flowID]
	if !ok {
		return nil, domain.ErrFlowNotFound
	}
	return cloneAll(defs), nil
}

// Delete removes the flow.
func (s *Store) Delete(ctx context.Context, flowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, flowID)
	return nil
}

// List returns the stored flow ids, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	flows := make([]string, 0, len(s.data))
	for id := range s.data {
		flows = append(flows, id)
	}
	sort.Strings(flows)
	return flows, nil
}
