// Package memory provides an in-process EntityService used by tests and
// the demo CLI. The real platform store lives outside this module.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	lifecycle "github.com/goliatone/go-lifecycle"
	"github.com/goliatone/go-lifecycle/machine"
)

// Router dispatches transition requests to the machine owning an entity
// type. machine.Set satisfies the contract.
type Router interface {
	Apply(ctx context.Context, entityType, entityID, transition string, params lifecycle.Params) (*machine.Result, error)
}

// Store is a thread-safe in-memory entity store with optimistic locking.
type Store struct {
	mu       sync.RWMutex
	entities map[string]*lifecycle.Entity
	router   Router
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{entities: make(map[string]*lifecycle.Entity)}
}

// SetRouter wires the machine set transition requests route through.
func (s *Store) SetRouter(router Router) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.router = router
}

// GetByID returns a cloned entity or a coded not-found error.
func (s *Store) GetByID(_ context.Context, id, entityType string, _ int) (*lifecycle.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[entityKey(entityType, id)]
	if !ok {
		return nil, lifecycle.NewError(
			lifecycle.ErrEntityNotFound,
			fmt.Sprintf("%s %s not found", entityType, id),
			nil,
			map[string]any{"entity_id": id, "entity_type": entityType},
		)
	}
	return e.Clone(), nil
}

// Save persists a new entity, assigning an id when absent.
func (s *Store) Save(_ context.Context, e *lifecycle.Entity) (*lifecycle.Entity, error) {
	if e == nil {
		return nil, lifecycle.ErrEntityRequired
	}
	if strings.TrimSpace(e.Type) == "" {
		return nil, lifecycle.NewError(lifecycle.ErrPreconditionFailed, "entity type is required", nil, nil)
	}
	cp := e.Clone()
	if strings.TrimSpace(cp.ID) == "" {
		cp.ID = uuid.NewString()
	}
	cp.Version = 1

	s.mu.Lock()
	defer s.mu.Unlock()
	key := entityKey(cp.Type, cp.ID)
	if _, exists := s.entities[key]; exists {
		return nil, lifecycle.NewError(
			lifecycle.ErrVersionConflict,
			fmt.Sprintf("%s %s already exists", cp.Type, cp.ID),
			nil,
			map[string]any{"entity_id": cp.ID, "entity_type": cp.Type},
		)
	}
	s.entities[key] = cp
	return cp.Clone(), nil
}

// Update persists a mutated entity with a compare-and-set on Version.
func (s *Store) Update(_ context.Context, e *lifecycle.Entity, _ string) (*lifecycle.Entity, error) {
	if e == nil {
		return nil, lifecycle.ErrEntityRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := entityKey(e.Type, e.ID)
	stored, ok := s.entities[key]
	if !ok {
		return nil, lifecycle.NewError(
			lifecycle.ErrEntityNotFound,
			fmt.Sprintf("%s %s not found", e.Type, e.ID),
			nil,
			map[string]any{"entity_id": e.ID, "entity_type": e.Type},
		)
	}
	if e.Version != stored.Version {
		return nil, lifecycle.NewError(
			lifecycle.ErrVersionConflict,
			fmt.Sprintf("expected version %d, got %d", stored.Version, e.Version),
			nil,
			map[string]any{"entity_id": e.ID, "entity_type": e.Type},
		)
	}
	cp := e.Clone()
	cp.Version = stored.Version + 1
	s.entities[key] = cp
	return cp.Clone(), nil
}

// ExecuteTransition routes a transition through the registered machines.
func (s *Store) ExecuteTransition(ctx context.Context, id, entityType string, _ int, transition string, params lifecycle.Params) error {
	s.mu.RLock()
	router := s.router
	s.mu.RUnlock()
	if router == nil {
		return lifecycle.NewError(
			lifecycle.ErrPreconditionFailed,
			"no transition router configured",
			nil,
			map[string]any{"entity_id": id, "entity_type": entityType},
		)
	}
	_, err := router.Apply(ctx, entityType, id, transition, params)
	return err
}

// Search returns clones of entities matching the equality condition.
func (s *Store) Search(_ context.Context, entityType string, _ int, cond lifecycle.Condition) ([]*lifecycle.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*lifecycle.Entity
	for _, e := range s.entities {
		if !strings.EqualFold(e.Type, entityType) {
			continue
		}
		if matchesCondition(e, cond) {
			out = append(out, e.Clone())
		}
	}
	return out, nil
}

// FindAll returns all entities of a type. Result sets are materialized.
func (s *Store) FindAll(ctx context.Context, entityType string, version int) ([]*lifecycle.Entity, error) {
	return s.Search(ctx, entityType, version, nil)
}

// Len reports the number of stored entities, for test assertions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities)
}

func matchesCondition(e *lifecycle.Entity, cond lifecycle.Condition) bool {
	if len(cond) == 0 {
		return true
	}
	for key, want := range cond {
		if key == "state" {
			if !strings.EqualFold(e.State, fmt.Sprint(want)) {
				return false
			}
			continue
		}
		got, ok := e.Attributes[key]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func entityKey(entityType, id string) string {
	return strings.ToLower(strings.TrimSpace(entityType)) + "::" + strings.TrimSpace(id)
}

var _ lifecycle.EntityService = (*Store)(nil)
