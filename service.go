package lifecycle

import "context"

// Condition is a simple equality filter over entity attributes.
type Condition map[string]any

// EntityService is the injected collaborator owning entity persistence,
// search and transition dispatch. Concrete wire formats are platform
// internals; every criterion and processor receives an implementation at
// construction time so tests can substitute deterministic doubles.
type EntityService interface {
	// GetByID returns the entity or an ErrCodeEntityNotFound error.
	GetByID(ctx context.Context, id, entityType string, version int) (*Entity, error)

	// Save persists a new entity in its initial state, assigning an id.
	Save(ctx context.Context, e *Entity) (*Entity, error)

	// Update persists a mutated entity. The transition name is recorded by
	// the platform; an empty transition is a plain attribute update. The
	// entity's Version must match the stored version (optimistic lock).
	Update(ctx context.Context, e *Entity, transition string) (*Entity, error)

	// ExecuteTransition requests a named transition on an entity. It fails
	// when the current state does not permit the transition or a gating
	// criterion rejects it.
	ExecuteTransition(ctx context.Context, id, entityType string, version int, transition string, params Params) error

	// Search returns entities of a type matching the condition. Result
	// sets are materialized; no cursor/streaming guarantee is relied on.
	Search(ctx context.Context, entityType string, version int, cond Condition) ([]*Entity, error)

	// FindAll returns every entity of a type.
	FindAll(ctx context.Context, entityType string, version int) ([]*Entity, error)
}
