package machine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	lifecycle "github.com/goliatone/go-lifecycle"
)

// Result is the envelope returned by Apply. On a criteria rejection the
// verdicts evaluated so far are still populated so callers can observe the
// failing reason code without parsing logs.
type Result struct {
	ExecutionID   string
	EntityID      string
	Transition    string
	PreviousState string
	CurrentState  string
	Verdicts      []lifecycle.Verdict
	Outcome       *lifecycle.Outcome
	Entity        *lifecycle.Entity
}

type compiledTransition struct {
	def       TransitionDef
	name      string
	from      map[string]bool
	to        string
	criteria  []lifecycle.Criterion
	processor lifecycle.Processor
}

// Machine executes transitions for one entity type: state check, ordered
// criteria with short-circuit, processor, then versioned persistence.
type Machine struct {
	def           Definition
	initial       string
	transitions   map[string]compiledTransition
	service       lifecycle.EntityService
	logger        lifecycle.Logger
	entityVersion int
}

// Option customizes machine behavior.
type Option func(*Machine)

// WithLogger sets the machine logger.
func WithLogger(logger lifecycle.Logger) Option {
	return func(m *Machine) {
		m.logger = lifecycle.NormalizeLogger(logger)
	}
}

// WithEntityVersion pins the platform entity model version used on lookups.
func WithEntityVersion(version int) Option {
	return func(m *Machine) {
		if version > 0 {
			m.entityVersion = version
		}
	}
}

// Compile resolves a definition against the registries and binds the
// injected entity service.
func Compile(
	def Definition,
	criteria *CriterionRegistry,
	processors *ProcessorRegistry,
	service lifecycle.EntityService,
	opts ...Option,
) (*Machine, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if service == nil {
		return nil, fmt.Errorf("machine %s requires an entity service", def.ID)
	}

	transitions := make(map[string]compiledTransition, len(def.Transitions))
	for _, tr := range def.Transitions {
		name := normalizeTransition(tr.Name)
		compiled := compiledTransition{
			def:  tr,
			name: name,
			from: make(map[string]bool, len(tr.From)),
			to:   normalizeState(tr.To),
		}
		for _, from := range tr.From {
			compiled.from[normalizeState(from)] = true
		}
		for _, ref := range tr.Criteria {
			c, ok := criteria.Lookup(strings.TrimSpace(ref))
			if !ok {
				return nil, fmt.Errorf("machine %s transition %s references unknown criterion %q", def.ID, name, ref)
			}
			compiled.criteria = append(compiled.criteria, c)
		}
		if ref := strings.TrimSpace(tr.Processor); ref != "" {
			p, ok := processors.Lookup(ref)
			if !ok {
				return nil, fmt.Errorf("machine %s transition %s references unknown processor %q", def.ID, name, ref)
			}
			compiled.processor = p
		}
		transitions[name] = compiled
	}

	m := &Machine{
		def:           def,
		initial:       def.InitialState(),
		transitions:   transitions,
		service:       service,
		logger:        lifecycle.NormalizeLogger(nil),
		entityVersion: 1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m, nil
}

// ID returns the machine identifier, which doubles as the entity type.
func (m *Machine) ID() string { return m.def.ID }

// InitialState returns the machine's declared initial state.
func (m *Machine) InitialState() string { return m.initial }

// EntityVersion returns the pinned platform entity model version.
func (m *Machine) EntityVersion() int { return m.entityVersion }

// Apply runs the named transition against the entity. The criteria are
// evaluated in declared order with short-circuit; any processor error
// aborts and the entity keeps its current persisted state. Cross-entity
// side effects the processor has already issued are not compensated.
func (m *Machine) Apply(ctx context.Context, entityID, transition string, params lifecycle.Params) (*Result, error) {
	entityID = strings.TrimSpace(entityID)
	transition = normalizeTransition(transition)
	executionID := uuid.NewString()

	fields := map[string]any{
		"machine_id":   m.def.ID,
		"entity_id":    entityID,
		"transition":   transition,
		"execution_id": executionID,
	}
	logger := lifecycle.WithLoggerFields(m.logger.WithContext(ctx), fields)

	if entityID == "" {
		return nil, lifecycle.NewError(lifecycle.ErrPreconditionFailed, "entity id is required", nil, fields)
	}
	tr, ok := m.transitions[transition]
	if !ok {
		return nil, lifecycle.NewError(
			lifecycle.ErrInvalidTransition,
			fmt.Sprintf("machine %s has no transition %q", m.def.ID, transition),
			nil,
			fields,
		)
	}

	entity, err := m.service.GetByID(ctx, entityID, m.def.ID, m.entityVersion)
	if err != nil {
		logger.Error("load entity failed: %v", err)
		return nil, err
	}
	if entity == nil {
		return nil, lifecycle.NewError(
			lifecycle.ErrEntityNotFound,
			fmt.Sprintf("%s %s not found", m.def.ID, entityID),
			nil,
			fields,
		)
	}

	current := normalizeState(entity.State)
	fields["current_state"] = current
	if !tr.from[current] {
		err := lifecycle.NewError(
			lifecycle.ErrInvalidTransition,
			fmt.Sprintf("transition %s not permitted from state %q", transition, current),
			nil,
			fields,
		)
		logger.Warn("%v", err)
		return nil, err
	}

	result := &Result{
		ExecutionID:   executionID,
		EntityID:      entityID,
		Transition:    transition,
		PreviousState: current,
		CurrentState:  current,
	}

	// Criteria check a snapshot; anything they write to it is discarded.
	// Only the processor works on the clone that gets persisted.
	mutated := entity.Clone()

	for _, criterion := range tr.criteria {
		verdict := criterion.Check(ctx, entity)
		result.Verdicts = append(result.Verdicts, verdict)
		if !verdict.Passed {
			logger.Warn("criterion %s rejected transition: %s", verdict.Criterion, verdict.Reason)
			return result, lifecycle.NewError(
				lifecycle.ErrCriteriaRejected,
				fmt.Sprintf("criterion %s rejected: %s", verdict.Criterion, verdict.Reason),
				nil,
				mergeMetadata(fields, map[string]any{
					"criterion":   verdict.Criterion,
					"reason_code": verdict.Code,
				}),
			)
		}
	}

	if tr.processor != nil {
		processed, outcome, err := tr.processor.Process(ctx, mutated, params)
		if err != nil {
			logger.Error("processor %s failed: %v", tr.processor.Name(), err)
			return result, lifecycle.NewError(
				lifecycle.ErrProcessorFailed,
				fmt.Sprintf("processor %s failed", tr.processor.Name()),
				err,
				mergeMetadata(fields, map[string]any{"processor": tr.processor.Name()}),
			)
		}
		if processed != nil {
			mutated = processed
		}
		result.Outcome = outcome
	}

	mutated.State = tr.to
	persisted, err := m.service.Update(ctx, mutated, transition)
	if err != nil {
		logger.Error("persist failed: %v", err)
		if lifecycle.ErrorCode(err) == lifecycle.ErrCodeVersionConflict {
			return result, err
		}
		return result, lifecycle.NewError(lifecycle.ErrPreconditionFailed, "failed to persist entity", err, fields)
	}
	if persisted != nil {
		mutated = persisted
	}

	result.CurrentState = tr.to
	result.Entity = mutated
	logger.Info("transition committed state=%s", tr.to)
	return result, nil
}

// TransitionInfo describes one transition available from a state.
type TransitionInfo struct {
	Name string
	To   string
}

// AllowedTransitions returns the transitions permitted from a state,
// sorted by name.
func (m *Machine) AllowedTransitions(state string) []TransitionInfo {
	state = normalizeState(state)
	var allowed []TransitionInfo
	for _, tr := range m.transitions {
		if tr.from[state] {
			allowed = append(allowed, TransitionInfo{Name: tr.name, To: tr.to})
		}
	}
	sort.Slice(allowed, func(i, j int) bool { return allowed[i].Name < allowed[j].Name })
	return allowed
}

func mergeMetadata(a, b map[string]any) map[string]any {
	out := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Set indexes machines by entity type so stores and schedulers can route
// transition requests.
type Set struct {
	machines map[string]*Machine
}

// NewSet creates an empty machine set.
func NewSet() *Set {
	return &Set{machines: make(map[string]*Machine)}
}

// Add registers a machine; the last registration for a type wins.
func (s *Set) Add(m *Machine) {
	if s == nil || m == nil {
		return
	}
	if s.machines == nil {
		s.machines = make(map[string]*Machine)
	}
	s.machines[normalizeState(m.ID())] = m
}

// Get returns the machine for an entity type.
func (s *Set) Get(entityType string) (*Machine, bool) {
	if s == nil {
		return nil, false
	}
	m, ok := s.machines[normalizeState(entityType)]
	return m, ok
}

// Apply routes a transition request to the machine owning the entity type.
func (s *Set) Apply(ctx context.Context, entityType, entityID, transition string, params lifecycle.Params) (*Result, error) {
	m, ok := s.Get(entityType)
	if !ok {
		return nil, lifecycle.NewError(
			lifecycle.ErrPreconditionFailed,
			fmt.Sprintf("no machine registered for entity type %q", entityType),
			nil,
			map[string]any{"entity_type": entityType, "entity_id": entityID},
		)
	}
	return m.Apply(ctx, entityID, transition, params)
}
