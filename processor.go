package lifecycle

import (
	"context"
	"strings"
)

// Params is the open keyword bag a transition hands to its processor
// (payment data, order data, health data). Shapes are caller-defined per
// transition and not type-checked by this layer.
type Params map[string]any

// String returns a trimmed string parameter.
func (p Params) String(key string) string {
	if p == nil {
		return ""
	}
	if s, ok := p[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// Float returns a numeric parameter.
func (p Params) Float(key string) (float64, bool) {
	if p == nil {
		return 0, false
	}
	switch v := p[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Map returns a nested parameter map.
func (p Params) Map(key string) Params {
	if p == nil {
		return nil
	}
	switch v := p[key].(type) {
	case Params:
		return v
	case map[string]any:
		return Params(v)
	}
	return nil
}

// SecondaryAttempt records one best-effort cross-entity transition issued
// by a processor. A nil Err means the downstream transition committed.
type SecondaryAttempt struct {
	Target     Ref
	Transition string
	Err        error
}

// Outcome is the two-phase result of a processor run: the primary mutation
// lives on the returned entity, the secondary trail here. Partial failure
// is observable instead of being visible only in logs.
type Outcome struct {
	Secondary []SecondaryAttempt
}

// Record appends a secondary attempt and returns the outcome for chaining.
func (o *Outcome) Record(attempt SecondaryAttempt) *Outcome {
	if o == nil {
		return &Outcome{Secondary: []SecondaryAttempt{attempt}}
	}
	o.Secondary = append(o.Secondary, attempt)
	return o
}

// Failed returns the secondary attempts that did not commit.
func (o *Outcome) Failed() []SecondaryAttempt {
	if o == nil {
		return nil
	}
	var failed []SecondaryAttempt
	for _, att := range o.Secondary {
		if att.Err != nil {
			failed = append(failed, att)
		}
	}
	return failed
}

// Processor executes the side effects of a transition: mutating the owning
// entity, calling external systems, and requesting transitions on related
// entities. A returned error aborts the transition and discards the
// mutation; there is no compensation of already-issued side effects.
type Processor interface {
	Name() string
	Process(ctx context.Context, e *Entity, params Params) (*Entity, *Outcome, error)
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc struct {
	ID string
	Fn func(ctx context.Context, e *Entity, params Params) (*Entity, *Outcome, error)
}

func (p ProcessorFunc) Name() string { return p.ID }

func (p ProcessorFunc) Process(ctx context.Context, e *Entity, params Params) (*Entity, *Outcome, error) {
	if p.Fn == nil {
		return nil, nil, NewError(ErrProcessorFailed, "processor function not configured", nil, map[string]any{
			"processor": p.ID,
		})
	}
	return p.Fn(ctx, e, params)
}
