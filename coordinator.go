package lifecycle

import (
	"context"
	"fmt"
	"strings"
)

// Coordinator encodes the fixed cross-entity protocol every processor that
// touches a second entity follows: look up by id, verify the expected
// state, then request a named transition. Require* calls are primary and
// propagate failures; Attempt* calls are best-effort and only record them.
type Coordinator struct {
	service EntityService
	logger  Logger
}

// NewCoordinator builds a coordinator over the injected service.
func NewCoordinator(service EntityService, logger Logger) *Coordinator {
	return &Coordinator{service: service, logger: NormalizeLogger(logger)}
}

// RequireEntity loads a related entity and verifies it is in one of the
// expected states. Failures propagate: callers sit on the critical path.
func (c *Coordinator) RequireEntity(ctx context.Context, ref Ref, expectedStates ...string) (*Entity, error) {
	if c == nil || c.service == nil {
		return nil, NewError(ErrPreconditionFailed, "coordinator service not configured", nil, nil)
	}
	e, err := c.service.GetByID(ctx, ref.ID, ref.Type, ref.Version)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, NewError(ErrEntityNotFound, fmt.Sprintf("%s %s not found", ref.Type, ref.ID), nil, map[string]any{
			"entity_id":   ref.ID,
			"entity_type": ref.Type,
		})
	}
	if len(expectedStates) > 0 && !stateIn(e.State, expectedStates) {
		return nil, NewError(
			ErrPreconditionFailed,
			fmt.Sprintf("%s %s in state %q, expected one of %v", ref.Type, ref.ID, e.State, expectedStates),
			nil,
			map[string]any{
				"entity_id":       ref.ID,
				"entity_type":     ref.Type,
				"current_state":   e.State,
				"expected_states": expectedStates,
			},
		)
	}
	return e, nil
}

// RequireTransition executes a primary cross-entity transition. Not found,
// wrong state, and dispatch failures all propagate to the caller.
func (c *Coordinator) RequireTransition(ctx context.Context, ref Ref, transition string, params Params, expectedStates ...string) error {
	if _, err := c.RequireEntity(ctx, ref, expectedStates...); err != nil {
		return err
	}
	return c.service.ExecuteTransition(ctx, ref.ID, ref.Type, ref.Version, transition, params)
}

// AttemptTransition executes a secondary, best-effort cross-entity
// transition. Failures are logged and recorded on the returned attempt but
// never abort the caller's own transition.
func (c *Coordinator) AttemptTransition(ctx context.Context, ref Ref, transition string, params Params, expectedStates ...string) SecondaryAttempt {
	attempt := SecondaryAttempt{Target: ref, Transition: strings.TrimSpace(transition)}
	attempt.Err = c.RequireTransition(ctx, ref, transition, params, expectedStates...)
	if attempt.Err != nil {
		c.logger.WithContext(ctx).Warn(
			"best-effort transition %s on %s %s failed: %v",
			transition, ref.Type, ref.ID, attempt.Err,
		)
	}
	return attempt
}

func stateIn(state string, states []string) bool {
	state = strings.ToLower(strings.TrimSpace(state))
	for _, s := range states {
		if strings.ToLower(strings.TrimSpace(s)) == state {
			return true
		}
	}
	return false
}
