package lifecycle

import (
	"context"
	"testing"
)

// stubService is a minimal EntityService for coordinator tests.
type stubService struct {
	entities    map[string]*Entity
	getErr      error
	transErr    error
	transitions []string
}

func newStubService(entities ...*Entity) *stubService {
	s := &stubService{entities: map[string]*Entity{}}
	for _, e := range entities {
		s.entities[e.Type+"::"+e.ID] = e
	}
	return s
}

func (s *stubService) GetByID(_ context.Context, id, entityType string, _ int) (*Entity, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	e, ok := s.entities[entityType+"::"+id]
	if !ok {
		return nil, NewError(ErrEntityNotFound, entityType+" "+id+" not found", nil, nil)
	}
	return e.Clone(), nil
}

func (s *stubService) Save(_ context.Context, e *Entity) (*Entity, error) { return e, nil }

func (s *stubService) Update(_ context.Context, e *Entity, _ string) (*Entity, error) {
	return e, nil
}

func (s *stubService) ExecuteTransition(_ context.Context, id, entityType string, _ int, transition string, _ Params) error {
	s.transitions = append(s.transitions, entityType+"/"+id+"/"+transition)
	return s.transErr
}

func (s *stubService) Search(_ context.Context, _ string, _ int, _ Condition) ([]*Entity, error) {
	return nil, nil
}

func (s *stubService) FindAll(_ context.Context, _ string, _ int) ([]*Entity, error) {
	return nil, nil
}

func TestRequireEntityVerifiesExpectedState(t *testing.T) {
	svc := newStubService(&Entity{ID: "p1", Type: "pet", State: "available"})
	coord := NewCoordinator(svc, nil)

	e, err := coord.RequireEntity(context.Background(), Ref{ID: "p1", Type: "pet"}, "available")
	if err != nil {
		t.Fatalf("expected success: %v", err)
	}
	if e.ID != "p1" {
		t.Fatalf("unexpected entity %s", e.ID)
	}

	_, err = coord.RequireEntity(context.Background(), Ref{ID: "p1", Type: "pet"}, "pending", "sold")
	if err == nil {
		t.Fatal("expected wrong-state error")
	}
	if ErrorCode(err) != ErrCodePreconditionFailed {
		t.Fatalf("expected precondition code, got %s", ErrorCode(err))
	}
}

func TestRequireEntityPropagatesNotFound(t *testing.T) {
	coord := NewCoordinator(newStubService(), nil)

	_, err := coord.RequireEntity(context.Background(), Ref{ID: "ghost", Type: "pet"})
	if !IsNotFound(err) {
		t.Fatalf("expected not-found propagation, got %v", err)
	}
}

func TestRequireTransitionPropagatesDispatchFailure(t *testing.T) {
	svc := newStubService(&Entity{ID: "p1", Type: "pet", State: "available"})
	svc.transErr = NewError(ErrInvalidTransition, "no such transition", nil, nil)
	coord := NewCoordinator(svc, nil)

	err := coord.RequireTransition(context.Background(), Ref{ID: "p1", Type: "pet"}, "fly", nil)
	if err == nil {
		t.Fatal("expected dispatch failure to propagate")
	}
	if ErrorCode(err) != ErrCodeInvalidTransition {
		t.Fatalf("unexpected code %s", ErrorCode(err))
	}
}

func TestAttemptTransitionRecordsFailureWithoutPropagating(t *testing.T) {
	svc := newStubService(&Entity{ID: "p1", Type: "pet", State: "sold"})
	coord := NewCoordinator(svc, nil)

	attempt := coord.AttemptTransition(context.Background(), Ref{ID: "p1", Type: "pet"}, "reserve", nil, "available")
	if attempt.Err == nil {
		t.Fatal("expected recorded failure for wrong state")
	}
	if attempt.Target.ID != "p1" || attempt.Transition != "reserve" {
		t.Fatalf("unexpected attempt %+v", attempt)
	}
	if len(svc.transitions) != 0 {
		t.Fatal("transition must not dispatch when the state check fails")
	}
}

func TestAttemptTransitionSuccessHasNilError(t *testing.T) {
	svc := newStubService(&Entity{ID: "p1", Type: "pet", State: "available"})
	coord := NewCoordinator(svc, nil)

	attempt := coord.AttemptTransition(context.Background(), Ref{ID: "p1", Type: "pet"}, "reserve", nil, "available")
	if attempt.Err != nil {
		t.Fatalf("expected success, got %v", attempt.Err)
	}
	if len(svc.transitions) != 1 || svc.transitions[0] != "pet/p1/reserve" {
		t.Fatalf("expected dispatched transition, got %v", svc.transitions)
	}
}
