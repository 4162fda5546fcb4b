package petstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lifecycle "github.com/goliatone/go-lifecycle"
	"github.com/goliatone/go-lifecycle/machine"
	"github.com/goliatone/go-lifecycle/memory"
)

func registeredSet(t *testing.T) (*memory.Store, *machine.Set) {
	t.Helper()
	store := memory.NewStore()
	set := machine.NewSet()
	err := Register(set, machine.NewCriterionRegistry(), machine.NewProcessorRegistry(),
		testDeps(store), nil)
	require.NoError(t, err)
	store.SetRouter(set)
	return store, set
}

func TestRegisterCompilesAllMachines(t *testing.T) {
	_, set := registeredSet(t)
	for _, entityType := range []string{EntityTypePet, EntityTypeOrder, EntityTypeFulfillmentOrder} {
		_, ok := set.Get(entityType)
		assert.True(t, ok, "missing machine for %s", entityType)
	}
}

func TestOrderLifecycleEndToEnd(t *testing.T) {
	store, set := registeredSet(t)
	ctx := context.Background()

	pet := seedPet(t, store, nil)

	order, err := store.Save(ctx, &lifecycle.Entity{
		Type: EntityTypeOrder, State: OrderStateInitial,
		Attributes: map[string]any{"petId": pet.ID, "quantity": 1, "unit_price": 250.0},
	})
	require.NoError(t, err)

	for _, transition := range []string{"place", "approve", "process"} {
		result, err := set.Apply(ctx, EntityTypeOrder, order.ID, transition, nil)
		require.NoError(t, err, "transition %s", transition)
		assert.NotEmpty(t, result.ExecutionID)
	}

	// Put the pet into pending so delivery can complete the sale.
	_, err = set.Apply(ctx, EntityTypePet, pet.ID, "reserve", nil)
	require.NoError(t, err)

	result, err := set.Apply(ctx, EntityTypeOrder, order.ID, "deliver", nil)
	require.NoError(t, err)
	assert.Equal(t, OrderStateDelivered, result.CurrentState)
	require.NotNil(t, result.Outcome)
	require.Len(t, result.Outcome.Secondary, 1)
	assert.NoError(t, result.Outcome.Secondary[0].Err, "pet-side sale should commit")

	soldPet, err := store.GetByID(ctx, pet.ID, EntityTypePet, 1)
	require.NoError(t, err)
	assert.Equal(t, PetStateSold, soldPet.State)
	assert.Equal(t, AdoptionAdopted, soldPet.String("adoption_status"))
}

func TestOrderPlaceRejectedForZeroQuantity(t *testing.T) {
	store, set := registeredSet(t)
	ctx := context.Background()
	pet := seedPet(t, store, nil)

	order, err := store.Save(ctx, &lifecycle.Entity{
		Type: EntityTypeOrder, State: OrderStateInitial,
		Attributes: map[string]any{"petId": pet.ID, "quantity": 0},
	})
	require.NoError(t, err)

	result, err := set.Apply(ctx, EntityTypeOrder, order.ID, "place", nil)
	require.Error(t, err)
	assert.Equal(t, lifecycle.ErrCodeCriteriaRejected, lifecycle.ErrorCode(err))
	require.NotEmpty(t, result.Verdicts)
	assert.Equal(t, CodeOrderQuantityZero, result.Verdicts[len(result.Verdicts)-1].Code)

	stored, err := store.GetByID(ctx, order.ID, EntityTypeOrder, 1)
	require.NoError(t, err)
	assert.Equal(t, OrderStateInitial, stored.State, "rejected transition must not move state")
}

func TestReserveTransitionPlacesCreatedOrder(t *testing.T) {
	store, set := registeredSet(t)
	ctx := context.Background()
	pet := seedPet(t, store, nil)

	result, err := set.Apply(ctx, EntityTypePet, pet.ID, "reserve", nil)
	require.NoError(t, err)
	assert.Equal(t, PetStatePending, result.CurrentState)

	orders, err := store.Search(ctx, EntityTypeOrder, 1, lifecycle.Condition{"state": OrderStatePlaced})
	require.NoError(t, err)
	require.Len(t, orders, 1, "reservation order should have been placed through the router")
	assert.Equal(t, pet.ID, orders[0].String("petId"))
}

func TestFulfillmentFlowRequiresSentTimestamp(t *testing.T) {
	store, set := registeredSet(t)
	ctx := context.Background()

	f, err := store.Save(ctx, &lifecycle.Entity{
		Type: EntityTypeFulfillmentOrder, State: FulfillmentStateWaiting,
		Attributes: map[string]any{"item_count": 3},
	})
	require.NoError(t, err)

	for _, transition := range []string{"start_picking", "ready_to_send", "send", "deliver"} {
		_, err := set.Apply(ctx, EntityTypeFulfillmentOrder, f.ID, transition, nil)
		require.NoError(t, err, "transition %s", transition)
	}

	done, err := store.GetByID(ctx, f.ID, EntityTypeFulfillmentOrder, 1)
	require.NoError(t, err)
	assert.Equal(t, FulfillmentStateDelivered, done.State)
	assert.NotEmpty(t, done.String("sent_at"))
	assert.NotEmpty(t, done.String("delivered_at"))
	assert.NotEmpty(t, done.String("picker"))
}
