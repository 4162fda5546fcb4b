package petstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lifecycle "github.com/goliatone/go-lifecycle"
)

func petEntity(attrs map[string]any) *lifecycle.Entity {
	base := map[string]any{
		"name":   "Rex",
		"status": "available",
		"price":  250.0,
	}
	for k, v := range attrs {
		base[k] = v
	}
	return &lifecycle.Entity{ID: "p1", Type: EntityTypePet, State: PetStateAvailable, Attributes: base}
}

func orderEntity(attrs map[string]any) *lifecycle.Entity {
	base := map[string]any{
		"petId":      "p1",
		"quantity":   2,
		"unit_price": 100.0,
	}
	for k, v := range attrs {
		base[k] = v
	}
	return &lifecycle.Entity{ID: "o1", Type: EntityTypeOrder, State: OrderStatePlaced, Attributes: base}
}

func TestValidPetCriterion(t *testing.T) {
	c := NewValidPetCriterion(nil)
	ctx := context.Background()

	t.Run("passes with photo warning", func(t *testing.T) {
		verdict := c.Check(ctx, petEntity(nil))
		require.True(t, verdict.Passed, "verdict: %+v", verdict)
		assert.Len(t, verdict.Warnings, 1, "missing photos is advisory")
	})

	t.Run("no warning with photos", func(t *testing.T) {
		verdict := c.Check(ctx, petEntity(map[string]any{"photoUrls": []any{"https://img/1.jpg"}}))
		require.True(t, verdict.Passed)
		assert.Empty(t, verdict.Warnings)
	})

	t.Run("missing name rejected", func(t *testing.T) {
		verdict := c.Check(ctx, petEntity(map[string]any{"name": "  "}))
		require.False(t, verdict.Passed)
		assert.Equal(t, CodePetNameRequired, verdict.Code)
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		verdict := c.Check(ctx, petEntity(map[string]any{"status": "hibernating"}))
		require.False(t, verdict.Passed)
		assert.Equal(t, CodePetStatusInvalid, verdict.Code)
	})

	t.Run("negative price rejected", func(t *testing.T) {
		verdict := c.Check(ctx, petEntity(map[string]any{"price": -1.0}))
		require.False(t, verdict.Passed)
		assert.Equal(t, CodePetPriceNegative, verdict.Code)
	})

	t.Run("inventory skew rejected", func(t *testing.T) {
		verdict := c.Check(ctx, petEntity(map[string]any{"total_pets": 3, "available_pets": 5}))
		require.False(t, verdict.Passed)
		assert.Equal(t, CodePetInventorySkew, verdict.Code)
	})
}

func TestPetAvailableCriterion(t *testing.T) {
	c := NewPetAvailableCriterion(nil)
	ctx := context.Background()

	verdict := c.Check(ctx, petEntity(map[string]any{"adoption_status": AdoptionAvailable}))
	assert.True(t, verdict.Passed)

	verdict = c.Check(ctx, petEntity(map[string]any{"adoption_status": AdoptionReserved}))
	require.False(t, verdict.Passed)
	assert.Equal(t, CodePetUnavailable, verdict.Code)

	verdict = c.Check(ctx, petEntity(map[string]any{"health_status": HealthUnderTreatment}))
	require.False(t, verdict.Passed)
	assert.Equal(t, CodePetUnavailable, verdict.Code)
}

func TestValidOrderCriterion(t *testing.T) {
	c := NewValidOrderCriterion(nil)
	ctx := context.Background()

	t.Run("valid order passes", func(t *testing.T) {
		assert.True(t, c.Check(ctx, orderEntity(nil)).Passed)
	})

	t.Run("zero quantity rejected", func(t *testing.T) {
		verdict := c.Check(ctx, orderEntity(map[string]any{"quantity": 0}))
		require.False(t, verdict.Passed)
		assert.Equal(t, CodeOrderQuantityZero, verdict.Code)
	})

	t.Run("quantity above limit rejected", func(t *testing.T) {
		verdict := c.Check(ctx, orderEntity(map[string]any{"quantity": MaxOrderQuantity + 1}))
		require.False(t, verdict.Passed)
		assert.Equal(t, CodeOrderQuantityLimit, verdict.Code)
	})

	t.Run("quantity at limit passes", func(t *testing.T) {
		verdict := c.Check(ctx, orderEntity(map[string]any{"quantity": MaxOrderQuantity}))
		assert.True(t, verdict.Passed)
	})

	t.Run("missing pet id rejected", func(t *testing.T) {
		verdict := c.Check(ctx, orderEntity(map[string]any{"petId": ""}))
		require.False(t, verdict.Passed)
		assert.Equal(t, CodeOrderPetRequired, verdict.Code)
	})

	t.Run("total mismatch rejected", func(t *testing.T) {
		verdict := c.Check(ctx, orderEntity(map[string]any{"totalAmount": 150.0}))
		require.False(t, verdict.Passed)
		assert.Equal(t, CodeOrderTotalMismatch, verdict.Code)
	})

	t.Run("total within tolerance passes", func(t *testing.T) {
		verdict := c.Check(ctx, orderEntity(map[string]any{"totalAmount": 200.004}))
		assert.True(t, verdict.Passed)
	})

	t.Run("delivered order requires timestamp", func(t *testing.T) {
		e := orderEntity(nil)
		e.State = OrderStateDelivered
		verdict := c.Check(ctx, e)
		require.False(t, verdict.Passed)
		assert.Equal(t, CodeOrderDeliveredAt, verdict.Code)

		e.Set("deliveredAt", "2024-06-01T10:00:00Z")
		assert.True(t, c.Check(ctx, e).Passed)
	})
}

func TestFulfillmentOrderCriterion(t *testing.T) {
	c := NewFulfillmentOrderCriterion(nil)
	ctx := context.Background()

	base := func(state string, attrs map[string]any) *lifecycle.Entity {
		m := map[string]any{"item_count": 3}
		for k, v := range attrs {
			m[k] = v
		}
		return &lifecycle.Entity{ID: "f1", Type: EntityTypeFulfillmentOrder, State: state, Attributes: m}
	}

	t.Run("zero items rejected", func(t *testing.T) {
		verdict := c.Check(ctx, base(FulfillmentStateWaiting, map[string]any{"item_count": 0}))
		require.False(t, verdict.Passed)
		assert.Equal(t, CodeFulfillmentItems, verdict.Code)
	})

	t.Run("unassigned picker is advisory while picking", func(t *testing.T) {
		verdict := c.Check(ctx, base(FulfillmentStatePicking, nil))
		require.True(t, verdict.Passed)
		assert.Len(t, verdict.Warnings, 1)
	})

	t.Run("sent without sent_at rejected", func(t *testing.T) {
		verdict := c.Check(ctx, base(FulfillmentStateSent, nil))
		require.False(t, verdict.Passed)
		assert.Equal(t, CodeFulfillmentSentAt, verdict.Code)
	})

	t.Run("sent after delivered rejected", func(t *testing.T) {
		verdict := c.Check(ctx, base(FulfillmentStateWaiting, map[string]any{
			"sent_at":      "2024-06-02T10:00:00Z",
			"delivered_at": "2024-06-01T10:00:00Z",
		}))
		require.False(t, verdict.Passed)
		assert.Equal(t, CodeFulfillmentTimeline, verdict.Code)
	})

	t.Run("ordered timeline passes", func(t *testing.T) {
		verdict := c.Check(ctx, base(FulfillmentStateSent, map[string]any{
			"sent_at":      "2024-06-01T10:00:00Z",
			"delivered_at": "2024-06-02T10:00:00Z",
		}))
		assert.True(t, verdict.Passed)
	})
}
