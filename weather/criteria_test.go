package weather

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lifecycle "github.com/goliatone/go-lifecycle"
)

func stationEntity(attrs map[string]any) *lifecycle.Entity {
	base := map[string]any{
		"station_id": "6158355",
		"name":       "TORONTO CITY",
		"latitude":   43.67,
		"longitude":  -79.4,
		"first_year": 1840,
		"last_year":  2024,
	}
	for k, v := range attrs {
		base[k] = v
	}
	return &lifecycle.Entity{ID: "s1", Type: EntityTypeStation, State: StationStateRegistered, Attributes: base}
}

func observationEntity(attrs map[string]any) *lifecycle.Entity {
	base := map[string]any{
		"station_id":       "6158355",
		"date":             "2024-05-30",
		"temperature_min":  8.1,
		"temperature_mean": 13.4,
		"temperature_max":  19.0,
		"humidity":         55.0,
	}
	for k, v := range attrs {
		base[k] = v
	}
	return &lifecycle.Entity{ID: "obs1", Type: EntityTypeObservation, State: ObservationStateReceived, Attributes: base}
}

func TestStationCriterion(t *testing.T) {
	c := NewStationCriterion(nil)
	ctx := context.Background()

	t.Run("toronto station passes", func(t *testing.T) {
		verdict := c.Check(ctx, stationEntity(nil))
		assert.True(t, verdict.Passed, "verdict: %+v", verdict)
	})

	t.Run("missing station id rejected", func(t *testing.T) {
		verdict := c.Check(ctx, stationEntity(map[string]any{"station_id": " "}))
		require.False(t, verdict.Passed)
		assert.Equal(t, CodeStationIDRequired, verdict.Code)
	})

	t.Run("missing name rejected", func(t *testing.T) {
		verdict := c.Check(ctx, stationEntity(map[string]any{"name": ""}))
		require.False(t, verdict.Passed)
		assert.Equal(t, CodeStationNameRequired, verdict.Code)
	})

	t.Run("latitude beyond pole rejected", func(t *testing.T) {
		verdict := c.Check(ctx, stationEntity(map[string]any{"latitude": 91.0}))
		require.False(t, verdict.Passed)
		assert.Equal(t, CodeStationLatitude, verdict.Code)
	})

	t.Run("longitude wraparound rejected", func(t *testing.T) {
		verdict := c.Check(ctx, stationEntity(map[string]any{"longitude": -181.0}))
		require.False(t, verdict.Passed)
		assert.Equal(t, CodeStationLongitude, verdict.Code)
	})

	t.Run("valid coordinates outside canada rejected", func(t *testing.T) {
		// Mexico City: globally valid, outside the Canada bounding box.
		verdict := c.Check(ctx, stationEntity(map[string]any{"latitude": 19.43, "longitude": -99.13}))
		require.False(t, verdict.Passed)
		assert.Equal(t, CodeStationOutsideCA, verdict.Code)
	})

	t.Run("canada corner coordinates pass", func(t *testing.T) {
		verdict := c.Check(ctx, stationEntity(map[string]any{"latitude": CanadaMinLatitude, "longitude": CanadaMaxLongitude}))
		assert.True(t, verdict.Passed)
	})

	t.Run("record years out of range rejected", func(t *testing.T) {
		for name, attrs := range map[string]map[string]any{
			"before earliest":  {"first_year": 1792},
			"beyond latest":    {"last_year": 2031},
			"first after last": {"first_year": 2000, "last_year": 1990},
		} {
			verdict := c.Check(ctx, stationEntity(attrs))
			require.False(t, verdict.Passed, name)
			assert.Equal(t, CodeStationYears, verdict.Code, name)
		}
	})
}

func TestObservationCriterion(t *testing.T) {
	c := NewObservationCriterion(nil)
	ctx := context.Background()

	t.Run("complete observation passes", func(t *testing.T) {
		verdict := c.Check(ctx, observationEntity(nil))
		assert.True(t, verdict.Passed, "verdict: %+v", verdict)
	})

	t.Run("temperatures optional", func(t *testing.T) {
		verdict := c.Check(ctx, &lifecycle.Entity{
			ID: "obs2", Type: EntityTypeObservation, State: ObservationStateReceived,
			Attributes: map[string]any{"station_id": "6158355", "date": "2024-05-30"},
		})
		assert.True(t, verdict.Passed)
	})

	t.Run("missing station rejected", func(t *testing.T) {
		verdict := c.Check(ctx, observationEntity(map[string]any{"station_id": ""}))
		require.False(t, verdict.Passed)
		assert.Equal(t, CodeObservationStation, verdict.Code)
	})

	t.Run("missing date rejected", func(t *testing.T) {
		verdict := c.Check(ctx, observationEntity(map[string]any{"date": "  "}))
		require.False(t, verdict.Passed)
		assert.Equal(t, CodeObservationDate, verdict.Code)
	})

	t.Run("temperature outside physical range rejected", func(t *testing.T) {
		verdict := c.Check(ctx, observationEntity(map[string]any{
			"temperature_min": -70.0, "temperature_mean": -65.0, "temperature_max": -61.0,
		}))
		require.False(t, verdict.Passed)
		assert.Equal(t, CodeObservationTempOOR, verdict.Code)
	})

	t.Run("humidity above 100 rejected", func(t *testing.T) {
		verdict := c.Check(ctx, observationEntity(map[string]any{"humidity": 104.0}))
		require.False(t, verdict.Passed)
		assert.Equal(t, CodeObservationHumidity, verdict.Code)
	})

	t.Run("mean below min rejected", func(t *testing.T) {
		verdict := c.Check(ctx, observationEntity(map[string]any{
			"temperature_min": 10.0, "temperature_mean": 8.0, "temperature_max": 15.0,
		}))
		require.False(t, verdict.Passed)
		assert.Equal(t, CodeObservationTempSkew, verdict.Code)
	})

	t.Run("equal min mean max passes", func(t *testing.T) {
		verdict := c.Check(ctx, observationEntity(map[string]any{
			"temperature_min": 0.0, "temperature_mean": 0.0, "temperature_max": 0.0,
		}))
		assert.True(t, verdict.Passed)
	})
}
