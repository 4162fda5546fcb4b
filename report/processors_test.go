package report

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lifecycle "github.com/goliatone/go-lifecycle"
	"github.com/goliatone/go-lifecycle/memory"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func testDeps(store lifecycle.EntityService) Deps {
	return Deps{
		Service: store,
		Clock:   func() time.Time { return fixedNow },
	}
}

func seedProducts(t *testing.T, store *memory.Store) {
	t.Helper()
	products := []map[string]any{
		{"name": "collar", "category": "accessories", "price": 12.5, "units_sold": 40, "revenue": 500.0, "stock": 3},
		{"name": "kibble", "category": "food", "price": 55.0, "units_sold": 120, "revenue": 6600.0, "stock": 64},
		{"name": "treats", "category": "food", "price": 9.0, "units_sold": 80, "revenue": 720.0, "stock": 15},
		{"name": "chew toy", "category": "toys", "price": 8.0, "units_sold": 4, "revenue": 32.0, "stock": 30},
	}
	for _, attrs := range products {
		_, err := store.Save(context.Background(), &lifecycle.Entity{
			Type: EntityTypeProduct, State: "active", Attributes: attrs,
		})
		require.NoError(t, err)
	}
}

func TestGenerateReportAggregatesCatalog(t *testing.T) {
	store := memory.NewStore()
	seedProducts(t, store)
	p := NewGenerateReportProcessor(testDeps(store))

	mutated, _, err := p.Process(context.Background(), reportEntity(nil), nil)
	require.NoError(t, err)

	r, err := DecodeReport(mutated)
	require.NoError(t, err)

	assert.Equal(t, "generated", r.ReportStatus)
	assert.Equal(t, 4, r.ProductsEvaluated)
	assert.Equal(t, 244, r.TotalUnitsSold)
	assert.InDelta(t, 7852.0, r.TotalRevenue, 0.001)

	require.NotEmpty(t, r.CategoryStats)
	assert.Equal(t, "food", r.CategoryStats[0].Category, "categories sorted by revenue")
	assert.Equal(t, 2, r.CategoryStats[0].ProductCount)
	assert.InDelta(t, 32.0, r.CategoryStats[0].AveragePrice, 0.001)

	require.NotEmpty(t, r.TopPerformers)
	assert.Equal(t, "kibble", r.TopPerformers[0].Name)

	require.Len(t, r.SlowMovers, 1)
	assert.Equal(t, "chew toy", r.SlowMovers[0].Name)

	require.Len(t, r.RestockAlerts, 3)
	assert.Equal(t, "collar", r.RestockAlerts[0].Name)
	assert.Equal(t, UrgencyHigh, r.RestockAlerts[0].Urgency)

	assert.NotEmpty(t, r.Trends)
	assert.NotEmpty(t, r.Recommendations)
	assert.NotEmpty(t, r.Content)
	assert.Equal(t, fixedNow.Format(time.RFC3339), r.GeneratedAt)
}

func TestGenerateReportSkipsMalformedProducts(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	_, err := store.Save(ctx, &lifecycle.Entity{Type: EntityTypeProduct, State: "active",
		Attributes: map[string]any{"name": "good", "units_sold": 5, "revenue": 50.0, "stock": 100}})
	require.NoError(t, err)
	_, err = store.Save(ctx, &lifecycle.Entity{Type: EntityTypeProduct, State: "active",
		Attributes: map[string]any{"name": "bad", "units_sold": "myriad"}})
	require.NoError(t, err)

	p := NewGenerateReportProcessor(testDeps(store))
	mutated, _, err := p.Process(ctx, reportEntity(nil), nil)
	require.NoError(t, err)

	r, _ := DecodeReport(mutated)
	assert.Equal(t, 1, r.ProductsEvaluated, "malformed product must be skipped, not fatal")
}

func TestGenerateReportEmptyCatalog(t *testing.T) {
	store := memory.NewStore()
	p := NewGenerateReportProcessor(testDeps(store))

	mutated, _, err := p.Process(context.Background(), reportEntity(nil), nil)
	require.NoError(t, err)

	r, _ := DecodeReport(mutated)
	assert.Equal(t, 0, r.ProductsEvaluated)
	require.NotEmpty(t, r.Trends)
	assert.Contains(t, r.Trends[0], "no sales activity")
}

func TestRenderReportProducesHTML(t *testing.T) {
	store := memory.NewStore()
	seedProducts(t, store)
	ctx := context.Background()

	generated, _, err := NewGenerateReportProcessor(testDeps(store)).Process(ctx, reportEntity(nil), nil)
	require.NoError(t, err)

	rendered, _, err := NewRenderReportProcessor(testDeps(store)).Process(ctx, generated, nil)
	require.NoError(t, err)

	html := rendered.String("html_content")
	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, "Weekly Performance Report")
	assert.Contains(t, html, "kibble")
	assert.Contains(t, html, "Restock")
	assert.Equal(t, "rendered", rendered.String("report_status"))
	assert.NotEmpty(t, rendered.String("rendered_at"))
}

func TestDispatchEmailStampsSentFields(t *testing.T) {
	store := memory.NewStore()
	p := NewDispatchEmailProcessor(testDeps(store), &SimulatedMailer{})

	e := reportEntity(map[string]any{"recipient_email": "ops@example.com", "content": "body"})
	mutated, _, err := p.Process(context.Background(), e, nil)
	require.NoError(t, err)

	stamp := fixedNow.Format(time.RFC3339)
	assert.Equal(t, "sent", mutated.String("send_status"))
	assert.Equal(t, stamp, mutated.String("actual_send_time"))
	assert.Equal(t, "sent", mutated.String("report_status"), "report entities also flip report_status")
	assert.Equal(t, stamp, mutated.String("email_sent_at"))
}

func TestDispatchEmailFailureAborts(t *testing.T) {
	store := memory.NewStore()
	p := NewDispatchEmailProcessor(testDeps(store), &SimulatedMailer{FailWith: fmt.Errorf("mailbox full")})

	e := emailEntity(nil)
	_, _, err := p.Process(context.Background(), e, nil)
	require.Error(t, err)
	assert.Equal(t, lifecycle.ErrCodeExternalCall, lifecycle.ErrorCode(err))
	assert.Empty(t, e.String("actual_send_time"), "failed send must not stamp delivery fields")
}

func TestDispatchEmailRequiresRecipient(t *testing.T) {
	store := memory.NewStore()
	p := NewDispatchEmailProcessor(testDeps(store), nil)

	e := &lifecycle.Entity{ID: "n1", Type: EntityTypeEmail, State: EmailStatePending}
	_, _, err := p.Process(context.Background(), e, nil)
	require.Error(t, err)
	assert.Equal(t, lifecycle.ErrCodePreconditionFailed, lifecycle.ErrorCode(err))

	// A params override supplies the recipient for this send only.
	_, _, err = p.Process(context.Background(), e, lifecycle.Params{"recipient": "ops@example.com"})
	assert.NoError(t, err)
}

func TestRecordFailureIncrementsWithBackoff(t *testing.T) {
	store := memory.NewStore()
	backoff := lifecycle.ExponentialBackoffStrategy{Base: time.Minute, Factor: 2, Max: time.Hour}
	p := NewRecordFailureProcessor(testDeps(store), backoff)
	ctx := context.Background()

	e := emailEntity(map[string]any{lifecycle.AttrMaxRetries: 3})

	mutated, _, err := p.Process(ctx, e, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, lifecycle.RetryCount(mutated))
	assert.Equal(t, "failed", mutated.String("send_status"))

	next, ok := mutated.Time("next_attempt_at")
	require.True(t, ok)
	assert.True(t, next.Equal(fixedNow.Add(time.Minute)), "first failure gets the base delay")

	// Saturate the counter: it must never pass max_retries.
	for i := 0; i < 5; i++ {
		mutated, _, err = p.Process(ctx, mutated, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, lifecycle.RetryCount(mutated))
}
