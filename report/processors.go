package report

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	lifecycle "github.com/goliatone/go-lifecycle"
)

// Stock thresholds driving restock urgency tiers.
const (
	stockHighWater   = 50
	stockMediumWater = 20
	stockLowWater    = 5
)

// slowMoverThreshold flags products below this sales volume.
const slowMoverThreshold = 10

// topPerformerCount bounds the top-performer list.
const topPerformerCount = 5

// Deps bundles the collaborators shared by the report processors.
type Deps struct {
	Service lifecycle.EntityService
	Logger  lifecycle.Logger
	Clock   func() time.Time
}

func (d *Deps) normalize() {
	if d.Clock == nil {
		d.Clock = func() time.Time { return time.Now().UTC() }
	}
	d.Logger = lifecycle.NormalizeLogger(d.Logger)
}

// GenerateReportProcessor aggregates the full product catalog: per-category
// statistics, top performers, slow movers, restock urgency tiers, and
// human-readable trend and recommendation strings. The scan materializes
// the whole result set; there is no pagination cursor.
type GenerateReportProcessor struct {
	deps Deps
}

// NewGenerateReportProcessor wires the processor.
func NewGenerateReportProcessor(deps Deps) *GenerateReportProcessor {
	deps.normalize()
	return &GenerateReportProcessor{deps: deps}
}

func (p *GenerateReportProcessor) Name() string { return "generate_report" }

func (p *GenerateReportProcessor) Process(ctx context.Context, e *lifecycle.Entity, _ lifecycle.Params) (*lifecycle.Entity, *lifecycle.Outcome, error) {
	logger := p.deps.Logger.WithContext(ctx)

	r, err := DecodeReport(e)
	if err != nil {
		return nil, nil, err
	}

	entities, err := p.deps.Service.FindAll(ctx, EntityTypeProduct, 1)
	if err != nil {
		return nil, nil, lifecycle.NewError(lifecycle.ErrExternalCall, "product scan failed", err, map[string]any{
			"entity_id": e.ID,
		})
	}

	products := make([]Product, 0, len(entities))
	for _, pe := range entities {
		var product Product
		if err := lifecycle.Decode(pe, &product); err != nil {
			logger.Warn("skipping malformed product %s: %v", pe.ID, err)
			continue
		}
		products = append(products, product)
	}

	r.CategoryStats = categoryStats(products)
	r.TopPerformers = topPerformers(products)
	r.SlowMovers = slowMovers(products)
	r.RestockAlerts = restockAlerts(products)
	r.Trends, r.Recommendations = trends(r.CategoryStats, r.SlowMovers, r.RestockAlerts)

	r.TotalUnitsSold = 0
	r.TotalRevenue = 0
	for _, product := range products {
		r.TotalUnitsSold += product.UnitsSold
		r.TotalRevenue += product.Revenue
	}
	r.ProductsEvaluated = len(products)
	r.ReportStatus = "generated"
	r.GeneratedAt = p.deps.Clock().Format(time.RFC3339)
	r.Content = summaryText(r)

	if err := lifecycle.Encode(e, r); err != nil {
		return nil, nil, err
	}
	logger.Info("report %s generated over %d products, revenue %.2f", e.ID, len(products), r.TotalRevenue)
	return e, nil, nil
}

func categoryStats(products []Product) []CategoryStat {
	byCategory := map[string]*CategoryStat{}
	for _, p := range products {
		category := p.Category
		if category == "" {
			category = "uncategorized"
		}
		stat, ok := byCategory[category]
		if !ok {
			stat = &CategoryStat{Category: category}
			byCategory[category] = stat
		}
		stat.ProductCount++
		stat.UnitsSold += p.UnitsSold
		stat.Revenue += p.Revenue
		stat.AveragePrice += p.Price
	}
	stats := make([]CategoryStat, 0, len(byCategory))
	for _, stat := range byCategory {
		if stat.ProductCount > 0 {
			stat.AveragePrice /= float64(stat.ProductCount)
		}
		stats = append(stats, *stat)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Revenue > stats[j].Revenue })
	return stats
}

func topPerformers(products []Product) []ProductSummary {
	sorted := append([]Product(nil), products...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].UnitsSold > sorted[j].UnitsSold })
	if len(sorted) > topPerformerCount {
		sorted = sorted[:topPerformerCount]
	}
	out := make([]ProductSummary, 0, len(sorted))
	for _, p := range sorted {
		out = append(out, ProductSummary{Name: p.Name, Category: p.Category, UnitsSold: p.UnitsSold, Revenue: p.Revenue})
	}
	return out
}

func slowMovers(products []Product) []ProductSummary {
	var out []ProductSummary
	for _, p := range products {
		if p.UnitsSold < slowMoverThreshold {
			out = append(out, ProductSummary{Name: p.Name, Category: p.Category, UnitsSold: p.UnitsSold, Revenue: p.Revenue})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UnitsSold < out[j].UnitsSold })
	return out
}

func restockAlerts(products []Product) []RestockAlert {
	var out []RestockAlert
	for _, p := range products {
		switch {
		case p.Stock < stockLowWater:
			out = append(out, RestockAlert{Name: p.Name, Stock: p.Stock, Urgency: UrgencyHigh})
		case p.Stock < stockMediumWater:
			out = append(out, RestockAlert{Name: p.Name, Stock: p.Stock, Urgency: UrgencyMedium})
		case p.Stock < stockHighWater:
			out = append(out, RestockAlert{Name: p.Name, Stock: p.Stock, Urgency: UrgencyLow})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Stock < out[j].Stock })
	return out
}

func trends(stats []CategoryStat, slow []ProductSummary, alerts []RestockAlert) (trendLines, recommendations []string) {
	if len(stats) > 0 {
		trendLines = append(trendLines, fmt.Sprintf(
			"%s leads revenue with %.2f across %d products",
			stats[0].Category, stats[0].Revenue, stats[0].ProductCount,
		))
	}
	if len(slow) > 0 {
		trendLines = append(trendLines, fmt.Sprintf("%d products are moving below %d units", len(slow), slowMoverThreshold))
		recommendations = append(recommendations, fmt.Sprintf(
			"consider promotions for slow movers, starting with %s", slow[0].Name,
		))
	}
	high := 0
	for _, a := range alerts {
		if a.Urgency == UrgencyHigh {
			high++
		}
	}
	if high > 0 {
		recommendations = append(recommendations, fmt.Sprintf("%d products need immediate restock", high))
	}
	if len(trendLines) == 0 {
		trendLines = append(trendLines, "no sales activity recorded for the period")
	}
	return trendLines, recommendations
}

func summaryText(r *PerformanceReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d products evaluated, %d units sold, %.2f revenue.",
		r.Title, r.ProductsEvaluated, r.TotalUnitsSold, r.TotalRevenue)
	for _, t := range r.Trends {
		fmt.Fprintf(&b, " %s.", t)
	}
	return b.String()
}

// DispatchEmailProcessor sends the rendered report (or a standalone email
// notification). A send failure aborts the transition; the engine then
// drives the entity through its failure transition, which records the
// retry and computes the next attempt delay.
type DispatchEmailProcessor struct {
	deps   Deps
	mailer Mailer
}

// NewDispatchEmailProcessor wires the processor. A nil mailer simulates
// delivery.
func NewDispatchEmailProcessor(deps Deps, mailer Mailer) *DispatchEmailProcessor {
	deps.normalize()
	if mailer == nil {
		mailer = &SimulatedMailer{Logger: deps.Logger}
	}
	return &DispatchEmailProcessor{deps: deps, mailer: mailer}
}

func (p *DispatchEmailProcessor) Name() string { return "dispatch_email" }

func (p *DispatchEmailProcessor) Process(ctx context.Context, e *lifecycle.Entity, params lifecycle.Params) (*lifecycle.Entity, *lifecycle.Outcome, error) {
	msg := Message{
		To:      e.String("recipient"),
		Subject: e.String("subject"),
		Body:    e.String("content"),
		HTML:    e.String("html_content"),
	}
	if msg.To == "" {
		msg.To = e.String("recipient_email")
	}
	if override := params.String("recipient"); override != "" {
		msg.To = override
	}
	if msg.Subject == "" {
		msg.Subject = e.String("title")
	}
	if msg.To == "" {
		return nil, nil, lifecycle.NewError(lifecycle.ErrPreconditionFailed, "no recipient configured", nil, map[string]any{
			"entity_id": e.ID,
		})
	}

	if err := p.mailer.Send(ctx, msg); err != nil {
		return nil, nil, lifecycle.NewError(lifecycle.ErrExternalCall, "email dispatch failed", err, map[string]any{
			"entity_id": e.ID,
			"recipient": msg.To,
		})
	}

	now := p.deps.Clock()
	stamp := now.Format(time.RFC3339)
	e.Set("send_status", "sent")
	e.Set("actual_send_time", stamp)
	e.Set("sent_at", stamp)
	if e.Type == EntityTypeReport {
		e.Set("report_status", "sent")
		e.Set("email_sent_at", stamp)
	}
	p.deps.Logger.WithContext(ctx).Info("email for %s %s dispatched to %s", e.Type, e.ID, msg.To)
	return e, nil, nil
}

// RecordFailureProcessor marks a failed delivery: the retry counter is
// incremented with the cap enforced at increment time, and the next
// attempt delay comes from the backoff strategy.
type RecordFailureProcessor struct {
	deps    Deps
	backoff lifecycle.RetryStrategy
}

// NewRecordFailureProcessor wires the processor. A nil strategy uses a
// capped exponential backoff.
func NewRecordFailureProcessor(deps Deps, backoff lifecycle.RetryStrategy) *RecordFailureProcessor {
	deps.normalize()
	if backoff == nil {
		backoff = lifecycle.ExponentialBackoffStrategy{
			Base:   time.Minute,
			Factor: 2,
			Max:    time.Hour,
		}
	}
	return &RecordFailureProcessor{deps: deps, backoff: backoff}
}

func (p *RecordFailureProcessor) Name() string { return "record_failure" }

func (p *RecordFailureProcessor) Process(ctx context.Context, e *lifecycle.Entity, _ lifecycle.Params) (*lifecycle.Entity, *lifecycle.Outcome, error) {
	count := lifecycle.RecordFailure(e)
	delay := p.backoff.SleepDuration(count-1, nil)
	e.Set("send_status", "failed")
	if e.Type == EntityTypeReport {
		e.Set("report_status", "failed")
	}
	e.SetTime("next_attempt_at", p.deps.Clock().Add(delay))

	p.deps.Logger.WithContext(ctx).Warn(
		"delivery for %s %s failed, retry %d/%d in %s",
		e.Type, e.ID, count, lifecycle.MaxRetries(e), delay,
	)
	return e, nil, nil
}
