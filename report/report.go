// Package report implements the weekly performance report lifecycle:
// aggregation over the product catalog, HTML rendering, and retry-bounded
// email delivery.
package report

import (
	lifecycle "github.com/goliatone/go-lifecycle"
)

// Entity types owned by this package.
const (
	EntityTypeReport  = "performance_report"
	EntityTypeEmail   = "email_notification"
	EntityTypeProduct = "product"
)

// Report envelope states.
const (
	ReportStateDraft     = "draft"
	ReportStateGenerated = "generated"
	ReportStateRendered  = "rendered"
	ReportStateSent      = "sent"
	ReportStateFailed    = "failed"
)

// Email envelope states.
const (
	EmailStatePending = "pending"
	EmailStateSent    = "sent"
	EmailStateFailed  = "failed"
)

var reportStatuses = []string{"draft", "generated", "rendered", "sent", "failed"}

var sendStatuses = []string{"pending", "sent", "failed"}

// Report period bounds in days.
const (
	MinPeriodDays = 1
	MaxPeriodDays = 365
)

// PerformanceReport is the decoded report record.
type PerformanceReport struct {
	Title             string           `json:"title"`
	ReportStatus      string           `json:"report_status,omitempty"`
	PeriodStart       string           `json:"report_period_start"`
	PeriodEnd         string           `json:"report_period_end"`
	RecipientEmail    string           `json:"recipient_email,omitempty"`
	Content           string           `json:"content,omitempty"`
	HTMLContent       string           `json:"html_content,omitempty"`
	GeneratedAt       string           `json:"generated_at,omitempty"`
	EmailSentAt       string           `json:"email_sent_at,omitempty"`
	CategoryStats     []CategoryStat   `json:"category_stats,omitempty"`
	TopPerformers     []ProductSummary `json:"top_performers,omitempty"`
	SlowMovers        []ProductSummary `json:"slow_movers,omitempty"`
	RestockAlerts     []RestockAlert   `json:"restock_alerts,omitempty"`
	Trends            []string         `json:"trends,omitempty"`
	Recommendations   []string         `json:"recommendations,omitempty"`
	TotalRevenue      float64          `json:"total_revenue,omitempty"`
	TotalUnitsSold    int              `json:"total_units_sold,omitempty"`
	ProductsEvaluated int              `json:"products_evaluated,omitempty"`
}

// CategoryStat aggregates one product category.
type CategoryStat struct {
	Category     string  `json:"category"`
	ProductCount int     `json:"product_count"`
	UnitsSold    int     `json:"units_sold"`
	Revenue      float64 `json:"revenue"`
	AveragePrice float64 `json:"average_price"`
}

// ProductSummary is one ranked product line.
type ProductSummary struct {
	Name      string  `json:"name"`
	Category  string  `json:"category,omitempty"`
	UnitsSold int     `json:"units_sold"`
	Revenue   float64 `json:"revenue"`
}

// Restock urgency tiers, by remaining stock.
const (
	UrgencyHigh   = "HIGH"
	UrgencyMedium = "MEDIUM"
	UrgencyLow    = "LOW"
)

// RestockAlert flags a product below a stock threshold.
type RestockAlert struct {
	Name    string `json:"name"`
	Stock   int    `json:"stock"`
	Urgency string `json:"urgency"`
}

// DecodeReport maps entity attributes onto a PerformanceReport.
func DecodeReport(e *lifecycle.Entity) (*PerformanceReport, error) {
	var r PerformanceReport
	if err := lifecycle.Decode(e, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// EmailNotification is the decoded email record.
type EmailNotification struct {
	Recipient      string `json:"recipient"`
	Subject        string `json:"subject,omitempty"`
	Body           string `json:"body,omitempty"`
	SendStatus     string `json:"send_status,omitempty"`
	ActualSendTime string `json:"actual_send_time,omitempty"`
	SentAt         string `json:"sent_at,omitempty"`
	DeliveredAt    string `json:"delivered_at,omitempty"`
	RetryCount     int    `json:"retry_count,omitempty"`
	MaxRetries     int    `json:"max_retries,omitempty"`
	NextAttemptAt  string `json:"next_attempt_at,omitempty"`
}

// DecodeEmail maps entity attributes onto an EmailNotification.
func DecodeEmail(e *lifecycle.Entity) (*EmailNotification, error) {
	var n EmailNotification
	if err := lifecycle.Decode(e, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// Product is the decoded catalog record the generator aggregates.
type Product struct {
	Name      string  `json:"name"`
	Category  string  `json:"category,omitempty"`
	Price     float64 `json:"price"`
	UnitsSold int     `json:"units_sold"`
	Revenue   float64 `json:"revenue"`
	Stock     int     `json:"stock"`
}
