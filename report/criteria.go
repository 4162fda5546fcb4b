package report

import (
	"regexp"
	"strings"
	"time"

	lifecycle "github.com/goliatone/go-lifecycle"
)

// Reason codes attached to failing verdicts.
const (
	CodeReportTitleRequired  = "REPORT_TITLE_REQUIRED"
	CodeReportStatusInvalid  = "REPORT_STATUS_INVALID"
	CodeReportPeriodRequired = "REPORT_PERIOD_REQUIRED"
	CodeReportPeriodOrder    = "REPORT_PERIOD_ORDER"
	CodeReportPeriodLength   = "REPORT_PERIOD_LENGTH"
	CodeReportPeriodFuture   = "REPORT_PERIOD_FUTURE"
	CodeReportSentWithoutAt  = "REPORT_SENT_WITHOUT_TIMESTAMP"
	CodeReportContentShort   = "REPORT_CONTENT_SHORT"
	CodeReportRecipientHint  = "REPORT_RECIPIENT_HINT"

	CodeEmailRecipientRequired = "EMAIL_RECIPIENT_REQUIRED"
	CodeEmailRecipientFormat   = "EMAIL_RECIPIENT_FORMAT"
	CodeEmailStatusInvalid     = "EMAIL_STATUS_INVALID"
	CodeEmailRetryExceeded     = "EMAIL_RETRY_EXCEEDED"
	CodeEmailSentWithoutTime   = "EMAIL_SENT_WITHOUT_TIME"
	CodeEmailTimelineInvalid   = "EMAIL_TIMELINE_INVALID"
	CodeEmailRetryExhausted    = "EMAIL_RETRY_EXHAUSTED"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

const periodDateLayout = "2006-01-02"

func parsePeriodDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(periodDateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// NewPerformanceReportCriterion builds the report battery: required
// fields, status allow-list, period bounds, then the sent/timestamp rule.
// Short content and an off-domain recipient are advisory only.
func NewPerformanceReportCriterion(logger lifecycle.Logger) lifecycle.Criterion {
	return lifecycle.NewBattery("performance_report", logger,
		lifecycle.SubCheck{
			Name: "required_fields",
			Run: func(e *lifecycle.Entity) error {
				r, err := DecodeReport(e)
				if err != nil {
					return err
				}
				if strings.TrimSpace(r.Title) == "" {
					return lifecycle.Reject(CodeReportTitleRequired, "report title is required")
				}
				if strings.TrimSpace(r.PeriodStart) == "" || strings.TrimSpace(r.PeriodEnd) == "" {
					return lifecycle.Reject(CodeReportPeriodRequired, "report period start and end are required")
				}
				return nil
			},
		},
		lifecycle.SubCheck{
			Name: "status_allowlist",
			Run: func(e *lifecycle.Entity) error {
				r, _ := DecodeReport(e)
				if r.ReportStatus != "" && !inList(r.ReportStatus, reportStatuses) {
					return lifecycle.Reject(CodeReportStatusInvalid,
						"report status %q not in %v", r.ReportStatus, reportStatuses)
				}
				return nil
			},
		},
		lifecycle.SubCheck{
			Name: "period_bounds",
			Run: func(e *lifecycle.Entity) error {
				r, _ := DecodeReport(e)
				start, okStart := parsePeriodDate(r.PeriodStart)
				end, okEnd := parsePeriodDate(r.PeriodEnd)
				if !okStart || !okEnd {
					return lifecycle.Reject(CodeReportPeriodRequired,
						"report period dates must be YYYY-MM-DD or RFC3339")
				}
				if !end.After(start) {
					return lifecycle.Reject(CodeReportPeriodOrder,
						"report period end %s must be after start %s", r.PeriodEnd, r.PeriodStart)
				}
				days := int(end.Sub(start).Hours() / 24)
				if days < MinPeriodDays || days > MaxPeriodDays {
					return lifecycle.Reject(CodeReportPeriodLength,
						"report period of %d days outside [%d, %d]", days, MinPeriodDays, MaxPeriodDays)
				}
				if end.After(time.Now().UTC().Add(24 * time.Hour)) {
					return lifecycle.Reject(CodeReportPeriodFuture, "report period end %s is in the future", r.PeriodEnd)
				}
				return nil
			},
		},
		lifecycle.SubCheck{
			Name: "sent_rule",
			Run: func(e *lifecycle.Entity) error {
				r, _ := DecodeReport(e)
				if strings.EqualFold(r.ReportStatus, "sent") && strings.TrimSpace(r.EmailSentAt) == "" {
					return lifecycle.Reject(CodeReportSentWithoutAt, "sent report is missing email_sent_at")
				}
				return nil
			},
		},
		lifecycle.SubCheck{
			Name:     "content_length",
			Advisory: true,
			Run: func(e *lifecycle.Entity) error {
				r, _ := DecodeReport(e)
				if r.Content != "" && len(r.Content) < 50 {
					return lifecycle.Reject(CodeReportContentShort,
						"report content is unusually short (%d chars)", len(r.Content))
				}
				return nil
			},
		},
		lifecycle.SubCheck{
			Name:     "recipient_domain",
			Advisory: true,
			Run: func(e *lifecycle.Entity) error {
				r, _ := DecodeReport(e)
				if r.RecipientEmail != "" && !strings.HasSuffix(r.RecipientEmail, "@example.com") {
					return lifecycle.Reject(CodeReportRecipientHint,
						"recipient %s is outside the recommended reporting domain", r.RecipientEmail)
				}
				return nil
			},
		},
	)
}

// NewEmailNotificationCriterion builds the email battery: recipient
// format, status allow-list, retry bound, sent/timestamp rule, and the
// sent/delivered ordering.
func NewEmailNotificationCriterion(logger lifecycle.Logger) lifecycle.Criterion {
	return lifecycle.NewBattery("email_notification", logger,
		lifecycle.SubCheck{
			Name: "required_fields",
			Run: func(e *lifecycle.Entity) error {
				n, err := DecodeEmail(e)
				if err != nil {
					return err
				}
				if strings.TrimSpace(n.Recipient) == "" {
					return lifecycle.Reject(CodeEmailRecipientRequired, "email recipient is required")
				}
				return nil
			},
		},
		lifecycle.SubCheck{
			Name: "recipient_format",
			Run: func(e *lifecycle.Entity) error {
				n, _ := DecodeEmail(e)
				if !emailPattern.MatchString(strings.TrimSpace(n.Recipient)) {
					return lifecycle.Reject(CodeEmailRecipientFormat, "recipient %q is not a valid email", n.Recipient)
				}
				return nil
			},
		},
		lifecycle.SubCheck{
			Name: "status_allowlist",
			Run: func(e *lifecycle.Entity) error {
				n, _ := DecodeEmail(e)
				if n.SendStatus != "" && !inList(n.SendStatus, sendStatuses) {
					return lifecycle.Reject(CodeEmailStatusInvalid, "send status %q not in %v", n.SendStatus, sendStatuses)
				}
				return nil
			},
		},
		lifecycle.SubCheck{
			Name: "retry_bound",
			Run: func(e *lifecycle.Entity) error {
				if lifecycle.RetryCount(e) > lifecycle.MaxRetries(e) {
					return lifecycle.Reject(CodeEmailRetryExceeded,
						"retry_count %d exceeds max_retries %d", lifecycle.RetryCount(e), lifecycle.MaxRetries(e))
				}
				return nil
			},
		},
		lifecycle.SubCheck{
			Name: "sent_rule",
			Run: func(e *lifecycle.Entity) error {
				n, _ := DecodeEmail(e)
				if strings.EqualFold(n.SendStatus, "sent") && strings.TrimSpace(n.ActualSendTime) == "" {
					return lifecycle.Reject(CodeEmailSentWithoutTime, "sent email is missing actual_send_time")
				}
				return nil
			},
		},
		lifecycle.SubCheck{
			Name: "timeline_order",
			Run: func(e *lifecycle.Entity) error {
				sentAt, okSent := e.Time("sent_at")
				deliveredAt, okDelivered := e.Time("delivered_at")
				if okSent && okDelivered && sentAt.After(deliveredAt) {
					return lifecycle.Reject(CodeEmailTimelineInvalid,
						"sent_at %s is after delivered_at %s", sentAt, deliveredAt)
				}
				return nil
			},
		},
	)
}

// NewCanRetryCriterion gates re-delivery of a failed email.
func NewCanRetryCriterion(logger lifecycle.Logger) lifecycle.Criterion {
	return lifecycle.NewBattery("can_retry", logger,
		lifecycle.SubCheck{
			Name: "retry_budget",
			Run: func(e *lifecycle.Entity) error {
				n, err := DecodeEmail(e)
				if err != nil {
					return err
				}
				status := n.SendStatus
				if status == "" {
					status = e.State
				}
				if !lifecycle.CanRetry(e, strings.ToLower(status)) {
					return lifecycle.Reject(CodeEmailRetryExhausted,
						"cannot retry: status=%q retry_count=%d max_retries=%d",
						status, lifecycle.RetryCount(e), lifecycle.MaxRetries(e))
				}
				return nil
			},
		},
	)
}

func inList(value string, list []string) bool {
	for _, v := range list {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}
