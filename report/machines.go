package report

import (
	lifecycle "github.com/goliatone/go-lifecycle"
	"github.com/goliatone/go-lifecycle/machine"
)

// ReportDefinition declares the performance report state machine.
func ReportDefinition() machine.Definition {
	return machine.Definition{
		ID:      EntityTypeReport,
		Version: "v1",
		States: []machine.StateDef{
			{Name: ReportStateDraft, Initial: true},
			{Name: ReportStateGenerated},
			{Name: ReportStateRendered},
			{Name: ReportStateSent, Terminal: true},
			{Name: ReportStateFailed},
		},
		Transitions: []machine.TransitionDef{
			{
				Name:      "generate",
				From:      []string{ReportStateDraft},
				To:        ReportStateGenerated,
				Criteria:  []string{"performance_report"},
				Processor: "generate_report",
			},
			{
				Name:      "render",
				From:      []string{ReportStateGenerated},
				To:        ReportStateRendered,
				Criteria:  []string{"performance_report"},
				Processor: "render_report",
			},
			{
				Name:      "send",
				From:      []string{ReportStateRendered},
				To:        ReportStateSent,
				Criteria:  []string{"performance_report"},
				Processor: "dispatch_email",
			},
			{
				Name:      "mark_failed",
				From:      []string{ReportStateRendered},
				To:        ReportStateFailed,
				Processor: "record_failure",
			},
			{
				Name:      "retry_send",
				From:      []string{ReportStateFailed},
				To:        ReportStateSent,
				Criteria:  []string{"can_retry"},
				Processor: "dispatch_email",
			},
			{
				Name:      "retry_failed",
				From:      []string{ReportStateFailed},
				To:        ReportStateFailed,
				Processor: "record_failure",
			},
		},
	}
}

// EmailDefinition declares the standalone email notification machine.
func EmailDefinition() machine.Definition {
	return machine.Definition{
		ID:      EntityTypeEmail,
		Version: "v1",
		States: []machine.StateDef{
			{Name: EmailStatePending, Initial: true},
			{Name: EmailStateSent, Terminal: true},
			{Name: EmailStateFailed},
		},
		Transitions: []machine.TransitionDef{
			{
				Name:      "send",
				From:      []string{EmailStatePending},
				To:        EmailStateSent,
				Criteria:  []string{"email_notification"},
				Processor: "dispatch_email",
			},
			{
				Name:      "mark_failed",
				From:      []string{EmailStatePending, EmailStateFailed},
				To:        EmailStateFailed,
				Processor: "record_failure",
			},
			{
				Name:      "retry",
				From:      []string{EmailStateFailed},
				To:        EmailStateSent,
				Criteria:  []string{"email_notification", "can_retry"},
				Processor: "dispatch_email",
			},
		},
	}
}

// Register wires the report criteria and processors into the registries
// and compiles both machines into the set.
func Register(
	set *machine.Set,
	criteria *machine.CriterionRegistry,
	processors *machine.ProcessorRegistry,
	deps Deps,
	mailer Mailer,
	backoff lifecycle.RetryStrategy,
) error {
	deps.normalize()

	for name, c := range map[string]lifecycle.Criterion{
		"performance_report": NewPerformanceReportCriterion(deps.Logger),
		"email_notification": NewEmailNotificationCriterion(deps.Logger),
		"can_retry":          NewCanRetryCriterion(deps.Logger),
	} {
		if err := criteria.Register(name, c); err != nil {
			return err
		}
	}

	for _, p := range []lifecycle.Processor{
		NewGenerateReportProcessor(deps),
		NewRenderReportProcessor(deps),
		NewDispatchEmailProcessor(deps, mailer),
		NewRecordFailureProcessor(deps, backoff),
	} {
		if err := processors.Register(p.Name(), p); err != nil {
			return err
		}
	}

	for _, def := range []machine.Definition{ReportDefinition(), EmailDefinition()} {
		m, err := machine.Compile(def, criteria, processors, deps.Service, machine.WithLogger(deps.Logger))
		if err != nil {
			return err
		}
		set.Add(m)
	}
	return nil
}
