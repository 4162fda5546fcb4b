package lifecycle

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/goliatone/go-errors"
)

// Verdict is the outcome of a criterion evaluation. Instead of a bare
// boolean plus log lines, the first failing sub-check leaves a stable
// reason code callers and tests can assert on.
type Verdict struct {
	Criterion string
	Passed    bool
	Code      string
	Reason    string
	Warnings  []string
}

// Pass builds a passing verdict.
func Pass(criterion string) Verdict {
	return Verdict{Criterion: criterion, Passed: true}
}

// Fail builds a failing verdict with a reason code.
func Fail(criterion, code, reason string) Verdict {
	return Verdict{Criterion: criterion, Passed: false, Code: code, Reason: reason}
}

// Criterion gates a transition. Check never panics out to the caller:
// internal failures convert to a failing verdict (fail closed).
type Criterion interface {
	Name() string
	Check(ctx context.Context, e *Entity) Verdict
}

// CriterionFunc adapts a function to the Criterion interface.
type CriterionFunc struct {
	ID string
	Fn func(ctx context.Context, e *Entity) Verdict
}

func (c CriterionFunc) Name() string { return c.ID }

func (c CriterionFunc) Check(ctx context.Context, e *Entity) Verdict {
	if c.Fn == nil {
		return Fail(c.ID, ErrCodePreconditionFailed, "criterion function not configured")
	}
	return c.Fn(ctx, e)
}

// SubCheck is one ordered rule inside a battery. Hard checks short-circuit
// the battery on the first failure; advisory checks only append a warning.
type SubCheck struct {
	Name     string
	Advisory bool
	Run      func(e *Entity) error
}

// Reject builds a coded sub-check failure.
func Reject(code, format string, args ...any) error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return apperrors.New(msg, apperrors.CategoryValidation).WithTextCode(code)
}

// Battery is an ordered set of sub-checks over one entity snapshot.
// The canonical ordering is required-field presence, format/range,
// cross-field consistency, then state-correlated business rules.
type Battery struct {
	name   string
	logger Logger
	checks []SubCheck
}

// NewBattery assembles a criterion from ordered sub-checks.
func NewBattery(name string, logger Logger, checks ...SubCheck) *Battery {
	return &Battery{
		name:   strings.TrimSpace(name),
		logger: NormalizeLogger(logger),
		checks: checks,
	}
}

func (b *Battery) Name() string { return b.name }

// Check evaluates the sub-checks in order. A panic or internal error in any
// sub-check fails the criterion instead of propagating.
func (b *Battery) Check(ctx context.Context, e *Entity) (verdict Verdict) {
	logger := WithLoggerFields(b.logger.WithContext(ctx), map[string]any{
		"criterion": b.name,
	})
	defer func() {
		if r := recover(); r != nil {
			logger.Error("criterion panicked: %v", r)
			verdict = Fail(b.name, ErrCodePreconditionFailed, fmt.Sprintf("internal error: %v", r))
		}
	}()

	if e == nil {
		return Fail(b.name, ErrCodeEntityRequired, "entity required")
	}
	logger = WithLoggerFields(logger, map[string]any{
		"entity_id":   e.ID,
		"entity_type": e.Type,
	})

	verdict = Pass(b.name)
	for _, check := range b.checks {
		if check.Run == nil {
			continue
		}
		err := check.Run(e)
		if err == nil {
			continue
		}
		if check.Advisory {
			logger.Warn("%s: %v", check.Name, err)
			verdict.Warnings = append(verdict.Warnings, fmt.Sprintf("%s: %v", check.Name, err))
			continue
		}
		logger.Warn("%s rejected: %v", check.Name, err)
		code := ErrorCode(err)
		if code == "" {
			code = ErrCodeCriteriaRejected
		}
		warnings := verdict.Warnings
		verdict = Fail(b.name, code, err.Error())
		verdict.Warnings = warnings
		return verdict
	}
	return verdict
}

var _ Criterion = (*Battery)(nil)
