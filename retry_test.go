package lifecycle

import (
	"testing"
	"time"
)

func TestExponentialBackoffGrowsAndCaps(t *testing.T) {
	strategy := ExponentialBackoffStrategy{
		Base:   10 * time.Millisecond,
		Factor: 2,
		Max:    50 * time.Millisecond,
	}

	if d := strategy.SleepDuration(0, nil); d != 10*time.Millisecond {
		t.Fatalf("attempt 0: got %s", d)
	}
	if d := strategy.SleepDuration(2, nil); d != 40*time.Millisecond {
		t.Fatalf("attempt 2: got %s", d)
	}
	if d := strategy.SleepDuration(10, nil); d != 50*time.Millisecond {
		t.Fatalf("expected cap at 50ms, got %s", d)
	}
}

func TestNoDelayStrategyReturnsZero(t *testing.T) {
	if d := (NoDelayStrategy{}).SleepDuration(3, nil); d != 0 {
		t.Fatalf("expected zero delay, got %s", d)
	}
}

func TestRecordFailureNeverExceedsMaxRetries(t *testing.T) {
	e := &Entity{Attributes: map[string]any{AttrMaxRetries: 3}}

	for i := 0; i < 10; i++ {
		RecordFailure(e)
		if got := RetryCount(e); got > 3 {
			t.Fatalf("retry count %d exceeded max after %d failures", got, i+1)
		}
	}
	if got := RetryCount(e); got != 3 {
		t.Fatalf("expected saturated counter 3, got %d", got)
	}
}

func TestCanRetryRequiresFailedStatusAndHeadroom(t *testing.T) {
	e := &Entity{Attributes: map[string]any{
		AttrRetryCount: 1,
		AttrMaxRetries: 3,
	}}

	if !CanRetry(e, "failed") {
		t.Fatal("expected retry allowed with headroom")
	}
	if CanRetry(e, "sent") {
		t.Fatal("retry must require failed status")
	}

	e.Set(AttrRetryCount, 3)
	if CanRetry(e, "failed") {
		t.Fatal("retry must stop at the ceiling")
	}
}
