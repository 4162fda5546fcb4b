package lifecycle

import (
	"math"
	"time"
)

// Attribute keys shared by email-bearing entities.
const (
	AttrRetryCount = "retry_count"
	AttrMaxRetries = "max_retries"
)

// RetryStrategy encapsulates the delay between delivery attempts.
type RetryStrategy interface {
	// SleepDuration returns how long to wait before the next attempt.
	// The attempt index starts at 0, incrementing after each failure.
	SleepDuration(attempt int, err error) time.Duration
}

// NoDelayStrategy retries immediately.
type NoDelayStrategy struct{}

func (n NoDelayStrategy) SleepDuration(_ int, _ error) time.Duration {
	return 0
}

// ExponentialBackoffStrategy implements a capped exponential backoff.
// Usage example:
//
//	ExponentialBackoffStrategy{
//	    Base:   100 * time.Millisecond,
//	    Factor: 2,
//	    Max:    5 * time.Second,
//	}
type ExponentialBackoffStrategy struct {
	// Base is the starting delay (e.g., 100ms)
	Base time.Duration
	// Factor is multiplied each iteration (e.g., 2 => 100ms, 200ms, 400ms, ...)
	Factor float64
	// Max caps the exponential growth
	Max time.Duration
}

func (e ExponentialBackoffStrategy) SleepDuration(attempt int, _ error) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := float64(e.Base) * math.Pow(e.Factor, float64(attempt))
	if time.Duration(delay) > e.Max && e.Max > 0 {
		return e.Max
	}
	return time.Duration(delay)
}

// RetryCount reads the retry counter attribute.
func RetryCount(e *Entity) int {
	n, _ := e.Int(AttrRetryCount)
	if n < 0 {
		return 0
	}
	return n
}

// MaxRetries reads the retry ceiling attribute.
func MaxRetries(e *Entity) int {
	n, _ := e.Int(AttrMaxRetries)
	if n < 0 {
		return 0
	}
	return n
}

// RecordFailure increments the retry counter, capping it at max_retries so
// the counter can never exceed the ceiling, not even transiently between an
// increment and the next validation pass.
func RecordFailure(e *Entity) int {
	count := RetryCount(e) + 1
	if max := MaxRetries(e); count > max {
		count = max
	}
	e.Set(AttrRetryCount, count)
	return count
}

// CanRetry reports whether a failed delivery may be re-attempted.
func CanRetry(e *Entity, status string) bool {
	return status == "failed" && RetryCount(e) < MaxRetries(e)
}
