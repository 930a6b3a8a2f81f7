package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/sdkruntime/interceptor"
)

// Decision is a retry strategy's answer to "should another attempt be made".
type Decision struct {
	attempt bool
	delay   time.Duration
}

var (
	// No means no further attempt should be made.
	No = Decision{}

	// Yes means an attempt should be made immediately.
	Yes = Decision{attempt: true}
)

// YesAfter means an attempt should be made after d.
func YesAfter(d time.Duration) Decision {
	if d < 0 {
		d = 0
	}
	return Decision{attempt: true, delay: d}
}

// ShouldAttempt reports whether an attempt should be made.
func (d Decision) ShouldAttempt() bool { return d.attempt }

// Delay returns how long to wait before the attempt.
func (d Decision) Delay() time.Duration { return d.delay }

func (d Decision) String() string {
	switch {
	case !d.attempt:
		return "no"
	case d.delay > 0:
		return fmt.Sprintf("yes after %s", d.delay)
	default:
		return "yes"
	}
}

// Strategy decides whether an operation should be attempted and retried.
//
// Contract:
// - Concurrency: one strategy is shared by every operation on a client and
// must be safe for concurrent use.
// - State: per-operation state lives in the interceptor.Context property bag;
// client-wide state (quotas, rate limiters) lives in the strategy.
// - Errors: a non-nil error means "give up now" with that error, which is
// distinct from answering No.
type Strategy interface {
	// ShouldAttemptInitialRequest is consulted once before the first attempt.
	ShouldAttemptInitialRequest(ctx context.Context, ic *interceptor.Context) (Decision, error)

	// ShouldAttemptRetry is consulted after every attempt, successful or not.
	ShouldAttemptRetry(ctx context.Context, ic *interceptor.Context) (Decision, error)
}

// Never is a strategy that makes exactly one attempt.
type Never struct{}

// ShouldAttemptInitialRequest always answers Yes.
func (Never) ShouldAttemptInitialRequest(context.Context, *interceptor.Context) (Decision, error) {
	return Yes, nil
}

// ShouldAttemptRetry always answers No.
func (Never) ShouldAttemptRetry(context.Context, *interceptor.Context) (Decision, error) {
	return No, nil
}

var (
	_ Strategy = Never{}
	_ Strategy = (*Standard)(nil)
)
