package retry

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonwraymond/sdkruntime/interceptor"
	"github.com/jonwraymond/sdkruntime/ratelimit"
)

// StandardConfig configures the standard retry strategy.
type StandardConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	// Default: 3
	MaxAttempts int

	// InitialBackoff is the base delay before the first retry.
	// Default: 1s
	InitialBackoff time.Duration

	// MaxBackoff caps the exponential delay before jitter.
	// Default: 20s
	MaxBackoff time.Duration

	// Jitter returns a factor in [0, 1] applied to every computed delay.
	// Default: rand.Float64
	Jitter func() float64

	// Quota is the retry token bucket shared by every operation on a client.
	// Default: ratelimit.NewTokenBucket with default settings
	Quota *ratelimit.TokenBucket

	// RateLimiter enables adaptive mode. Initial requests and retries wait
	// for the delay it asks for.
	// Default: nil (standard mode)
	RateLimiter *ratelimit.ClientRateLimiter

	// Classifiers decide whether a failed attempt is retryable.
	// Default: DefaultClassifiers()
	Classifiers *Classifiers

	// OnRetry is called before each retry is scheduled.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// ActionKey holds the classifier verdict on the latest failed attempt.
var ActionKey = interceptor.NewKey[Action]("retry_action")

var permitKey = interceptor.NewKey[*ratelimit.Permit]("retry_permit")

// Standard retries classified failures with capped exponential backoff and
// full jitter, gated by a retry token bucket.
type Standard struct {
	config StandardConfig
}

// NewStandard creates a standard retry strategy.
func NewStandard(config StandardConfig) *Standard {
	// Apply defaults
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = time.Second
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = 20 * time.Second
	}
	if config.MaxBackoff < config.InitialBackoff {
		config.MaxBackoff = config.InitialBackoff
	}
	if config.Jitter == nil {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		config.Jitter = rand.Float64
	}
	if config.Quota == nil {
		config.Quota = ratelimit.NewTokenBucket(ratelimit.TokenBucketConfig{})
	}
	if config.Classifiers == nil {
		config.Classifiers = DefaultClassifiers()
	}

	return &Standard{config: config}
}

// Config returns the strategy configuration.
func (s *Standard) Config() StandardConfig {
	return s.config
}

// ShouldAttemptInitialRequest admits the first attempt. In adaptive mode the
// attempt waits for the client rate limiter.
func (s *Standard) ShouldAttemptInitialRequest(ctx context.Context, ic *interceptor.Context) (Decision, error) {
	if s.config.RateLimiter == nil {
		return Yes, nil
	}
	delay, err := s.config.RateLimiter.Acquire(1)
	if err != nil {
		return No, err
	}
	if delay > 0 {
		zerolog.Ctx(ctx).Debug().Dur("delay", delay).Msg("client rate limiter delayed the initial request")
	}
	return YesAfter(delay), nil
}

// ShouldAttemptRetry classifies the latest attempt and decides whether to
// retry it.
//
// A successful attempt returns the tokens of the retry that produced it, or
// credits the success reward when no retry was needed. A retry is refused
// once MaxAttempts is reached, when no classifier marks the failure
// retryable, for client errors, and when the quota cannot pay for it. The
// last case returns a *QuotaExhaustedError.
func (s *Standard) ShouldAttemptRetry(ctx context.Context, ic *interceptor.Context) (Decision, error) {
	props := ic.Properties()
	attempts := ic.Attempts()

	if !ic.Failed() {
		if permit, ok := interceptor.Get(props, permitKey); ok {
			permit.Release()
			interceptor.Delete(props, permitKey)
		} else {
			s.config.Quota.RewardSuccess()
		}
		if s.config.RateLimiter != nil {
			s.config.RateLimiter.Update(false)
		}
		return No, nil
	}

	action := s.config.Classifiers.Classify(ctx, ic)
	interceptor.Set(props, ActionKey, action)

	if s.config.RateLimiter != nil {
		s.config.RateLimiter.Update(action.Kind == ThrottlingError)
	}

	log := zerolog.Ctx(ctx).With().Int("attempt", attempts).Stringer("action", action).Logger()

	if attempts >= s.config.MaxAttempts {
		log.Debug().Int("max_attempts", s.config.MaxAttempts).Msg("not retrying: max attempts reached")
		return No, nil
	}
	if action.Type != RetryIndicated || action.Kind == ClientError {
		log.Debug().Msg("not retrying: failure is not retryable")
		return No, nil
	}

	permit, ok := s.config.Quota.AcquireRetry(action.Kind == TransientError)
	if !ok {
		log.Debug().Float64("available", s.config.Quota.Available()).Msg("not retrying: retry quota exhausted")
		return No, &QuotaExhaustedError{Err: ic.Err()}
	}
	interceptor.Set(props, permitKey, permit)

	delay := action.RetryAfter
	if delay <= 0 {
		delay = s.Backoff(attempts)
	}
	if s.config.RateLimiter != nil {
		wait, err := s.config.RateLimiter.Acquire(1)
		if err != nil {
			return No, err
		}
		delay += wait
	}

	if s.config.OnRetry != nil {
		s.config.OnRetry(attempts, ic.Err(), delay)
	}
	log.Debug().Dur("delay", delay).Msg("retrying")
	return YesAfter(delay), nil
}

// Backoff returns the jittered delay before the retry that follows the given
// attempt: min(InitialBackoff * 2^(attempt-1), MaxBackoff) * jitter.
func (s *Standard) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := float64(s.config.InitialBackoff) * math.Pow(2, float64(attempt-1))
	base = math.Min(base, float64(s.config.MaxBackoff))

	jitter := math.Min(math.Max(s.config.Jitter(), 0), 1)
	return time.Duration(base * jitter)
}
