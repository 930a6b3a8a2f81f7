package ratelimit

import (
	"math"
	"sync"
	"time"
)

const (
	minFillRate   = 0.5
	minCapacity   = 1.0
	smooth        = 0.8
	beta          = 0.7
	scaleConstant = 0.4
)

// ClientRateLimiterConfig configures the adaptive client-side rate limiter.
type ClientRateLimiterConfig struct {
	// MaxDelay is the longest Acquire will ask a caller to wait before it
	// reports ErrOutOfTokens instead.
	// Default: 30 seconds
	MaxDelay time.Duration

	// Now returns the current time.
	// Default: time.Now
	Now func() time.Time
}

// ClientRateLimiter adapts the client's send rate to throttling signals.
// Throttling responses cut the rate multiplicatively; successes grow it back
// along a cubic curve centred on the rate at the last throttle. The limiter
// stays disabled until the first throttling response.
type ClientRateLimiter struct {
	config ClientRateLimiterConfig

	mu               sync.Mutex
	fillRate         float64
	maxCapacity      float64
	capacity         float64
	lastRefill       float64
	hasRefilled      bool
	measuredRate     float64
	lastRateBucket   float64
	requestCount     int
	enabled          bool
	lastMaxRate      float64
	lastThrottleTime float64
	timeWindow       float64
	calculatedRate   float64
}

// NewClientRateLimiter creates a disabled limiter.
func NewClientRateLimiter(config ClientRateLimiterConfig) *ClientRateLimiter {
	// Apply defaults
	if config.MaxDelay <= 0 {
		config.MaxDelay = 30 * time.Second
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	now := seconds(config.Now())
	return &ClientRateLimiter{
		config:           config,
		maxCapacity:      math.MaxFloat64,
		lastRateBucket:   math.Floor(now),
		lastThrottleTime: now,
	}
}

// Acquire asks permission to send amount requests. It returns zero when the
// caller may send immediately, or the delay the caller must wait before
// sending. Tokens are taken in both cases, so concurrent callers receive
// increasing delays. Nothing is taken when ErrOutOfTokens is returned.
func (l *ClientRateLimiter) Acquire(amount float64) (time.Duration, error) {
	return l.acquire(seconds(l.config.Now()), amount)
}

// Update records the outcome of a response: throttled or not.
func (l *ClientRateLimiter) Update(throttled bool) {
	l.update(seconds(l.config.Now()), throttled)
}

// UpdateOnThrottle records a throttling response.
func (l *ClientRateLimiter) UpdateOnThrottle() { l.Update(true) }

// ReleaseOnSuccess records a successful response.
func (l *ClientRateLimiter) ReleaseOnSuccess() { l.Update(false) }

// Enabled reports whether throttling has been observed.
func (l *ClientRateLimiter) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

// FillRate returns the current token refill rate in tokens per second.
func (l *ClientRateLimiter) FillRate() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fillRate
}

func (l *ClientRateLimiter) acquire(now, amount float64) (time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.enabled {
		return 0, nil
	}

	l.refillLocked(now)

	if l.capacity >= amount {
		l.capacity -= amount
		return 0, nil
	}

	wait := (amount - l.capacity) / l.fillRate
	delay := time.Duration(wait * float64(time.Second))
	if delay > l.config.MaxDelay {
		return 0, ErrOutOfTokens
	}
	// Capacity goes negative so later callers queue behind this one.
	l.capacity -= amount
	return delay, nil
}

func (l *ClientRateLimiter) update(now float64, throttled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.updateMeasuredRateLocked(now)

	if throttled {
		rate := l.measuredRate
		if l.enabled {
			rate = math.Min(l.measuredRate, l.fillRate)
		}
		l.lastMaxRate = rate
		l.calculateTimeWindowLocked()
		l.lastThrottleTime = now
		l.calculatedRate = cubicThrottle(rate)
		l.enabled = true
	} else {
		l.calculateTimeWindowLocked()
		l.calculatedRate = l.cubicSuccessLocked(now)
	}

	newRate := math.Min(l.calculatedRate, 2*l.measuredRate)
	l.refillLocked(now)
	l.fillRate = math.Max(newRate, minFillRate)
	l.maxCapacity = math.Max(newRate, minCapacity)
	l.capacity = math.Min(l.capacity, l.maxCapacity)
}

func (l *ClientRateLimiter) refillLocked(now float64) {
	if l.hasRefilled {
		fill := (now - l.lastRefill) * l.fillRate
		l.capacity = math.Min(l.maxCapacity, l.capacity+fill)
	}
	l.lastRefill = now
	l.hasRefilled = true
}

// updateMeasuredRateLocked smooths the observed request rate over
// half-second buckets.
func (l *ClientRateLimiter) updateMeasuredRateLocked(now float64) {
	bucket := math.Floor(now*2) / 2
	l.requestCount++

	if bucket > l.lastRateBucket {
		current := float64(l.requestCount) / (bucket - l.lastRateBucket)
		l.measuredRate = current*smooth + l.measuredRate*(1-smooth)
		l.requestCount = 0
		l.lastRateBucket = bucket
	}
}

func (l *ClientRateLimiter) calculateTimeWindowLocked() {
	l.timeWindow = math.Cbrt(l.lastMaxRate * (1 - beta) / scaleConstant)
}

func (l *ClientRateLimiter) cubicSuccessLocked(now float64) float64 {
	dt := now - l.lastThrottleTime - l.timeWindow
	return scaleConstant*dt*dt*dt + l.lastMaxRate
}

func cubicThrottle(rate float64) float64 {
	return rate * beta
}

func seconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
