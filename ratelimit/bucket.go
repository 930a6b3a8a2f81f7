package ratelimit

import (
	"math"
	"sync"
	"time"
)

// TokenBucketConfig configures the retry quota bucket.
type TokenBucketConfig struct {
	// Capacity is the maximum number of tokens.
	// Default: 500
	Capacity float64

	// RetryCost is the number of tokens a retry after a non-transient error
	// costs.
	// Default: 5
	RetryCost float64

	// TimeoutRetryCost is the number of tokens a retry after a timeout or
	// transient error costs.
	// Default: 10
	TimeoutRetryCost float64

	// SuccessReward is added to the bucket after every successful operation.
	// Default: 0
	SuccessReward float64

	// RefillRate is the number of tokens regenerated per second.
	// Default: 0 (tokens only return through released permits and rewards)
	RefillRate float64

	// Now returns the current time.
	// Default: time.Now
	Now func() time.Time
}

// TokenBucket gates retries so that a degraded dependency is not hammered
// by clients retrying in lockstep. It is shared by every operation on a
// client.
type TokenBucket struct {
	config    TokenBucketConfig
	unlimited bool

	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// NewTokenBucket creates a full bucket.
func NewTokenBucket(config TokenBucketConfig) *TokenBucket {
	// Apply defaults
	if config.Capacity <= 0 {
		config.Capacity = 500
	}
	if config.RetryCost <= 0 {
		config.RetryCost = 5
	}
	if config.TimeoutRetryCost <= 0 {
		config.TimeoutRetryCost = 10
	}
	if config.SuccessReward < 0 {
		config.SuccessReward = 0
	}
	if config.RefillRate < 0 {
		config.RefillRate = 0
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return &TokenBucket{
		config:     config,
		tokens:     config.Capacity,
		lastRefill: config.Now(),
	}
}

// Unlimited returns a bucket that grants every acquisition at no cost.
func Unlimited() *TokenBucket {
	b := NewTokenBucket(TokenBucketConfig{Capacity: math.MaxFloat64})
	b.unlimited = true
	return b
}

// Config returns the bucket configuration.
func (b *TokenBucket) Config() TokenBucketConfig {
	return b.config
}

// Acquire takes amount tokens if that many are available. It never grants
// more tokens than the bucket holds.
func (b *TokenBucket) Acquire(amount float64) (*Permit, bool) {
	if b.unlimited || amount <= 0 {
		return &Permit{bucket: b}, true
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.refillLocked()

	if b.tokens < amount {
		return nil, false
	}
	b.tokens -= amount
	return &Permit{bucket: b, amount: amount}, true
}

// AcquireRetry takes the cost of one retry. Retries after timeouts and
// transient errors cost more.
func (b *TokenBucket) AcquireRetry(transient bool) (*Permit, bool) {
	cost := b.config.RetryCost
	if transient {
		cost = b.config.TimeoutRetryCost
	}
	return b.Acquire(cost)
}

// RewardSuccess credits the configured success reward.
func (b *TokenBucket) RewardSuccess() {
	if b.unlimited || b.config.SuccessReward == 0 {
		return
	}
	b.add(b.config.SuccessReward)
}

// Available returns the number of tokens currently held.
func (b *TokenBucket) Available() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked()
	return b.tokens
}

// Reset refills the bucket to capacity.
func (b *TokenBucket) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens = b.config.Capacity
	b.lastRefill = b.config.Now()
}

func (b *TokenBucket) add(amount float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked()
	b.tokens = math.Min(b.tokens+amount, b.config.Capacity)
}

// refillLocked regenerates tokens in whole seconds so partial seconds are
// not lost between calls. Caller must hold mu.
func (b *TokenBucket) refillLocked() {
	if b.config.RefillRate == 0 {
		return
	}

	now := b.config.Now()
	elapsed := now.Sub(b.lastRefill)
	whole := elapsed.Truncate(time.Second)
	if whole <= 0 {
		return
	}
	b.lastRefill = b.lastRefill.Add(whole)

	b.tokens = math.Min(b.tokens+whole.Seconds()*b.config.RefillRate, b.config.Capacity)
}

// Permit is a grant of tokens from a TokenBucket. Releasing returns the
// tokens; a permit that is never released is simply forgotten.
type Permit struct {
	bucket *TokenBucket
	amount float64
	once   sync.Once
}

// Amount returns the number of tokens held by the permit.
func (p *Permit) Amount() float64 {
	if p == nil {
		return 0
	}
	return p.amount
}

// Release returns the permit's tokens to the bucket. It is safe to call
// more than once and on a nil permit.
func (p *Permit) Release() {
	if p == nil || p.amount == 0 {
		return
	}
	p.once.Do(func() {
		p.bucket.add(p.amount)
	})
}
