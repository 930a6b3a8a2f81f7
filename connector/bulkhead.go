package connector

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/jonwraymond/sdkruntime/sdkerr"
)

// BulkheadConfig configures the bulkhead.
type BulkheadConfig struct {
	// MaxConcurrent is the maximum number of in-flight calls.
	// Default: 64
	MaxConcurrent int

	// MaxWait is how long a call waits for a slot.
	// Default: 0 (fail immediately)
	MaxWait time.Duration
}

// Bulkhead is a Connector that bounds in-flight calls. A call holds its slot
// until the response headers arrive.
type Bulkhead struct {
	next   Connector
	config BulkheadConfig
	sem    chan struct{}

	mu        sync.Mutex
	active    int
	maxActive int
	rejected  int64
}

// NewBulkhead wraps next with a concurrency limit.
func NewBulkhead(next Connector, cfg BulkheadConfig) *Bulkhead {
	// Apply defaults
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 64
	}

	return &Bulkhead{
		next:   next,
		config: cfg,
		sem:    make(chan struct{}, cfg.MaxConcurrent),
	}
}

// Call sends req once a slot is free.
func (b *Bulkhead) Call(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := b.acquire(ctx); err != nil {
		return nil, err
	}
	defer b.release()

	return b.next.Call(ctx, req)
}

func (b *Bulkhead) acquire(ctx context.Context) error {
	select {
	case b.sem <- struct{}{}:
		b.admitted()
		return nil
	default:
	}

	if b.config.MaxWait <= 0 {
		return b.reject()
	}

	timer := time.NewTimer(b.config.MaxWait)
	defer timer.Stop()

	select {
	case b.sem <- struct{}{}:
		b.admitted()
		return nil
	case <-timer.C:
		return b.reject()
	case <-ctx.Done():
		return &sdkerr.ConnectorError{Kind: sdkerr.ConnectorRejected, Err: ctx.Err()}
	}
}

func (b *Bulkhead) admitted() {
	b.mu.Lock()
	b.active++
	b.maxActive = max(b.maxActive, b.active)
	b.mu.Unlock()
}

func (b *Bulkhead) reject() error {
	b.mu.Lock()
	b.rejected++
	b.mu.Unlock()
	return &sdkerr.ConnectorError{Kind: sdkerr.ConnectorRejected, Err: ErrBulkheadFull}
}

func (b *Bulkhead) release() {
	<-b.sem
	b.mu.Lock()
	b.active--
	b.mu.Unlock()
}

// Metrics returns current bulkhead metrics.
func (b *Bulkhead) Metrics() BulkheadMetrics {
	b.mu.Lock()
	defer b.mu.Unlock()

	return BulkheadMetrics{
		Active:        b.active,
		MaxActive:     b.maxActive,
		Available:     b.config.MaxConcurrent - b.active,
		MaxConcurrent: b.config.MaxConcurrent,
		Rejected:      b.rejected,
	}
}

// BulkheadMetrics contains bulkhead statistics.
type BulkheadMetrics struct {
	Active        int
	MaxActive     int
	Available     int
	MaxConcurrent int
	Rejected      int64
}
