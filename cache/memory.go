package cache

import (
	"context"
	"time"

	"github.com/maypok86/otter/v2"
	"github.com/maypok86/otter/v2/stats"
)

// MemoryConfig configures an in-memory cache.
type MemoryConfig struct {
	// MaximumSize is the maximum number of entries.
	// Default: 1000
	MaximumSize int

	// TTL is how long an entry lives after it is written. Zero keeps entries
	// until they are evicted for size.
	TTL time.Duration
}

// Memory is an in-memory cache backed by otter.
type Memory[V any] struct {
	cache   *otter.Cache[string, V]
	counter *stats.Counter
}

// NewMemory creates an in-memory cache.
func NewMemory[V any](config MemoryConfig) *Memory[V] {
	// Apply defaults
	if config.MaximumSize <= 0 {
		config.MaximumSize = 1000
	}

	counter := stats.NewCounter()
	opts := &otter.Options[string, V]{
		MaximumSize:   config.MaximumSize,
		StatsRecorder: counter,
	}
	if config.TTL > 0 {
		opts.ExpiryCalculator = otter.ExpiryCreating[string, V](config.TTL)
	}

	return &Memory[V]{
		cache:   otter.Must(opts),
		counter: counter,
	}
}

// Get retrieves a value. Returns (zero, false) on miss or expiry.
func (m *Memory[V]) Get(_ context.Context, key string) (V, bool) {
	entry, ok := m.cache.GetEntry(key)
	if !ok {
		var zero V
		return zero, false
	}
	return entry.Value, true
}

// Set stores a value.
func (m *Memory[V]) Set(_ context.Context, key string, value V) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	m.cache.Set(key, value)
	return nil
}

// Delete removes a value.
func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.cache.Invalidate(key)
	return nil
}

// Stats returns hit and miss counts.
func (m *Memory[V]) Stats() stats.Stats {
	return m.counter.Snapshot()
}

var _ Cache[string] = (*Memory[string])(nil)
