package cache

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/jonwraymond/sdkruntime/cache"

var (
	metricsOnce     sync.Once
	cacheOperations metric.Int64Counter
	cacheDuration   metric.Float64Histogram
)

func initMetrics(mp metric.MeterProvider) {
	metricsOnce.Do(func() {
		meter := mp.Meter(instrumentationName)

		var err error
		cacheOperations, err = meter.Int64Counter(
			"sdk.cache.operations",
			metric.WithDescription("Total cache operations"),
			metric.WithUnit("{operation}"),
		)
		if err != nil {
			otel.Handle(err)
		}

		cacheDuration, err = meter.Float64Histogram(
			"sdk.cache.operation.duration",
			metric.WithDescription("Cache operation duration"),
			metric.WithUnit("s"),
		)
		if err != nil {
			otel.Handle(err)
		}
	})
}

// Instrumented records OpenTelemetry metrics for every operation on the
// wrapped cache.
type Instrumented[V any] struct {
	wrapped   Cache[V]
	cacheName string
}

// NewInstrumented wraps c. Instruments are created once per process from
// the global meter provider.
func NewInstrumented[V any](c Cache[V], cacheName string) *Instrumented[V] {
	initMetrics(otel.GetMeterProvider())
	return &Instrumented[V]{wrapped: c, cacheName: cacheName}
}

// Get retrieves a value and records a hit or a miss.
func (i *Instrumented[V]) Get(ctx context.Context, key string) (V, bool) {
	start := time.Now()
	value, found := i.wrapped.Get(ctx, key)

	status := "miss"
	if found {
		status = "hit"
	}
	i.record(ctx, "get", status, time.Since(start))
	return value, found
}

// Set stores a value.
func (i *Instrumented[V]) Set(ctx context.Context, key string, value V) error {
	start := time.Now()
	err := i.wrapped.Set(ctx, key, value)
	i.record(ctx, "set", statusOf(err), time.Since(start))
	return err
}

// Delete removes a value.
func (i *Instrumented[V]) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := i.wrapped.Delete(ctx, key)
	i.record(ctx, "delete", statusOf(err), time.Since(start))
	return err
}

func (i *Instrumented[V]) record(ctx context.Context, operation, status string, d time.Duration) {
	if cacheOperations != nil {
		cacheOperations.Add(ctx, 1, metric.WithAttributes(
			attribute.String("cache.name", i.cacheName),
			attribute.String("cache.operation", operation),
			attribute.String("cache.status", status),
		))
	}
	if cacheDuration != nil {
		cacheDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
			attribute.String("cache.name", i.cacheName),
			attribute.String("cache.operation", operation),
		))
	}
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

var _ Cache[string] = (*Instrumented[string])(nil)
