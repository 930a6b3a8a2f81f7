package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records per-operation metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordOperation records one completed invocation.
	RecordOperation(ctx context.Context, meta OperationMeta, duration time.Duration, attempts int, err error)

	// RecordAttempt records one finished attempt.
	RecordAttempt(ctx context.Context, meta OperationMeta, err error)
}

type metricsImpl struct {
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	attemptCount metric.Int64Counter
	durationHist metric.Float64Histogram
	attemptsHist metric.Int64Histogram
}

// NewMetrics creates the operation instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	m, err := newMetrics(meter)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	totalCount, err := meter.Int64Counter(
		"sdk.operation.total",
		metric.WithDescription("Total number of operation invocations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"sdk.operation.errors",
		metric.WithDescription("Total number of failed operation invocations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	attemptCount, err := meter.Int64Counter(
		"sdk.attempt.total",
		metric.WithDescription("Total number of transmission attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"sdk.operation.duration_ms",
		metric.WithDescription("Operation duration in milliseconds, including retries"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	attemptsHist, err := meter.Int64Histogram(
		"sdk.operation.attempts",
		metric.WithDescription("Attempts made per operation"),
		metric.WithUnit("{attempt}"),
		metric.WithExplicitBucketBoundaries(0, 1, 2, 3, 5, 10),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		totalCount:   totalCount,
		errorCount:   errorCount,
		attemptCount: attemptCount,
		durationHist: durationHist,
		attemptsHist: attemptsHist,
	}, nil
}

func (m *metricsImpl) RecordOperation(ctx context.Context, meta OperationMeta, duration time.Duration, attempts int, err error) {
	attrs := meta.attributes()
	if err != nil {
		attrs = append(attrs, attribute.String("error.type", errorType(err)))
	}
	opt := metric.WithAttributes(attrs...)

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration)/float64(time.Millisecond), opt)
	m.attemptsHist.Record(ctx, int64(attempts), opt)
}

func (m *metricsImpl) RecordAttempt(ctx context.Context, meta OperationMeta, err error) {
	attrs := meta.attributes()
	outcome := "success"
	if err != nil {
		outcome = errorType(err)
	}
	attrs = append(attrs, attribute.String("sdk.attempt.outcome", outcome))
	m.attemptCount.Add(ctx, 1, metric.WithAttributes(attrs...))
}

type noopMetrics struct{}

func (m *noopMetrics) RecordOperation(context.Context, OperationMeta, time.Duration, int, error) {}

func (m *noopMetrics) RecordAttempt(context.Context, OperationMeta, error) {}
