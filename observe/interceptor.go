package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonwraymond/sdkruntime/interceptor"
)

// Telemetry is an interceptor that traces, measures and logs every
// operation it sees.
//
// Contract:
//   - Concurrency: one Telemetry may be shared by every client.
//   - Errors: Telemetry never fails a hook, so it cannot change an outcome.
//   - Ownership: per-invocation state lives in the interceptor context
//     properties.
type Telemetry struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
	now     func() time.Time
}

type span struct {
	span  trace.Span
	start time.Time
}

var spanKey = interceptor.NewKey[*span]("observe.span")

// NewTelemetry creates a Telemetry interceptor. Nil arguments are replaced
// with no-ops.
func NewTelemetry(tracer Tracer, metrics Metrics, logger Logger) *Telemetry {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = &noopMetrics{}
	}
	if logger == nil {
		logger = &noopLogger{}
	}
	return &Telemetry{tracer: tracer, metrics: metrics, logger: logger, now: time.Now}
}

// TelemetryFromObserver creates a Telemetry interceptor from an Observer.
func TelemetryFromObserver(obs Observer) (*Telemetry, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}
	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewTelemetry(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// Name implements interceptor.Interceptor.
func (t *Telemetry) Name() string { return "telemetry" }

// Intercept implements interceptor.Interceptor.
func (t *Telemetry) Intercept(ctx context.Context, hook interceptor.Hook, ic *interceptor.Context) error {
	switch hook {
	case interceptor.ReadBeforeExecution:
		_, s := t.tracer.StartSpan(ctx, metaOf(ic))
		interceptor.Set(ic.Properties(), spanKey, &span{span: s, start: t.now()})

	case interceptor.ReadAfterAttempt:
		meta := metaOf(ic)
		attempt := ic.Attempts()
		t.metrics.RecordAttempt(ctx, meta, ic.Err())
		if s, ok := interceptor.Get(ic.Properties(), spanKey); ok {
			attrs := []attribute.KeyValue{attribute.Int("sdk.attempt", attempt)}
			if err := ic.Err(); err != nil {
				attrs = append(attrs, attribute.String("error.type", errorType(err)))
			}
			s.span.AddEvent("attempt", trace.WithAttributes(attrs...))
		}
		if err := ic.Err(); err != nil {
			t.logger.WithOperation(meta).Debug(ctx, "attempt failed",
				Field{Key: "attempt", Value: attempt},
				Field{Key: "error", Value: err},
			)
		}

	case interceptor.ReadAfterExecution:
		t.finish(ctx, ic)
	}
	return nil
}

func (t *Telemetry) finish(ctx context.Context, ic *interceptor.Context) {
	meta := metaOf(ic)
	err := ic.Err()
	attempts := ic.Attempts()

	var duration time.Duration
	if s, ok := interceptor.Get(ic.Properties(), spanKey); ok {
		duration = t.now().Sub(s.start)
		t.tracer.EndSpan(s.span, attempts, err)
		interceptor.Delete(ic.Properties(), spanKey)
	}
	t.metrics.RecordOperation(ctx, meta, duration, attempts, err)

	fields := []Field{
		{Key: "attempts", Value: attempts},
		{Key: "duration_ms", Value: float64(duration) / float64(time.Millisecond)},
	}
	logger := t.logger.WithOperation(meta)
	if err != nil {
		fields = append(fields, Field{Key: "error", Value: err}, Field{Key: "error.type", Value: errorType(err)})
		logger.Error(ctx, "operation failed", fields...)
		return
	}
	logger.Info(ctx, "operation completed", fields...)
}

func metaOf(ic *interceptor.Context) OperationMeta {
	props := ic.Properties()
	return OperationMeta{
		Service:    interceptor.GetOr(props, interceptor.ServiceNameKey, ""),
		Operation:  interceptor.GetOr(props, interceptor.OperationNameKey, ""),
		AuthScheme: interceptor.GetOr(props, interceptor.AuthSchemeKey, ""),
	}
}

var _ interceptor.Interceptor = (*Telemetry)(nil)
