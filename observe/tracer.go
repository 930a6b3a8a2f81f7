package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/jonwraymond/sdkruntime/sdkerr"
)

// OperationMeta identifies one invoked API operation for telemetry.
type OperationMeta struct {
	Service    string // Service name (may be empty)
	Operation  string // Operation name
	AuthScheme string // Selected auth scheme id (optional)
}

// ID returns "service.operation", or the operation alone when the service is
// unknown.
func (m OperationMeta) ID() string {
	op := m.Operation
	if op == "" {
		op = "unknown"
	}
	if m.Service != "" {
		return m.Service + "." + op
	}
	return op
}

// SpanName returns the deterministic span name for this operation.
// Format: sdk.operation.<service>.<operation> or sdk.operation.<operation>
func (m OperationMeta) SpanName() string {
	return "sdk.operation." + m.ID()
}

func (m OperationMeta) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("sdk.operation", m.ID()),
		attribute.String("rpc.method", m.Operation),
	}
	if m.Service != "" {
		attrs = append(attrs, attribute.String("rpc.service", m.Service))
	}
	return attrs
}

// Tracer wraps OpenTelemetry tracing with operation-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a client span for one operation invocation.
	StartSpan(ctx context.Context, meta OperationMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording the attempt count and any error.
	EndSpan(span trace.Span, attempts int, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, meta OperationMeta) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(meta.attributes()...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

func (t *tracerImpl) EndSpan(span trace.Span, attempts int, err error) {
	span.SetAttributes(attribute.Int("sdk.attempts", attempts))
	if err != nil {
		span.SetAttributes(attribute.String("error.type", errorType(err)))
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// errorType maps err to a low-cardinality label.
func errorType(err error) string {
	if kind, ok := sdkerr.KindOf(err); ok {
		return kind.String()
	}
	return "other"
}

type noopTracer struct {
	noop trace.Tracer
}

func newNoopTracer() Tracer {
	return &noopTracer{noop: tracenoop.NewTracerProvider().Tracer("noop")}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta OperationMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, _ int, _ error) {
	span.End()
}
