package observe

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"

	"github.com/jonwraymond/sdkruntime/interceptor"
	"github.com/jonwraymond/sdkruntime/sdkerr"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newInvocation(op string) *interceptor.Context {
	ic := interceptor.NewContext(nil)
	interceptor.Set(ic.Properties(), interceptor.ServiceNameKey, "queue")
	interceptor.Set(ic.Properties(), interceptor.OperationNameKey, op)
	return ic
}

func attempt(t *testing.T, tel *Telemetry, ic *interceptor.Context, n int, err error) {
	t.Helper()
	ic.ResetAttempt()
	interceptor.Set(ic.Properties(), interceptor.AttemptsKey, n)
	ic.SetError(err)
	require.NoError(t, tel.Intercept(context.Background(), interceptor.ReadAfterAttempt, ic))
}

func TestTelemetry_RetriedSuccess(t *testing.T) {
	tracer, sr := newRecordingTracer(t)
	metrics, reader := newRecordingMetrics(t)
	var buf bytes.Buffer
	tel := NewTelemetry(tracer, metrics, NewLoggerWithWriter("debug", &buf))
	clock := &fakeClock{t: time.Unix(0, 0)}
	tel.now = clock.now

	ctx := context.Background()
	ic := newInvocation("Send")
	require.NoError(t, tel.Intercept(ctx, interceptor.ReadBeforeExecution, ic))
	interceptor.Set(ic.Properties(), interceptor.AuthSchemeKey, "sigv4")

	attempt(t, tel, ic, 1, sdkerr.Dispatch(errors.New("reset")))
	attempt(t, tel, ic, 2, nil)
	clock.t = clock.t.Add(250 * time.Millisecond)
	require.NoError(t, tel.Intercept(ctx, interceptor.ReadAfterExecution, ic))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	s := spans[0]
	assert.Equal(t, "sdk.operation.queue.Send", s.Name())
	assert.Equal(t, codes.Ok, s.Status().Code)
	assert.Equal(t, int64(2), attrMap(s.Attributes())["sdk.attempts"].AsInt64())
	require.Len(t, s.Events(), 2)
	assert.Equal(t, "attempt", s.Events()[0].Name)

	rm := collect(t, reader)
	assert.Equal(t, int64(1), sumOf(t, rm, "sdk.operation.total"))
	assert.Equal(t, int64(0), sumOf(t, rm, "sdk.operation.errors"))
	assert.Equal(t, int64(2), sumOf(t, rm, "sdk.attempt.total"))

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "attempt failed", entries[0]["message"])
	assert.Equal(t, "operation completed", entries[1]["message"])
	assert.Equal(t, "sigv4", entries[1]["sdk.auth_scheme"])
	assert.EqualValues(t, 250, entries[1]["duration_ms"])

	_, ok := interceptor.Get(ic.Properties(), spanKey)
	assert.False(t, ok)
}

func TestTelemetry_Failure(t *testing.T) {
	tracer, sr := newRecordingTracer(t)
	metrics, reader := newRecordingMetrics(t)
	var buf bytes.Buffer
	tel := NewTelemetry(tracer, metrics, NewLoggerWithWriter("info", &buf))

	ctx := context.Background()
	ic := newInvocation("Send")
	require.NoError(t, tel.Intercept(ctx, interceptor.ReadBeforeExecution, ic))
	attempt(t, tel, ic, 1, sdkerr.Service(errors.New("throttled"), nil))
	require.NoError(t, tel.Intercept(ctx, interceptor.ReadAfterExecution, ic))

	assert.Equal(t, codes.Error, sr.Ended()[0].Status().Code)
	assert.Equal(t, int64(1), sumOf(t, collect(t, reader), "sdk.operation.errors"))

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "error", entries[0]["level"])
	assert.Equal(t, "service", entries[0]["error.type"])
}

func TestTelemetry_NeverFailsHooks(t *testing.T) {
	tel := NewTelemetry(nil, nil, nil)
	ic := newInvocation("Send")
	for _, h := range interceptor.Hooks() {
		assert.NoError(t, tel.Intercept(context.Background(), h, ic))
	}
	assert.Equal(t, "telemetry", tel.Name())
}

func TestTelemetry_FinishWithoutStart(t *testing.T) {
	metrics, reader := newRecordingMetrics(t)
	tel := NewTelemetry(nil, metrics, nil)

	ic := newInvocation("Send")
	require.NoError(t, tel.Intercept(context.Background(), interceptor.ReadAfterExecution, ic))
	assert.Equal(t, int64(1), sumOf(t, collect(t, reader), "sdk.operation.total"))
}

func TestTelemetryFromObserver(t *testing.T) {
	_, err := TelemetryFromObserver(nil)
	assert.ErrorIs(t, err, ErrNilObserver)

	obs, err := NewObserver(context.Background(), Config{ServiceName: "sdk"})
	require.NoError(t, err)
	tel, err := TelemetryFromObserver(obs)
	require.NoError(t, err)
	assert.NotNil(t, tel)
}
