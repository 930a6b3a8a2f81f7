package observe

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// zerologLogger writes one JSON object per entry through zerolog.
type zerologLogger struct {
	zl zerolog.Logger
}

// NewLogger creates a structured logger writing to stderr.
// Unknown or empty levels fall back to info.
func NewLogger(level string) Logger {
	return NewLoggerWithWriter(level, os.Stderr)
}

// NewLoggerWithWriter creates a structured logger with a custom writer.
func NewLoggerWithWriter(level string, w io.Writer) Logger {
	return newZerologLogger(level, w, "")
}

func newZerologLogger(level string, w io.Writer, service string) *zerologLogger {
	zc := zerolog.New(w).Level(parseLevel(level)).With().Timestamp()
	if service != "" {
		zc = zc.Str("service.name", service)
	}
	return &zerologLogger{zl: zc.Logger()}
}

func parseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// WithOperation returns a logger that tags every entry with the operation.
func (l *zerologLogger) WithOperation(meta OperationMeta) Logger {
	zc := l.zl.With().
		Str("sdk.operation", meta.ID()).
		Str("rpc.method", meta.Operation)
	if meta.Service != "" {
		zc = zc.Str("rpc.service", meta.Service)
	}
	if meta.AuthScheme != "" {
		zc = zc.Str("sdk.auth_scheme", meta.AuthScheme)
	}
	return &zerologLogger{zl: zc.Logger()}
}

func (l *zerologLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.zl.Info().Ctx(ctx).EmbedObject(fieldSet(fields)).Msg(msg)
}

func (l *zerologLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.zl.Warn().Ctx(ctx).EmbedObject(fieldSet(fields)).Msg(msg)
}

func (l *zerologLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.zl.Error().Ctx(ctx).EmbedObject(fieldSet(fields)).Msg(msg)
}

func (l *zerologLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.zl.Debug().Ctx(ctx).EmbedObject(fieldSet(fields)).Msg(msg)
}

// fieldSet writes Fields onto a zerolog event, redacting secret-bearing keys.
type fieldSet []Field

func (fs fieldSet) MarshalZerologObject(e *zerolog.Event) {
	for _, f := range fs {
		if isRedactedField(f.Key) {
			e.Str(f.Key, "[REDACTED]")
			continue
		}
		switch v := f.Value.(type) {
		case error:
			e.AnErr(f.Key, v)
		case string:
			e.Str(f.Key, v)
		case int:
			e.Int(f.Key, v)
		case bool:
			e.Bool(f.Key, v)
		case time.Duration:
			e.Dur(f.Key, v)
		default:
			e.Interface(f.Key, v)
		}
	}
}

func isRedactedField(key string) bool {
	for _, k := range RedactedFields {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

var (
	_ Logger                     = (*zerologLogger)(nil)
	_ Logger                     = (*noopLogger)(nil)
	_ zerolog.LogObjectMarshaler = fieldSet(nil)
)
