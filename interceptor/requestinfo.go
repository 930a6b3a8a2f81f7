package interceptor

import (
	"context"
	"strconv"

	"github.com/google/uuid"
)

// Default header names written by RequestInfo.
const (
	InvocationIDHeader = "amz-sdk-invocation-id"
	RequestInfoHeader  = "amz-sdk-request"
)

// InvocationIDKey holds the id shared by every attempt of an operation.
var InvocationIDKey = NewKey[string]("invocation_id")

// RequestInfoConfig configures RequestInfo.
type RequestInfoConfig struct {
	// MaxAttempts is reported as max= in the request info header. Zero
	// omits it.
	// Default: 0
	MaxAttempts int

	// InvocationIDHeader names the invocation id header.
	// Default: "amz-sdk-invocation-id"
	InvocationIDHeader string

	// RequestInfoHeader names the attempt header.
	// Default: "amz-sdk-request"
	RequestInfoHeader string

	// NewID generates invocation ids.
	// Default: uuid.NewString
	NewID func() string
}

// RequestInfo stamps each attempt with the operation's invocation id and
// an "attempt=N; max=M" header, letting servers recognise retries of the
// same call.
type RequestInfo struct {
	config RequestInfoConfig
}

// NewRequestInfo creates a RequestInfo interceptor.
func NewRequestInfo(cfg RequestInfoConfig) *RequestInfo {
	// Apply defaults
	if cfg.InvocationIDHeader == "" {
		cfg.InvocationIDHeader = InvocationIDHeader
	}
	if cfg.RequestInfoHeader == "" {
		cfg.RequestInfoHeader = RequestInfoHeader
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	return &RequestInfo{config: cfg}
}

func (r *RequestInfo) Name() string { return "request_info" }

func (r *RequestInfo) Intercept(_ context.Context, hook Hook, ic *Context) error {
	switch hook {
	case ModifyBeforeRetryLoop:
		if _, ok := Get(ic.Properties(), InvocationIDKey); !ok {
			Set(ic.Properties(), InvocationIDKey, r.config.NewID())
		}
	case ModifyBeforeTransmit:
		req := ic.Request()
		if req == nil {
			return nil
		}
		if id, ok := Get(ic.Properties(), InvocationIDKey); ok && id != "" {
			req.Header.Set(r.config.InvocationIDHeader, id)
		}
		req.Header.Set(r.config.RequestInfoHeader, r.value(ic.Attempts()))
	}
	return nil
}

func (r *RequestInfo) value(attempt int) string {
	v := "attempt=" + strconv.Itoa(attempt)
	if r.config.MaxAttempts > 0 {
		v += "; max=" + strconv.Itoa(r.config.MaxAttempts)
	}
	return v
}

var _ Interceptor = (*RequestInfo)(nil)
