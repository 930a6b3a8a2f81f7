package retry

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/jonwraymond/sdkruntime/interceptor"
	"github.com/jonwraymond/sdkruntime/sdkerr"
)

// Errors returned by deserializers may implement these interfaces to give
// classifiers protocol-level hints.
type (
	// KindProvider reports the retry category of a modeled error.
	KindProvider interface {
		RetryErrorKind() ErrorKind
	}

	// CodeProvider reports the modeled error code.
	CodeProvider interface {
		ErrorCode() string
	}

	// RetryAfterProvider reports an explicit server-specified retry delay.
	RetryAfterProvider interface {
		RetryAfter() (time.Duration, bool)
	}
)

// ThrottlingCodes are modeled error codes that indicate throttling.
var ThrottlingCodes = []string{
	"Throttling",
	"ThrottlingException",
	"ThrottledException",
	"RequestThrottledException",
	"TooManyRequestsException",
	"ProvisionedThroughputExceededException",
	"TransactionInProgressException",
	"RequestLimitExceeded",
	"BandwidthLimitExceeded",
	"LimitExceededException",
	"RequestThrottled",
	"SlowDown",
	"PriorRequestNotComplete",
	"EC2ThrottledException",
}

// TransientCodes are modeled error codes that indicate a transient failure.
var TransientCodes = []string{
	"RequestTimeout",
	"RequestTimeoutException",
	"InternalError",
}

// HTTPStatusClassifier classifies failed attempts by response status code.
type HTTPStatusClassifier struct {
	codes map[int]ErrorKind
}

// NewHTTPStatusClassifier retries 500, 502, 503 and 504 as transient
// errors and 429 as throttling. A Retry-After header in seconds becomes an
// explicit delay.
func NewHTTPStatusClassifier() *HTTPStatusClassifier {
	return &HTTPStatusClassifier{codes: map[int]ErrorKind{
		http.StatusInternalServerError: TransientError,
		http.StatusBadGateway:          TransientError,
		http.StatusServiceUnavailable:  TransientError,
		http.StatusGatewayTimeout:      TransientError,
		http.StatusTooManyRequests:     ThrottlingError,
	}}
}

func (c *HTTPStatusClassifier) Name() string { return "http_status_code" }

func (c *HTTPStatusClassifier) Priority() Priority { return PriorityHTTPStatus }

func (c *HTTPStatusClassifier) Classify(ic *interceptor.Context) Action {
	resp := ic.Response()
	if !ic.Failed() || resp == nil {
		return NoAction
	}
	kind, ok := c.codes[resp.StatusCode]
	if !ok {
		return NoAction
	}
	if after, ok := parseRetryAfter(resp.Header.Get("Retry-After")); ok {
		return RetryableAfter(kind, after)
	}
	return Retryable(kind)
}

func parseRetryAfter(v string) (time.Duration, bool) {
	if v == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

// ModeledClassifier classifies modeled service errors using the hints they
// carry.
type ModeledClassifier struct{}

func (ModeledClassifier) Name() string { return "modeled_as_retryable" }

func (ModeledClassifier) Priority() Priority { return PriorityModeled }

func (ModeledClassifier) Classify(ic *interceptor.Context) Action {
	err := ic.Err()
	if err == nil {
		return NoAction
	}

	var (
		kind ErrorKind
		kp   KindProvider
		cp   CodeProvider
		rp   RetryAfterProvider
	)
	if errors.As(err, &kp) {
		kind = kp.RetryErrorKind()
	} else if errors.As(err, &cp) {
		kind = kindFromCode(cp.ErrorCode())
	}
	if kind == 0 {
		return NoAction
	}

	if errors.As(err, &rp) {
		if after, ok := rp.RetryAfter(); ok {
			return RetryableAfter(kind, after)
		}
	}
	return Retryable(kind)
}

func kindFromCode(code string) ErrorKind {
	for _, c := range ThrottlingCodes {
		if c == code {
			return ThrottlingError
		}
	}
	for _, c := range TransientCodes {
		if c == code {
			return TransientError
		}
	}
	return 0
}

// TransientClassifier classifies transport failures, attempt timeouts and
// malformed responses as transient. Failures that happened before the
// request was sent, and calls the connector refused, are never retried.
type TransientClassifier struct{}

func (TransientClassifier) Name() string { return "transient_error" }

func (TransientClassifier) Priority() Priority { return PriorityTransient }

func (TransientClassifier) Classify(ic *interceptor.Context) Action {
	err := ic.Err()
	if err == nil {
		return NoAction
	}

	var ce *sdkerr.ConnectorError
	if errors.As(err, &ce) {
		switch {
		case ce.Kind == sdkerr.ConnectorUser, ce.IsRejected():
			return Forbidden()
		case errors.Is(err, context.Canceled):
			return NoAction
		}
		return Retryable(TransientError)
	}

	kind, ok := sdkerr.KindOf(err)
	if !ok {
		return NoAction
	}
	switch kind {
	case sdkerr.KindDispatch:
		if errors.Is(err, context.Canceled) {
			return NoAction
		}
		return Retryable(TransientError)
	case sdkerr.KindTimeout, sdkerr.KindResponse:
		return Retryable(TransientError)
	case sdkerr.KindConstruction:
		return Forbidden()
	}
	return NoAction
}

var (
	_ Classifier = (*HTTPStatusClassifier)(nil)
	_ Classifier = ModeledClassifier{}
	_ Classifier = TransientClassifier{}
)
