package sdkerr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies where in the request lifecycle an operation failed.
type Kind int

const (
	// KindConstruction means the attempt was never sent: configuration,
	// serialization, identity failures, or a connector refusing the call.
	KindConstruction Kind = iota
	// KindTimeout means an operation or attempt deadline elapsed.
	KindTimeout
	// KindDispatch means the connector failed to send the request or
	// receive a response.
	KindDispatch
	// KindResponse means a response arrived but could not be interpreted.
	KindResponse
	// KindService means the response decoded into a modeled service error.
	KindService
)

func (k Kind) String() string {
	switch k {
	case KindConstruction:
		return "construction"
	case KindTimeout:
		return "timeout"
	case KindDispatch:
		return "dispatch"
	case KindResponse:
		return "response"
	case KindService:
		return "service"
	default:
		return "unknown"
	}
}

// Error is the error returned to callers of an operation.
//
// It retains enough structure to tell whether the request left the client,
// how many attempts were made and what the last raw response was.
type Error struct {
	Kind      Kind
	Operation string
	Attempts  int

	// Response is the last raw response, if any. Its body has already been
	// consumed and replaced with a buffered copy.
	Response *http.Response

	Err error
}

func (e *Error) Error() string {
	op := e.Operation
	if op == "" {
		op = "operation"
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s failure after %d attempt(s)", op, e.Kind, e.Attempts)
	}
	return fmt.Sprintf("%s: %s failure after %d attempt(s): %v", op, e.Kind, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Sent reports whether the request may have reached the remote service on
// any attempt. Callers use this to reason about the side-effect safety of
// retrying. A construction failure on a retry still counts the earlier
// attempts, which were sent.
func (e *Error) Sent() bool {
	switch e.Kind {
	case KindConstruction:
		return e.Attempts > 1
	case KindTimeout:
		return e.Attempts > 0
	default:
		return true
	}
}

// StatusCode returns the HTTP status of the last response, or 0.
func (e *Error) StatusCode() int {
	if e.Response == nil {
		return 0
	}
	return e.Response.StatusCode
}

// New wraps err with the given kind. If err is already an *Error it is
// returned unchanged.
func New(kind Kind, err error) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	return &Error{Kind: kind, Err: err}
}

// Construction wraps err as a never-sent failure.
func Construction(err error) *Error { return New(KindConstruction, err) }

// Timeout wraps err as a timeout failure.
func Timeout(err error) *Error { return New(KindTimeout, err) }

// Dispatch wraps err as a transport failure.
func Dispatch(err error) *Error { return New(KindDispatch, err) }

// Response wraps err as a failure to interpret resp.
func Response(err error, resp *http.Response) *Error {
	e := New(KindResponse, err)
	e.Response = resp
	return e
}

// Service wraps a modeled service error decoded from resp.
func Service(err error, resp *http.Response) *Error {
	e := New(KindService, err)
	e.Response = resp
	return e
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return 0, false
}

// IsTimeout reports whether err represents a deadline being exceeded,
// either as a classified timeout or a raw context deadline.
func IsTimeout(err error) bool {
	if k, ok := KindOf(err); ok && k == KindTimeout {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
