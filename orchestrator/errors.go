package orchestrator

import "errors"

// Sentinel errors for the orchestrator.
var (
	// ErrInvalidComponents is returned by NewComponents for missing or
	// invalid collaborators.
	ErrInvalidComponents = errors.New("orchestrator: invalid runtime components")

	// ErrInvalidOperation is returned for an operation without a serializer
	// or deserializer.
	ErrInvalidOperation = errors.New("orchestrator: invalid operation")

	// ErrInputType is returned when an interceptor replaced the input with a
	// value of the wrong type.
	ErrInputType = errors.New("orchestrator: input has the wrong type")

	// ErrNoRequest is returned when serialization produced no request.
	ErrNoRequest = errors.New("orchestrator: serializer returned no request")

	// ErrOperationTimeout marks an operation that ran out of time.
	ErrOperationTimeout = errors.New("orchestrator: operation timeout elapsed")

	// ErrAttemptRejected is returned when the retry strategy refuses the
	// initial attempt.
	ErrAttemptRejected = errors.New("orchestrator: retry strategy refused the initial attempt")
)
