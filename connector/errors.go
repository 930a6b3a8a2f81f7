package connector

import "errors"

// Sentinel errors for connectors. They arrive wrapped in an
// *sdkerr.ConnectorError.
var (
	// ErrInvalidRequest is returned for a request without an absolute URL.
	ErrInvalidRequest = errors.New("connector: request has no absolute URL")

	// ErrCircuitOpen is returned when the circuit breaker rejects a call.
	ErrCircuitOpen = errors.New("connector: circuit breaker is open")

	// ErrBulkheadFull is returned when no concurrency slot is available.
	ErrBulkheadFull = errors.New("connector: bulkhead at capacity")
)
