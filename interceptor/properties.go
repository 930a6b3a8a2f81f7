package interceptor

import (
	"sync"
	"time"
)

// Key is a typed key into a Properties bag. Keys compare by identity, so two
// keys created with the same name are distinct.
type Key[T any] struct {
	name string
}

// NewKey creates a key. The name is used only for diagnostics.
func NewKey[T any](name string) *Key[T] {
	return &Key[T]{name: name}
}

func (k *Key[T]) String() string {
	return k.name
}

// Well-known keys set by the orchestrator.
var (
	// AttemptsKey holds the 1-based number of the current attempt.
	AttemptsKey = NewKey[int]("request_attempts")

	// OperationNameKey holds the operation name.
	OperationNameKey = NewKey[string]("operation_name")

	// ServiceNameKey holds the service name.
	ServiceNameKey = NewKey[string]("service_name")

	// AuthSchemeKey holds the id of the auth scheme selected for the operation.
	AuthSchemeKey = NewKey[string]("auth_scheme_id")

	// EndpointURLKey holds the URL of the endpoint used by the latest attempt.
	EndpointURLKey = NewKey[string]("endpoint_url")

	// ClockSkewKey holds the estimated offset between the server clock and
	// the local clock.
	ClockSkewKey = NewKey[time.Duration]("clock_skew")
)

// Properties is a concurrency-safe, typed side channel carried by a Context
// for cross-cutting data such as attempt counts and timing.
type Properties struct {
	mu     sync.RWMutex
	values map[any]any
}

// NewProperties creates an empty bag.
func NewProperties() *Properties {
	return &Properties{values: make(map[any]any)}
}

// Len returns the number of stored values.
func (p *Properties) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.values)
}

// Get returns the value stored under k.
func Get[T any](p *Properties, k *Key[T]) (T, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	v, ok := p.values[k]
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// GetOr returns the value stored under k, or def when absent.
func GetOr[T any](p *Properties, k *Key[T], def T) T {
	if v, ok := Get(p, k); ok {
		return v
	}
	return def
}

// Set stores v under k, replacing any previous value.
func Set[T any](p *Properties, k *Key[T], v T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[k] = v
}

// Delete removes the value stored under k.
func Delete[T any](p *Properties, k *Key[T]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.values, k)
}
