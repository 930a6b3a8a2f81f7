package orchestrator

import (
	"context"
	"net/http"

	"github.com/jonwraymond/sdkruntime/endpoint"
	"github.com/jonwraymond/sdkruntime/interceptor"
)

// Serializer turns operation input into an unsigned request. The request
// URL may be relative; the resolved endpoint supplies scheme and host.
type Serializer[In any] interface {
	SerializeInput(ctx context.Context, input In) (*http.Request, error)
}

// SerializerFunc adapts a function to Serializer.
type SerializerFunc[In any] func(ctx context.Context, input In) (*http.Request, error)

// SerializeInput calls f.
func (f SerializerFunc[In]) SerializeInput(ctx context.Context, input In) (*http.Request, error) {
	return f(ctx, input)
}

// Deserializer turns a response with a buffered body into output, or into
// the modeled error for an error status.
type Deserializer[Out any] interface {
	DeserializeResponse(ctx context.Context, resp *http.Response) (Out, error)
}

// DeserializerFunc adapts a function to Deserializer.
type DeserializerFunc[Out any] func(ctx context.Context, resp *http.Response) (Out, error)

// DeserializeResponse calls f.
func (f DeserializerFunc[Out]) DeserializeResponse(ctx context.Context, resp *http.Response) (Out, error) {
	return f(ctx, resp)
}

// Operation describes one API operation.
type Operation[In, Out any] struct {
	// Name is the operation name, e.g. "GetItem".
	Name string

	// Service overrides the client's service name.
	Service string

	Serializer   Serializer[In]
	Deserializer Deserializer[Out]

	// Interceptors run after the client-wide interceptors.
	Interceptors []interceptor.Interceptor

	// EndpointParams adjusts endpoint parameters from the input.
	EndpointParams func(input In, params *endpoint.Params)
}

// StopPoint ends an invocation early.
type StopPoint int

const (
	// StopNone runs the operation to completion.
	StopNone StopPoint = iota

	// StopBeforeTransmit returns after the request is signed, without
	// sending it. Used for presigning.
	StopBeforeTransmit
)

func (s StopPoint) String() string {
	switch s {
	case StopNone:
		return "none"
	case StopBeforeTransmit:
		return "before_transmit"
	default:
		return "unknown"
	}
}
