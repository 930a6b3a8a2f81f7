package interceptor

import (
	"net/http"
)

// Phase is the stage of an operation that owns the Context.
type Phase int

const (
	PhaseBeforeSerialization Phase = iota
	PhaseSerialization
	PhaseBeforeTransmit
	PhaseTransmit
	PhaseBeforeDeserialization
	PhaseDeserialization
	PhaseAfterDeserialization
)

func (p Phase) String() string {
	switch p {
	case PhaseBeforeSerialization:
		return "before_serialization"
	case PhaseSerialization:
		return "serialization"
	case PhaseBeforeTransmit:
		return "before_transmit"
	case PhaseTransmit:
		return "transmit"
	case PhaseBeforeDeserialization:
		return "before_deserialization"
	case PhaseDeserialization:
		return "deserialization"
	case PhaseAfterDeserialization:
		return "after_deserialization"
	default:
		return "unknown"
	}
}

// Context is the mutable envelope for one operation invocation. It carries
// the input, the in-flight request, the response once available, the
// output or error, and a Properties bag.
//
// Contract:
// - Ownership: the orchestrator owns the Context for the lifetime of an
// operation. Interceptors may only use it for the duration of the hook call
// they receive it in, and Read hooks must not mutate it.
// - Concurrency: the Context itself is not synchronized; Properties is.
type Context struct {
	input    any
	request  *http.Request
	response *http.Response
	output   any
	err      error
	phase    Phase
	props    *Properties
}

// NewContext creates a Context for an operation with the given input.
func NewContext(input any) *Context {
	return &Context{
		input: input,
		phase: PhaseBeforeSerialization,
		props: NewProperties(),
	}
}

// Phase returns the current phase.
func (c *Context) Phase() Phase { return c.phase }

// EnterPhase advances the context to p.
func (c *Context) EnterPhase(p Phase) { c.phase = p }

// Properties returns the operation-scoped property bag.
func (c *Context) Properties() *Properties { return c.props }

// Input returns the operation input.
func (c *Context) Input() any { return c.input }

// SetInput replaces the operation input. Only meaningful before
// serialization.
func (c *Context) SetInput(input any) { c.input = input }

// Request returns the in-flight request, or nil before serialization.
func (c *Context) Request() *http.Request { return c.request }

// SetRequest replaces the in-flight request.
func (c *Context) SetRequest(req *http.Request) { c.request = req }

// Response returns the latest response, or nil before transmit completes.
func (c *Context) Response() *http.Response { return c.response }

// SetResponse replaces the latest response.
func (c *Context) SetResponse(resp *http.Response) { c.response = resp }

// Output returns the deserialized output, if any.
func (c *Context) Output() any { return c.output }

// Err returns the error recorded for the current attempt or operation.
func (c *Context) Err() error { return c.err }

// SetOutput records a successful output and clears any error.
func (c *Context) SetOutput(out any) {
	c.output = out
	c.err = nil
}

// SetError records err. A nil err leaves the context unchanged.
func (c *Context) SetError(err error) {
	if err == nil {
		return
	}
	c.err = err
}

// ReplaceError records err unconditionally, allowing interceptors in
// Modify hooks to clear or rewrite an error.
func (c *Context) ReplaceError(err error) { c.err = err }

// Failed reports whether an error is recorded.
func (c *Context) Failed() bool { return c.err != nil }

// ResetAttempt clears per-attempt state before a new attempt begins.
func (c *Context) ResetAttempt() {
	c.response = nil
	c.output = nil
	c.err = nil
}

// Attempts returns the current attempt number, or 0 before the first attempt.
func (c *Context) Attempts() int {
	return GetOr(c.props, AttemptsKey, 0)
}
