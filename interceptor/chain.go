package interceptor

import (
	"context"
	"slices"

	"github.com/rs/zerolog"
)

// Chain is an ordered, immutable list of interceptors.
type Chain struct {
	interceptors []Interceptor
}

// NewChain creates a chain. Nil interceptors are skipped.
func NewChain(interceptors ...Interceptor) *Chain {
	c := &Chain{interceptors: make([]Interceptor, 0, len(interceptors))}
	for _, i := range interceptors {
		if i != nil {
			c.interceptors = append(c.interceptors, i)
		}
	}
	return c
}

// With returns a new chain with extra interceptors appended after the
// existing ones.
func (c *Chain) With(extra ...Interceptor) *Chain {
	if c == nil {
		return NewChain(extra...)
	}
	return NewChain(append(slices.Clone(c.interceptors), extra...)...)
}

// Len returns the number of interceptors.
func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.interceptors)
}

// Names returns interceptor names in registration order.
func (c *Chain) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, len(c.interceptors))
	for i, in := range c.interceptors {
		names[i] = in.Name()
	}
	return names
}

// Run invokes hook on every interceptor in registration order. All
// interceptors run even if one fails. When several fail, the last error is
// returned and earlier ones are logged at debug level.
func (c *Chain) Run(ctx context.Context, hook Hook, ic *Context) error {
	if c == nil {
		return nil
	}

	var last *Error
	for _, in := range c.interceptors {
		err := in.Intercept(ctx, hook, ic)
		if err == nil {
			continue
		}
		if last != nil {
			zerolog.Ctx(ctx).Debug().
				Err(last.Err).
				Str("hook", hook.String()).
				Str("interceptor", last.Interceptor).
				Msg("interceptor error superseded by a later interceptor")
		}
		last = &Error{Hook: hook, Interceptor: in.Name(), Err: err}
	}

	if last == nil {
		return nil
	}
	return last
}
