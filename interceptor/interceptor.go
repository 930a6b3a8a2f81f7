package interceptor

import (
	"context"
	"slices"
)

// Interceptor observes or mutates an operation at lifecycle hooks.
//
// Contract:
// - Concurrency: one interceptor instance is shared by every operation on a
// client and must be safe for concurrent use.
// - Hooks: Intercept is called for every hook; implementations return nil
// for hooks they do not handle.
// - Errors: returning an error aborts the operation. Terminal hooks
// (ModifyBeforeAttemptCompletion onwards) still run after an abort.
type Interceptor interface {
	// Name identifies the interceptor in errors and logs.
	Name() string

	// Intercept runs the interceptor for one hook.
	Intercept(ctx context.Context, hook Hook, ic *Context) error
}

// Func adapts a function to a hook handler.
type Func func(ctx context.Context, hook Hook, ic *Context) error

type funcInterceptor struct {
	name string
	fn   Func
}

func (f *funcInterceptor) Name() string { return f.name }

func (f *funcInterceptor) Intercept(ctx context.Context, hook Hook, ic *Context) error {
	return f.fn(ctx, hook, ic)
}

// New creates an interceptor that calls fn for every hook.
func New(name string, fn Func) Interceptor {
	return &funcInterceptor{name: name, fn: fn}
}

// On creates an interceptor that calls fn only for the listed hooks.
func On(name string, fn func(ctx context.Context, ic *Context) error, hooks ...Hook) Interceptor {
	hooks = slices.Clone(hooks)
	return &funcInterceptor{
		name: name,
		fn: func(ctx context.Context, hook Hook, ic *Context) error {
			if !slices.Contains(hooks, hook) {
				return nil
			}
			return fn(ctx, ic)
		},
	}
}
