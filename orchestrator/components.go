package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/sdkruntime/auth"
	"github.com/jonwraymond/sdkruntime/connector"
	"github.com/jonwraymond/sdkruntime/endpoint"
	"github.com/jonwraymond/sdkruntime/identity"
	"github.com/jonwraymond/sdkruntime/interceptor"
	"github.com/jonwraymond/sdkruntime/retry"
)

// Components is the set of collaborators shared by every operation on a
// client. It is immutable once built; use With to derive a variant.
type Components struct {
	service string
	params  endpoint.Params

	authOptions auth.OptionResolver
	schemes     *auth.Schemes
	identities  auth.IdentityResolvers
	endpoints   endpoint.Resolver

	interceptors *interceptor.Chain
	strategy     retry.Strategy
	connector    connector.Connector

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	operationTimeout time.Duration
	attemptTimeout   time.Duration
}

// Option configures Components.
type Option func(*Components)

// WithService sets the service name used for endpoint and auth resolution.
func WithService(name string) Option {
	return func(c *Components) { c.service = name }
}

// WithEndpointParams sets the base endpoint parameters (region, FIPS,
// dual-stack, endpoint override). Service and Operation are filled per
// call.
func WithEndpointParams(p endpoint.Params) Option {
	return func(c *Components) { c.params = p }
}

// WithAuthOptions sets the auth option resolver.
// Default: a static list holding only no_auth
func WithAuthOptions(r auth.OptionResolver) Option {
	return func(c *Components) { c.authOptions = r }
}

// WithSchemes sets the auth scheme registry.
// Default: auth.DefaultSchemes()
func WithSchemes(s *auth.Schemes) Option {
	return func(c *Components) { c.schemes = s }
}

// WithIdentityResolver registers the identity resolver for a scheme. Wrap
// slow resolvers in an identity.Cache.
func WithIdentityResolver(id auth.SchemeID, r identity.Resolver) Option {
	return func(c *Components) {
		ids := make(auth.IdentityResolvers, len(c.identities)+1)
		for k, v := range c.identities {
			ids[k] = v
		}
		ids[id] = r
		c.identities = ids
	}
}

// WithEndpointResolver sets the endpoint resolver. Required.
func WithEndpointResolver(r endpoint.Resolver) Option {
	return func(c *Components) { c.endpoints = r }
}

// WithInterceptors appends client-wide interceptors.
func WithInterceptors(in ...interceptor.Interceptor) Option {
	return func(c *Components) { c.interceptors = c.interceptors.With(in...) }
}

// WithRetryStrategy sets the retry strategy.
// Default: retry.NewStandard(retry.StandardConfig{})
func WithRetryStrategy(s retry.Strategy) Option {
	return func(c *Components) { c.strategy = s }
}

// WithConnector sets the connector.
// Default: connector.NewHTTP(connector.HTTPConfig{})
func WithConnector(conn connector.Connector) Option {
	return func(c *Components) { c.connector = conn }
}

// WithClock sets the time source.
// Default: time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Components) { c.now = now }
}

// WithSleep sets the function used to wait between attempts. It must
// return early with ctx.Err() when ctx is done.
// Default: a timer-based sleep
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Components) { c.sleep = sleep }
}

// WithOperationTimeout bounds a whole operation including retries.
// Default: 0 (no limit)
func WithOperationTimeout(d time.Duration) Option {
	return func(c *Components) { c.operationTimeout = d }
}

// WithAttemptTimeout bounds each attempt.
// Default: 0 (no limit)
func WithAttemptTimeout(d time.Duration) Option {
	return func(c *Components) { c.attemptTimeout = d }
}

// NewComponents builds Components. An endpoint resolver is required.
func NewComponents(opts ...Option) (*Components, error) {
	c := &Components{interceptors: interceptor.NewChain()}
	return c.apply(opts)
}

// With returns a copy of c with opts applied.
func (c *Components) With(opts ...Option) (*Components, error) {
	cp := *c
	return cp.apply(opts)
}

func (c *Components) apply(opts []Option) (*Components, error) {
	for _, opt := range opts {
		opt(c)
	}

	// Apply defaults
	if c.authOptions == nil {
		c.authOptions = auth.StaticOptions(auth.NewOption(auth.SchemeNoAuth))
	}
	if c.schemes == nil {
		c.schemes = auth.DefaultSchemes()
	}
	if c.strategy == nil {
		c.strategy = retry.NewStandard(retry.StandardConfig{})
	}
	if c.connector == nil {
		c.connector = connector.NewHTTP(connector.HTTPConfig{})
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.sleep == nil {
		c.sleep = Sleep
	}

	if c.endpoints == nil {
		return nil, fmt.Errorf("%w: endpoint resolver is required", ErrInvalidComponents)
	}
	if c.operationTimeout < 0 || c.attemptTimeout < 0 {
		return nil, fmt.Errorf("%w: timeouts must not be negative", ErrInvalidComponents)
	}
	return c, nil
}

// Service returns the configured service name.
func (c *Components) Service() string { return c.service }

// Strategy returns the retry strategy.
func (c *Components) Strategy() retry.Strategy { return c.strategy }

// Connector returns the connector.
func (c *Components) Connector() connector.Connector { return c.connector }

// Interceptors returns the client-wide interceptor chain.
func (c *Components) Interceptors() *interceptor.Chain { return c.interceptors }

// IdentityResolver returns the identity resolver registered for a scheme.
func (c *Components) IdentityResolver(id auth.SchemeID) (identity.Resolver, bool) {
	r, ok := c.identities[id]
	return r, ok
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
