package config

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog"

	"github.com/jonwraymond/sdkruntime/connector"
	"github.com/jonwraymond/sdkruntime/endpoint"
	"github.com/jonwraymond/sdkruntime/identity"
	"github.com/jonwraymond/sdkruntime/interceptor"
	"github.com/jonwraymond/sdkruntime/observe"
	"github.com/jonwraymond/sdkruntime/orchestrator"
	"github.com/jonwraymond/sdkruntime/ratelimit"
	"github.com/jonwraymond/sdkruntime/retry"
)

// Strategy builds the retry strategy for the configured mode.
func (c RetryConfig) Strategy() retry.Strategy {
	if c.Mode == RetryModeNever {
		return retry.Never{}
	}

	quota := ratelimit.Unlimited()
	if !c.DisableQuota {
		quota = ratelimit.NewTokenBucket(ratelimit.TokenBucketConfig{
			Capacity:   c.QuotaCapacity,
			RefillRate: c.QuotaRefillRate,
		})
	}

	sc := retry.StandardConfig{
		MaxAttempts:    c.MaxAttempts,
		InitialBackoff: c.InitialBackoff,
		MaxBackoff:     c.MaxBackoff,
		Quota:          quota,
	}
	if c.Mode == RetryModeAdaptive {
		sc.RateLimiter = ratelimit.NewClientRateLimiter(ratelimit.ClientRateLimiterConfig{MaxDelay: c.AdaptiveMaxDelay})
	}
	return retry.NewStandard(sc)
}

// Attempts returns the maximum number of attempts the strategy makes.
func (c RetryConfig) Attempts() int {
	if c.Mode == RetryModeNever {
		return 1
	}
	return c.MaxAttempts
}

// IdentityCache wraps provider in a cache tuned by c.
func (c IdentityConfig) IdentityCache(provider identity.Resolver) *identity.Cache {
	ic := identity.CacheConfig{
		BufferTime:          c.Buffer,
		LoadTimeout:         c.LoadTimeout,
		DefaultExpiration:   c.DefaultExpiration,
		DisableRefreshAhead: c.DisableRefreshAhead,
	}
	if j := c.BufferJitter; j > 0 {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		ic.BufferJitter = func() float64 { return rand.Float64() * j }
	}
	return identity.NewCache(provider, ic)
}

// Resolver returns the endpoint resolver: a static resolver when URL is
// set, otherwise fallback. Results are cached unless CacheSize is zero.
func (c EndpointConfig) Resolver(fallback endpoint.Resolver) (endpoint.Resolver, error) {
	if c.URL != "" {
		static, err := endpoint.Static(c.URL)
		if err != nil {
			return nil, fmt.Errorf("%w: SDK_ENDPOINT_URL: %w", ErrInvalidConfig, err)
		}
		// A pinned URL resolves to the same endpoint for every params.
		return static, nil
	}
	if fallback == nil {
		return nil, fmt.Errorf("%w: no endpoint resolver and SDK_ENDPOINT_URL is unset", ErrInvalidConfig)
	}
	if c.CacheSize == 0 {
		return fallback, nil
	}
	return endpoint.NewCached(fallback, endpoint.CachedConfig{MaximumSize: c.CacheSize, TTL: c.CacheTTL}), nil
}

// Params returns the client-wide endpoint params.
func (c EndpointConfig) Params() endpoint.Params {
	return endpoint.Params{Region: c.Region, UseFIPS: c.UseFIPS}
}

// Connector builds the HTTP connector, wrapped in a bulkhead and a circuit
// breaker when configured. The bulkhead is outermost.
func (c HTTPConfig) Connector(logger *zerolog.Logger) connector.Connector {
	var conn connector.Connector = connector.NewHTTP(connector.HTTPConfig{
		Timeout:         c.Timeout,
		DisableTracing:  c.DisableTracing,
		FollowRedirects: c.FollowRedirects,
	})
	if c.BreakerEnabled {
		conn = connector.NewBreaker(conn, connector.BreakerConfig{
			Threshold:         c.BreakerThreshold,
			OpenTimeout:       c.BreakerOpenTimeout,
			TripOnServerError: c.BreakerTripOnServerError,
			Logger:            logger,
		})
	}
	if c.MaxConcurrent > 0 {
		conn = connector.NewBulkhead(conn, connector.BulkheadConfig{
			MaxConcurrent: c.MaxConcurrent,
			MaxWait:       c.MaxWait,
		})
	}
	return conn
}

// ObserverConfig converts c for observe.NewObserver.
func (c ObserveConfig) ObserverConfig() observe.Config {
	return observe.Config{
		ServiceName: c.ServiceName,
		Version:     c.Version,
		Tracing: observe.TracingConfig{
			Enabled:   c.Enabled,
			Exporter:  c.TracingExporter,
			SamplePct: c.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  c.Enabled,
			Exporter: c.MetricsExporter,
		},
		Logging: observe.LoggingConfig{
			Enabled:    c.Enabled,
			Level:      c.LogLevel,
			BridgeOTel: c.BridgeOTelLogs,
		},
	}
}

// Runtime is a configured set of components plus the observer that must be
// shut down with them.
type Runtime struct {
	Components *orchestrator.Components
	Observer   observe.Observer
}

// Shutdown flushes telemetry.
func (r *Runtime) Shutdown(ctx context.Context) error {
	if r.Observer == nil {
		return nil
	}
	return r.Observer.Shutdown(ctx)
}

// Build assembles runtime components from c. fallback resolves endpoints
// when SDK_ENDPOINT_URL is unset. opts are applied last and override
// anything c configures.
func (c Config) Build(ctx context.Context, fallback endpoint.Resolver, opts ...orchestrator.Option) (*Runtime, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	resolver, err := c.Endpoint.Resolver(fallback)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{}
	base := []orchestrator.Option{
		orchestrator.WithEndpointResolver(resolver),
		orchestrator.WithEndpointParams(c.Endpoint.Params()),
		orchestrator.WithRetryStrategy(c.Retry.Strategy()),
		orchestrator.WithConnector(c.HTTP.Connector(zerolog.Ctx(ctx))),
		orchestrator.WithOperationTimeout(c.Timeouts.Operation),
		orchestrator.WithAttemptTimeout(c.Timeouts.Attempt),
	}
	if !c.HTTP.DisableRequestInfo {
		base = append(base, orchestrator.WithInterceptors(
			interceptor.NewRequestInfo(interceptor.RequestInfoConfig{MaxAttempts: c.Retry.Attempts()}),
		))
	}

	if c.Observe.Enabled {
		obs, err := observe.NewObserver(ctx, c.Observe.ObserverConfig())
		if err != nil {
			return nil, err
		}
		telemetry, err := observe.TelemetryFromObserver(obs)
		if err != nil {
			_ = obs.Shutdown(ctx)
			return nil, err
		}
		rt.Observer = obs
		base = append(base, orchestrator.WithInterceptors(telemetry))
	}

	components, err := orchestrator.NewComponents(append(base, opts...)...)
	if err != nil {
		_ = rt.Shutdown(ctx)
		return nil, err
	}
	rt.Components = components
	return rt, nil
}
