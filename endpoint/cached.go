package endpoint

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonwraymond/sdkruntime/cache"
)

// CachedConfig configures a caching resolver.
type CachedConfig struct {
	// MaximumSize is the maximum number of cached endpoints.
	// Default: 100
	MaximumSize int

	// TTL bounds how long a resolved endpoint is reused.
	// Default: 0 (until evicted)
	TTL time.Duration

	// Cache overrides the backing store. When set, MaximumSize and TTL are
	// ignored.
	Cache cache.Cache[*Endpoint]

	// Keyer derives cache keys from params.
	// Default: cache.NewDefaultKeyer()
	Keyer cache.Keyer
}

// CachedResolver memoizes a resolver by params.
type CachedResolver struct {
	next  Resolver
	cache cache.Cache[*Endpoint]
	keyer cache.Keyer
}

// NewCached wraps next with an instrumented otter-backed cache.
func NewCached(next Resolver, config CachedConfig) *CachedResolver {
	// Apply defaults
	if config.MaximumSize <= 0 {
		config.MaximumSize = 100
	}
	if config.Keyer == nil {
		config.Keyer = cache.NewDefaultKeyer()
	}
	if config.Cache == nil {
		config.Cache = cache.NewInstrumented[*Endpoint](
			cache.NewMemory[*Endpoint](cache.MemoryConfig{MaximumSize: config.MaximumSize, TTL: config.TTL}),
			"endpoint",
		)
	}

	return &CachedResolver{next: next, cache: config.Cache, keyer: config.Keyer}
}

// ResolveEndpoint returns a cached endpoint or resolves and caches one.
// Failures are not cached.
func (r *CachedResolver) ResolveEndpoint(ctx context.Context, params Params) (*Endpoint, error) {
	key, err := r.keyer.Key("endpoint", params)
	if err != nil {
		return r.next.ResolveEndpoint(ctx, params)
	}
	if ep, ok := r.cache.Get(ctx, key); ok {
		return ep, nil
	}

	ep, err := r.next.ResolveEndpoint(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, key, ep); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("endpoint not cached")
	}
	return ep, nil
}
