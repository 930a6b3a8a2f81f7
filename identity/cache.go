package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// CacheConfig configures the identity cache.
type CacheConfig struct {
	// BufferTime is how long before expiry the cached identity is refreshed.
	// Default: 10 seconds
	BufferTime time.Duration

	// BufferJitter returns a fraction in [0, 1] by which BufferTime is
	// shortened for each loaded identity, so that clients sharing a
	// credential source do not refresh in lockstep.
	// Default: none
	BufferJitter func() float64

	// LoadTimeout bounds every provider call.
	// Default: 5 seconds
	LoadTimeout time.Duration

	// DefaultExpiration is how long an identity the provider returns without
	// an expiry stays cached.
	// Default: 15 minutes
	DefaultExpiration time.Duration

	// DisableRefreshAhead makes refreshes inside the buffer window
	// synchronous. A failed synchronous refresh still serves the cached
	// identity until it expires.
	DisableRefreshAhead bool

	// Now returns the current time.
	// Default: time.Now
	Now func() time.Time
}

const refreshKey = "refresh"

// Cache caches the identity of a provider.
//
// At most one provider call is in flight at a time; concurrent callers that
// need a fresh identity wait for it and share its result. Inside the buffer
// window before expiry the cached identity keeps being served while a single
// background refresh runs. A failed refresh is logged and the cached
// identity is served until it expires, after which callers get the
// provider's error.
type Cache struct {
	provider Resolver
	config   CacheConfig

	mu        sync.RWMutex
	current   *Identity
	expiresAt time.Time
	refreshAt time.Time

	sfGroup    singleflight.Group
	refreshing atomic.Bool
}

// NewCache creates a cache in front of provider.
func NewCache(provider Resolver, config CacheConfig) *Cache {
	// Apply defaults
	if config.BufferTime <= 0 {
		config.BufferTime = 10 * time.Second
	}
	if config.LoadTimeout <= 0 {
		config.LoadTimeout = 5 * time.Second
	}
	if config.DefaultExpiration <= 0 {
		config.DefaultExpiration = 15 * time.Minute
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return &Cache{provider: provider, config: config}
}

// Config returns the cache configuration.
func (c *Cache) Config() CacheConfig {
	return c.config
}

// ResolveIdentity returns the cached identity, loading it when missing or
// expired.
func (c *Cache) ResolveIdentity(ctx context.Context) (*Identity, error) {
	now := c.config.Now()

	c.mu.RLock()
	id, expiresAt, refreshAt := c.current, c.expiresAt, c.refreshAt
	c.mu.RUnlock()

	if id == nil || !now.Before(expiresAt) {
		return c.load(ctx)
	}
	if now.Before(refreshAt) {
		return id, nil
	}

	if !c.config.DisableRefreshAhead {
		c.refreshAhead(ctx)
		return id, nil
	}

	fresh, err := c.load(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Time("expires_at", expiresAt).
			Msg("identity refresh failed; serving cached identity")
		return id, nil
	}
	return fresh, nil
}

// Invalidate drops the cached identity so the next call loads a new one.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = nil
	c.expiresAt = time.Time{}
	c.refreshAt = time.Time{}
}

// load waits for the in-flight refresh, starting one if needed. Each caller
// stops waiting when its own context is done; the refresh itself continues
// for the others.
func (c *Cache) load(ctx context.Context) (*Identity, error) {
	ch := c.sfGroup.DoChan(refreshKey, func() (any, error) {
		return c.refresh(ctx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*Identity), nil
	}
}

func (c *Cache) refreshAhead(ctx context.Context) {
	if !c.refreshing.CompareAndSwap(false, true) {
		return
	}
	log := zerolog.Ctx(ctx)
	go func() {
		defer c.refreshing.Store(false)
		_, err, _ := c.sfGroup.Do(refreshKey, func() (any, error) {
			return c.refresh(ctx)
		})
		if err != nil {
			log.Warn().Err(err).Msg("background identity refresh failed; serving cached identity")
		}
	}()
}

func (c *Cache) refresh(ctx context.Context) (*Identity, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.config.LoadTimeout)
	defer cancel()

	start := c.config.Now()
	id, err := c.provider.ResolveIdentity(ctx)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s: %w", ErrLoadTimeout, c.config.LoadTimeout, err)
		}
		return nil, err
	}
	if id == nil {
		return nil, ErrNoIdentity
	}

	now := c.config.Now()
	expiresAt, ok := id.Expiration()
	if !ok {
		expiresAt = now.Add(c.config.DefaultExpiration)
	}
	buffer := c.config.BufferTime
	if c.config.BufferJitter != nil {
		jitter := min(max(c.config.BufferJitter(), 0), 1)
		buffer -= time.Duration(float64(buffer) * jitter)
	}

	c.mu.Lock()
	c.current = id
	c.expiresAt = expiresAt
	c.refreshAt = expiresAt.Add(-buffer)
	c.mu.Unlock()

	zerolog.Ctx(ctx).Debug().Dur("took", now.Sub(start)).Time("expires_at", expiresAt).
		Msg("identity cache loaded a new identity")
	return id, nil
}
