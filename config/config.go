package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Retry modes.
const (
	RetryModeStandard = "standard"
	RetryModeAdaptive = "adaptive"
	RetryModeNever    = "never"
)

// Config is the environment-driven configuration of a client runtime.
type Config struct {
	Retry    RetryConfig
	Identity IdentityConfig
	Timeouts TimeoutConfig
	Endpoint EndpointConfig
	HTTP     HTTPConfig
	Observe  ObserveConfig
}

// RetryConfig selects and tunes the retry strategy.
type RetryConfig struct {
	Mode           string        `env:"SDK_RETRY_MODE, default=standard" validate:"oneof=standard adaptive never"`
	MaxAttempts    int           `env:"SDK_MAX_ATTEMPTS, default=3" validate:"min=1,max=20"`
	InitialBackoff time.Duration `env:"SDK_INITIAL_BACKOFF, default=1s" validate:"gt=0"`
	MaxBackoff     time.Duration `env:"SDK_MAX_BACKOFF, default=20s" validate:"gtefield=InitialBackoff"`

	// QuotaCapacity sizes the retry token bucket shared by the client.
	QuotaCapacity   float64 `env:"SDK_RETRY_QUOTA_CAPACITY, default=500" validate:"gt=0"`
	QuotaRefillRate float64 `env:"SDK_RETRY_QUOTA_REFILL_RATE, default=0" validate:"gte=0"`
	// DisableQuota replaces the bucket with one that never runs out.
	DisableQuota bool `env:"SDK_RETRY_QUOTA_DISABLED, default=false"`

	// AdaptiveMaxDelay bounds how long adaptive mode waits for send capacity.
	AdaptiveMaxDelay time.Duration `env:"SDK_ADAPTIVE_MAX_DELAY, default=30s" validate:"gt=0"`
}

// IdentityConfig tunes identity caches built by IdentityCache.
type IdentityConfig struct {
	Buffer              time.Duration `env:"SDK_IDENTITY_BUFFER, default=10s" validate:"gte=0"`
	BufferJitter        float64       `env:"SDK_IDENTITY_BUFFER_JITTER, default=0" validate:"gte=0,lte=1"`
	LoadTimeout         time.Duration `env:"SDK_IDENTITY_LOAD_TIMEOUT, default=5s" validate:"gt=0"`
	DefaultExpiration   time.Duration `env:"SDK_IDENTITY_DEFAULT_EXPIRATION, default=15m" validate:"gt=0"`
	DisableRefreshAhead bool          `env:"SDK_IDENTITY_DISABLE_REFRESH_AHEAD, default=false"`
}

// TimeoutConfig bounds operations and attempts. Zero disables a bound.
type TimeoutConfig struct {
	Operation time.Duration `env:"SDK_OPERATION_TIMEOUT, default=0" validate:"gte=0"`
	Attempt   time.Duration `env:"SDK_ATTEMPT_TIMEOUT, default=0" validate:"gte=0"`
}

// EndpointConfig overrides and caches endpoint resolution.
type EndpointConfig struct {
	// URL pins every request to one endpoint.
	URL     string `env:"SDK_ENDPOINT_URL" validate:"omitempty,url"`
	Region  string `env:"SDK_REGION"`
	UseFIPS bool   `env:"SDK_USE_FIPS, default=false"`

	// CacheSize bounds the resolved-endpoint cache. Zero disables caching.
	CacheSize int           `env:"SDK_ENDPOINT_CACHE_SIZE, default=100" validate:"gte=0"`
	CacheTTL  time.Duration `env:"SDK_ENDPOINT_CACHE_TTL, default=0" validate:"gte=0"`
}

// HTTPConfig configures the default connector stack.
type HTTPConfig struct {
	Timeout         time.Duration `env:"SDK_HTTP_TIMEOUT, default=0" validate:"gte=0"`
	DisableTracing  bool          `env:"SDK_HTTP_DISABLE_TRACING, default=false"`
	FollowRedirects bool          `env:"SDK_HTTP_FOLLOW_REDIRECTS, default=false"`

	// DisableRequestInfo stops stamping invocation id and attempt headers.
	DisableRequestInfo bool `env:"SDK_HTTP_DISABLE_REQUEST_INFO, default=false"`

	BreakerEnabled           bool          `env:"SDK_HTTP_BREAKER_ENABLED, default=false"`
	BreakerThreshold         uint32        `env:"SDK_HTTP_BREAKER_THRESHOLD, default=5" validate:"min=1"`
	BreakerOpenTimeout       time.Duration `env:"SDK_HTTP_BREAKER_OPEN_TIMEOUT, default=60s" validate:"gt=0"`
	BreakerTripOnServerError bool          `env:"SDK_HTTP_BREAKER_TRIP_ON_5XX, default=false"`

	// MaxConcurrent limits in-flight requests. Zero means unlimited.
	MaxConcurrent int           `env:"SDK_HTTP_MAX_CONCURRENT, default=0" validate:"gte=0"`
	MaxWait       time.Duration `env:"SDK_HTTP_MAX_WAIT, default=0" validate:"gte=0"`
}

// ObserveConfig configures telemetry.
type ObserveConfig struct {
	Enabled         bool    `env:"SDK_OBSERVE_ENABLED, default=false"`
	ServiceName     string  `env:"SDK_OBSERVE_SERVICE_NAME, default=sdkruntime" validate:"required"`
	Version         string  `env:"SDK_OBSERVE_VERSION"`
	TracingExporter string  `env:"SDK_OBSERVE_TRACING_EXPORTER, default=none" validate:"oneof=otlp jaeger stdout none"`
	SamplePct       float64 `env:"SDK_OBSERVE_SAMPLE_PCT, default=1" validate:"gte=0,lte=1"`
	MetricsExporter string  `env:"SDK_OBSERVE_METRICS_EXPORTER, default=none" validate:"oneof=otlp prometheus stdout none"`
	LogLevel        string  `env:"SDK_OBSERVE_LOG_LEVEL, default=info" validate:"oneof=debug info warn error"`
	BridgeOTelLogs  bool    `env:"SDK_OBSERVE_OTEL_LOGS, default=false"`
}

// Load reads the configuration from the process environment.
func Load(ctx context.Context) (Config, error) {
	return load(ctx, nil)
}

// LoadWith reads the configuration through lookup.
func LoadWith(ctx context.Context, lookup envconfig.Lookuper) (Config, error) {
	return load(ctx, lookup)
}

func load(ctx context.Context, lookup envconfig.Lookuper) (Config, error) {
	var cfg Config
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookup, // nil defaults to OS environment
	})
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field ranges and cross-field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.HTTP.MaxWait > 0 && c.HTTP.MaxConcurrent == 0 {
		return fmt.Errorf("%w: SDK_HTTP_MAX_WAIT requires SDK_HTTP_MAX_CONCURRENT", ErrInvalidConfig)
	}
	return nil
}
