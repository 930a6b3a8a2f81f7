package config

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/sdkruntime/connector"
	"github.com/jonwraymond/sdkruntime/endpoint"
	"github.com/jonwraymond/sdkruntime/identity"
	"github.com/jonwraymond/sdkruntime/interceptor"
	"github.com/jonwraymond/sdkruntime/orchestrator"
	"github.com/jonwraymond/sdkruntime/retry"
)

func loadMap(t *testing.T, env map[string]string) (Config, error) {
	t.Helper()
	return LoadWith(context.Background(), envconfig.MapLookuper(env))
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := loadMap(t, nil)
	require.NoError(t, err)

	assert.Equal(t, RetryConfig{
		Mode:             RetryModeStandard,
		MaxAttempts:      3,
		InitialBackoff:   time.Second,
		MaxBackoff:       20 * time.Second,
		QuotaCapacity:    500,
		AdaptiveMaxDelay: 30 * time.Second,
	}, cfg.Retry)
	assert.Equal(t, 10*time.Second, cfg.Identity.Buffer)
	assert.Equal(t, 5*time.Second, cfg.Identity.LoadTimeout)
	assert.Equal(t, 15*time.Minute, cfg.Identity.DefaultExpiration)
	assert.Equal(t, 100, cfg.Endpoint.CacheSize)
	assert.Equal(t, uint32(5), cfg.HTTP.BreakerThreshold)
	assert.Equal(t, "sdkruntime", cfg.Observe.ServiceName)
	assert.False(t, cfg.Observe.Enabled)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := loadMap(t, map[string]string{
		"SDK_RETRY_MODE":          "adaptive",
		"SDK_MAX_ATTEMPTS":        "5",
		"SDK_INITIAL_BACKOFF":     "200ms",
		"SDK_MAX_BACKOFF":         "2s",
		"SDK_OPERATION_TIMEOUT":   "30s",
		"SDK_ATTEMPT_TIMEOUT":     "5s",
		"SDK_ENDPOINT_URL":        "https://queue.example.com",
		"SDK_REGION":              "eu-west-1",
		"SDK_HTTP_MAX_CONCURRENT": "8",
		"SDK_HTTP_MAX_WAIT":       "1s",
	})
	require.NoError(t, err)

	assert.Equal(t, RetryModeAdaptive, cfg.Retry.Mode)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 200*time.Millisecond, cfg.Retry.InitialBackoff)
	assert.Equal(t, 30*time.Second, cfg.Timeouts.Operation)
	assert.Equal(t, 5*time.Second, cfg.Timeouts.Attempt)
	assert.Equal(t, "https://queue.example.com", cfg.Endpoint.URL)
	assert.Equal(t, endpoint.Params{Region: "eu-west-1"}, cfg.Endpoint.Params())
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"unknown retry mode":        {"SDK_RETRY_MODE": "aggressive"},
		"zero attempts":             {"SDK_MAX_ATTEMPTS": "0"},
		"max below initial backoff": {"SDK_INITIAL_BACKOFF": "5s", "SDK_MAX_BACKOFF": "1s"},
		"jitter above one":          {"SDK_IDENTITY_BUFFER_JITTER": "1.5"},
		"negative attempt timeout":  {"SDK_ATTEMPT_TIMEOUT": "-1s"},
		"bad endpoint url":          {"SDK_ENDPOINT_URL": "not a url"},
		"unknown exporter":          {"SDK_OBSERVE_TRACING_EXPORTER": "zipkin"},
		"wait without bulkhead":     {"SDK_HTTP_MAX_WAIT": "1s"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := loadMap(t, env)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad_ParseError(t *testing.T) {
	_, err := loadMap(t, map[string]string{"SDK_INITIAL_BACKOFF": "soon"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidConfig)
}

func TestRetryConfig_Strategy(t *testing.T) {
	base := RetryConfig{MaxAttempts: 4, InitialBackoff: time.Second, MaxBackoff: time.Minute, QuotaCapacity: 50}

	never := base
	never.Mode = RetryModeNever
	assert.Equal(t, retry.Never{}, never.Strategy())
	assert.Equal(t, 1, never.Attempts())
	assert.Equal(t, 4, base.Attempts())

	standard := base
	standard.Mode = RetryModeStandard
	s, ok := standard.Strategy().(*retry.Standard)
	require.True(t, ok)
	assert.Equal(t, 4, s.Config().MaxAttempts)
	assert.Equal(t, float64(50), s.Config().Quota.Config().Capacity)
	assert.Nil(t, s.Config().RateLimiter)

	adaptive := base
	adaptive.Mode = RetryModeAdaptive
	adaptive.AdaptiveMaxDelay = time.Second
	a := adaptive.Strategy().(*retry.Standard)
	assert.NotNil(t, a.Config().RateLimiter)

	unlimited := standard
	unlimited.DisableQuota = true
	u := unlimited.Strategy().(*retry.Standard)
	_, ok = u.Config().Quota.AcquireRetry(true)
	assert.True(t, ok)
}

func TestIdentityConfig_IdentityCache(t *testing.T) {
	c := IdentityConfig{
		Buffer:              time.Minute,
		BufferJitter:        0.5,
		LoadTimeout:         time.Second,
		DefaultExpiration:   time.Hour,
		DisableRefreshAhead: true,
	}
	cache := c.IdentityCache(identity.Static(identity.New(identity.Token{Value: "t"}, time.Time{})))

	got := cache.Config()
	assert.Equal(t, time.Minute, got.BufferTime)
	assert.Equal(t, time.Second, got.LoadTimeout)
	assert.Equal(t, time.Hour, got.DefaultExpiration)
	assert.True(t, got.DisableRefreshAhead)
	require.NotNil(t, got.BufferJitter)
	j := got.BufferJitter()
	assert.GreaterOrEqual(t, j, 0.0)
	assert.LessOrEqual(t, j, 0.5)
}

func TestEndpointConfig_Resolver(t *testing.T) {
	fallback := &endpoint.TemplateResolver{Template: "https://{service}.example.com"}

	r, err := EndpointConfig{URL: "https://pinned.example.com"}.Resolver(nil)
	require.NoError(t, err)
	ep, err := r.ResolveEndpoint(context.Background(), endpoint.Params{Service: "queue"})
	require.NoError(t, err)
	assert.Equal(t, "https://pinned.example.com", ep.URL)

	_, err = EndpointConfig{}.Resolver(nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	r, err = EndpointConfig{}.Resolver(fallback)
	require.NoError(t, err)
	assert.Same(t, fallback, r)

	r, err = EndpointConfig{CacheSize: 10}.Resolver(fallback)
	require.NoError(t, err)
	assert.IsType(t, &endpoint.CachedResolver{}, r)
}

func TestHTTPConfig_Connector(t *testing.T) {
	assert.IsType(t, &connector.HTTP{}, HTTPConfig{}.Connector(nil))

	breaker := HTTPConfig{BreakerEnabled: true, BreakerThreshold: 2, BreakerOpenTimeout: time.Second}
	assert.IsType(t, &connector.Breaker{}, breaker.Connector(nil))

	bulkhead := breaker
	bulkhead.MaxConcurrent = 4
	assert.IsType(t, &connector.Bulkhead{}, bulkhead.Connector(nil))
}

func TestConfig_Build(t *testing.T) {
	cfg, err := loadMap(t, map[string]string{
		"SDK_ENDPOINT_URL":      "https://queue.example.com",
		"SDK_RETRY_MODE":        "never",
		"SDK_OPERATION_TIMEOUT": "10s",
	})
	require.NoError(t, err)

	rt, err := cfg.Build(context.Background(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Shutdown(context.Background()) })

	assert.Nil(t, rt.Observer)
	assert.Equal(t, retry.Never{}, rt.Components.Strategy())
	assert.Equal(t, []string{"request_info"}, rt.Components.Interceptors().Names())
}

func TestConfig_BuildRequestInfo(t *testing.T) {
	var got []*http.Request
	conn := connector.Func(func(_ context.Context, req *http.Request) (*http.Response, error) {
		got = append(got, req)
		code := http.StatusServiceUnavailable
		if len(got) == 2 {
			code = http.StatusOK
		}
		return &http.Response{StatusCode: code, Header: http.Header{}, Body: http.NoBody}, nil
	})

	cfg, err := loadMap(t, map[string]string{
		"SDK_ENDPOINT_URL":    "https://queue.example.com",
		"SDK_MAX_ATTEMPTS":    "4",
		"SDK_INITIAL_BACKOFF": "1ms",
		"SDK_MAX_BACKOFF":     "1ms",
	})
	require.NoError(t, err)

	rt, err := cfg.Build(context.Background(), nil, orchestrator.WithConnector(conn))
	require.NoError(t, err)

	op := orchestrator.Operation[string, int]{
		Name: "SendMessage",
		Serializer: orchestrator.SerializerFunc[string](func(ctx context.Context, in string) (*http.Request, error) {
			return http.NewRequestWithContext(ctx, http.MethodPost, "/", strings.NewReader(in))
		}),
		Deserializer: orchestrator.DeserializerFunc[int](func(_ context.Context, resp *http.Response) (int, error) {
			if resp.StatusCode >= 300 {
				return 0, fmt.Errorf("status %d", resp.StatusCode)
			}
			return resp.StatusCode, nil
		}),
	}
	_, err = orchestrator.Invoke(context.Background(), rt.Components, op, "hello")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "attempt=1; max=4", got[0].Header.Get(interceptor.RequestInfoHeader))
	assert.Equal(t, "attempt=2; max=4", got[1].Header.Get(interceptor.RequestInfoHeader))
	assert.NotEmpty(t, got[0].Header.Get(interceptor.InvocationIDHeader))
	assert.Equal(t, got[0].Header.Get(interceptor.InvocationIDHeader), got[1].Header.Get(interceptor.InvocationIDHeader))

	cfg.HTTP.DisableRequestInfo = true
	rt, err = cfg.Build(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, rt.Components.Interceptors().Len())
}

func TestConfig_BuildWithTelemetry(t *testing.T) {
	cfg, err := loadMap(t, map[string]string{
		"SDK_ENDPOINT_URL":      "https://queue.example.com",
		"SDK_OBSERVE_ENABLED":   "true",
		"SDK_OBSERVE_LOG_LEVEL": "error",
	})
	require.NoError(t, err)

	rt, err := cfg.Build(context.Background(), nil)
	require.NoError(t, err)

	assert.NotNil(t, rt.Observer)
	assert.Equal(t, []string{"request_info", "telemetry"}, rt.Components.Interceptors().Names())
	assert.NoError(t, rt.Shutdown(context.Background()))
}

func TestConfig_BuildRequiresResolver(t *testing.T) {
	cfg, err := loadMap(t, nil)
	require.NoError(t, err)

	_, err = cfg.Build(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
