package connector

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jonwraymond/sdkruntime/sdkerr"
)

// Connector sends a signed request and returns the raw response.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: implementations must honor cancellation and deadlines.
// - Errors: transport failures are returned as *sdkerr.ConnectorError; any
// HTTP status, including 5xx, is a response, not an error.
// - Ownership: the caller closes the response body.
type Connector interface {
	Call(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Func adapts a function to Connector.
type Func func(ctx context.Context, req *http.Request) (*http.Response, error)

// Call calls f.
func (f Func) Call(ctx context.Context, req *http.Request) (*http.Response, error) {
	return f(ctx, req)
}

// HTTPConfig configures the HTTP connector.
type HTTPConfig struct {
	// Transport is the underlying round tripper.
	// Default: a clone of http.DefaultTransport
	Transport http.RoundTripper

	// Timeout bounds each call including reading headers.
	// Default: 0 (no limit beyond the context)
	Timeout time.Duration

	// DisableTracing turns off the otelhttp transport and client trace.
	// Default: false
	DisableTracing bool

	// FollowRedirects makes the client follow 3xx responses.
	// Default: false
	FollowRedirects bool
}

// HTTP is a Connector backed by net/http.
type HTTP struct {
	client *http.Client
}

// NewHTTP creates an HTTP connector.
func NewHTTP(cfg HTTPConfig) *HTTP {
	// Apply defaults
	if cfg.Transport == nil {
		cfg.Transport = http.DefaultTransport.(*http.Transport).Clone()
	}

	rt := cfg.Transport
	if !cfg.DisableTracing {
		rt = otelhttp.NewTransport(rt,
			otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
				return otelhttptrace.NewClientTrace(ctx)
			}),
		)
	}

	client := &http.Client{Transport: rt, Timeout: cfg.Timeout}
	if !cfg.FollowRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return &HTTP{client: client}
}

// Call sends req with ctx.
func (c *HTTP) Call(ctx context.Context, req *http.Request) (*http.Response, error) {
	if req == nil || req.URL == nil || req.URL.Host == "" {
		return nil, &sdkerr.ConnectorError{Kind: sdkerr.ConnectorUser, Err: ErrInvalidRequest}
	}

	resp, err := c.client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, Classify(err)
	}
	return resp, nil
}

// Classify wraps a transport error in a *sdkerr.ConnectorError of the
// matching kind. Errors that already are connector errors pass through.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var ce *sdkerr.ConnectorError
	if errors.As(err, &ce) {
		return err
	}

	return &sdkerr.ConnectorError{Kind: kindOf(err), Err: err}
}

func kindOf(err error) sdkerr.ConnectorErrorKind {
	if errors.Is(err, context.Canceled) {
		return sdkerr.ConnectorOther
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return sdkerr.ConnectorTimeout
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return sdkerr.ConnectorTimeout
	}

	switch {
	case errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF):
		return sdkerr.ConnectorIO
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return sdkerr.ConnectorIO
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return sdkerr.ConnectorIO
	}

	return sdkerr.ConnectorOther
}

var (
	_ Connector = Func(nil)
	_ Connector = (*HTTP)(nil)
	_ Connector = (*Breaker)(nil)
	_ Connector = (*Bulkhead)(nil)
)
