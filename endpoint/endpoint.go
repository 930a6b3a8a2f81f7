package endpoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Sentinel errors for endpoint resolution.
var (
	ErrNoEndpoint  = errors.New("endpoint: no endpoint resolved")
	ErrInvalidURL  = errors.New("endpoint: invalid endpoint URL")
	ErrMissingHost = errors.New("endpoint: endpoint URL has no host")
)

// AuthSchemesProperty is the endpoint property listing the auth schemes the
// endpoint supports and their signing configuration.
const AuthSchemesProperty = "authSchemes"

// Endpoint is a resolved destination for a request.
type Endpoint struct {
	// URL is the absolute base URL, e.g. "https://service.us-east-1.example.com".
	URL string

	// Headers are added to every request sent to this endpoint.
	Headers http.Header

	// Properties carry endpoint metadata, such as AuthSchemesProperty.
	Properties map[string]any
}

// Property returns an endpoint property.
func (e *Endpoint) Property(name string) (any, bool) {
	if e == nil || e.Properties == nil {
		return nil, false
	}
	v, ok := e.Properties[name]
	return v, ok
}

// Params are the inputs to endpoint resolution.
type Params struct {
	Service   string `json:"service,omitempty"`
	Region    string `json:"region,omitempty"`
	Operation string `json:"operation,omitempty"`

	UseFIPS      bool `json:"use_fips,omitempty"`
	UseDualStack bool `json:"use_dual_stack,omitempty"`

	// Endpoint overrides resolution with a fixed URL.
	Endpoint string `json:"endpoint,omitempty"`

	// Extra carries service-specific parameters.
	Extra map[string]string `json:"extra,omitempty"`
}

// Resolver computes the endpoint for a request.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Determinism: equal params should resolve to equal endpoints, which
// allows results to be cached.
// - Errors: a nil endpoint must come with a non-nil error.
type Resolver interface {
	ResolveEndpoint(ctx context.Context, params Params) (*Endpoint, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, params Params) (*Endpoint, error)

// ResolveEndpoint calls f.
func (f ResolverFunc) ResolveEndpoint(ctx context.Context, params Params) (*Endpoint, error) {
	return f(ctx, params)
}

// StaticResolver resolves every request to the same endpoint.
type StaticResolver struct {
	endpoint *Endpoint
}

// Static returns a resolver for a fixed URL.
func Static(rawURL string) (*StaticResolver, error) {
	if _, err := parse(rawURL); err != nil {
		return nil, err
	}
	return &StaticResolver{endpoint: &Endpoint{URL: rawURL}}, nil
}

// StaticEndpoint returns a resolver for a fixed endpoint.
func StaticEndpoint(ep *Endpoint) *StaticResolver {
	return &StaticResolver{endpoint: ep}
}

// ResolveEndpoint returns the static endpoint, or the params override.
func (r *StaticResolver) ResolveEndpoint(_ context.Context, params Params) (*Endpoint, error) {
	if params.Endpoint != "" {
		return &Endpoint{URL: params.Endpoint}, nil
	}
	if r.endpoint == nil {
		return nil, ErrNoEndpoint
	}
	return r.endpoint, nil
}

// TemplateResolver builds the endpoint URL from a template with {service}
// and {region} placeholders, such as "https://{service}.{region}.example.com".
type TemplateResolver struct {
	Template string

	// FIPSTemplate is used when Params.UseFIPS is set.
	FIPSTemplate string

	// Properties are copied onto every resolved endpoint.
	Properties map[string]any
}

// ResolveEndpoint expands the template.
func (r *TemplateResolver) ResolveEndpoint(_ context.Context, params Params) (*Endpoint, error) {
	if params.Endpoint != "" {
		return &Endpoint{URL: params.Endpoint, Properties: r.Properties}, nil
	}
	tmpl := r.Template
	if params.UseFIPS && r.FIPSTemplate != "" {
		tmpl = r.FIPSTemplate
	}
	if tmpl == "" {
		return nil, ErrNoEndpoint
	}
	rawURL := strings.NewReplacer("{service}", params.Service, "{region}", params.Region).Replace(tmpl)
	if _, err := parse(rawURL); err != nil {
		return nil, err
	}
	return &Endpoint{URL: rawURL, Properties: r.Properties}, nil
}

// Apply points req at ep: the endpoint's scheme and host replace the
// request's, the endpoint's path is prefixed to the request path and the
// endpoint's headers are added.
func Apply(req *http.Request, ep *Endpoint) error {
	if ep == nil {
		return ErrNoEndpoint
	}
	base, err := parse(ep.URL)
	if err != nil {
		return err
	}

	req.URL.Scheme = base.Scheme
	req.URL.Host = base.Host
	req.Host = ""
	if prefix := strings.TrimSuffix(base.Path, "/"); prefix != "" {
		req.URL.Path = prefix + "/" + strings.TrimPrefix(req.URL.Path, "/")
		if req.URL.RawPath != "" {
			req.URL.RawPath = strings.TrimSuffix(base.EscapedPath(), "/") + "/" + strings.TrimPrefix(req.URL.RawPath, "/")
		}
	}
	if base.RawQuery != "" {
		q := req.URL.Query()
		for k, vs := range base.Query() {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		req.URL.RawQuery = q.Encode()
	}
	for k, vs := range ep.Headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return nil
}

func parse(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidURL, rawURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrMissingHost, rawURL)
	}
	return u, nil
}

var (
	_ Resolver = ResolverFunc(nil)
	_ Resolver = (*StaticResolver)(nil)
	_ Resolver = (*TemplateResolver)(nil)
	_ Resolver = (*CachedResolver)(nil)
)
