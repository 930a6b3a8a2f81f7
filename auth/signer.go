package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jonwraymond/sdkruntime/endpoint"
	"github.com/jonwraymond/sdkruntime/identity"
)

// SigningParams carry everything a signer may consult beyond the request
// and identity.
type SigningParams struct {
	// Option is the selected auth option.
	Option Option

	// Config is the endpoint's config for the selected scheme. It may be
	// empty.
	Config EndpointConfig

	// Endpoint is the resolved endpoint.
	Endpoint *endpoint.Endpoint

	// Now is the signing time.
	Now time.Time
}

// Signer applies an identity to an outgoing request.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Signing must be repeatable: the orchestrator re-signs each attempt.
// - Errors: an identity of the wrong type returns ErrWrongIdentity.
type Signer interface {
	Sign(ctx context.Context, req *http.Request, id *identity.Identity, params SigningParams) error
}

// SignerFunc adapts a function to Signer.
type SignerFunc func(ctx context.Context, req *http.Request, id *identity.Identity, params SigningParams) error

// Sign calls f.
func (f SignerFunc) Sign(ctx context.Context, req *http.Request, id *identity.Identity, params SigningParams) error {
	return f(ctx, req, id, params)
}

// BearerSigner sets "Authorization: Bearer <token>".
type BearerSigner struct{}

func (BearerSigner) Sign(_ context.Context, req *http.Request, id *identity.Identity, _ SigningParams) error {
	tok, ok := identity.As[identity.Token](id)
	if !ok {
		return fmt.Errorf("%w: bearer auth needs a Token, got %T", ErrWrongIdentity, dataOf(id))
	}
	req.Header.Set("Authorization", "Bearer "+tok.Value)
	return nil
}

// APIKeySigner places an API key in a header or query parameter.
//
// The option properties select the placement:
//   - api_key_in: "header" (default) or "query"
//   - api_key_name: header or parameter name (default X-Api-Key)
//   - api_key_scheme: optional header value prefix, e.g. "ApiKey"
type APIKeySigner struct{}

// Default API key placement.
const (
	DefaultAPIKeyName = "X-Api-Key"
	APIKeyInHeader    = "header"
	APIKeyInQuery     = "query"
)

func (APIKeySigner) Sign(_ context.Context, req *http.Request, id *identity.Identity, params SigningParams) error {
	key, ok := identity.As[identity.APIKey](id)
	if !ok {
		return fmt.Errorf("%w: api key auth needs an APIKey, got %T", ErrWrongIdentity, dataOf(id))
	}

	name := params.Option.Property(PropAPIKeyName)
	if name == "" {
		name = DefaultAPIKeyName
	}

	switch in := params.Option.Property(PropAPIKeyIn); in {
	case "", APIKeyInHeader:
		value := key.Value
		if scheme := params.Option.Property(PropAPIKeyScheme); scheme != "" {
			value = scheme + " " + value
		}
		req.Header.Set(name, value)
	case APIKeyInQuery:
		q := req.URL.Query()
		q.Set(name, key.Value)
		req.URL.RawQuery = q.Encode()
	default:
		return fmt.Errorf("%w: unknown %s %q", ErrMissingSigningArg, PropAPIKeyIn, in)
	}
	return nil
}

// BasicSigner sets HTTP basic auth from a Login identity.
type BasicSigner struct{}

func (BasicSigner) Sign(_ context.Context, req *http.Request, id *identity.Identity, _ SigningParams) error {
	login, ok := identity.As[identity.Login](id)
	if !ok {
		return fmt.Errorf("%w: basic auth needs a Login, got %T", ErrWrongIdentity, dataOf(id))
	}
	req.SetBasicAuth(login.User, login.Password)
	return nil
}

// NoAuthSigner leaves the request untouched.
type NoAuthSigner struct{}

func (NoAuthSigner) Sign(context.Context, *http.Request, *identity.Identity, SigningParams) error {
	return nil
}

func dataOf(id *identity.Identity) any {
	if id == nil {
		return nil
	}
	return id.Data()
}

var (
	_ Signer = SignerFunc(nil)
	_ Signer = BearerSigner{}
	_ Signer = APIKeySigner{}
	_ Signer = BasicSigner{}
	_ Signer = NoAuthSigner{}
	_ Signer = (*SigV4Signer)(nil)
)
