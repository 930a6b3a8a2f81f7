package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonwraymond/sdkruntime/endpoint"
	"github.com/jonwraymond/sdkruntime/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bearerResolvers() IdentityResolvers {
	return IdentityResolvers{
		SchemeBearer: identity.Static(identity.New(identity.Token{Value: "t0k"}, time.Time{})),
	}
}

func TestSelect_FirstUsableOption(t *testing.T) {
	opts := []Option{
		NewOption(SchemeSigV4, PropSigningName, "queue"),
		NewOption(SchemeBearer),
		NewOption(SchemeNoAuth),
	}

	sel, err := Select(opts, DefaultSchemes(), bearerResolvers())
	require.NoError(t, err)
	assert.Equal(t, SchemeBearer, sel.Option.SchemeID)
	assert.Equal(t, SchemeBearer, sel.Scheme.SchemeID())
	assert.NotNil(t, sel.IdentityResolver)
}

func TestSelect_NoAuthNeedsNoResolver(t *testing.T) {
	sel, err := Select([]Option{NewOption(SchemeNoAuth)}, DefaultSchemes(), nil)
	require.NoError(t, err)
	assert.Equal(t, SchemeNoAuth, sel.Scheme.SchemeID())

	id, err := sel.IdentityResolver.ResolveIdentity(context.Background())
	require.NoError(t, err)
	assert.Nil(t, id.Data())
}

func TestSelect_NoMatch(t *testing.T) {
	opts := []Option{NewOption(SchemeSigV4), NewOption(SchemeSigV4A)}

	_, err := Select(opts, DefaultSchemes(), IdentityResolvers{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoMatchingScheme)

	var nm *NoMatchingSchemeError
	require.True(t, errors.As(err, &nm))
	assert.Equal(t, []SchemeID{SchemeSigV4, SchemeSigV4A}, nm.SchemeIDs())
	assert.Contains(t, err.Error(), `"sigv4" (no identity resolver registered)`)
	assert.Contains(t, err.Error(), `"sigv4a" (no auth scheme registered)`)
}

func TestSelect_EmptyOptions(t *testing.T) {
	_, err := Select(nil, DefaultSchemes(), bearerResolvers())
	assert.ErrorIs(t, err, ErrNoMatchingScheme)
}

func TestSchemes_Register(t *testing.T) {
	r := NewSchemes()
	require.NoError(t, r.Register(NewScheme("custom", BearerSigner{})))

	err := r.Register(NewScheme("custom", BearerSigner{}))
	assert.ErrorIs(t, err, ErrSchemeDuplicate)

	assert.ErrorIs(t, r.Register(nil), ErrInvalidScheme)
	assert.ErrorIs(t, r.Register(NewScheme("", BearerSigner{})), ErrInvalidScheme)
	assert.ErrorIs(t, r.Register(NewScheme("x", nil)), ErrInvalidScheme)

	_, ok := r.Lookup("custom")
	assert.True(t, ok)
	_, ok = r.Lookup("missing")
	assert.False(t, ok)
}

func TestSchemes_List(t *testing.T) {
	assert.Equal(t, []SchemeID{
		SchemeAPIKey, SchemeBasic, SchemeBearer, SchemeNoAuth, SchemeSigV4,
	}, DefaultSchemes().List())
}

func TestStaticOptions(t *testing.T) {
	r := StaticOptions(NewOption(SchemeBearer))
	opts, err := r.ResolveAuthOptions(Params{Service: "queue"})
	require.NoError(t, err)
	require.Len(t, opts, 1)

	opts[0].SchemeID = "mutated"
	again, _ := r.ResolveAuthOptions(Params{})
	assert.Equal(t, SchemeBearer, again[0].SchemeID)
}

func TestExtractEndpointConfig(t *testing.T) {
	ep := &endpoint.Endpoint{
		URL: "https://queue.example.com",
		Properties: map[string]any{
			endpoint.AuthSchemesProperty: []any{
				map[string]any{"name": "sigv4a", "signingName": "queue"},
				map[string]any{"name": "sigv4", "signingName": "queue", "signingRegion": "eu-west-1"},
			},
		},
	}

	cfg, err := ExtractEndpointConfig(ep, SchemeSigV4)
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", cfg.String("signingRegion"))
}

func TestExtractEndpointConfig_Absent(t *testing.T) {
	cfg, err := ExtractEndpointConfig(&endpoint.Endpoint{URL: "https://x"}, SchemeBearer)
	require.NoError(t, err)
	assert.Empty(t, cfg)
}

func TestExtractEndpointConfig_NotAnArray(t *testing.T) {
	ep := &endpoint.Endpoint{Properties: map[string]any{endpoint.AuthSchemesProperty: "sigv4"}}
	_, err := ExtractEndpointConfig(ep, SchemeSigV4)
	assert.ErrorIs(t, err, ErrBadEndpointConfig)
}

func TestExtractEndpointConfig_Mismatch(t *testing.T) {
	ep := &endpoint.Endpoint{Properties: map[string]any{
		endpoint.AuthSchemesProperty: []map[string]any{{"name": "sigv4"}, {"name": "sigv4a"}},
	}}

	_, err := ExtractEndpointConfig(ep, SchemeBearer)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEndpointConfigMismatch)

	var mm *EndpointConfigMismatchError
	require.True(t, errors.As(err, &mm))
	assert.Equal(t, []string{"sigv4", "sigv4a"}, mm.Supported)
	assert.Contains(t, err.Error(), "sigv4")
	assert.Contains(t, err.Error(), "sigv4a")
}
