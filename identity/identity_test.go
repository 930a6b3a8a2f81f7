package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity_Expiration(t *testing.T) {
	never := New(Token{Value: "t"}, time.Time{})
	_, ok := never.Expiration()
	assert.False(t, ok)
	assert.False(t, never.IsExpired(at(1_000_000)))

	expiring := New(Token{Value: "t"}, at(30))
	exp, ok := expiring.Expiration()
	assert.True(t, ok)
	assert.Equal(t, at(30), exp)
	assert.False(t, expiring.IsExpired(at(29)))
	assert.True(t, expiring.IsExpired(at(30)))
}

func TestAs(t *testing.T) {
	id := New(Login{User: "u", Password: "p"}, time.Time{})

	login, ok := As[Login](id)
	require.True(t, ok)
	assert.Equal(t, "u", login.User)

	_, ok = As[Token](id)
	assert.False(t, ok)

	_, ok = As[Token](nil)
	assert.False(t, ok)
}

func TestPayloadsRedactSecrets(t *testing.T) {
	assert.NotContains(t, Credentials{AccessKeyID: "AKID", SecretAccessKey: "SECRET"}.String(), "SECRET")
	assert.NotContains(t, Token{Value: "SECRET"}.String(), "SECRET")
	assert.NotContains(t, APIKey{Value: "SECRET"}.String(), "SECRET")
	assert.NotContains(t, Login{User: "u", Password: "SECRET"}.String(), "SECRET")
}

func TestStatic(t *testing.T) {
	id := New(APIKey{Value: "k"}, time.Time{})
	got, err := Static(id).ResolveIdentity(context.Background())
	require.NoError(t, err)
	assert.Same(t, id, got)

	_, err = Static(nil).ResolveIdentity(context.Background())
	assert.ErrorIs(t, err, ErrNoIdentity)
}

func TestFromAWSCredentialsProvider(t *testing.T) {
	expires := at(3600)
	provider := aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		return aws.Credentials{
			AccessKeyID:     "AKID",
			SecretAccessKey: "SECRET",
			SessionToken:    "SESSION",
			CanExpire:       true,
			Expires:         expires,
		}, nil
	})

	id, err := FromAWSCredentialsProvider(provider).ResolveIdentity(context.Background())
	require.NoError(t, err)

	creds, ok := As[Credentials](id)
	require.True(t, ok)
	assert.Equal(t, "AKID", creds.AccessKeyID)
	assert.Equal(t, "SESSION", creds.SessionToken)
	exp, ok := id.Expiration()
	assert.True(t, ok)
	assert.Equal(t, expires, exp)

	back, ok := AWSCredentials(id)
	require.True(t, ok)
	assert.Equal(t, "SECRET", back.SecretAccessKey)
	assert.True(t, back.CanExpire)
}

func TestFromAWSCredentialsProvider_Errors(t *testing.T) {
	errRetrieve := errors.New("no credentials")
	failing := aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		return aws.Credentials{}, errRetrieve
	})
	_, err := FromAWSCredentialsProvider(failing).ResolveIdentity(context.Background())
	assert.ErrorIs(t, err, errRetrieve)

	empty := aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		return aws.Credentials{}, nil
	})
	_, err = FromAWSCredentialsProvider(empty).ResolveIdentity(context.Background())
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestJWTIssuer_RoundTrip(t *testing.T) {
	clock := &fakeClock{now: at(0)}
	issuer, err := NewJWTIssuer(JWTIssuerConfig{
		Key:      []byte("test-secret"),
		Issuer:   "sdkruntime-test",
		Subject:  "client",
		Audience: []string{"service"},
		TTL:      time.Minute,
		Now:      clock.Now,
	})
	require.NoError(t, err)

	id, err := issuer.ResolveIdentity(context.Background())
	require.NoError(t, err)
	exp, ok := id.Expiration()
	require.True(t, ok)
	assert.Equal(t, at(60), exp)

	tok, ok := As[Token](id)
	require.True(t, ok)

	parsed, err := TokenFromJWT(tok.Value)
	require.NoError(t, err)
	parsedExp, ok := parsed.Expiration()
	require.True(t, ok)
	assert.True(t, parsedExp.Equal(at(60)))

	claims := jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(tok.Value, &claims, func(*jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	}, jwt.WithTimeFunc(clock.Now))
	require.NoError(t, err)
	assert.Equal(t, "client", claims.Subject)
}

func TestNewJWTIssuer_RequiresKey(t *testing.T) {
	_, err := NewJWTIssuer(JWTIssuerConfig{})
	assert.ErrorIs(t, err, ErrMissingKey)
}

func TestTokenFromJWT(t *testing.T) {
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}).SignedString([]byte("k"))
	require.NoError(t, err)

	id, err := TokenFromJWT(raw)
	require.NoError(t, err)
	_, ok := id.Expiration()
	assert.False(t, ok, "a token without exp never expires on its own")

	_, err = TokenFromJWT("not-a-jwt")
	assert.Error(t, err)
}
