package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenFromJWT returns a Token identity that expires with the token's exp
// claim. The token signature is not verified: the caller is the token's
// bearer, not its audience.
func TokenFromJWT(raw string) (*Identity, error) {
	token, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	exp, err := token.Claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenExpiry, err)
	}
	if exp == nil {
		return New(Token{Value: raw}, time.Time{}), nil
	}
	return New(Token{Value: raw}, exp.Time), nil
}

// JWTIssuerConfig configures a JWT issuer.
type JWTIssuerConfig struct {
	// Key is the HMAC signing key. Required.
	Key []byte

	// Issuer is the iss claim.
	Issuer string

	// Subject is the sub claim.
	Subject string

	// Audience is the aud claim.
	Audience []string

	// TTL is the lifetime of issued tokens.
	// Default: 15 minutes
	TTL time.Duration

	// Method is the HMAC signing method.
	// Default: jwt.SigningMethodHS256
	Method *jwt.SigningMethodHMAC

	// Now returns the current time.
	// Default: time.Now
	Now func() time.Time
}

// JWTIssuer mints short-lived, HMAC-signed bearer tokens. It is a Resolver,
// so it can sit behind a Cache as a local token source.
type JWTIssuer struct {
	config JWTIssuerConfig
}

// NewJWTIssuer creates a JWT issuer.
func NewJWTIssuer(config JWTIssuerConfig) (*JWTIssuer, error) {
	if len(config.Key) == 0 {
		return nil, ErrMissingKey
	}

	// Apply defaults
	if config.TTL <= 0 {
		config.TTL = 15 * time.Minute
	}
	if config.Method == nil {
		config.Method = jwt.SigningMethodHS256
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return &JWTIssuer{config: config}, nil
}

// ResolveIdentity issues a new token.
func (i *JWTIssuer) ResolveIdentity(context.Context) (*Identity, error) {
	now := i.config.Now().Truncate(time.Second)
	exp := now.Add(i.config.TTL)

	claims := jwt.RegisteredClaims{
		Issuer:    i.config.Issuer,
		Subject:   i.config.Subject,
		Audience:  jwt.ClaimStrings(i.config.Audience),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(i.config.Method, claims).SignedString(i.config.Key)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return New(Token{Value: signed}, exp), nil
}
