package identity

import "errors"

// Sentinel errors for identity resolution.
var (
	ErrNoIdentity   = errors.New("identity: provider returned no identity")
	ErrLoadTimeout  = errors.New("identity: provider timed out")
	ErrTokenExpiry  = errors.New("identity: token has no usable expiry")
	ErrMissingKey   = errors.New("identity: signing key is required")
	ErrNoCredential = errors.New("identity: credentials provider returned empty credentials")
)
