package identity

import "time"

// Identity is a resolved credential handed to a signer. Its fields are only
// readable, so a signer can never alter the identity a cache holds.
type Identity struct {
	data       any
	expiration time.Time
}

// New creates an identity. A zero expiration means the identity does not
// expire on its own.
func New(data any, expiration time.Time) *Identity {
	return &Identity{data: data, expiration: expiration}
}

// Data returns the identity payload, typically one of Credentials, Token,
// APIKey or Login.
func (id *Identity) Data() any {
	return id.data
}

// Expiration returns when the identity expires, and false if it never does.
func (id *Identity) Expiration() (time.Time, bool) {
	return id.expiration, !id.expiration.IsZero()
}

// IsExpired checks if the identity has expired at now.
func (id *Identity) IsExpired(now time.Time) bool {
	if id.expiration.IsZero() {
		return false
	}
	return !now.Before(id.expiration)
}

// As returns the payload of id as a T.
func As[T any](id *Identity) (T, bool) {
	if id == nil {
		var zero T
		return zero, false
	}
	v, ok := id.data.(T)
	return v, ok
}

// Credentials are access-key credentials, as used by SigV4.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	AccountID       string
}

func (c Credentials) String() string {
	return "Credentials{AccessKeyID: " + c.AccessKeyID + ", SecretAccessKey: ***}"
}

// Token is a bearer token.
type Token struct {
	Value string
}

func (Token) String() string { return "Token{***}" }

// APIKey is a static API key.
type APIKey struct {
	Value string
}

func (APIKey) String() string { return "APIKey{***}" }

// Login is a user name and password for HTTP basic auth.
type Login struct {
	User     string
	Password string
}

func (l Login) String() string { return "Login{User: " + l.User + ", Password: ***}" }
