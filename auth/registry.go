package auth

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jonwraymond/sdkruntime/identity"
)

// IdentityResolvers maps scheme ids to the identity resolver for that
// scheme.
type IdentityResolvers map[SchemeID]identity.Resolver

// Scheme binds a scheme id to its signer and tells which identity resolver
// it uses.
type Scheme interface {
	SchemeID() SchemeID

	// IdentityResolver picks this scheme's resolver, or nil if the client
	// has none.
	IdentityResolver(resolvers IdentityResolvers) identity.Resolver

	Signer() Signer
}

// HTTPScheme is a scheme whose identity resolver is registered under its
// own id.
type HTTPScheme struct {
	id     SchemeID
	signer Signer
}

// NewScheme creates a scheme.
func NewScheme(id SchemeID, signer Signer) *HTTPScheme {
	return &HTTPScheme{id: id, signer: signer}
}

func (s *HTTPScheme) SchemeID() SchemeID { return s.id }

func (s *HTTPScheme) IdentityResolver(resolvers IdentityResolvers) identity.Resolver {
	return resolvers[s.id]
}

func (s *HTTPScheme) Signer() Signer { return s.signer }

// NoAuthScheme sends requests unsigned with an anonymous identity. It needs
// no registered identity resolver.
type NoAuthScheme struct{}

var anonymous = identity.Static(identity.New(nil, time.Time{}))

func (NoAuthScheme) SchemeID() SchemeID { return SchemeNoAuth }

func (NoAuthScheme) IdentityResolver(IdentityResolvers) identity.Resolver { return anonymous }

func (NoAuthScheme) Signer() Signer { return NoAuthSigner{} }

// Schemes is a registry of auth schemes.
type Schemes struct {
	mu      sync.RWMutex
	schemes map[SchemeID]Scheme
}

// NewSchemes creates a registry holding schemes. It panics on an invalid or
// duplicate registration; use Register for error returns.
func NewSchemes(schemes ...Scheme) *Schemes {
	r := &Schemes{schemes: make(map[SchemeID]Scheme)}
	for _, s := range schemes {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
	return r
}

// DefaultSchemes returns a registry with the built-in SigV4, bearer, API
// key, basic and no-auth schemes.
func DefaultSchemes() *Schemes {
	return NewSchemes(
		NewScheme(SchemeSigV4, NewSigV4Signer(SigV4Config{})),
		NewScheme(SchemeBearer, BearerSigner{}),
		NewScheme(SchemeAPIKey, APIKeySigner{}),
		NewScheme(SchemeBasic, BasicSigner{}),
		NoAuthScheme{},
	)
}

// Register adds a scheme.
func (r *Schemes) Register(s Scheme) error {
	if s == nil || s.SchemeID() == "" || s.Signer() == nil {
		return ErrInvalidScheme
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schemes[s.SchemeID()]; exists {
		return fmt.Errorf("%w: %q", ErrSchemeDuplicate, s.SchemeID())
	}
	r.schemes[s.SchemeID()] = s
	return nil
}

// Lookup returns the scheme registered under id.
func (r *Schemes) Lookup(id SchemeID) (Scheme, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.schemes[id]
	return s, ok
}

// List returns registered scheme ids, sorted.
func (r *Schemes) List() []SchemeID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]SchemeID, 0, len(r.schemes))
	for id := range r.schemes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

var (
	_ Scheme = (*HTTPScheme)(nil)
	_ Scheme = NoAuthScheme{}
)
