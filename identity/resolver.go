package identity

import "context"

// Resolver produces identities.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: implementations must honour cancellation and deadlines.
// - Errors: a nil identity must come with a non-nil error.
type Resolver interface {
	ResolveIdentity(ctx context.Context) (*Identity, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context) (*Identity, error)

// ResolveIdentity calls f.
func (f ResolverFunc) ResolveIdentity(ctx context.Context) (*Identity, error) {
	return f(ctx)
}

// Invalidator is implemented by resolvers that cache identities. The
// orchestrator calls Invalidate when a service rejects an identity as stale.
type Invalidator interface {
	Invalidate()
}

// StaticResolver always returns the same identity.
type StaticResolver struct {
	id *Identity
}

// Static returns a resolver for a fixed identity.
func Static(id *Identity) *StaticResolver {
	return &StaticResolver{id: id}
}

// ResolveIdentity returns the static identity.
func (r *StaticResolver) ResolveIdentity(context.Context) (*Identity, error) {
	if r.id == nil {
		return nil, ErrNoIdentity
	}
	return r.id, nil
}

var (
	_ Resolver = ResolverFunc(nil)
	_ Resolver = (*StaticResolver)(nil)
	_ Resolver = (*Cache)(nil)
	_ Resolver = (*JWTIssuer)(nil)

	_ Invalidator = (*Cache)(nil)
)
