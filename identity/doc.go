// Package identity resolves and caches the credentials that signers attach
// to requests.
//
// An Identity is an opaque payload with an optional expiry. Resolvers
// produce identities; Cache sits in front of a slow or rate-limited
// Resolver and guarantees that concurrent callers share one provider call.
//
// # Refresh policy
//
// For an identity expiring at E with buffer B:
//
//   - before E-B the cached identity is returned;
//   - between E-B and E the cached identity is returned and one background
//     refresh is started; if it fails the failure is logged and the cached
//     identity keeps being served;
//   - from E on, callers wait for a synchronous refresh and receive its
//     identity or its error.
//
// # Usage
//
//	creds := identity.NewCache(
//	    identity.FromAWSCredentialsProvider(provider),
//	    identity.CacheConfig{BufferTime: 30 * time.Second},
//	)
//	id, err := creds.ResolveIdentity(ctx)
package identity
