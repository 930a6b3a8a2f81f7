// Package endpoint resolves where a request is sent.
//
// A Resolver maps Params (service, region, operation, flags) to an Endpoint.
// CachedResolver memoizes any resolver through the cache package, and Apply
// rewrites a serialized request to target the resolved endpoint.
//
// Endpoints may carry an "authSchemes" property: a list of objects, each
// with a "name" naming an auth scheme id plus that scheme's signing
// properties. The auth package reads it when signing.
//
// # Usage
//
//	resolver := endpoint.NewCached(&endpoint.TemplateResolver{
//	    Template: "https://{service}.{region}.example.com",
//	}, endpoint.CachedConfig{})
//	ep, err := resolver.ResolveEndpoint(ctx, endpoint.Params{Service: "queue", Region: "eu-west-1"})
package endpoint
