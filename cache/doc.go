// Package cache provides the generic in-memory cache used for resolved
// endpoints.
//
// Memory is backed by otter with size-bounded eviction and an optional
// write TTL. Instrumented decorates any Cache with OpenTelemetry operation
// counters and latency histograms. DefaultKeyer derives deterministic keys
// from structured input.
package cache
