// Package ratelimit provides the admission controls used by retry strategies.
//
// # Limiters
//
//   - TokenBucket: a retry quota. Each retry takes a permit whose cost
//     depends on the failure kind; a permit is released back to the bucket
//     when the retried operation succeeds. An empty bucket means the client
//     has chosen to stop adding load, which retry strategies report as a
//     distinct error.
//
//   - ClientRateLimiter: an adaptive client-side send rate. It is disabled
//     until the first throttling response, then decreases the rate
//     multiplicatively on throttles and grows it along a cubic curve on
//     successes.
//
// Both limiters are safe for concurrent use and are meant to be shared by
// every operation on a client.
//
// # Usage
//
//	quota := ratelimit.NewTokenBucket(ratelimit.TokenBucketConfig{Capacity: 500})
//
//	permit, ok := quota.AcquireRetry(true)
//	if !ok {
//	    return errQuotaExhausted
//	}
//	// ... retry succeeded
//	permit.Release()
package ratelimit
