// Package retry decides whether and when a failed attempt is retried.
//
// A Strategy is consulted before the first attempt and after every attempt.
// Never makes exactly one attempt. Standard classifies the failure with a
// priority-ordered set of Classifiers, pays for the retry from a shared
// ratelimit.TokenBucket and waits a capped, fully jittered exponential
// backoff. Giving Standard a ratelimit.ClientRateLimiter turns on adaptive
// mode, in which throttling responses slow every request the client sends.
//
// # Classification
//
// Classifiers are consulted from highest to lowest priority and the first
// verdict other than NoActionIndicated wins:
//
//   - TransientClassifier (PriorityTransient): connector timeouts and I/O
//     failures, attempt timeouts and undecodable responses are transient;
//     construction failures are never retried.
//   - ModeledClassifier (PriorityModeled): errors implementing KindProvider,
//     CodeProvider or RetryAfterProvider.
//   - HTTPStatusClassifier (PriorityHTTPStatus): 500, 502, 503 and 504 are
//     transient, 429 is throttling.
//
// # Usage
//
//	strategy := retry.NewStandard(retry.StandardConfig{
//	    MaxAttempts: 5,
//	    Quota:       ratelimit.NewTokenBucket(ratelimit.TokenBucketConfig{}),
//	})
package retry
