package ratelimit

import "errors"

// ErrOutOfTokens is returned when the adaptive limiter would have to delay a
// request for longer than its configured maximum.
var ErrOutOfTokens = errors.New("ratelimit: client rate limiter is out of tokens")
