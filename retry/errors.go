package retry

import "errors"

// ErrRetryQuotaExhausted is matched by errors returned when the retry token
// bucket cannot pay for another attempt.
var ErrRetryQuotaExhausted = errors.New("retry: retry quota exhausted")

// QuotaExhaustedError reports a retry refused by the token bucket. It wraps
// the error of the last attempt.
type QuotaExhaustedError struct {
	Err error
}

func (e *QuotaExhaustedError) Error() string {
	if e.Err == nil {
		return ErrRetryQuotaExhausted.Error()
	}
	return ErrRetryQuotaExhausted.Error() + ": " + e.Err.Error()
}

func (e *QuotaExhaustedError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrRetryQuotaExhausted.
func (e *QuotaExhaustedError) Is(target error) bool {
	return target == ErrRetryQuotaExhausted
}
