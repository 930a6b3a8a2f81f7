package interceptor

import (
	"errors"
	"fmt"
)

// ErrAborted may be returned by interceptors that stop an operation without
// a more specific cause.
var ErrAborted = errors.New("interceptor: operation aborted")

// Error reports a failure raised by an interceptor at a hook.
type Error struct {
	Hook        Hook
	Interceptor string
	Err         error
}

func (e *Error) Error() string {
	return fmt.Sprintf("interceptor %q failed in %s: %v", e.Interceptor, e.Hook, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HookOf returns the hook of the first interceptor *Error in err's chain.
func HookOf(err error) (Hook, bool) {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Hook, true
	}
	return 0, false
}
