package sdkerr

import "fmt"

// ConnectorErrorKind describes why a connector call failed.
type ConnectorErrorKind int

const (
	// ConnectorOther is an unclassified connector failure.
	ConnectorOther ConnectorErrorKind = iota
	// ConnectorTimeout is a connect or read timeout.
	ConnectorTimeout
	// ConnectorIO is a network I/O failure such as a reset connection.
	ConnectorIO
	// ConnectorUser is a failure caused by the request itself, for
	// example an invalid URL or a body that cannot be read.
	ConnectorUser
	// ConnectorRejected means the connector refused the call before
	// anything was sent, for example an open circuit or a full bulkhead.
	ConnectorRejected
)

func (k ConnectorErrorKind) String() string {
	switch k {
	case ConnectorTimeout:
		return "timeout"
	case ConnectorIO:
		return "io"
	case ConnectorUser:
		return "user"
	case ConnectorRejected:
		return "rejected"
	default:
		return "other"
	}
}

// ConnectorError is returned by connectors for transport-level failures.
type ConnectorError struct {
	Kind ConnectorErrorKind
	Err  error
}

func (e *ConnectorError) Error() string {
	return fmt.Sprintf("connector %s error: %v", e.Kind, e.Err)
}

func (e *ConnectorError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether the failure was a timeout.
func (e *ConnectorError) IsTimeout() bool { return e.Kind == ConnectorTimeout }

// IsIO reports whether the failure was a network I/O failure.
func (e *ConnectorError) IsIO() bool { return e.Kind == ConnectorIO }

// IsRejected reports whether the call was refused without being sent.
func (e *ConnectorError) IsRejected() bool { return e.Kind == ConnectorRejected }
