package auth

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for auth scheme selection and signing.
var (
	// Selection errors
	ErrNoMatchingScheme       = errors.New("auth: no auth scheme matched the auth options")
	ErrBadEndpointConfig      = errors.New("auth: bad endpoint auth scheme config")
	ErrEndpointConfigMismatch = errors.New("auth: selected auth scheme / endpoint config mismatch")

	// Signing errors
	ErrWrongIdentity     = errors.New("auth: identity type not supported by signer")
	ErrMissingSigningArg = errors.New("auth: missing signing property")
	ErrUnreplayableBody  = errors.New("auth: request body cannot be read for signing")

	// Registry errors
	ErrInvalidScheme   = errors.New("auth: invalid auth scheme registration")
	ErrSchemeDuplicate = errors.New("auth: auth scheme already registered")
)

// Explanation records why one auth option was passed over.
type Explanation struct {
	SchemeID SchemeID
	Reason   string
}

// NoMatchingSchemeError reports that none of the resolved auth options can
// be used by this client. It is a configuration error.
type NoMatchingSchemeError struct {
	Explanations []Explanation
}

func (e *NoMatchingSchemeError) Error() string {
	if len(e.Explanations) == 0 {
		return ErrNoMatchingScheme.Error() + ": no auth options were resolved for this operation"
	}
	parts := make([]string, len(e.Explanations))
	for i, x := range e.Explanations {
		parts[i] = fmt.Sprintf("%q (%s)", x.SchemeID, x.Reason)
	}
	return ErrNoMatchingScheme.Error() + ": " + strings.Join(parts, ", ")
}

func (e *NoMatchingSchemeError) Unwrap() error {
	return ErrNoMatchingScheme
}

// SchemeIDs returns the attempted scheme ids in option order.
func (e *NoMatchingSchemeError) SchemeIDs() []SchemeID {
	ids := make([]SchemeID, len(e.Explanations))
	for i, x := range e.Explanations {
		ids[i] = x.SchemeID
	}
	return ids
}

// EndpointConfigMismatchError reports that the endpoint's authSchemes
// property has no entry for the selected scheme.
type EndpointConfigMismatchError struct {
	SchemeID  SchemeID
	Supported []string
}

func (e *EndpointConfigMismatchError) Error() string {
	return fmt.Sprintf("%s: couldn't find %q endpoint config for this endpoint; the authentication schemes supported by this endpoint are: %q",
		ErrEndpointConfigMismatch.Error(), e.SchemeID, e.Supported)
}

func (e *EndpointConfigMismatchError) Unwrap() error {
	return ErrEndpointConfigMismatch
}
