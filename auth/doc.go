// Package auth selects an auth scheme for an operation and signs requests
// with it.
//
// An OptionResolver lists candidate schemes in preference order. Select
// picks the first option whose scheme is registered in Schemes and whose
// identity resolver is configured; if none qualifies the returned
// NoMatchingSchemeError explains every candidate. ExtractEndpointConfig
// then reads the endpoint's authSchemes property for the chosen scheme.
//
// Built-in signers cover SigV4, bearer tokens, API keys, HTTP basic auth
// and unsigned requests. The package is transport-agnostic beyond
// net/http requests.
package auth
