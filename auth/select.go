package auth

import (
	"github.com/jonwraymond/sdkruntime/endpoint"
	"github.com/jonwraymond/sdkruntime/identity"
)

// Selection is the auth option chosen for an operation.
type Selection struct {
	Option           Option
	Scheme           Scheme
	IdentityResolver identity.Resolver
}

// Select walks options in order and returns the first whose scheme is
// registered and has an identity resolver. Otherwise it returns a
// *NoMatchingSchemeError naming every option and why it was passed over.
// Select performs no I/O.
func Select(options []Option, schemes *Schemes, resolvers IdentityResolvers) (*Selection, error) {
	explanations := make([]Explanation, 0, len(options))

	for _, opt := range options {
		scheme, ok := schemes.Lookup(opt.SchemeID)
		if !ok {
			explanations = append(explanations, Explanation{opt.SchemeID, "no auth scheme registered"})
			continue
		}
		resolver := scheme.IdentityResolver(resolvers)
		if resolver == nil {
			explanations = append(explanations, Explanation{opt.SchemeID, "no identity resolver registered"})
			continue
		}
		return &Selection{Option: opt, Scheme: scheme, IdentityResolver: resolver}, nil
	}

	return nil, &NoMatchingSchemeError{Explanations: explanations}
}

// EndpointConfig is the endpoint's signing configuration for one scheme,
// taken from the endpoint's authSchemes property.
type EndpointConfig map[string]any

// String returns a string property of the config.
func (c EndpointConfig) String(name string) string {
	s, _ := c[name].(string)
	return s
}

// Bool returns a boolean property of the config.
func (c EndpointConfig) Bool(name string) bool {
	b, _ := c[name].(bool)
	return b
}

// ExtractEndpointConfig returns the authSchemes entry of ep whose "name" is
// id. An endpoint without authSchemes yields an empty config.
func ExtractEndpointConfig(ep *endpoint.Endpoint, id SchemeID) (EndpointConfig, error) {
	raw, ok := ep.Property(endpoint.AuthSchemesProperty)
	if !ok {
		return EndpointConfig{}, nil
	}

	var entries []map[string]any
	switch v := raw.(type) {
	case []map[string]any:
		entries = v
	case []any:
		for _, e := range v {
			if m, ok := e.(map[string]any); ok {
				entries = append(entries, m)
			}
		}
	default:
		return nil, ErrBadEndpointConfig
	}

	supported := make([]string, 0, len(entries))
	for _, e := range entries {
		name, _ := e["name"].(string)
		if name == string(id) {
			return EndpointConfig(e), nil
		}
		if name != "" {
			supported = append(supported, name)
		}
	}
	return nil, &EndpointConfigMismatchError{SchemeID: id, Supported: supported}
}
