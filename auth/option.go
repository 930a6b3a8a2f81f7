package auth

import "slices"

// SchemeID identifies an auth scheme.
type SchemeID string

// Built-in scheme ids.
const (
	SchemeSigV4  SchemeID = "sigv4"
	SchemeSigV4A SchemeID = "sigv4a"
	SchemeBearer SchemeID = "http-bearer-auth"
	SchemeAPIKey SchemeID = "http-api-key-auth"
	SchemeBasic  SchemeID = "http-basic-auth"
	SchemeNoAuth SchemeID = "no_auth"
)

// Option signing property names.
const (
	PropSigningName   = "signing_name"
	PropSigningRegion = "signing_region"
	PropAPIKeyName    = "api_key_name"
	PropAPIKeyIn      = "api_key_in"
	PropAPIKeyScheme  = "api_key_scheme"
)

// Option is a candidate auth scheme for an operation plus the properties
// its signer needs.
type Option struct {
	SchemeID   SchemeID
	Properties map[string]string
}

// NewOption creates an option. props are name/value pairs.
func NewOption(id SchemeID, props ...string) Option {
	o := Option{SchemeID: id}
	if len(props) > 0 {
		o.Properties = make(map[string]string, len(props)/2)
		for i := 0; i+1 < len(props); i += 2 {
			o.Properties[props[i]] = props[i+1]
		}
	}
	return o
}

// Property returns a signing property, or "" when unset.
func (o Option) Property(name string) string {
	return o.Properties[name]
}

// Params are the inputs to auth option resolution.
type Params struct {
	Service   string
	Operation string
	Region    string
}

// OptionResolver lists the auth options for an operation in preference
// order.
//
// Contract:
// - Purity: resolution must not perform I/O; it is a function of params and
// client configuration only.
// - Determinism: equal params must produce equal option lists.
type OptionResolver interface {
	ResolveAuthOptions(params Params) ([]Option, error)
}

// OptionResolverFunc adapts a function to OptionResolver.
type OptionResolverFunc func(params Params) ([]Option, error)

// ResolveAuthOptions calls f.
func (f OptionResolverFunc) ResolveAuthOptions(params Params) ([]Option, error) {
	return f(params)
}

// StaticOptionResolver returns a fixed option list.
type StaticOptionResolver struct {
	options []Option
}

// StaticOptions returns a resolver for a fixed option list.
func StaticOptions(options ...Option) *StaticOptionResolver {
	return &StaticOptionResolver{options: slices.Clone(options)}
}

// ResolveAuthOptions returns a copy of the static options.
func (r *StaticOptionResolver) ResolveAuthOptions(Params) ([]Option, error) {
	return slices.Clone(r.options), nil
}

var (
	_ OptionResolver = OptionResolverFunc(nil)
	_ OptionResolver = (*StaticOptionResolver)(nil)
)
