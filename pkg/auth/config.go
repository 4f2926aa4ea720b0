package auth

import (
	"maps"
	"slices"

	"github.com/julien040/go-ternary"
)

// ProviderConfig holds the settings for one provider. Every field is optional;
// a field counts as set when it is non-empty (or non-nil for EmailRequired).
//
// The same shape is used at three levels, merged in this order of precedence:
// the call-site config passed to OAuthHandler.Handler, the process-wide
// OAuthConfig.Providers entry, and the provider's built-in defaults.
type ProviderConfig struct {
	ClientID         string   `yaml:"client_id" env:"CLIENT_ID"`
	ClientSecret     string   `yaml:"client_secret" env:"CLIENT_SECRET"`
	AuthorizationURL string   `yaml:"authorization_url" env:"AUTHORIZATION_URL"`
	TokenURL         string   `yaml:"token_url" env:"TOKEN_URL"`
	UserInfoURL      string   `yaml:"user_info_url" env:"USER_INFO_URL"`
	Scope            []string `yaml:"scope" env:"SCOPE" envSeparator:","`
	// EmailRequired adds the provider's email scopes when they are not already requested.
	EmailRequired *bool `yaml:"email_required" env:"EMAIL_REQUIRED"`
	// RedirectURL pins the redirect_uri instead of deriving it from the inbound request.
	RedirectURL string `yaml:"redirect_url" env:"REDIRECT_URL"`
	// AuthorizationParams are extra query parameters for the authorization redirect.
	AuthorizationParams map[string]string `yaml:"authorization_params" env:"AUTHORIZATION_PARAMS"`

	// Provider-specific settings.
	Domain    string `yaml:"domain" env:"DOMAIN"`         // okta, auth0, cognito
	Tenant    string `yaml:"tenant" env:"TENANT"`         // microsoft
	ServerURL string `yaml:"server_url" env:"SERVER_URL"` // keycloak
	Realm     string `yaml:"realm" env:"REALM"`           // keycloak
	Region    string `yaml:"region" env:"REGION"`         // battledotnet
	Audience  string `yaml:"audience" env:"AUDIENCE"`     // auth0
}

// Merge returns a copy of c with every unset field taken from fallback.
// Neither c nor fallback is modified.
func (c ProviderConfig) Merge(fallback ProviderConfig) ProviderConfig {
	return ProviderConfig{
		ClientID:            pick(c.ClientID, fallback.ClientID),
		ClientSecret:        pick(c.ClientSecret, fallback.ClientSecret),
		AuthorizationURL:    pick(c.AuthorizationURL, fallback.AuthorizationURL),
		TokenURL:            pick(c.TokenURL, fallback.TokenURL),
		UserInfoURL:         pick(c.UserInfoURL, fallback.UserInfoURL),
		Scope:               slices.Clone(ternary.If(len(c.Scope) > 0, c.Scope, fallback.Scope)),
		EmailRequired:       ternary.If(c.EmailRequired != nil, c.EmailRequired, fallback.EmailRequired),
		RedirectURL:         pick(c.RedirectURL, fallback.RedirectURL),
		AuthorizationParams: maps.Clone(ternary.If(len(c.AuthorizationParams) > 0, c.AuthorizationParams, fallback.AuthorizationParams)),
		Domain:              pick(c.Domain, fallback.Domain),
		Tenant:              pick(c.Tenant, fallback.Tenant),
		ServerURL:           pick(c.ServerURL, fallback.ServerURL),
		Realm:               pick(c.Realm, fallback.Realm),
		Region:              pick(c.Region, fallback.Region),
		Audience:            pick(c.Audience, fallback.Audience),
	}
}

// HasCredentials reports whether both the client ID and secret are present.
func (c ProviderConfig) HasCredentials() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// emailRequired dereferences EmailRequired, treating nil as false.
func (c ProviderConfig) emailRequired() bool {
	return c.EmailRequired != nil && *c.EmailRequired
}

// scopes returns the scopes to request: the configured ones or the provider
// defaults, plus the provider's email scopes when email is required.
func (c ProviderConfig) scopes(p *Provider) []string {
	scopes := slices.Clone(ternary.If(len(c.Scope) > 0, c.Scope, p.Scopes))
	if c.emailRequired() {
		for _, s := range p.EmailScopes {
			if !slices.Contains(scopes, s) {
				scopes = append(scopes, s)
			}
		}
	}
	return scopes
}

// Bool returns a pointer to v, for EmailRequired.
func Bool(v bool) *bool { return &v }

func pick(value, fallback string) string {
	return ternary.If(value != "", value, fallback)
}

// resolveConfig merges call-site, runtime and provider defaults and validates
// the result. The returned config is local to one invocation.
func resolveConfig(p *Provider, callSite, runtime ProviderConfig) (ProviderConfig, Endpoints, *Error) {
	cfg := callSite.Merge(runtime)

	endpoints, err := p.endpoints(cfg)
	if err != nil {
		return cfg, Endpoints{}, newError(KindConfiguration, p.Name,
			"invalid "+p.Title+" OAuth configuration", nil, err)
	}
	cfg = cfg.Merge(ProviderConfig{
		AuthorizationURL: endpoints.AuthURL,
		TokenURL:         endpoints.TokenURL,
		UserInfoURL:      endpoints.UserInfoURL,
	})

	if !cfg.HasCredentials() {
		return cfg, Endpoints{}, newError(KindConfiguration, p.Name,
			"missing "+p.Title+" OAuth client ID or client secret", nil, nil)
	}
	if cfg.AuthorizationURL == "" || cfg.TokenURL == "" {
		return cfg, Endpoints{}, newError(KindConfiguration, p.Name,
			"missing "+p.Title+" OAuth authorization or token URL", nil, nil)
	}

	return cfg, Endpoints{
		Endpoint:    endpointOf(cfg),
		UserInfoURL: cfg.UserInfoURL,
	}, nil
}
