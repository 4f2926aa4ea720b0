package auth

import (
	"fmt"

	"golang.org/x/oauth2"
)

// ===== Auth0 OAuth =====

// auth0Provider serves an Auth0 tenant identified by cfg.Domain. A configured
// Audience is sent on the authorization request.
func auth0Provider() *Provider {
	return &Provider{
		Name:             "auth0",
		Title:            "Auth0",
		ResolveEndpoints: auth0Endpoints,
		Scopes:           []string{"openid", "profile"},
		EmailScopes:      []string{"email"},
		FetchProfile:     openIDProfile,
	}
}

func auth0Endpoints(cfg ProviderConfig) (Endpoints, error) {
	domain := hostOf(cfg.Domain)
	if domain == "" {
		return Endpoints{}, fmt.Errorf("%w: auth0 domain is required", ErrMissingConfiguration)
	}
	return Endpoints{
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://" + domain + "/authorize",
			TokenURL: "https://" + domain + "/oauth/token",
		},
		UserInfoURL: "https://" + domain + "/userinfo",
	}, nil
}
