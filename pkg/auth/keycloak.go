package auth

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

// ===== Keycloak OAuth =====

func keycloakProvider() *Provider {
	return &Provider{
		Name:             "keycloak",
		Title:            "Keycloak",
		ResolveEndpoints: keycloakEndpoints,
		Scopes:           []string{"openid", "profile"},
		EmailScopes:      []string{"email"},
		FetchProfile:     openIDProfile,
	}
}

// keycloakEndpoints derives the OpenID Connect endpoints of cfg.Realm on cfg.ServerURL.
func keycloakEndpoints(cfg ProviderConfig) (Endpoints, error) {
	if cfg.ServerURL == "" || cfg.Realm == "" {
		return Endpoints{}, fmt.Errorf("%w: keycloak server URL and realm are required", ErrMissingConfiguration)
	}
	base := strings.TrimSuffix(cfg.ServerURL, "/") + "/realms/" + url.PathEscape(cfg.Realm) + "/protocol/openid-connect"
	return Endpoints{
		Endpoint: oauth2.Endpoint{
			AuthURL:  base + "/auth",
			TokenURL: base + "/token",
		},
		UserInfoURL: base + "/userinfo",
	}, nil
}
