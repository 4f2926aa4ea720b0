package auth

import (
	"fmt"
	"strings"

	"golang.org/x/oauth2"
)

// ===== Okta OAuth =====

// OktaUserInfo represents the user information returned by Okta's userinfo endpoint
// (https://{domain}/oauth2/v1/userinfo).
type OktaUserInfo struct {
	Sub               string `json:"sub"`                // The user's unique Okta ID.
	Name              string `json:"name"`               // The user's full name.
	GivenName         string `json:"given_name"`         // The user's first name.
	FamilyName        string `json:"family_name"`        // The user's last name.
	Nickname          string `json:"nickname,omitempty"` // The user's nickname.
	PreferredUsername string `json:"preferred_username"` // The user's preferred username, usually the login.
	Picture           string `json:"picture,omitempty"`  // URL of the user's profile picture.
	Email             string `json:"email"`              // The user's email address.
	EmailVerified     bool   `json:"email_verified"`     // Whether the email address is verified.
	Zoneinfo          string `json:"zoneinfo,omitempty"` // The user's time zone.
	Locale            string `json:"locale,omitempty"`   // The user's locale.
}

func oktaProvider() *Provider {
	return &Provider{
		Name:             "okta",
		Title:            "Okta",
		ResolveEndpoints: oktaEndpoints,
		Scopes:           []string{"openid", "profile"},
		EmailScopes:      []string{"email"},
		FetchProfile:     jsonProfile(nil, normalizeOktaUser),
	}
}

// oktaEndpoints uses the org authorization server of cfg.Domain.
func oktaEndpoints(cfg ProviderConfig) (Endpoints, error) {
	domain := hostOf(cfg.Domain)
	if domain == "" {
		return Endpoints{}, fmt.Errorf("%w: okta domain is required", ErrMissingConfiguration)
	}
	base := "https://" + domain + "/oauth2/v1"
	return Endpoints{
		Endpoint: oauth2.Endpoint{
			AuthURL:  base + "/authorize",
			TokenURL: base + "/token",
		},
		UserInfoURL: base + "/userinfo",
	}, nil
}

func normalizeOktaUser(u *OktaUserInfo) (*User, error) {
	if u.Sub == "" {
		return nil, fmt.Errorf("%w: okta user has no sub", ErrInvalidProfile)
	}
	return &User{
		ID:          u.Sub,
		Name:        u.Name,
		Email:       u.Email,
		Avatar:      u.Picture,
		DisplayName: u.Nickname,
		Username:    u.PreferredUsername,
		FirstName:   u.GivenName,
		LastName:    u.FamilyName,
	}, nil
}

// hostOf accepts a bare host or a URL and returns the host part.
func hostOf(domain string) string {
	domain = strings.TrimSpace(domain)
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	return strings.TrimSuffix(domain, "/")
}
