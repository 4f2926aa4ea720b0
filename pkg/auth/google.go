package auth

import (
	"golang.org/x/oauth2/google"
)

// ===== Google OAuth =====

// Google's userinfo endpoint (https://openidconnect.googleapis.com/v1/userinfo)
// returns the standard OpenID Connect claims, so the shared OpenID mapping applies.
func googleProvider() *Provider {
	return &Provider{
		Name:  "google",
		Title: "Google",
		Endpoints: Endpoints{
			Endpoint:    google.Endpoint, // Google's OAuth2 endpoints
			UserInfoURL: "https://openidconnect.googleapis.com/v1/userinfo",
		},
		Scopes:       []string{"email", "profile"},
		EmailScopes:  []string{"email"},
		FetchProfile: openIDProfile,
	}
}
