package auth

import (
	"golang.org/x/oauth2/linkedin"
)

// ===== LinkedIn OAuth =====

// LinkedIn's "Sign In with LinkedIn using OpenID Connect" exposes a standard
// userinfo endpoint, which replaced the `/v2/me` + `/v2/emailAddress` pair.
// See: https://learn.microsoft.com/en-us/linkedin/consumer/integrations/self-serve/sign-in-with-linkedin-v2
func linkedInProvider() *Provider {
	return &Provider{
		Name:  "linkedin",
		Title: "LinkedIn",
		Endpoints: Endpoints{
			Endpoint:    linkedin.Endpoint, // LinkedIn's OAuth2 endpoints
			UserInfoURL: "https://api.linkedin.com/v2/userinfo",
		},
		Scopes:       []string{"openid", "profile"},
		EmailScopes:  []string{"email"},
		FetchProfile: openIDProfile,
	}
}
