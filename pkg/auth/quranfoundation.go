package auth

import (
	"golang.org/x/oauth2"
)

// ===== Quran.Foundation OAuth =====

// Quran.Foundation runs a standard OpenID Connect server; the profile comes
// from its userinfo endpoint.
func quranFoundationProvider() *Provider {
	return &Provider{
		Name:  "quranfoundation",
		Title: "Quran.Foundation",
		Endpoints: Endpoints{
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://auth.quran.foundation/authorize",
				TokenURL: "https://auth.quran.foundation/oauth/token",
			},
			UserInfoURL: "https://auth.quran.foundation/userinfo",
		},
		Scopes:       []string{"openid", "profile"},
		EmailScopes:  []string{"email"},
		FetchProfile: openIDProfile,
	}
}
