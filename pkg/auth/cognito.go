package auth

import (
	"fmt"

	"golang.org/x/oauth2"
)

// ===== Amazon Cognito OAuth =====

// cognitoProvider serves a Cognito user pool domain, either the
// `<prefix>.auth.<region>.amazoncognito.com` form or a custom domain.
func cognitoProvider() *Provider {
	return &Provider{
		Name:             "cognito",
		Title:            "Amazon Cognito",
		ResolveEndpoints: cognitoEndpoints,
		Scopes:           []string{"openid", "profile"},
		EmailScopes:      []string{"email"},
		FetchProfile:     jsonProfile(nil, normalizeCognitoUser),
	}
}

func cognitoEndpoints(cfg ProviderConfig) (Endpoints, error) {
	domain := hostOf(cfg.Domain)
	if domain == "" {
		return Endpoints{}, fmt.Errorf("%w: cognito domain is required", ErrMissingConfiguration)
	}
	base := "https://" + domain + "/oauth2"
	return Endpoints{
		Endpoint: oauth2.Endpoint{
			AuthURL:  base + "/authorize",
			TokenURL: base + "/token",
		},
		UserInfoURL: base + "/userInfo",
	}, nil
}

// CognitoUserInfo is the userinfo response of a Cognito user pool. Unlike a
// plain OpenID provider the pool login is returned as "username".
type CognitoUserInfo struct {
	OpenIDUserInfo
	Username string `json:"username"`
}

func normalizeCognitoUser(u *CognitoUserInfo) (*User, error) {
	user, err := normalizeOpenID(&u.OpenIDUserInfo)
	if err != nil {
		return nil, err
	}
	if user.Username == "" {
		user.Username = u.Username
	}
	return user, nil
}
