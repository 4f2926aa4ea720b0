package auth

import (
	"fmt"

	"github.com/julien040/go-ternary"
	"golang.org/x/oauth2/microsoft"
)

// ===== Microsoft OAuth =====

// MicrosoftUserInfo represents the user returned by Microsoft Graph `/me`.
// See: https://learn.microsoft.com/en-us/graph/api/user-get
type MicrosoftUserInfo struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	GivenName         string `json:"givenName"`
	Surname           string `json:"surname"`
	Mail              string `json:"mail"`              // Often null for personal accounts.
	UserPrincipalName string `json:"userPrincipalName"` // Sign-in name, usually an email address.
}

func microsoftProvider() *Provider {
	return &Provider{
		Name:             "microsoft",
		Title:            "Microsoft",
		ResolveEndpoints: microsoftEndpoints,
		Scopes:           []string{"openid", "profile", "User.Read"},
		EmailScopes:      []string{"email"},
		FetchProfile:     jsonProfile(nil, normalizeMicrosoftUser),
	}
}

// microsoftEndpoints targets cfg.Tenant, or the multi-tenant "common" endpoint.
func microsoftEndpoints(cfg ProviderConfig) (Endpoints, error) {
	return Endpoints{
		Endpoint:    microsoft.AzureADEndpoint(ternary.If(cfg.Tenant != "", cfg.Tenant, "common")),
		UserInfoURL: "https://graph.microsoft.com/v1.0/me",
	}, nil
}

func normalizeMicrosoftUser(u *MicrosoftUserInfo) (*User, error) {
	if u.ID == "" {
		return nil, fmt.Errorf("%w: microsoft user has no id", ErrInvalidProfile)
	}
	return &User{
		ID:          u.ID,
		Name:        u.DisplayName,
		Email:       u.Mail, // The UPN is a sign-in name, not necessarily a mailbox.
		DisplayName: u.DisplayName,
		Username:    u.UserPrincipalName,
		FirstName:   u.GivenName,
		LastName:    u.Surname,
	}, nil
}
