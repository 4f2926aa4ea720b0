package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderConfig_Merge(t *testing.T) {
	callSite := ProviderConfig{
		ClientID: "call-site-id",
		Scope:    []string{"read"},
	}
	runtime := ProviderConfig{
		ClientID:            "runtime-id",
		ClientSecret:        "runtime-secret",
		Scope:               []string{"write"},
		EmailRequired:       Bool(true),
		AuthorizationParams: map[string]string{"hd": "example.com"},
		Domain:              "tenant.example.com",
	}

	merged := callSite.Merge(runtime)
	assert.Equal(t, "call-site-id", merged.ClientID)
	assert.Equal(t, "runtime-secret", merged.ClientSecret)
	assert.Equal(t, []string{"read"}, merged.Scope)
	assert.True(t, merged.emailRequired())
	assert.Equal(t, "tenant.example.com", merged.Domain)

	// The merge result does not alias its inputs.
	merged.Scope[0] = "changed"
	merged.AuthorizationParams["hd"] = "changed"
	assert.Equal(t, []string{"read"}, callSite.Scope)
	assert.Equal(t, "example.com", runtime.AuthorizationParams["hd"])
}

func TestProviderConfig_MergeExplicitFalse(t *testing.T) {
	merged := ProviderConfig{EmailRequired: Bool(false)}.Merge(ProviderConfig{EmailRequired: Bool(true)})
	require.NotNil(t, merged.EmailRequired)
	assert.False(t, merged.emailRequired())
}

func TestProviderConfig_Scopes(t *testing.T) {
	p := &Provider{Scopes: []string{"openid", "profile"}, EmailScopes: []string{"email"}}

	assert.Equal(t, []string{"openid", "profile"}, ProviderConfig{}.scopes(p))
	assert.Equal(t, []string{"openid", "profile", "email"}, ProviderConfig{EmailRequired: Bool(true)}.scopes(p))
	assert.Equal(t, []string{"email", "openid"}, ProviderConfig{Scope: []string{"email", "openid"}, EmailRequired: Bool(true)}.scopes(p))
	assert.Empty(t, ProviderConfig{}.scopes(&Provider{}))

	// Defaults are never modified.
	_ = ProviderConfig{EmailRequired: Bool(true)}.scopes(p)
	assert.Equal(t, []string{"openid", "profile"}, p.Scopes)
}

func TestResolveConfig(t *testing.T) {
	creds := ProviderConfig{ClientID: "id", ClientSecret: "secret"}

	t.Run("static endpoints", func(t *testing.T) {
		cfg, endpoints, err := resolveConfig(linearProvider(), ProviderConfig{}, creds)
		require.Nil(t, err)
		assert.Equal(t, "https://linear.app/oauth/authorize", endpoints.AuthURL)
		assert.Equal(t, "https://api.linear.app/oauth/token", endpoints.TokenURL)
		assert.Equal(t, "https://api.linear.app/graphql", endpoints.UserInfoURL)
		assert.Equal(t, endpoints.UserInfoURL, cfg.UserInfoURL)
	})

	t.Run("overrides win over defaults", func(t *testing.T) {
		_, endpoints, err := resolveConfig(linearProvider(), ProviderConfig{TokenURL: "http://127.0.0.1/token"}, creds)
		require.Nil(t, err)
		assert.Equal(t, "http://127.0.0.1/token", endpoints.TokenURL)
		assert.Equal(t, "https://linear.app/oauth/authorize", endpoints.AuthURL)
	})

	t.Run("resolved endpoints", func(t *testing.T) {
		_, endpoints, err := resolveConfig(keycloakProvider(), ProviderConfig{ServerURL: "https://sso.example.com/", Realm: "staff"}, creds)
		require.Nil(t, err)
		assert.Equal(t, "https://sso.example.com/realms/staff/protocol/openid-connect/auth", endpoints.AuthURL)
	})

	t.Run("fully overridden skips resolver", func(t *testing.T) {
		_, endpoints, err := resolveConfig(oktaProvider(), ProviderConfig{
			AuthorizationURL: "https://idp.test/authorize",
			TokenURL:         "https://idp.test/token",
			UserInfoURL:      "https://idp.test/userinfo",
		}, creds)
		require.Nil(t, err)
		assert.Equal(t, "https://idp.test/userinfo", endpoints.UserInfoURL)
	})

	t.Run("missing secret", func(t *testing.T) {
		_, _, err := resolveConfig(linearProvider(), ProviderConfig{ClientID: "id"}, ProviderConfig{})
		require.NotNil(t, err)
		assert.Equal(t, KindConfiguration, err.Kind)
		assert.Equal(t, "linear", err.Provider)
	})

	t.Run("missing endpoints", func(t *testing.T) {
		custom := &Provider{Name: "custom", Title: "Custom", FetchProfile: openIDProfile}
		_, _, err := resolveConfig(custom, creds, ProviderConfig{})
		require.NotNil(t, err)
		assert.Equal(t, KindConfiguration, err.Kind)
		assert.Contains(t, err.Message, "authorization or token URL")
	})
}
