package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuiltinProviders(t *testing.T) {
	for name, p := range builtinProviders() {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, name, p.Name)
			assert.NotEmpty(t, p.Title)
			assert.NotNil(t, p.FetchProfile)
			if p.ResolveEndpoints == nil {
				assert.NotEmpty(t, p.Endpoints.AuthURL)
				assert.NotEmpty(t, p.Endpoints.TokenURL)
				assert.NotEmpty(t, p.Endpoints.UserInfoURL)
			}
		})
	}
}

func TestResolveEndpoints(t *testing.T) {
	tests := []struct {
		name     string
		provider *Provider
		cfg      ProviderConfig
		auth     string
		token    string
		userInfo string
	}{
		{
			name:     "okta",
			provider: oktaProvider(),
			cfg:      ProviderConfig{Domain: "https://dev-1.okta.com/"},
			auth:     "https://dev-1.okta.com/oauth2/v1/authorize",
			token:    "https://dev-1.okta.com/oauth2/v1/token",
			userInfo: "https://dev-1.okta.com/oauth2/v1/userinfo",
		},
		{
			name:     "auth0",
			provider: auth0Provider(),
			cfg:      ProviderConfig{Domain: "tenant.eu.auth0.com"},
			auth:     "https://tenant.eu.auth0.com/authorize",
			token:    "https://tenant.eu.auth0.com/oauth/token",
			userInfo: "https://tenant.eu.auth0.com/userinfo",
		},
		{
			name:     "cognito",
			provider: cognitoProvider(),
			cfg:      ProviderConfig{Domain: "app.auth.us-east-1.amazoncognito.com"},
			auth:     "https://app.auth.us-east-1.amazoncognito.com/oauth2/authorize",
			token:    "https://app.auth.us-east-1.amazoncognito.com/oauth2/token",
			userInfo: "https://app.auth.us-east-1.amazoncognito.com/oauth2/userInfo",
		},
		{
			name:     "keycloak",
			provider: keycloakProvider(),
			cfg:      ProviderConfig{ServerURL: "https://sso.example.com", Realm: "my realm"},
			auth:     "https://sso.example.com/realms/my%20realm/protocol/openid-connect/auth",
			token:    "https://sso.example.com/realms/my%20realm/protocol/openid-connect/token",
			userInfo: "https://sso.example.com/realms/my%20realm/protocol/openid-connect/userinfo",
		},
		{
			name:     "microsoft default tenant",
			provider: microsoftProvider(),
			auth:     "https://login.microsoftonline.com/common/oauth2/v2.0/authorize",
			token:    "https://login.microsoftonline.com/common/oauth2/v2.0/token",
			userInfo: "https://graph.microsoft.com/v1.0/me",
		},
		{
			name:     "microsoft tenant",
			provider: microsoftProvider(),
			cfg:      ProviderConfig{Tenant: "contoso.onmicrosoft.com"},
			auth:     "https://login.microsoftonline.com/contoso.onmicrosoft.com/oauth2/v2.0/authorize",
			token:    "https://login.microsoftonline.com/contoso.onmicrosoft.com/oauth2/v2.0/token",
			userInfo: "https://graph.microsoft.com/v1.0/me",
		},
		{
			name:     "battle.net global",
			provider: battleNetProvider(),
			cfg:      ProviderConfig{Region: "eu"},
			auth:     "https://oauth.battle.net/authorize",
			token:    "https://oauth.battle.net/token",
			userInfo: "https://oauth.battle.net/userinfo",
		},
		{
			name:     "battle.net china",
			provider: battleNetProvider(),
			cfg:      ProviderConfig{Region: "CN"},
			auth:     "https://oauth.battlenet.com.cn/authorize",
			token:    "https://oauth.battlenet.com.cn/token",
			userInfo: "https://oauth.battlenet.com.cn/userinfo",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			endpoints, err := tt.provider.endpoints(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.auth, endpoints.AuthURL)
			assert.Equal(t, tt.token, endpoints.TokenURL)
			assert.Equal(t, tt.userInfo, endpoints.UserInfoURL)
		})
	}
}

func TestResolveEndpoints_MissingSettings(t *testing.T) {
	for _, p := range []*Provider{oktaProvider(), auth0Provider(), cognitoProvider(), keycloakProvider()} {
		t.Run(p.Name, func(t *testing.T) {
			_, err := p.endpoints(ProviderConfig{})
			assert.ErrorIs(t, err, ErrMissingConfiguration)
		})
	}
	_, err := keycloakProvider().endpoints(ProviderConfig{ServerURL: "https://sso.example.com"})
	assert.ErrorIs(t, err, ErrMissingConfiguration)
}

func TestNormalizers(t *testing.T) {
	t.Run("github", func(t *testing.T) {
		user, err := normalizeGitHubUser(&GitHubUserInfo{ID: 583231, Login: "octocat", AvatarURL: "https://avatars/1"})
		require.NoError(t, err)
		assert.Equal(t, &User{ID: "583231", Avatar: "https://avatars/1", Username: "octocat"}, user, "no display name is not replaced by the login")

		_, err = normalizeGitHubUser(&GitHubUserInfo{Login: "ghost"})
		assert.ErrorIs(t, err, ErrInvalidProfile)
	})

	t.Run("discord", func(t *testing.T) {
		user, err := normalizeDiscordUser(&DiscordUserInfo{ID: "80351110224678912", Username: "nelly", Avatar: "8342729096ea3675442027381ff50dfe"})
		require.NoError(t, err)
		assert.Empty(t, user.Name)
		assert.Equal(t, "nelly", user.Username)
		assert.Equal(t, "https://cdn.discordapp.com/avatars/80351110224678912/8342729096ea3675442027381ff50dfe.png", user.Avatar)

		user, err = normalizeDiscordUser(&DiscordUserInfo{ID: "1", Username: "nelly", GlobalName: "Nelly"})
		require.NoError(t, err)
		assert.Equal(t, "Nelly", user.Name)
		assert.Empty(t, user.Avatar)
	})

	t.Run("facebook silhouette", func(t *testing.T) {
		user, err := normalizeFacebookUser(&FacebookUserInfo{
			ID:      "10",
			Name:    "Mark",
			Picture: &FacebookPictureData{Data: FacebookPicture{URL: "https://fb/default.png", IsSilhouette: true}},
		})
		require.NoError(t, err)
		assert.Empty(t, user.Avatar)
	})

	t.Run("microsoft", func(t *testing.T) {
		user, err := normalizeMicrosoftUser(&MicrosoftUserInfo{ID: "m1", DisplayName: "Alice", UserPrincipalName: "alice_contoso.com#EXT#@fabrikam.onmicrosoft.com"})
		require.NoError(t, err)
		assert.Empty(t, user.Email, "the sign-in name is not a mailbox")
		assert.Equal(t, "alice_contoso.com#EXT#@fabrikam.onmicrosoft.com", user.Username)

		user, err = normalizeMicrosoftUser(&MicrosoftUserInfo{ID: "m1", Mail: "adele@contoso.com", UserPrincipalName: "adelev@contoso.com"})
		require.NoError(t, err)
		assert.Equal(t, "adele@contoso.com", user.Email)
	})

	t.Run("spotify", func(t *testing.T) {
		user, err := normalizeSpotifyUser(&SpotifyUserInfo{ID: "wizzler", DisplayName: "JM Wizzler", Images: []SpotifyImage{{URL: "https://i.scdn.co/big"}, {URL: "https://i.scdn.co/small"}}})
		require.NoError(t, err)
		assert.Equal(t, "https://i.scdn.co/big", user.Avatar)
		assert.Equal(t, "wizzler", user.Username)
	})

	t.Run("twitch empty", func(t *testing.T) {
		_, err := normalizeTwitchUsers(&twitchUsersResponse{})
		assert.ErrorIs(t, err, ErrInvalidProfile)
	})

	t.Run("okta", func(t *testing.T) {
		user, err := normalizeOktaUser(&OktaUserInfo{Sub: "00u1", PreferredUsername: "jane@example.com", GivenName: "Jane"})
		require.NoError(t, err)
		assert.Empty(t, user.Name)
		assert.Equal(t, "jane@example.com", user.Username)
		assert.Equal(t, "Jane", user.FirstName)
	})

	t.Run("cognito username", func(t *testing.T) {
		var info CognitoUserInfo
		require.NoError(t, json.Unmarshal([]byte(`{"sub":"c1","email":"c@example.com","username":"pool-user"}`), &info))
		user, err := normalizeCognitoUser(&info)
		require.NoError(t, err)
		assert.Equal(t, "c1", user.ID)
		assert.Equal(t, "pool-user", user.Username)
	})

	t.Run("battle.net", func(t *testing.T) {
		user, err := normalizeBattleNetUser(&BattleNetUserInfo{ID: 12345, BattleTag: "Player#1234"})
		require.NoError(t, err)
		assert.Equal(t, "12345", user.ID)
		assert.Equal(t, "Player#1234", user.Name)

		_, err = normalizeBattleNetUser(&BattleNetUserInfo{})
		assert.ErrorIs(t, err, ErrInvalidProfile)
	})

	t.Run("openid", func(t *testing.T) {
		_, err := normalizeOpenID(&OpenIDUserInfo{Email: "x@example.com"})
		assert.ErrorIs(t, err, ErrInvalidProfile)
	})

	t.Run("linear", func(t *testing.T) {
		_, err := normalizeLinearViewer(&linearViewerResponse{})
		assert.ErrorIs(t, err, ErrInvalidProfile)
	})
}

func TestSelectPrimaryGitHubEmail(t *testing.T) {
	assert.Equal(t, "primary@example.com", selectPrimaryGitHubEmail([]GitHubUserEmail{
		{Email: "first@example.com"},
		{Email: "verified@example.com", Verified: true},
		{Email: "primary@example.com", Primary: true, Verified: true},
	}))
	assert.Equal(t, "verified@example.com", selectPrimaryGitHubEmail([]GitHubUserEmail{
		{Email: "first@example.com", Primary: true},
		{Email: "verified@example.com", Verified: true},
	}))
	assert.Equal(t, "first@example.com", selectPrimaryGitHubEmail([]GitHubUserEmail{{Email: "first@example.com"}}))
	assert.Empty(t, selectPrimaryGitHubEmail(nil))
}

func TestFetchGitHubProfile(t *testing.T) {
	emailsStatus := http.StatusOK
	var emailCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/user":
			_, _ = io.WriteString(w, `{"id":1,"login":"octocat","name":"The Octocat","email":null}`)
		case "/user/emails":
			emailCalls++
			w.WriteHeader(emailsStatus)
			_, _ = io.WriteString(w, `[{"email":"octo@example.com","primary":true,"verified":true}]`)
		}
	}))
	t.Cleanup(srv.Close)

	fetch := func(emailRequired bool) *User {
		t.Helper()
		user, err := fetchGitHubProfile(context.Background(), &ProfileRequest{
			Client: srv.Client(),
			Config: ProviderConfig{UserInfoURL: srv.URL + "/user", EmailRequired: Bool(emailRequired)},
			Logger: zap.NewNop(),
		})
		require.NoError(t, err)
		return user
	}

	assert.Empty(t, fetch(false).Email)
	assert.Zero(t, emailCalls)

	assert.Equal(t, "octo@example.com", fetch(true).Email)
	assert.Equal(t, 1, emailCalls)

	// A failing emails call does not fail the login.
	emailsStatus = http.StatusForbidden
	user := fetch(true)
	assert.Empty(t, user.Email)
	assert.Equal(t, "1", user.ID)
}

func TestFetchTwitchUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "twitch-client", r.Header.Get("Client-Id"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"data":[{"id":"141981764","login":"twitchdev","display_name":"TwitchDev","email":"dev@example.com","profile_image_url":"https://static-cdn/x.png"}]}`)
	}))
	t.Cleanup(srv.Close)

	user, err := fetchTwitchUser(context.Background(), &ProfileRequest{
		Client: srv.Client(),
		Config: ProviderConfig{ClientID: "twitch-client", UserInfoURL: srv.URL},
	})
	require.NoError(t, err)
	assert.Equal(t, &User{
		ID:          "141981764",
		Name:        "TwitchDev",
		Email:       "dev@example.com",
		Avatar:      "https://static-cdn/x.png",
		DisplayName: "TwitchDev",
		Username:    "twitchdev",
	}, user)
}

func TestFetchJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/post":
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Equal(t, "application/json", r.Header.Get("Accept"))
			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			_ = json.NewEncoder(w).Encode(body)
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"message":"bad token"}`)
		}
	}))
	t.Cleanup(srv.Close)

	var out map[string]string
	err := fetchJSON(context.Background(), srv.Client(), profileCall{Method: http.MethodPost, URL: srv.URL + "/post", Body: map[string]string{"q": "x"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"q": "x"}, out)

	err = fetchJSON(context.Background(), srv.Client(), profileCall{URL: srv.URL + "/denied"}, &out)
	assert.ErrorContains(t, err, "status 401")
	assert.ErrorContains(t, err, "bad token")
}
