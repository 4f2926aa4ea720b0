package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Endpoints are the provider URLs used by the flow.
type Endpoints struct {
	oauth2.Endpoint
	UserInfoURL string
}

// ProfileRequest carries what a provider needs to fetch the signed-in user.
type ProfileRequest struct {
	// Client sends the access token as a bearer Authorization header.
	Client *http.Client
	// Config is the resolved provider configuration for this invocation.
	Config ProviderConfig
	// Tokens is the token endpoint response.
	Tokens *Tokens
	// Logger is scoped to the current flow invocation.
	Logger *zap.Logger
}

// ProfileFunc fetches the provider profile and normalizes it into a User.
// Transport failures should be returned as-is; payloads that cannot be
// normalized should wrap ErrInvalidProfile.
type ProfileFunc func(ctx context.Context, req *ProfileRequest) (*User, error)

// Provider is the static descriptor of an identity provider. It is data
// consumed by FlowHandler; the control flow is the same for every provider.
type Provider struct {
	// Name is the registry key, e.g. "linear".
	Name string
	// Title is the human readable name used in error messages.
	Title string
	// Endpoints are the default endpoints. Ignored when ResolveEndpoints is set.
	Endpoints Endpoints
	// ResolveEndpoints derives the endpoints from provider-specific settings
	// such as a tenant domain.
	ResolveEndpoints func(cfg ProviderConfig) (Endpoints, error)
	// Scopes are requested when the config does not specify any.
	Scopes []string
	// EmailScopes are added when EmailRequired is set.
	EmailScopes []string
	// AuthParams are default extra authorization parameters.
	AuthParams map[string]string
	// FetchProfile loads and normalizes the user profile.
	FetchProfile ProfileFunc
}

func (p *Provider) endpoints(cfg ProviderConfig) (Endpoints, error) {
	if p.ResolveEndpoints == nil {
		return p.Endpoints, nil
	}
	if cfg.AuthorizationURL != "" && cfg.TokenURL != "" && cfg.UserInfoURL != "" {
		// Fully overridden; nothing to derive.
		return Endpoints{}, nil
	}
	return p.ResolveEndpoints(cfg)
}

func (p *Provider) validate() error {
	switch {
	case p == nil:
		return fmt.Errorf("provider is nil")
	case p.Name == "":
		return fmt.Errorf("provider name is required")
	case p.FetchProfile == nil:
		return fmt.Errorf("provider %q has no profile fetcher", p.Name)
	}
	if p.Title == "" {
		p.Title = p.Name
	}
	return nil
}

// builtinProviders returns a fresh copy of the built-in descriptor table.
func builtinProviders() map[string]*Provider {
	providers := []*Provider{
		linearProvider(),
		gitHubProvider(),
		googleProvider(),
		discordProvider(),
		facebookProvider(),
		linkedInProvider(),
		microsoftProvider(),
		spotifyProvider(),
		twitchProvider(),
		oktaProvider(),
		auth0Provider(),
		keycloakProvider(),
		cognitoProvider(),
		battleNetProvider(),
		quranFoundationProvider(),
	}
	table := make(map[string]*Provider, len(providers))
	for _, p := range providers {
		table[p.Name] = p
	}
	return table
}

// BuiltinProviderNames lists the providers available without Register, in sorted order.
func BuiltinProviderNames() []string {
	names := slices.Collect(maps.Keys(builtinProviders()))
	slices.Sort(names)
	return names
}

// profileCall describes one HTTP request to a provider API.
type profileCall struct {
	Method string
	URL    string
	Header http.Header
	// Body is JSON encoded when non-nil.
	Body any
}

// fetchJSON performs one provider API call and decodes the JSON response into out.
func fetchJSON(ctx context.Context, client *http.Client, call profileCall, out any) error {
	method := call.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if call.Body != nil {
		payload, err := json.Marshal(call.Body)
		if err != nil {
			return fmt.Errorf("failed to encode user info request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, call.URL, body)
	if err != nil {
		return fmt.Errorf("failed to create user info request: %w", err)
	}
	for key, values := range call.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if call.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute user info request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("failed to get user info: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode user info response: %w", err)
	}
	return nil
}

// jsonProfile builds a ProfileFunc for the common case: one GET to the
// user-info URL, decoded into T and mapped with normalize.
func jsonProfile[T any](header http.Header, normalize func(*T) (*User, error)) ProfileFunc {
	return func(ctx context.Context, req *ProfileRequest) (*User, error) {
		var payload T
		if err := fetchJSON(ctx, req.Client, profileCall{URL: req.Config.UserInfoURL, Header: header}, &payload); err != nil {
			return nil, err
		}
		return normalize(&payload)
	}
}

// OpenIDUserInfo is the standard OpenID Connect userinfo response.
type OpenIDUserInfo struct {
	Sub               string `json:"sub"`
	Name              string `json:"name"`
	GivenName         string `json:"given_name"`
	FamilyName        string `json:"family_name"`
	Nickname          string `json:"nickname"`
	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
	Picture           string `json:"picture"`
}

// normalizeOpenID maps a standard userinfo payload.
func normalizeOpenID(info *OpenIDUserInfo) (*User, error) {
	if info.Sub == "" {
		return nil, fmt.Errorf("%w: userinfo response has no sub", ErrInvalidProfile)
	}
	return &User{
		ID:          info.Sub,
		Name:        info.Name,
		Email:       info.Email,
		Avatar:      info.Picture,
		DisplayName: info.Nickname,
		Username:    info.PreferredUsername,
		FirstName:   info.GivenName,
		LastName:    info.FamilyName,
	}, nil
}

// openIDProfile fetches the standard userinfo endpoint.
var openIDProfile = jsonProfile(nil, normalizeOpenID)

// endpointOf builds the oauth2 endpoint from resolved config. Client
// credentials always travel in the form body.
func endpointOf(cfg ProviderConfig) oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:   cfg.AuthorizationURL,
		TokenURL:  cfg.TokenURL,
		AuthStyle: oauth2.AuthStyleInParams,
	}
}
