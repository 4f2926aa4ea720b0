package auth

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2/twitch"
)

// ===== Twitch OAuth =====

// TwitchUser is one entry of the Helix `/users` response.
// See: https://dev.twitch.tv/docs/api/reference/#get-users
type TwitchUser struct {
	ID              string `json:"id"`
	Login           string `json:"login"`
	DisplayName     string `json:"display_name"`
	Email           string `json:"email"` // Requires 'user:read:email'.
	ProfileImageURL string `json:"profile_image_url"`
}

type twitchUsersResponse struct {
	Data []TwitchUser `json:"data"`
}

func twitchProvider() *Provider {
	return &Provider{
		Name:  "twitch",
		Title: "Twitch",
		Endpoints: Endpoints{
			Endpoint:    twitch.Endpoint,
			UserInfoURL: "https://api.twitch.tv/helix/users",
		},
		EmailScopes:  []string{"user:read:email"},
		FetchProfile: fetchTwitchUser,
	}
}

// fetchTwitchUser calls Helix, which also wants the app's client ID on every request.
func fetchTwitchUser(ctx context.Context, req *ProfileRequest) (*User, error) {
	var resp twitchUsersResponse
	call := profileCall{
		URL:    req.Config.UserInfoURL,
		Header: http.Header{"Client-Id": {req.Config.ClientID}},
	}
	if err := fetchJSON(ctx, req.Client, call, &resp); err != nil {
		return nil, err
	}
	return normalizeTwitchUsers(&resp)
}

func normalizeTwitchUsers(resp *twitchUsersResponse) (*User, error) {
	if len(resp.Data) == 0 || resp.Data[0].ID == "" {
		return nil, fmt.Errorf("%w: twitch returned no user", ErrInvalidProfile)
	}
	u := resp.Data[0]
	return &User{
		ID:          u.ID,
		Name:        u.DisplayName,
		Email:       u.Email,
		Avatar:      u.ProfileImageURL,
		DisplayName: u.DisplayName,
		Username:    u.Login,
	}, nil
}
