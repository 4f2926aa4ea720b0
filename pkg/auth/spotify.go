package auth

import (
	"fmt"

	"golang.org/x/oauth2/spotify"
)

// ===== Spotify OAuth =====

// SpotifyUserInfo represents the current user returned by `/v1/me`.
// See: https://developer.spotify.com/documentation/web-api/reference/get-current-users-profile
type SpotifyUserInfo struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"` // Requires 'user-read-email'.
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage is one size of the profile picture. Spotify lists the largest first.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

func spotifyProvider() *Provider {
	return &Provider{
		Name:  "spotify",
		Title: "Spotify",
		Endpoints: Endpoints{
			Endpoint:    spotify.Endpoint,
			UserInfoURL: "https://api.spotify.com/v1/me",
		},
		Scopes:       []string{"user-read-private"},
		EmailScopes:  []string{"user-read-email"},
		FetchProfile: jsonProfile(nil, normalizeSpotifyUser),
	}
}

func normalizeSpotifyUser(u *SpotifyUserInfo) (*User, error) {
	if u.ID == "" {
		return nil, fmt.Errorf("%w: spotify user has no id", ErrInvalidProfile)
	}
	user := &User{
		ID:          u.ID,
		Name:        u.DisplayName,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Username:    u.ID,
	}
	if len(u.Images) > 0 {
		user.Avatar = u.Images[0].URL
	}
	return user, nil
}
