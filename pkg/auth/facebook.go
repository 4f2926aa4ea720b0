package auth

import (
	"fmt"

	"golang.org/x/oauth2/facebook"
)

// ===== Facebook OAuth =====

// FacebookUserInfo represents the user information returned by the Facebook Graph API endpoint `/me`.
// The available fields depend on the scopes requested (e.g., `public_profile`, `email`).
// See: https://developers.facebook.com/docs/graph-api/reference/user/
type FacebookUserInfo struct {
	ID        string               `json:"id"`                   // The user's unique Facebook ID.
	Name      string               `json:"name"`                 // The user's full name.
	Email     string               `json:"email,omitempty"`      // The user's email address (requires 'email' scope).
	FirstName string               `json:"first_name,omitempty"` // The user's first name (requires 'public_profile').
	LastName  string               `json:"last_name,omitempty"`  // The user's last name (requires 'public_profile').
	Picture   *FacebookPictureData `json:"picture,omitempty"`    // Profile picture details (requires 'public_profile').
}

// FacebookPictureData is a wrapper structure for the profile picture data returned by the Graph API.
type FacebookPictureData struct {
	Data FacebookPicture `json:"data"`
}

// FacebookPicture holds the URL of the user's profile picture.
type FacebookPicture struct {
	URL          string `json:"url"`
	IsSilhouette bool   `json:"is_silhouette"` // Indicates if the picture is the default Facebook silhouette.
}

func facebookProvider() *Provider {
	return &Provider{
		Name:  "facebook",
		Title: "Facebook",
		Endpoints: Endpoints{
			Endpoint: facebook.Endpoint,
			// Requesting 'picture.type(large)' gets a larger image.
			UserInfoURL: "https://graph.facebook.com/me?fields=id,name,email,first_name,last_name,picture.type(large)",
		},
		Scopes:       []string{"public_profile"},
		EmailScopes:  []string{"email"},
		FetchProfile: jsonProfile(nil, normalizeFacebookUser),
	}
}

func normalizeFacebookUser(u *FacebookUserInfo) (*User, error) {
	if u.ID == "" {
		return nil, fmt.Errorf("%w: facebook user has no id", ErrInvalidProfile)
	}
	avatarURL := ""
	if u.Picture != nil && !u.Picture.Data.IsSilhouette {
		avatarURL = u.Picture.Data.URL
	}
	return &User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Avatar:    avatarURL,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}, nil
}
