package auth

import (
	"fmt"

	"golang.org/x/oauth2"
)

// ===== Discord OAuth =====

// DiscordUserInfo represents the user information returned by the Discord API endpoint `/users/@me`.
// See: https://discord.com/developers/docs/resources/user#user-object
type DiscordUserInfo struct {
	ID            string `json:"id"`            // The user's unique ID.
	Username      string `json:"username"`      // The user's username (not unique across the platform).
	Discriminator string `json:"discriminator"` // The 4-digit discord-tag (being phased out).
	Avatar        string `json:"avatar"`        // The user's avatar hash.
	Email         string `json:"email"`         // The user's email (requires 'email' scope).
	Verified      bool   `json:"verified"`      // Whether the email on this account has been verified (requires 'email' scope).
	GlobalName    string `json:"global_name"`   // The user's display name, if set.
}

// getDiscordAvatarURL constructs the full URL for a user's avatar given their ID and avatar hash.
// Returns an empty string if the avatar hash is empty (user might have default avatar).
// See: https://discord.com/developers/docs/reference#image-formatting
func getDiscordAvatarURL(userID, avatarHash string) string {
	if avatarHash == "" {
		return ""
	}
	return fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", userID, avatarHash)
}

func discordProvider() *Provider {
	return &Provider{
		Name:  "discord",
		Title: "Discord",
		Endpoints: Endpoints{
			Endpoint: oauth2.Endpoint{ // Manually define Discord endpoints
				AuthURL:  "https://discord.com/api/oauth2/authorize",
				TokenURL: "https://discord.com/api/oauth2/token",
			},
			UserInfoURL: "https://discord.com/api/users/@me",
		},
		Scopes:       []string{"identify"},
		EmailScopes:  []string{"email"},
		FetchProfile: jsonProfile(nil, normalizeDiscordUser),
	}
}

func normalizeDiscordUser(u *DiscordUserInfo) (*User, error) {
	if u.ID == "" {
		return nil, fmt.Errorf("%w: discord user has no id", ErrInvalidProfile)
	}
	return &User{
		ID:          u.ID,
		Name:        u.GlobalName,
		Email:       u.Email, // Will be empty if 'email' scope was not granted.
		Avatar:      getDiscordAvatarURL(u.ID, u.Avatar),
		DisplayName: u.GlobalName,
		Username:    u.Username,
	}, nil
}
