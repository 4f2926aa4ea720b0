package auth

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/julien040/go-ternary"
	"go.uber.org/zap"
	"golang.org/x/oauth2/github"
)

// ===== GitHub OAuth =====

// gitHubAPIHeader pins the REST API media type.
var gitHubAPIHeader = http.Header{"Accept": {"application/vnd.github+json"}}

// GitHubUserInfo represents the user information returned by the GitHub API endpoint `/user`.
// See: https://docs.github.com/en/rest/users/users#get-the-authenticated-user
type GitHubUserInfo struct {
	ID        int64  `json:"id"`         // The user's unique GitHub ID.
	Login     string `json:"login"`      // The user's GitHub username.
	Name      string `json:"name"`       // The user's display name (can be null).
	Email     string `json:"email"`      // The user's publicly visible email (can be null).
	AvatarURL string `json:"avatar_url"` // URL of the user's avatar.
}

// GitHubUserEmail represents an email address associated with a GitHub user,
// returned by the `/user/emails` endpoint.
// See: https://docs.github.com/en/rest/users/emails#list-email-addresses-for-the-authenticated-user
type GitHubUserEmail struct {
	Email      string `json:"email"`      // The email address.
	Primary    bool   `json:"primary"`    // Whether this is the user's primary email.
	Verified   bool   `json:"verified"`   // Whether GitHub has verified this email.
	Visibility string `json:"visibility"` // "public" or "private".
}

func gitHubProvider() *Provider {
	return &Provider{
		Name:  "github",
		Title: "GitHub",
		Endpoints: Endpoints{
			Endpoint:    github.Endpoint,
			UserInfoURL: "https://api.github.com/user",
		},
		EmailScopes:  []string{"user:email"},
		FetchProfile: fetchGitHubProfile,
	}
}

// fetchGitHubProfile loads `/user` and, when email is required but not public,
// falls back to `/user/emails` next to it (so GitHub Enterprise URLs work too).
func fetchGitHubProfile(ctx context.Context, req *ProfileRequest) (*User, error) {
	var githubUser GitHubUserInfo
	if err := fetchJSON(ctx, req.Client, profileCall{URL: req.Config.UserInfoURL, Header: gitHubAPIHeader}, &githubUser); err != nil {
		return nil, err
	}

	if githubUser.Email == "" && req.Config.emailRequired() {
		var emails []GitHubUserEmail
		if err := fetchJSON(ctx, req.Client, profileCall{URL: strings.TrimSuffix(req.Config.UserInfoURL, "/") + "/emails", Header: gitHubAPIHeader}, &emails); err != nil {
			// Log the error but don't fail the whole process if email fetch fails
			req.Logger.Warn("Failed to fetch GitHub user emails", zap.Error(err))
		} else {
			githubUser.Email = selectPrimaryGitHubEmail(emails)
		}
	}

	return normalizeGitHubUser(&githubUser)
}

func normalizeGitHubUser(u *GitHubUserInfo) (*User, error) {
	if u.ID == 0 {
		return nil, fmt.Errorf("%w: github user has no id", ErrInvalidProfile)
	}
	return &User{
		ID:       strconv.FormatInt(u.ID, 10),
		Name:     strings.TrimSpace(u.Name), // null for users without a display name; the login is in Username.
		Email:    u.Email,
		Avatar:   u.AvatarURL,
		Username: u.Login,
	}, nil
}

// selectPrimaryGitHubEmail selects the best available email address from a list of GitHubUserEmail.
// It prioritizes the primary verified email, then the first verified email, then the first email overall.
func selectPrimaryGitHubEmail(emails []GitHubUserEmail) string {
	firstVerified := ""
	firstEmail := ""
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email
		}
		if e.Verified && firstVerified == "" {
			firstVerified = e.Email
		}
		if firstEmail == "" {
			firstEmail = e.Email
		}
	}
	return ternary.If(firstVerified != "", firstVerified, firstEmail)
}
