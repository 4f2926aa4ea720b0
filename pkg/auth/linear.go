package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// ===== Linear OAuth =====

// linearViewerQuery asks the GraphQL API for the authenticated user.
const linearViewerQuery = "query Me { viewer { id name email avatarUrl displayName }}"

// LinearViewer is the `viewer` object of Linear's GraphQL API.
// See: https://developers.linear.app/docs/graphql/working-with-the-graphql-api
type LinearViewer struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	AvatarURL   string `json:"avatarUrl"`
	DisplayName string `json:"displayName"`
}

// linearViewerResponse is the GraphQL envelope around LinearViewer.
type linearViewerResponse struct {
	Data struct {
		Viewer *LinearViewer `json:"viewer"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func linearProvider() *Provider {
	return &Provider{
		Name:  "linear",
		Title: "Linear",
		Endpoints: Endpoints{
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://linear.app/oauth/authorize",
				TokenURL: "https://api.linear.app/oauth/token",
			},
			UserInfoURL: "https://api.linear.app/graphql",
		},
		FetchProfile: fetchLinearViewer,
	}
}

// fetchLinearViewer posts the viewer query and maps the result.
func fetchLinearViewer(ctx context.Context, req *ProfileRequest) (*User, error) {
	var payload linearViewerResponse
	err := fetchJSON(ctx, req.Client, profileCall{
		Method: http.MethodPost,
		URL:    req.Config.UserInfoURL,
		Header: http.Header{"User-Agent": {"Linear-OAuth-" + req.Config.ClientID}},
		Body:   map[string]string{"query": linearViewerQuery},
	}, &payload)
	if err != nil {
		return nil, err
	}
	return normalizeLinearViewer(&payload)
}

func normalizeLinearViewer(payload *linearViewerResponse) (*User, error) {
	if len(payload.Errors) > 0 {
		messages := make([]string, 0, len(payload.Errors))
		for _, e := range payload.Errors {
			messages = append(messages, e.Message)
		}
		return nil, fmt.Errorf("%w: linear graphql: %s", ErrInvalidProfile, strings.Join(messages, "; "))
	}
	viewer := payload.Data.Viewer
	if viewer == nil || viewer.ID == "" {
		return nil, fmt.Errorf("%w: linear response has no viewer id", ErrInvalidProfile)
	}
	return &User{
		ID:          viewer.ID,
		Name:        viewer.Name,
		Email:       viewer.Email,
		Avatar:      viewer.AvatarURL,
		DisplayName: viewer.DisplayName,
	}, nil
}
