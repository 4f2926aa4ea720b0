package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// maxTokenResponse bounds how much of a token response is read.
const maxTokenResponse = 1 << 20

// exchangeCode posts the authorization code to the token endpoint.
//
// The returned map is the raw token response. A nil *Tokens with a nil error
// never happens: either tokens, or an error whose Kind tells token rejection
// (KindTokenExchange) from transport trouble (KindTransport).
func (f *FlowHandler) exchangeCode(ctx context.Context, cfg ProviderConfig, code, redirectURL string) (*Tokens, *Error) {
	data := url.Values{}
	data.Set("code", code)
	data.Set("redirect_uri", redirectURL)
	data.Set("client_id", cfg.ClientID)
	data.Set("client_secret", cfg.ClientSecret)
	data.Set("grant_type", "authorization_code")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, f.transportError("failed to create token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := f.parent.httpClient.Do(req)
	if err != nil {
		return nil, f.transportError("failed to execute token request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponse))
	if err != nil {
		return nil, f.transportError("failed to read token response", err)
	}

	raw, err := decodeTokenResponse(resp.Header.Get("Content-Type"), body)
	if err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, f.transportError("token endpoint failed",
				fmt.Errorf("status %d, body: %s", resp.StatusCode, truncate(body, 512)))
		}
		return nil, f.transportError("failed to decode token response", err)
	}

	if errCode := stringField(raw, "error"); errCode != "" {
		return nil, newError(KindTokenExchange, f.provider.Name,
			f.provider.Title+" login failed: "+errCode, raw, nil)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, f.transportError("token endpoint failed",
			fmt.Errorf("status %d, body: %s", resp.StatusCode, truncate(body, 512)))
	}

	tokens := &Tokens{
		AccessToken:  stringField(raw, "access_token"),
		TokenType:    stringField(raw, "token_type"),
		RefreshToken: stringField(raw, "refresh_token"),
		Scope:        stringField(raw, "scope"),
		IDToken:      stringField(raw, "id_token"),
		ExpiresIn:    intField(raw, "expires_in"),
		Raw:          raw,
	}
	if tokens.AccessToken == "" {
		return nil, newError(KindTokenExchange, f.provider.Name,
			f.provider.Title+" login failed: token response has no access_token", raw, nil)
	}
	return tokens, nil
}

// decodeTokenResponse accepts JSON and form encoded bodies. Some providers
// (GitHub without an Accept header) still answer with the latter.
func decodeTokenResponse(contentType string, body []byte) (map[string]any, error) {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType == "application/x-www-form-urlencoded" || mediaType == "text/plain" {
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, fmt.Errorf("failed to parse form token response: %w", err)
		}
		return queryData(values), nil
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("token response is not a JSON object")
	}
	return raw, nil
}

func stringField(raw map[string]any, key string) string {
	switch v := raw[key].(type) {
	case string:
		return v
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
	return ""
}

func intField(raw map[string]any, key string) int64 {
	switch v := raw[key].(type) {
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
