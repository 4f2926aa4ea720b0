package auth

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
)

// ===== Battle.net OAuth =====

// BattleNetUserInfo is the `/userinfo` response of the Battle.net OAuth server.
// See: https://develop.battle.net/documentation/battle-net/oauth-apis
type BattleNetUserInfo struct {
	Sub       string `json:"sub"`
	ID        int64  `json:"id"`
	BattleTag string `json:"battletag"`
}

func battleNetProvider() *Provider {
	return &Provider{
		Name:             "battledotnet",
		Title:            "Battle.net",
		ResolveEndpoints: battleNetEndpoints,
		Scopes:           []string{"openid"},
		FetchProfile:     jsonProfile(nil, normalizeBattleNetUser),
	}
}

// battleNetEndpoints picks the host for cfg.Region. China has its own
// domain; every other region shares the global one.
func battleNetEndpoints(cfg ProviderConfig) (Endpoints, error) {
	host := "oauth.battle.net"
	if strings.EqualFold(cfg.Region, "cn") {
		host = "oauth.battlenet.com.cn"
	}
	base := "https://" + host
	return Endpoints{
		Endpoint: oauth2.Endpoint{
			AuthURL:  base + "/authorize",
			TokenURL: base + "/token",
		},
		UserInfoURL: base + "/userinfo",
	}, nil
}

func normalizeBattleNetUser(u *BattleNetUserInfo) (*User, error) {
	id := u.Sub
	if id == "" && u.ID != 0 {
		id = strconv.FormatInt(u.ID, 10)
	}
	if id == "" {
		return nil, fmt.Errorf("%w: battle.net user has no id", ErrInvalidProfile)
	}
	return &User{
		ID:          id,
		Name:        u.BattleTag,
		DisplayName: u.BattleTag,
		Username:    u.BattleTag,
	}, nil
}
