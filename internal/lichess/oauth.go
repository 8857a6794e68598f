package lichess

import (
	"strings"

	"golang.org/x/oauth2"

	"github.com/tierbotio/tierbot/internal/config"
)

// OAuthConfig builds the OAuth2 config for the Lichess authorization-code
// flow. Lichess uses public clients with PKCE, so there is no client secret.
func OAuthConfig(cfg config.LichessConfig, redirectURL string) *oauth2.Config {
	base := strings.TrimRight(cfg.BaseURL, "/")
	return &oauth2.Config{
		ClientID:    cfg.OAuthClientID,
		RedirectURL: redirectURL,
		Endpoint: oauth2.Endpoint{
			AuthURL:  base + "/oauth",
			TokenURL: base + "/api/token",
		},
	}
}
