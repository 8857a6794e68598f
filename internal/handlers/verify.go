// Package handlers provides the HTTP handlers for the verification flow and
// the operator API.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/oauth2"

	"github.com/tierbotio/tierbot/internal/linker"
)

const pendingAuthTTL = 10 * time.Minute

// AccountResolver resolves the authenticated Lichess account id for an OAuth
// access token.
type AccountResolver interface {
	AccountID(ctx context.Context, accessToken string) (string, error)
}

// VerifyHandler drives the public verification flow: GET /verify sends the
// member through Lichess OAuth, GET /callback consumes the challenge and
// stores the link.
type VerifyHandler struct {
	linker   *linker.Service
	oauth    *oauth2.Config
	accounts AccountResolver
	logger   *slog.Logger

	mu      sync.Mutex
	pending map[string]pendingAuth
}

type pendingAuth struct {
	token     string
	verifier  string
	expiresAt time.Time
}

// NewVerifyHandler creates a verify handler.
func NewVerifyHandler(log *slog.Logger, linkSvc *linker.Service, oauth *oauth2.Config, accounts AccountResolver) *VerifyHandler {
	if log == nil {
		log = slog.Default()
	}
	return &VerifyHandler{
		linker:   linkSvc,
		oauth:    oauth,
		accounts: accounts,
		logger:   log.With(slog.String("handler", "verify")),
		pending:  map[string]pendingAuth{},
	}
}

// Register mounts the public verification routes.
func (h *VerifyHandler) Register(e *echo.Echo) {
	e.GET("/verify", h.Verify)
	e.GET("/callback", h.Callback)
}

// Verify checks the challenge token and redirects to the Lichess consent
// page. The PKCE verifier stays server-side, keyed by the OAuth state.
func (h *VerifyHandler) Verify(c echo.Context) error {
	token := c.QueryParam("token")
	if _, err := h.linker.ChallengeByToken(c.Request().Context(), token); err != nil {
		return h.challengePage(c, err)
	}

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	h.storePending(state, pendingAuth{
		token:     token,
		verifier:  verifier,
		expiresAt: time.Now().Add(pendingAuthTTL),
	})

	url := h.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	return c.Redirect(http.StatusFound, url)
}

// Callback completes the OAuth exchange, resolves the Lichess account, and
// consumes the challenge into a stored link.
func (h *VerifyHandler) Callback(c echo.Context) error {
	ctx := c.Request().Context()

	if errMsg := c.QueryParam("error"); errMsg != "" {
		return c.HTML(http.StatusBadRequest, page("Verification cancelled",
			"Lichess did not authorize the request. You can run /link again to retry."))
	}

	pending, ok := h.takePending(c.QueryParam("state"))
	if !ok {
		return c.HTML(http.StatusBadRequest, page("Verification failed",
			"This sign-in attempt is unknown or has timed out. Run /link again for a fresh link."))
	}

	oauthToken, err := h.oauth.Exchange(ctx, c.QueryParam("code"), oauth2.VerifierOption(pending.verifier))
	if err != nil {
		h.logger.ErrorContext(ctx, "oauth exchange failed", slog.Any("error", err))
		return c.HTML(http.StatusBadGateway, page("Verification failed",
			"Could not complete the Lichess sign-in. Please try again later."))
	}

	lichessID, err := h.accounts.AccountID(ctx, oauthToken.AccessToken)
	if err != nil {
		h.logger.ErrorContext(ctx, "account lookup failed", slog.Any("error", err))
		return c.HTML(http.StatusBadGateway, page("Verification failed",
			"Could not read your Lichess account. Please try again later."))
	}

	link, err := h.linker.VerifyChallenge(ctx, pending.token, lichessID)
	if err != nil {
		return h.challengePage(c, err)
	}

	// Roles converge right away; a failure here leaves the link in place and
	// the next sync picks it up.
	if _, err := h.linker.SyncRating(ctx, link.GuildID, link.DiscordID); err != nil {
		h.logger.WarnContext(ctx, "post-verify sync failed",
			slog.String("guild_id", link.GuildID),
			slog.String("discord_id", link.DiscordID),
			slog.Any("error", err),
		)
	}

	return c.HTML(http.StatusOK, page("Account linked",
		fmt.Sprintf("Your Discord account is now linked to Lichess account %s. You can close this page.", link.LichessID)))
}

func (h *VerifyHandler) challengePage(c echo.Context, err error) error {
	switch {
	case errors.Is(err, linker.ErrChallengeExpired):
		return c.HTML(http.StatusGone, page("Link expired",
			"This verification link has expired. Run /link again to get a new one."))
	case errors.Is(err, linker.ErrChallengeNotFound):
		return c.HTML(http.StatusNotFound, page("Unknown link",
			"This verification link is invalid or was replaced by a newer one. Run /link again."))
	default:
		h.logger.Error("challenge lookup failed", slog.Any("error", err))
		return c.HTML(http.StatusInternalServerError, page("Something went wrong",
			"Please try again later."))
	}
}

func (h *VerifyHandler) storePending(state string, p pendingAuth) {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := time.Now()
	for s, old := range h.pending {
		if now.After(old.expiresAt) {
			delete(h.pending, s)
		}
	}
	h.pending[state] = p
}

func (h *VerifyHandler) takePending(state string) (pendingAuth, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.pending[state]
	if !ok {
		return pendingAuth{}, false
	}
	delete(h.pending, state)
	if time.Now().After(p.expiresAt) {
		return pendingAuth{}, false
	}
	return p, true
}

func page(title, body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>%s</title></head>
<body style="font-family: sans-serif; max-width: 40rem; margin: 4rem auto;">
<h1>%s</h1><p>%s</p>
</body></html>`, title, title, body)
}
