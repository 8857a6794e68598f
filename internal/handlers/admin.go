package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tierbotio/tierbot/internal/lichess"
	"github.com/tierbotio/tierbot/internal/linker"
	"github.com/tierbotio/tierbot/internal/platform"
	"github.com/tierbotio/tierbot/internal/reconcile"
)

// AdminHandler serves the JWT-protected operator API: link inventory and
// forced syncs.
type AdminHandler struct {
	linker *linker.Service
	logger *slog.Logger
}

// NewAdminHandler creates an admin handler.
func NewAdminHandler(log *slog.Logger, linkSvc *linker.Service) *AdminHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AdminHandler{
		linker: linkSvc,
		logger: log.With(slog.String("handler", "admin")),
	}
}

// Register mounts the operator routes.
func (h *AdminHandler) Register(e *echo.Echo) {
	e.GET("/api/guilds/:guild_id/links", h.ListLinks)
	e.POST("/api/guilds/:guild_id/members/:discord_id/sync", h.Sync)
}

type linkResponse struct {
	DiscordID string    `json:"discord_id"`
	LichessID string    `json:"lichess_id"`
	LinkedAt  time.Time `json:"linked_at"`
}

// ListLinks returns every stored link for a guild.
func (h *AdminHandler) ListLinks(c echo.Context) error {
	links, err := h.linker.GuildLinks(c.Request().Context(), c.Param("guild_id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: err.Error()})
	}
	out := make([]linkResponse, 0, len(links))
	for _, l := range links {
		out = append(out, linkResponse{
			DiscordID: l.DiscordID,
			LichessID: l.LichessID,
			LinkedAt:  l.LinkedAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}

type syncResponse struct {
	LichessID string `json:"lichess_id"`
	Rating    int    `json:"rating"`
	Tier      string `json:"tier"`
	RoleID    string `json:"role_id"`
}

type partialSyncResponse struct {
	Message   string   `json:"message"`
	Applied   []string `json:"applied"`
	Remaining []string `json:"remaining"`
}

// Sync forces a rating sync for one member. A reconcile that stopped partway
// is reported with the mutations that did and did not go through, so an
// operator can see exactly how the member's roles diverged.
func (h *AdminHandler) Sync(c echo.Context) error {
	guildID := c.Param("guild_id")
	discordID := c.Param("discord_id")

	res, err := h.linker.SyncRating(c.Request().Context(), guildID, discordID)
	if err != nil {
		var partial *reconcile.PartialError
		var upstream *lichess.UpstreamError
		switch {
		case errors.Is(err, linker.ErrNotLinked):
			return c.JSON(http.StatusNotFound, ErrorResponse{Message: "member is not linked"})
		case errors.Is(err, platform.ErrMemberNotFound):
			return c.JSON(http.StatusNotFound, ErrorResponse{Message: "member not found in guild"})
		case errors.As(err, &partial):
			return c.JSON(http.StatusBadGateway, partialSyncResponse{
				Message:   partial.Error(),
				Applied:   mutationStrings(partial.Applied),
				Remaining: mutationStrings(partial.Remaining),
			})
		case errors.As(err, &upstream):
			return c.JSON(http.StatusBadGateway, ErrorResponse{Message: upstream.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: err.Error()})
		}
	}

	return c.JSON(http.StatusOK, syncResponse{
		LichessID: res.LichessID,
		Rating:    res.Rating,
		Tier:      res.Tier.Name,
		RoleID:    res.Tier.RoleID,
	})
}

func mutationStrings(ms []reconcile.Mutation) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.String())
	}
	return out
}
