package linker

import (
	"errors"
	"net/url"
	"time"

	"github.com/tierbotio/tierbot/internal/tiers"
)

// Errors returned by link operations.
var (
	ErrNotLinked         = errors.New("account not linked")
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrChallengeExpired  = errors.New("challenge expired")
)

// Challenge is a pending one-time proof of Lichess account ownership for a
// guild member. Issuing a new challenge for the same member replaces it, so
// at most one token per (guild, member) is ever valid.
type Challenge struct {
	ID        string
	GuildID   string
	DiscordID string
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// VerificationURL returns the link the member must visit to prove ownership.
func (c Challenge) VerificationURL(baseURL string) string {
	return baseURL + "/verify?token=" + url.QueryEscape(c.Token)
}

// Link is a verified (guild, member) -> Lichess account association.
type Link struct {
	GuildID   string
	DiscordID string
	LichessID string
	LinkedAt  time.Time
}

// SyncResult reports the outcome of a successful rating sync.
type SyncResult struct {
	LichessID string
	Rating    int
	Tier      tiers.Tier
}
