// Package linker manages Lichess account links: challenge issuance and
// verification, rating sync, and unlink.
package linker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tierbotio/tierbot/internal/db"
	"github.com/tierbotio/tierbot/internal/store/sqlc"
	"github.com/tierbotio/tierbot/internal/tiers"
)

const defaultChallengeTTL = time.Hour

// RatingFetcher fetches the current rating for a Lichess account.
type RatingFetcher interface {
	Rating(ctx context.Context, lichessID string) (int, error)
}

// Reconciler converges a member's tier roles to keep (or to none when empty).
type Reconciler interface {
	Reconcile(ctx context.Context, guildID, discordID, keep string) error
}

// Service implements the account linking lifecycle.
type Service struct {
	pool       *pgxpool.Pool
	queries    sqlc.Querier
	fetcher    RatingFetcher
	tiers      *tiers.Map
	reconciler Reconciler
	baseURL    string
	ttl        time.Duration
	logger     *slog.Logger
}

// NewService creates a linker service. baseURL is the externally reachable
// base of the verification endpoints; ttl bounds challenge validity.
func NewService(log *slog.Logger, pool *pgxpool.Pool, queries sqlc.Querier, fetcher RatingFetcher, tierMap *tiers.Map, rec Reconciler, baseURL string, ttl time.Duration) *Service {
	if log == nil {
		log = slog.Default()
	}
	if ttl <= 0 {
		ttl = defaultChallengeTTL
	}
	return &Service{
		pool:       pool,
		queries:    queries,
		fetcher:    fetcher,
		tiers:      tierMap,
		reconciler: rec,
		baseURL:    strings.TrimRight(baseURL, "/"),
		ttl:        ttl,
		logger:     log.With(slog.String("service", "linker")),
	}
}

// IssueChallenge creates a fresh challenge for the member, atomically
// replacing any prior one. The returned challenge carries the token the
// member proves ownership with; any previously issued token for the same
// member is permanently invalid from this point on.
func (s *Service) IssueChallenge(ctx context.Context, guildID, discordID string) (Challenge, error) {
	if s.queries == nil {
		return Challenge{}, errors.New("linker queries not configured")
	}
	if guildID == "" || discordID == "" {
		return Challenge{}, errors.New("guild id and discord id are required")
	}

	expiresAt := time.Now().UTC().Add(s.ttl)

	var row sqlc.Challenge
	var err error
	// The token column is unique across all members; a collision with another
	// member's token shows up as a unique violation, so retry once fresh.
	for attempt := 0; attempt < 2; attempt++ {
		token := strings.ReplaceAll(uuid.NewString(), "-", "")
		row, err = s.queries.UpsertChallenge(ctx, sqlc.UpsertChallengeParams{
			GuildID:   guildID,
			DiscordID: discordID,
			Token:     token,
			ExpiresAt: pgtype.Timestamptz{Time: expiresAt, Valid: true},
		})
		if err == nil || !db.IsUniqueViolation(err) {
			break
		}
	}
	if err != nil {
		return Challenge{}, fmt.Errorf("create challenge: %w", err)
	}

	s.logger.InfoContext(ctx, "challenge issued",
		slog.String("guild_id", guildID),
		slog.String("discord_id", discordID),
	)
	return toChallenge(row), nil
}

// VerificationURL builds the link for a challenge against the configured base URL.
func (s *Service) VerificationURL(c Challenge) string {
	return c.VerificationURL(s.baseURL)
}

// ChallengeByToken returns the pending challenge for token, without consuming
// it. Expired challenges fail with ErrChallengeExpired.
func (s *Service) ChallengeByToken(ctx context.Context, token string) (Challenge, error) {
	if s.queries == nil {
		return Challenge{}, errors.New("linker queries not configured")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return Challenge{}, ErrChallengeNotFound
	}
	row, err := s.queries.GetChallengeByToken(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Challenge{}, ErrChallengeNotFound
		}
		return Challenge{}, fmt.Errorf("get challenge: %w", err)
	}
	c := toChallenge(row)
	if time.Now().UTC().After(c.ExpiresAt) {
		return Challenge{}, ErrChallengeExpired
	}
	return c, nil
}

// VerifyChallenge consumes the challenge identified by token and stores the
// (guild, member) -> lichessID link, in one transaction: a concurrent verify
// of the same token sees either the pending challenge or nothing, never an
// intermediate state.
func (s *Service) VerifyChallenge(ctx context.Context, token, lichessID string) (Link, error) {
	if s.queries == nil || s.pool == nil {
		return Link{}, errors.New("linker service not configured")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return Link{}, ErrChallengeNotFound
	}
	lichessID = strings.ToLower(strings.TrimSpace(lichessID))
	if lichessID == "" {
		return Link{}, errors.New("lichess account id is required")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Link{}, fmt.Errorf("begin verify tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	qtx := sqlc.New(tx)

	row, err := qtx.GetChallengeByTokenForUpdate(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Link{}, ErrChallengeNotFound
		}
		return Link{}, fmt.Errorf("lock challenge: %w", err)
	}
	challenge := toChallenge(row)
	if time.Now().UTC().After(challenge.ExpiresAt) {
		return Link{}, ErrChallengeExpired
	}

	linkRow, err := qtx.CreateLink(ctx, sqlc.CreateLinkParams{
		GuildID:   challenge.GuildID,
		DiscordID: challenge.DiscordID,
		LichessID: lichessID,
	})
	if err != nil {
		return Link{}, fmt.Errorf("create link: %w", err)
	}
	if err := qtx.DeleteChallenge(ctx, row.ID); err != nil {
		return Link{}, fmt.Errorf("consume challenge: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Link{}, fmt.Errorf("commit verify tx: %w", err)
	}

	s.logger.InfoContext(ctx, "account linked",
		slog.String("guild_id", challenge.GuildID),
		slog.String("discord_id", challenge.DiscordID),
		slog.String("lichess_id", lichessID),
	)
	return toLink(linkRow), nil
}

// SyncRating fetches the linked account's rating and converges the member's
// tier roles to the matching tier. Fails with ErrNotLinked when no link
// exists; rating fetch and role mutation failures propagate untouched so the
// caller can distinguish them.
func (s *Service) SyncRating(ctx context.Context, guildID, discordID string) (SyncResult, error) {
	if s.queries == nil {
		return SyncResult{}, errors.New("linker queries not configured")
	}

	link, err := s.queries.GetLink(ctx, sqlc.GetLinkParams{GuildID: guildID, DiscordID: discordID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SyncResult{}, ErrNotLinked
		}
		return SyncResult{}, fmt.Errorf("get link: %w", err)
	}

	rating, err := s.fetcher.Rating(ctx, link.LichessID)
	if err != nil {
		return SyncResult{}, err
	}

	tier, err := s.tiers.RoleFor(guildID, rating)
	if err != nil {
		return SyncResult{}, err
	}

	if err := s.reconciler.Reconcile(ctx, guildID, discordID, tier.RoleID); err != nil {
		return SyncResult{}, err
	}

	return SyncResult{LichessID: link.LichessID, Rating: rating, Tier: tier}, nil
}

// Unlink strips every configured tier role from the member and deletes the
// stored link. Returns false when there was nothing to delete. The link row
// is deleted only after role stripping succeeds; on reconcile failure the
// link is retained so link state and role state cannot diverge silently.
func (s *Service) Unlink(ctx context.Context, guildID, discordID string) (bool, error) {
	if s.queries == nil {
		return false, errors.New("linker queries not configured")
	}

	_, err := s.queries.GetLink(ctx, sqlc.GetLinkParams{GuildID: guildID, DiscordID: discordID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("get link: %w", err)
	}

	if err := s.reconciler.Reconcile(ctx, guildID, discordID, ""); err != nil {
		return false, err
	}

	if _, err := s.queries.DeleteLink(ctx, sqlc.DeleteLinkParams{GuildID: guildID, DiscordID: discordID}); err != nil {
		return false, fmt.Errorf("delete link: %w", err)
	}

	s.logger.InfoContext(ctx, "account unlinked",
		slog.String("guild_id", guildID),
		slog.String("discord_id", discordID),
	)
	return true, nil
}

// GuildLinks lists all stored links for a guild.
func (s *Service) GuildLinks(ctx context.Context, guildID string) ([]Link, error) {
	if s.queries == nil {
		return nil, errors.New("linker queries not configured")
	}
	rows, err := s.queries.ListGuildLinks(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("list guild links: %w", err)
	}
	links := make([]Link, 0, len(rows))
	for _, row := range rows {
		links = append(links, toLink(row))
	}
	return links, nil
}

// AllLinks lists every stored link, for the background sync sweep.
func (s *Service) AllLinks(ctx context.Context) ([]Link, error) {
	if s.queries == nil {
		return nil, errors.New("linker queries not configured")
	}
	rows, err := s.queries.ListLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	links := make([]Link, 0, len(rows))
	for _, row := range rows {
		links = append(links, toLink(row))
	}
	return links, nil
}

func toChallenge(row sqlc.Challenge) Challenge {
	return Challenge{
		ID:        uuidString(row.ID),
		GuildID:   row.GuildID,
		DiscordID: row.DiscordID,
		Token:     row.Token,
		CreatedAt: db.TimeFromPg(row.CreatedAt),
		ExpiresAt: db.TimeFromPg(row.ExpiresAt),
	}
}

func toLink(row sqlc.Link) Link {
	return Link{
		GuildID:   row.GuildID,
		DiscordID: row.DiscordID,
		LichessID: row.LichessID,
		LinkedAt:  db.TimeFromPg(row.LinkedAt),
	}
}

func uuidString(value pgtype.UUID) string {
	if !value.Valid {
		return ""
	}
	parsed, err := uuid.FromBytes(value.Bytes[:])
	if err != nil {
		return ""
	}
	return parsed.String()
}
