package linker_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tierbotio/tierbot/internal/linker"
	"github.com/tierbotio/tierbot/internal/store/sqlc"
)

func setupLinkerIntegrationTest(t *testing.T) (*pgxpool.Pool, *sqlc.Queries, *linker.Service, func()) {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("skip integration test: TEST_POSTGRES_DSN is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Skipf("skip integration test: cannot connect to database: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("skip integration test: database ping failed: %v", err)
	}

	queries := sqlc.New(pool)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	svc := linker.NewService(logger, pool, queries, nil, nil, nil, "https://bot.example.com", time.Hour)

	return pool, queries, svc, func() { pool.Close() }
}

func freshMemberIDs() (string, string) {
	return "guild-" + uuid.NewString(), "member-" + uuid.NewString()
}

func TestIntegrationVerifyChallengeConsumesToken(t *testing.T) {
	_, queries, svc, cleanup := setupLinkerIntegrationTest(t)
	defer cleanup()

	ctx := context.Background()
	guildID, discordID := freshMemberIDs()

	challenge, err := svc.IssueChallenge(ctx, guildID, discordID)
	if err != nil {
		t.Fatalf("issue challenge failed: %v", err)
	}

	link, err := svc.VerifyChallenge(ctx, challenge.Token, "DrNykterstein")
	if err != nil {
		t.Fatalf("verify challenge failed: %v", err)
	}
	if link.GuildID != guildID || link.DiscordID != discordID {
		t.Fatalf("link = %+v, want guild=%s discord=%s", link, guildID, discordID)
	}
	if link.LichessID != "drnykterstein" {
		t.Fatalf("lichess id = %q, want lowercased form", link.LichessID)
	}

	row, err := queries.GetLink(ctx, sqlc.GetLinkParams{GuildID: guildID, DiscordID: discordID})
	if err != nil {
		t.Fatalf("get stored link failed: %v", err)
	}
	if row.LichessID != "drnykterstein" {
		t.Fatalf("stored lichess id = %q", row.LichessID)
	}

	if _, err := svc.VerifyChallenge(ctx, challenge.Token, "drnykterstein"); !errors.Is(err, linker.ErrChallengeNotFound) {
		t.Fatalf("expected ErrChallengeNotFound on second verify, got %v", err)
	}
}

func TestIntegrationVerifyReplacedTokenFails(t *testing.T) {
	_, _, svc, cleanup := setupLinkerIntegrationTest(t)
	defer cleanup()

	ctx := context.Background()
	guildID, discordID := freshMemberIDs()

	first, err := svc.IssueChallenge(ctx, guildID, discordID)
	if err != nil {
		t.Fatalf("issue first challenge failed: %v", err)
	}
	second, err := svc.IssueChallenge(ctx, guildID, discordID)
	if err != nil {
		t.Fatalf("issue second challenge failed: %v", err)
	}
	if first.Token == second.Token {
		t.Fatal("replacement challenge must carry a fresh token")
	}

	if _, err := svc.VerifyChallenge(ctx, first.Token, "penguingim1"); !errors.Is(err, linker.ErrChallengeNotFound) {
		t.Fatalf("expected ErrChallengeNotFound for replaced token, got %v", err)
	}

	if _, err := svc.VerifyChallenge(ctx, second.Token, "penguingim1"); err != nil {
		t.Fatalf("verify of current token failed: %v", err)
	}
}

func TestIntegrationVerifyExpiredTokenFails(t *testing.T) {
	pool, queries, svc, cleanup := setupLinkerIntegrationTest(t)
	defer cleanup()

	ctx := context.Background()
	guildID, discordID := freshMemberIDs()

	challenge, err := svc.IssueChallenge(ctx, guildID, discordID)
	if err != nil {
		t.Fatalf("issue challenge failed: %v", err)
	}
	if _, err := pool.Exec(ctx, "UPDATE challenges SET expires_at = now() - interval '1 minute' WHERE token = $1", challenge.Token); err != nil {
		t.Fatalf("backdate challenge failed: %v", err)
	}

	if _, err := svc.VerifyChallenge(ctx, challenge.Token, "drnykterstein"); !errors.Is(err, linker.ErrChallengeExpired) {
		t.Fatalf("expected ErrChallengeExpired, got %v", err)
	}

	// An expired verify must not consume the row: only replacement or a
	// successful verify removes it.
	if _, err := queries.GetChallengeByToken(ctx, challenge.Token); err != nil {
		t.Fatalf("expired challenge row should remain, got %v", err)
	}
}
