package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/labstack/echo/v4"

	"github.com/tierbotio/tierbot/internal/linker"
	"github.com/tierbotio/tierbot/internal/store/sqlc"
)

// adminQuerier backs the admin handler tests with a canned set of links.
type adminQuerier struct {
	links   []sqlc.Link
	listErr error
	linkErr error
}

func (q *adminQuerier) CreateLink(ctx context.Context, arg sqlc.CreateLinkParams) (sqlc.Link, error) {
	return sqlc.Link{}, errors.New("not implemented")
}

func (q *adminQuerier) DeleteChallenge(ctx context.Context, id pgtype.UUID) error {
	return errors.New("not implemented")
}

func (q *adminQuerier) DeleteLink(ctx context.Context, arg sqlc.DeleteLinkParams) (int64, error) {
	return 0, errors.New("not implemented")
}

func (q *adminQuerier) GetChallengeByToken(ctx context.Context, token string) (sqlc.Challenge, error) {
	return sqlc.Challenge{}, pgx.ErrNoRows
}

func (q *adminQuerier) GetChallengeByTokenForUpdate(ctx context.Context, token string) (sqlc.Challenge, error) {
	return sqlc.Challenge{}, pgx.ErrNoRows
}

func (q *adminQuerier) GetLink(ctx context.Context, arg sqlc.GetLinkParams) (sqlc.Link, error) {
	if q.linkErr != nil {
		return sqlc.Link{}, q.linkErr
	}
	for _, l := range q.links {
		if l.GuildID == arg.GuildID && l.DiscordID == arg.DiscordID {
			return l, nil
		}
	}
	return sqlc.Link{}, pgx.ErrNoRows
}

func (q *adminQuerier) ListGuildLinks(ctx context.Context, guildID string) ([]sqlc.Link, error) {
	if q.listErr != nil {
		return nil, q.listErr
	}
	out := make([]sqlc.Link, 0, len(q.links))
	for _, l := range q.links {
		if l.GuildID == guildID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (q *adminQuerier) ListLinks(ctx context.Context) ([]sqlc.Link, error) {
	return q.links, nil
}

func (q *adminQuerier) UpsertChallenge(ctx context.Context, arg sqlc.UpsertChallengeParams) (sqlc.Challenge, error) {
	return sqlc.Challenge{}, errors.New("not implemented")
}

func newAdminFixture(q sqlc.Querier) *AdminHandler {
	svc := linker.NewService(nil, nil, q, nil, nil, nil, "https://bot.example.com", time.Hour)
	return NewAdminHandler(nil, svc)
}

func invokeAdmin(t *testing.T, h func(echo.Context) error, method, target string, names, values []string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	if err := h(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func TestSyncNotLinkedReturnsErrorResponse(t *testing.T) {
	t.Parallel()

	h := newAdminFixture(&adminQuerier{})
	rec := invokeAdmin(t, h.Sync, http.MethodPost, "/api/guilds/g1/members/u1/sync",
		[]string{"guild_id", "discord_id"}, []string{"g1", "u1"})

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Message != "member is not linked" {
		t.Fatalf("message = %q", body.Message)
	}
}

func TestSyncStorageFailureReturnsErrorResponse(t *testing.T) {
	t.Parallel()

	h := newAdminFixture(&adminQuerier{linkErr: errors.New("connection refused")})
	rec := invokeAdmin(t, h.Sync, http.MethodPost, "/api/guilds/g1/members/u1/sync",
		[]string{"guild_id", "discord_id"}, []string{"g1", "u1"})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Message == "" {
		t.Fatal("expected a populated error message")
	}
}

func TestListLinksReturnsGuildLinks(t *testing.T) {
	t.Parallel()

	q := &adminQuerier{links: []sqlc.Link{
		{GuildID: "g1", DiscordID: "u1", LichessID: "magnus", LinkedAt: pgtype.Timestamptz{Time: time.Now().UTC(), Valid: true}},
		{GuildID: "g2", DiscordID: "u2", LichessID: "hikaru", LinkedAt: pgtype.Timestamptz{Time: time.Now().UTC(), Valid: true}},
	}}
	h := newAdminFixture(q)
	rec := invokeAdmin(t, h.ListLinks, http.MethodGet, "/api/guilds/g1/links",
		[]string{"guild_id"}, []string{"g1"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var body []struct {
		DiscordID string `json:"discord_id"`
		LichessID string `json:"lichess_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body) != 1 || body[0].DiscordID != "u1" || body[0].LichessID != "magnus" {
		t.Fatalf("links = %+v", body)
	}
}

func TestListLinksStorageFailureReturnsErrorResponse(t *testing.T) {
	t.Parallel()

	h := newAdminFixture(&adminQuerier{listErr: errors.New("connection refused")})
	rec := invokeAdmin(t, h.ListLinks, http.MethodGet, "/api/guilds/g1/links",
		[]string{"guild_id"}, []string{"g1"})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Message == "" {
		t.Fatal("expected a populated error message")
	}
}
