// Package lichess is a minimal Lichess API client for ratings and account lookup.
package lichess

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tierbotio/tierbot/internal/config"
)

const requestTimeout = 10 * time.Second

// UpstreamError reports a failed call to the Lichess API.
type UpstreamError struct {
	Status int
	URL    string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("lichess request %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("lichess request %s: status %d", e.URL, e.Status)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Client calls the Lichess public API. Requests are rate limited client-side;
// Lichess asks for at most one concurrent stream of polite requests.
type Client struct {
	baseURL    string
	perf       string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a client from config.
func NewClient(log *slog.Logger, cfg config.LichessConfig) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		perf:       cfg.Perf,
		httpClient: &http.Client{Timeout: requestTimeout},
		limiter:    rate.NewLimiter(rate.Every(500*time.Millisecond), 2),
		logger:     log.With(slog.String("service", "lichess")),
	}
}

type perfStats struct {
	Rating      int  `json:"rating"`
	Games       int  `json:"games"`
	Provisional bool `json:"prov"`
}

type userResponse struct {
	ID    string               `json:"id"`
	Perfs map[string]perfStats `json:"perfs"`
}

// Rating fetches the account's current rating for the configured perf type.
func (c *Client) Rating(ctx context.Context, lichessID string) (int, error) {
	endpoint := c.baseURL + "/api/user/" + url.PathEscape(lichessID)

	var user userResponse
	if err := c.get(ctx, endpoint, "", &user); err != nil {
		return 0, err
	}

	stats, ok := user.Perfs[c.perf]
	if !ok {
		return 0, &UpstreamError{URL: endpoint, Err: fmt.Errorf("no %s rating for account %s", c.perf, lichessID)}
	}
	return stats.Rating, nil
}

type accountResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// AccountID returns the account id owning the given OAuth access token.
func (c *Client) AccountID(ctx context.Context, accessToken string) (string, error) {
	endpoint := c.baseURL + "/api/account"

	var account accountResponse
	if err := c.get(ctx, endpoint, accessToken, &account); err != nil {
		return "", err
	}
	if account.ID == "" {
		return "", &UpstreamError{URL: endpoint, Err: fmt.Errorf("account response missing id")}
	}
	return account.ID, nil
}

func (c *Client) get(ctx context.Context, endpoint, bearer string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &UpstreamError{URL: endpoint, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &UpstreamError{URL: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &UpstreamError{URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return &UpstreamError{Status: resp.StatusCode, URL: endpoint}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &UpstreamError{URL: endpoint, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
