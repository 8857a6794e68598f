// Package config loads and exposes application configuration (TOML).
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Default configuration values used when a field is missing in TOML.
const (
	DefaultConfigPath   = "config.toml"
	DefaultHTTPAddr     = ":8080"
	DefaultPGHost       = "127.0.0.1"
	DefaultPGPort       = 5432
	DefaultPGUser       = "postgres"
	DefaultPGDatabase   = "tierbot"
	DefaultPGSSLMode    = "disable"
	DefaultLichessURL   = "https://lichess.org"
	DefaultLichessPerf  = "blitz"
	DefaultChallengeTTL = "1h"
	DefaultSyncPattern  = "@every 6h"
)

// Config is the root application configuration loaded from TOML.
type Config struct {
	Log      LogConfig      `toml:"log"`
	Discord  DiscordConfig  `toml:"discord"`
	Server   ServerConfig   `toml:"server"`
	Postgres PostgresConfig `toml:"postgres"`
	Lichess  LichessConfig  `toml:"lichess"`
	Link     LinkConfig     `toml:"link"`
	Sync     SyncConfig     `toml:"sync"`
	Guilds   []GuildConfig  `toml:"guild"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DiscordConfig holds the bot token.
type DiscordConfig struct {
	Token string `toml:"token"`
}

// ServerConfig holds the HTTP listen address, the externally reachable base
// URL used in verification links, and the operator API JWT secret.
type ServerConfig struct {
	Addr          string `toml:"addr"`
	PublicBaseURL string `toml:"public_base_url"`
	JWTSecret     string `toml:"jwt_secret"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
}

// LichessConfig holds the Lichess API base URL, the perf type whose rating
// drives tier assignment (e.g. blitz, rapid, classical), and the OAuth
// client id used by the account verification flow.
type LichessConfig struct {
	BaseURL       string `toml:"base_url"`
	Perf          string `toml:"perf"`
	OAuthClientID string `toml:"oauth_client_id"`
}

// LinkConfig holds challenge settings for account linking.
type LinkConfig struct {
	ChallengeTTL string `toml:"challenge_ttl"`
}

// SyncConfig holds the background rating sync schedule.
type SyncConfig struct {
	Enabled bool   `toml:"enabled"`
	Pattern string `toml:"pattern"`
}

// GuildConfig holds the tier ladder for one guild.
type GuildConfig struct {
	ID    string       `toml:"id"`
	Tiers []TierConfig `toml:"tier"`
}

// TierConfig is one rung of a guild's tier ladder. MinRating is the inclusive
// lower bound of the rating range; the range extends to the next tier's
// MinRating (or unbounded for the last tier).
type TierConfig struct {
	Name      string `toml:"name"`
	MinRating int    `toml:"min_rating"`
	RoleID    string `toml:"role_id"`
}

// Load reads and parses the TOML config file at path and applies default values for missing fields.
func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
		Lichess: LichessConfig{
			BaseURL: DefaultLichessURL,
			Perf:    DefaultLichessPerf,
		},
		Link: LinkConfig{
			ChallengeTTL: DefaultChallengeTTL,
		},
		Sync: SyncConfig{
			Enabled: true,
			Pattern: DefaultSyncPattern,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
