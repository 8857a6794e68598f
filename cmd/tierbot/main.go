package main

import (
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"

	dbfs "github.com/tierbotio/tierbot/db"
	"github.com/tierbotio/tierbot/internal/auth"
	"github.com/tierbotio/tierbot/internal/config"
	"github.com/tierbotio/tierbot/internal/db"
	"github.com/tierbotio/tierbot/internal/logger"
	"github.com/tierbotio/tierbot/internal/version"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "tierbot",
	Short: "Discord bot that maps Lichess ratings to guild tier roles",
	Long: `tierbot links Discord members to their Lichess accounts and keeps
each member's tier role in sync with their rating.

Run "tierbot serve" to start the bot, the verification web server, and the
periodic sync.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot, HTTP server, and periodic sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate [up|down|version|force N]",
	Short: "Apply or roll back database migrations",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger.Init(cfg.Log.Level, cfg.Log.Format)

		migrations, err := fs.Sub(dbfs.MigrationsFS, "migrations")
		if err != nil {
			return fmt.Errorf("migrations fs: %w", err)
		}
		return db.RunMigrate(logger.L, cfg.Postgres, migrations, args[0], args[1:])
	},
}

var (
	tokenSubject string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an operator API token",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if cfg.Server.JWTSecret == "" {
			return fmt.Errorf("server.jwt_secret is not configured")
		}
		signed, expiresAt, err := auth.GenerateToken(tokenSubject, cfg.Server.JWTSecret, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Println(signed)
		fmt.Fprintf(os.Stderr, "expires %s\n", expiresAt.Format(time.RFC3339))
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.GetInfo())
	},
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.toml")
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "operator", "token subject")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")

	rootCmd.AddCommand(serveCmd, migrateCmd, tokenCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
