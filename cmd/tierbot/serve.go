package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/tierbotio/tierbot/internal/bot"
	"github.com/tierbotio/tierbot/internal/config"
	"github.com/tierbotio/tierbot/internal/db"
	"github.com/tierbotio/tierbot/internal/handlers"
	"github.com/tierbotio/tierbot/internal/lichess"
	"github.com/tierbotio/tierbot/internal/linker"
	"github.com/tierbotio/tierbot/internal/logger"
	"github.com/tierbotio/tierbot/internal/platform"
	"github.com/tierbotio/tierbot/internal/reconcile"
	"github.com/tierbotio/tierbot/internal/schedule"
	"github.com/tierbotio/tierbot/internal/server"
	"github.com/tierbotio/tierbot/internal/store/sqlc"
	"github.com/tierbotio/tierbot/internal/tiers"
	"github.com/tierbotio/tierbot/internal/version"
)

func runServe() error {
	app := fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,

			provideDBConn,
			provideDBQueries,
			provideTierMap,
			provideSession,
			provideLichessClient,
			provideReconciler,
			provideLinker,
			provideBot,
			schedule.NewService,
			provideSyncConfig,
			provideSyncer,

			provideServerHandler(handlers.NewPingHandler),
			provideServerHandler(provideVerifyHandler),
			provideServerHandler(handlers.NewAdminHandler),
			provideServer,
		),
		fx.Invoke(
			startBot,
			startSchedule,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	)
	app.Run()
	return nil
}

func provideConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideDBConn(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	conn, err := db.Open(context.Background(), cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			conn.Close()
			return nil
		},
	})
	return conn, nil
}

func provideDBQueries(conn *pgxpool.Pool) *sqlc.Queries {
	return sqlc.New(conn)
}

func provideTierMap(cfg config.Config) (*tiers.Map, error) {
	return tiers.Load(cfg.Guilds)
}

func provideSession(cfg config.Config) (*discordgo.Session, error) {
	if cfg.Discord.Token == "" {
		return nil, errors.New("discord.token is not configured")
	}
	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	return session, nil
}

func provideLichessClient(log *slog.Logger, cfg config.Config) *lichess.Client {
	return lichess.NewClient(log, cfg.Lichess)
}

func provideReconciler(log *slog.Logger, session *discordgo.Session, tierMap *tiers.Map) *reconcile.Reconciler {
	return reconcile.New(log, platform.NewDiscordRoleClient(session), tierMap)
}

func provideLinker(log *slog.Logger, pool *pgxpool.Pool, queries *sqlc.Queries, client *lichess.Client, tierMap *tiers.Map, rec *reconcile.Reconciler, cfg config.Config) (*linker.Service, error) {
	ttl, err := time.ParseDuration(cfg.Link.ChallengeTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid link.challenge_ttl %q: %w", cfg.Link.ChallengeTTL, err)
	}
	return linker.NewService(log, pool, queries, client, tierMap, rec, cfg.Server.PublicBaseURL, ttl), nil
}

func provideBot(log *slog.Logger, session *discordgo.Session, linkSvc *linker.Service, tierMap *tiers.Map, cfg config.Config) *bot.Bot {
	return bot.New(log, session, linkSvc, tierMap.Guilds(), cfg.Lichess.Perf)
}

func provideSyncConfig(cfg config.Config) config.SyncConfig {
	return cfg.Sync
}

func provideSyncer(linkSvc *linker.Service) schedule.Syncer {
	return linkSvc
}

func provideVerifyHandler(log *slog.Logger, linkSvc *linker.Service, client *lichess.Client, cfg config.Config) *handlers.VerifyHandler {
	oauth := lichess.OAuthConfig(cfg.Lichess, cfg.Server.PublicBaseURL+"/callback")
	return handlers.NewVerifyHandler(log, linkSvc, oauth, client)
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

type serverParams struct {
	fx.In

	Logger         *slog.Logger
	Config         config.Config
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(params.Logger, params.Config.Server.Addr, params.Config.Server.JWTSecret, params.ServerHandlers...)
}

func startBot(lc fx.Lifecycle, b *bot.Bot) {
	lc.Append(fx.Hook{
		OnStart: b.Start,
		OnStop:  b.Stop,
	})
}

func startSchedule(lc fx.Lifecycle, s *schedule.Service) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return s.Start()
		},
		OnStop: s.Stop,
	})
}

func startServer(lc fx.Lifecycle, logger *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	fmt.Printf("Starting tierbot %s\n", version.GetInfo())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
