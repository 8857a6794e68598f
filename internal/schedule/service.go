// Package schedule runs the periodic full rating sync over all stored links.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tierbotio/tierbot/internal/config"
	"github.com/tierbotio/tierbot/internal/linker"
)

const perLinkTimeout = 30 * time.Second

// Syncer is the slice of the linker the sweep needs.
type Syncer interface {
	AllLinks(ctx context.Context) ([]linker.Link, error)
	SyncRating(ctx context.Context, guildID, discordID string) (linker.SyncResult, error)
}

// Service schedules the recurring sync sweep. One sweep runs at a time; a
// sweep still in flight when the next tick fires makes the tick a no-op.
type Service struct {
	syncer  Syncer
	cron    *cron.Cron
	pattern string
	enabled bool
	logger  *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewService creates the sync scheduler. The cron is not started yet; call
// Start once the rest of the system is up.
func NewService(log *slog.Logger, syncer Syncer, cfg config.SyncConfig) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		syncer:  syncer,
		cron:    cron.New(),
		pattern: cfg.Pattern,
		enabled: cfg.Enabled,
		logger:  log.With(slog.String("service", "schedule")),
	}
}

// Start registers the sweep job and starts the cron. Disabled config makes
// Start a no-op.
func (s *Service) Start() error {
	if !s.enabled {
		s.logger.Info("periodic sync disabled")
		return nil
	}
	if s.syncer == nil {
		return errors.New("schedule syncer not configured")
	}
	if _, err := s.cron.AddFunc(s.pattern, func() { s.Sweep(context.Background()) }); err != nil {
		return fmt.Errorf("invalid sync pattern %q: %w", s.pattern, err)
	}
	s.cron.Start()
	s.logger.Info("periodic sync started", slog.String("pattern", s.pattern))
	return nil
}

// Stop stops the cron and waits for a running sweep's jobs to finish.
func (s *Service) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sweep syncs every stored link once. Failures are logged and skipped so one
// broken member cannot stall the rest; per-user ordering is the reconciler's
// problem, not the sweep's.
func (s *Service) Sweep(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("sync sweep still running, skipping tick")
		return
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	links, err := s.syncer.AllLinks(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "sync sweep aborted", slog.Any("error", err))
		return
	}

	var failed int
	for _, link := range links {
		if err := s.syncOne(ctx, link); err != nil {
			failed++
			s.logger.WarnContext(ctx, "link sync failed",
				slog.String("guild_id", link.GuildID),
				slog.String("discord_id", link.DiscordID),
				slog.Any("error", err),
			)
		}
	}
	s.logger.InfoContext(ctx, "sync sweep finished",
		slog.Int("links", len(links)),
		slog.Int("failed", failed),
	)
}

func (s *Service) syncOne(ctx context.Context, link linker.Link) error {
	ctx, cancel := context.WithTimeout(ctx, perLinkTimeout)
	defer cancel()
	_, err := s.syncer.SyncRating(ctx, link.GuildID, link.DiscordID)
	return err
}
