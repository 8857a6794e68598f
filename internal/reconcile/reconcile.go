// Package reconcile converges a guild member's tier roles with their rating tier.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tierbotio/tierbot/internal/platform"
	"github.com/tierbotio/tierbot/internal/tiers"
)

// Op is a role mutation kind.
type Op string

const (
	OpAdd    Op = "add"
	OpRemove Op = "remove"
)

// Mutation is a single role change against the platform.
type Mutation struct {
	Op     Op
	RoleID string
}

func (m Mutation) String() string {
	return string(m.Op) + " " + m.RoleID
}

// PartialError reports a reconciliation that stopped partway: Applied
// mutations went through, Remaining (starting with the one that failed)
// did not. The member's role set may match neither the old nor the new tier.
type PartialError struct {
	GuildID   string
	DiscordID string
	Applied   []Mutation
	Remaining []Mutation
	Cause     error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("partial reconcile for %s in guild %s: %d applied, %d remaining: %v",
		e.DiscordID, e.GuildID, len(e.Applied), len(e.Remaining), e.Cause)
}

func (e *PartialError) Unwrap() error { return e.Cause }

// Reconciler computes and applies the minimal role mutation set. Calls for
// the same (guild, member) are serialized so mutation sequences never
// interleave; the platform offers no transaction to lean on.
type Reconciler struct {
	roles  platform.RoleClient
	tiers  *tiers.Map
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a reconciler over the given role client and tier map.
func New(log *slog.Logger, roles platform.RoleClient, tierMap *tiers.Map) *Reconciler {
	if log == nil {
		log = slog.Default()
	}
	return &Reconciler{
		roles:  roles,
		tiers:  tierMap,
		logger: log.With(slog.String("service", "reconcile")),
		locks:  map[string]*sync.Mutex{},
	}
}

// Reconcile makes the member's tier roles converge to exactly keep (one tier
// role) or, when keep is empty, to none at all. Removals are applied before
// additions, one platform call each; the first failure aborts the rest and
// returns a PartialError. A second call with the same keep performs zero
// mutations.
func (r *Reconciler) Reconcile(ctx context.Context, guildID, discordID, keep string) error {
	lock := r.userLock(guildID, discordID)
	lock.Lock()
	defer lock.Unlock()

	current, err := r.roles.MemberRoles(ctx, guildID, discordID)
	if err != nil {
		return err
	}
	held := make(map[string]struct{}, len(current))
	for _, id := range current {
		held[id] = struct{}{}
	}

	keepSet := map[string]struct{}{}
	if keep != "" {
		keepSet[keep] = struct{}{}
	}

	var plan []Mutation
	for _, roleID := range r.tiers.OtherTierRoles(guildID, keepSet) {
		if _, has := held[roleID]; has {
			plan = append(plan, Mutation{Op: OpRemove, RoleID: roleID})
		}
	}
	if keep != "" {
		if _, has := held[keep]; !has {
			plan = append(plan, Mutation{Op: OpAdd, RoleID: keep})
		}
	}

	if len(plan) == 0 {
		r.logger.DebugContext(ctx, "roles already converged",
			slog.String("guild_id", guildID),
			slog.String("discord_id", discordID),
			slog.String("keep", keep),
		)
		return nil
	}

	for i, m := range plan {
		var err error
		switch m.Op {
		case OpRemove:
			err = r.roles.RemoveRole(ctx, guildID, discordID, m.RoleID)
		case OpAdd:
			err = r.roles.AddRole(ctx, guildID, discordID, m.RoleID)
		}
		if err != nil {
			partial := &PartialError{
				GuildID:   guildID,
				DiscordID: discordID,
				Applied:   plan[:i],
				Remaining: plan[i:],
				Cause:     err,
			}
			r.logger.ErrorContext(ctx, "role reconcile aborted",
				slog.String("guild_id", guildID),
				slog.String("discord_id", discordID),
				slog.Any("applied", partial.Applied),
				slog.Any("remaining", partial.Remaining),
				slog.Any("error", err),
			)
			return partial
		}
	}

	r.logger.InfoContext(ctx, "roles reconciled",
		slog.String("guild_id", guildID),
		slog.String("discord_id", discordID),
		slog.String("keep", keep),
		slog.Int("mutations", len(plan)),
	)
	return nil
}

func (r *Reconciler) userLock(guildID, discordID string) *sync.Mutex {
	key := guildID + ":" + discordID
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[key] = lock
	}
	return lock
}
