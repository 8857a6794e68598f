// Package tiers maps ratings to guild tier roles from static configuration.
package tiers

import (
	"errors"
	"fmt"
	"sort"

	"github.com/tierbotio/tierbot/internal/config"
)

// ErrNoGuildConfig is returned when a guild has no configured tier ladder.
var ErrNoGuildConfig = errors.New("no tier configuration for guild")

// Tier is one rung of a guild's ladder: ratings in [MinRating, next rung's
// MinRating) carry RoleID. The last rung is unbounded above.
type Tier struct {
	Name      string
	MinRating int
	RoleID    string
}

// Map holds the per-guild tier ladders. Immutable after Load.
type Map struct {
	guilds map[string][]Tier
}

// Load validates the configured ladders and builds the Map. Each guild needs
// at least one tier, the lowest tier must start at rating 0 so every rating
// maps to exactly one role, bounds must be strictly increasing, and role ids
// must be unique within a guild.
func Load(guilds []config.GuildConfig) (*Map, error) {
	m := &Map{guilds: make(map[string][]Tier, len(guilds))}
	for _, g := range guilds {
		if g.ID == "" {
			return nil, errors.New("tier config: guild id is required")
		}
		if _, ok := m.guilds[g.ID]; ok {
			return nil, fmt.Errorf("tier config: duplicate guild %s", g.ID)
		}
		if len(g.Tiers) == 0 {
			return nil, fmt.Errorf("tier config: guild %s has no tiers", g.ID)
		}

		ladder := make([]Tier, 0, len(g.Tiers))
		seen := make(map[string]struct{}, len(g.Tiers))
		for _, t := range g.Tiers {
			if t.RoleID == "" {
				return nil, fmt.Errorf("tier config: guild %s tier %q has no role id", g.ID, t.Name)
			}
			if _, dup := seen[t.RoleID]; dup {
				return nil, fmt.Errorf("tier config: guild %s role %s used by more than one tier", g.ID, t.RoleID)
			}
			seen[t.RoleID] = struct{}{}
			ladder = append(ladder, Tier{Name: t.Name, MinRating: t.MinRating, RoleID: t.RoleID})
		}

		sort.Slice(ladder, func(i, j int) bool { return ladder[i].MinRating < ladder[j].MinRating })
		if ladder[0].MinRating != 0 {
			return nil, fmt.Errorf("tier config: guild %s lowest tier must start at 0, got %d", g.ID, ladder[0].MinRating)
		}
		for i := 1; i < len(ladder); i++ {
			if ladder[i].MinRating == ladder[i-1].MinRating {
				return nil, fmt.Errorf("tier config: guild %s has two tiers starting at %d", g.ID, ladder[i].MinRating)
			}
		}

		m.guilds[g.ID] = ladder
	}
	return m, nil
}

// RoleFor returns the tier whose rating range contains rating.
func (m *Map) RoleFor(guildID string, rating int) (Tier, error) {
	ladder, ok := m.guilds[guildID]
	if !ok {
		return Tier{}, fmt.Errorf("%w: %s", ErrNoGuildConfig, guildID)
	}
	if rating < 0 {
		rating = 0
	}
	// Ladders are short; a linear scan from the top keeps this obvious.
	for i := len(ladder) - 1; i >= 0; i-- {
		if rating >= ladder[i].MinRating {
			return ladder[i], nil
		}
	}
	return ladder[0], nil
}

// OtherTierRoles returns every configured tier role for the guild except
// those in keep, in ladder order. With an empty keep set it returns all of
// the guild's tier roles.
func (m *Map) OtherTierRoles(guildID string, keep map[string]struct{}) []string {
	ladder, ok := m.guilds[guildID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(ladder))
	for _, t := range ladder {
		if _, kept := keep[t.RoleID]; kept {
			continue
		}
		out = append(out, t.RoleID)
	}
	return out
}

// Guilds returns the ids of all configured guilds.
func (m *Map) Guilds() []string {
	out := make([]string, 0, len(m.guilds))
	for id := range m.guilds {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
