package tiers

import (
	"errors"
	"testing"

	"github.com/tierbotio/tierbot/internal/config"
)

func ladderConfig() []config.GuildConfig {
	return []config.GuildConfig{
		{
			ID: "g1",
			Tiers: []config.TierConfig{
				{Name: "Bronze", MinRating: 0, RoleID: "r1"},
				{Name: "Silver", MinRating: 1200, RoleID: "r2"},
				{Name: "Gold", MinRating: 1800, RoleID: "r3"},
			},
		},
	}
}

func TestLoadRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		guilds []config.GuildConfig
	}{
		{"missing guild id", []config.GuildConfig{{Tiers: []config.TierConfig{{MinRating: 0, RoleID: "r"}}}}},
		{"no tiers", []config.GuildConfig{{ID: "g"}}},
		{"gap below lowest tier", []config.GuildConfig{{ID: "g", Tiers: []config.TierConfig{{MinRating: 100, RoleID: "r"}}}}},
		{"duplicate bound", []config.GuildConfig{{ID: "g", Tiers: []config.TierConfig{
			{MinRating: 0, RoleID: "a"}, {MinRating: 0, RoleID: "b"},
		}}}},
		{"duplicate role", []config.GuildConfig{{ID: "g", Tiers: []config.TierConfig{
			{MinRating: 0, RoleID: "a"}, {MinRating: 500, RoleID: "a"},
		}}}},
		{"empty role id", []config.GuildConfig{{ID: "g", Tiers: []config.TierConfig{{MinRating: 0}}}}},
		{"duplicate guild", append(ladderConfig(), ladderConfig()...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(tt.guilds); err == nil {
				t.Error("Load() expected error, got nil")
			}
		})
	}
}

func TestRoleForCoversWholeDomain(t *testing.T) {
	m, err := Load(ladderConfig())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		rating int
		want   string
	}{
		{0, "r1"},
		{1199, "r1"},
		{1200, "r2"},
		{1799, "r2"},
		{1800, "r3"},
		{3500, "r3"},
		{-5, "r1"}, // clamped, still total
	}
	for _, tt := range tests {
		tier, err := m.RoleFor("g1", tt.rating)
		if err != nil {
			t.Fatalf("RoleFor(%d) error = %v", tt.rating, err)
		}
		if tier.RoleID != tt.want {
			t.Errorf("RoleFor(%d) = %s, want %s", tt.rating, tier.RoleID, tt.want)
		}
	}
}

func TestRoleForUnknownGuild(t *testing.T) {
	m, err := Load(ladderConfig())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.RoleFor("nope", 1500); !errors.Is(err, ErrNoGuildConfig) {
		t.Errorf("RoleFor(unknown guild) error = %v, want ErrNoGuildConfig", err)
	}
}

func TestOtherTierRoles(t *testing.T) {
	m, err := Load(ladderConfig())
	if err != nil {
		t.Fatal(err)
	}

	all := m.OtherTierRoles("g1", nil)
	if len(all) != 3 {
		t.Fatalf("OtherTierRoles(no keep) = %v, want all three", all)
	}

	rest := m.OtherTierRoles("g1", map[string]struct{}{"r2": {}})
	if len(rest) != 2 || rest[0] != "r1" || rest[1] != "r3" {
		t.Errorf("OtherTierRoles(keep r2) = %v, want [r1 r3]", rest)
	}

	if got := m.OtherTierRoles("nope", nil); got != nil {
		t.Errorf("OtherTierRoles(unknown guild) = %v, want nil", got)
	}
}

func TestLoadSortsUnorderedLadder(t *testing.T) {
	m, err := Load([]config.GuildConfig{{
		ID: "g",
		Tiers: []config.TierConfig{
			{Name: "Gold", MinRating: 1800, RoleID: "r3"},
			{Name: "Bronze", MinRating: 0, RoleID: "r1"},
			{Name: "Silver", MinRating: 1200, RoleID: "r2"},
		},
	}})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	tier, err := m.RoleFor("g", 1500)
	if err != nil {
		t.Fatal(err)
	}
	if tier.RoleID != "r2" {
		t.Errorf("RoleFor(1500) = %s, want r2", tier.RoleID)
	}
}
