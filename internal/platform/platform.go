// Package platform abstracts the chat platform's member role API.
package platform

import (
	"context"
	"errors"
)

// ErrMemberNotFound is returned when the member is not present in the guild
// (e.g. they left after linking).
var ErrMemberNotFound = errors.New("member not found in guild")

// RoleClient reads and mutates a guild member's roles. Each call is a single
// remote request and fails independently.
type RoleClient interface {
	MemberRoles(ctx context.Context, guildID, discordID string) ([]string, error)
	AddRole(ctx context.Context, guildID, discordID, roleID string) error
	RemoveRole(ctx context.Context, guildID, discordID, roleID string) error
}
