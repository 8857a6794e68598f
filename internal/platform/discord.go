package platform

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// DiscordRoleClient implements RoleClient on a discordgo session.
type DiscordRoleClient struct {
	session *discordgo.Session
}

// NewDiscordRoleClient wraps the given session.
func NewDiscordRoleClient(session *discordgo.Session) *DiscordRoleClient {
	return &DiscordRoleClient{session: session}
}

// MemberRoles returns the role ids currently held by the member.
func (c *DiscordRoleClient) MemberRoles(ctx context.Context, guildID, discordID string) ([]string, error) {
	member, err := c.session.GuildMember(guildID, discordID, discordgo.WithContext(ctx))
	if err != nil {
		if isUnknownMember(err) {
			return nil, fmt.Errorf("%w: %s in guild %s", ErrMemberNotFound, discordID, guildID)
		}
		return nil, fmt.Errorf("get member %s in guild %s: %w", discordID, guildID, err)
	}
	return member.Roles, nil
}

// AddRole grants roleID to the member.
func (c *DiscordRoleClient) AddRole(ctx context.Context, guildID, discordID, roleID string) error {
	if err := c.session.GuildMemberRoleAdd(guildID, discordID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("add role %s to %s in guild %s: %w", roleID, discordID, guildID, err)
	}
	return nil
}

// RemoveRole revokes roleID from the member.
func (c *DiscordRoleClient) RemoveRole(ctx context.Context, guildID, discordID, roleID string) error {
	if err := c.session.GuildMemberRoleRemove(guildID, discordID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("remove role %s from %s in guild %s: %w", roleID, discordID, guildID, err)
	}
	return nil
}

func isUnknownMember(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) || restErr.Message == nil {
		return false
	}
	switch restErr.Message.Code {
	case discordgo.ErrCodeUnknownMember, discordgo.ErrCodeUnknownUser:
		return true
	}
	return false
}
