// Package bot runs the Discord gateway side: slash command registration and
// the link, rating, unlink, and help commands.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/tierbotio/tierbot/internal/linker"
	"github.com/tierbotio/tierbot/internal/platform"
)

const commandTimeout = 15 * time.Second

// Bot wires the Discord session to the linker service.
type Bot struct {
	session *discordgo.Session
	linker  *linker.Service
	guilds  []string
	perf    string
	logger  *slog.Logger

	commands map[string][]*discordgo.ApplicationCommand
}

// New creates the bot over an unopened session. guilds is the command scope:
// commands are registered per configured guild, not globally, so they show up
// immediately and never leak into unconfigured servers.
func New(log *slog.Logger, session *discordgo.Session, linkSvc *linker.Service, guilds []string, perf string) *Bot {
	if log == nil {
		log = slog.Default()
	}
	session.Identify.Intents = discordgo.IntentsGuilds
	b := &Bot{
		session:  session,
		linker:   linkSvc,
		guilds:   guilds,
		perf:     perf,
		logger:   log.With(slog.String("service", "bot")),
		commands: map[string][]*discordgo.ApplicationCommand{},
	}
	session.AddHandler(b.handleInteraction)
	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.logger.Info("gateway ready", slog.Int("guilds", len(r.Guilds)))
	})
	return b
}

// Start opens the gateway connection and registers the slash commands.
func (b *Bot) Start(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	if err := b.registerCommands(); err != nil {
		return err
	}
	b.logger.Info("bot started", slog.String("user", b.session.State.User.Username))
	return nil
}

// Stop removes the registered commands and closes the session.
func (b *Bot) Stop(ctx context.Context) error {
	b.removeCommands()
	return b.session.Close()
}

func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if i.Member == nil || i.Member.User == nil {
		// Commands are guild-scoped; a DM invocation has no member to act on.
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	data := i.ApplicationCommandData()
	b.logger.Debug("command received",
		slog.String("command", data.Name),
		slog.String("guild_id", i.GuildID),
		slog.String("discord_id", i.Member.User.ID),
	)

	switch data.Name {
	case "link":
		b.handleLink(ctx, s, i)
	case "rating":
		b.handleRating(ctx, s, i)
	case "unlink":
		b.handleUnlink(ctx, s, i)
	case "help":
		b.respond(s, i, helpText())
	default:
		b.logger.Warn("unknown command", slog.String("command", data.Name))
	}
}

func (b *Bot) handleLink(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.deferReply(s, i)

	challenge, err := b.linker.IssueChallenge(ctx, i.GuildID, i.Member.User.ID)
	if err != nil {
		b.logger.ErrorContext(ctx, "issue challenge failed", slog.Any("error", err))
		b.edit(s, i, "Something went wrong issuing your verification link. Please try again later.")
		return
	}
	url := b.linker.VerificationURL(challenge)

	// The link goes out by DM first; members with DMs closed get it in the
	// ephemeral reply instead, which only they can see.
	if err := b.sendDM(s, i.Member.User.ID, linkDM(url, challenge.ExpiresAt)); err != nil {
		b.logger.Debug("dm delivery failed, falling back to ephemeral reply",
			slog.String("discord_id", i.Member.User.ID),
			slog.Any("error", err),
		)
		b.edit(s, i, "I couldn't DM you, so here is your verification link:\n"+url+
			"\nIt expires "+discordTimestamp(challenge.ExpiresAt)+".")
		return
	}
	b.edit(s, i, "Check your DMs for a verification link.")
}

func (b *Bot) handleRating(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.deferReply(s, i)

	res, err := b.linker.SyncRating(ctx, i.GuildID, i.Member.User.ID)
	if err != nil {
		switch {
		case errors.Is(err, linker.ErrNotLinked):
			b.edit(s, i, "You haven't linked a Lichess account yet. Use `/link` first.")
		case errors.Is(err, platform.ErrMemberNotFound):
			b.edit(s, i, "I couldn't find you in this server.")
		default:
			b.logger.ErrorContext(ctx, "rating sync failed",
				slog.String("guild_id", i.GuildID),
				slog.String("discord_id", i.Member.User.ID),
				slog.Any("error", err),
			)
			b.edit(s, i, "Something went wrong fetching your rating. Please try again later.")
		}
		return
	}
	b.editEmbed(s, i, ratingEmbed(res, b.perf))
}

func (b *Bot) handleUnlink(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.deferReply(s, i)

	deleted, err := b.linker.Unlink(ctx, i.GuildID, i.Member.User.ID)
	if err != nil {
		b.logger.ErrorContext(ctx, "unlink failed",
			slog.String("guild_id", i.GuildID),
			slog.String("discord_id", i.Member.User.ID),
			slog.Any("error", err),
		)
		b.edit(s, i, "I couldn't remove your tier roles, so your link was kept. Please try again.")
		return
	}
	if !deleted {
		b.edit(s, i, "There was nothing to delete: no Lichess account is linked here.")
		return
	}
	b.edit(s, i, "Your Lichess link and tier roles have been removed.")
}

func (b *Bot) sendDM(s *discordgo.Session, userID, content string) error {
	ch, err := s.UserChannelCreate(userID)
	if err != nil {
		return err
	}
	_, err = s.ChannelMessageSend(ch.ID, content)
	return err
}

func (b *Bot) deferReply(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.logger.Warn("interaction defer failed", slog.Any("error", err))
	}
}

func (b *Bot) respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.logger.Warn("interaction respond failed", slog.Any("error", err))
	}
}

func (b *Bot) edit(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	}); err != nil {
		b.logger.Warn("interaction edit failed", slog.Any("error", err))
	}
}

func (b *Bot) editEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{embed},
	}); err != nil {
		b.logger.Warn("interaction edit failed", slog.Any("error", err))
	}
}
