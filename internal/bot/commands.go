package bot

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/tierbotio/tierbot/internal/linker"
)

func commandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "link",
			Description: "Link your Lichess account to get a tier role",
		},
		{
			Name:        "rating",
			Description: "Show your Lichess rating and update your tier role",
		},
		{
			Name:        "unlink",
			Description: "Remove your Lichess link and tier roles",
		},
		{
			Name:        "help",
			Description: "Show what this bot does",
		},
	}
}

func (b *Bot) registerCommands() error {
	defs := commandDefinitions()
	for _, guildID := range b.guilds {
		registered := make([]*discordgo.ApplicationCommand, 0, len(defs))
		for _, cmd := range defs {
			created, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, guildID, cmd)
			if err != nil {
				return fmt.Errorf("register command %s in guild %s: %w", cmd.Name, guildID, err)
			}
			registered = append(registered, created)
		}
		b.commands[guildID] = registered
	}
	b.logger.Info("slash commands registered",
		slog.Int("commands", len(defs)),
		slog.Int("guilds", len(b.guilds)),
	)
	return nil
}

func (b *Bot) removeCommands() {
	for guildID, cmds := range b.commands {
		for _, cmd := range cmds {
			if err := b.session.ApplicationCommandDelete(b.session.State.User.ID, guildID, cmd.ID); err != nil {
				b.logger.Warn("command removal failed",
					slog.String("command", cmd.Name),
					slog.String("guild_id", guildID),
					slog.Any("error", err),
				)
			}
		}
	}
}

func linkDM(url string, expiresAt time.Time) string {
	return "To link your Lichess account, open this link and sign in with Lichess:\n" +
		url + "\nIt expires " + discordTimestamp(expiresAt) + ". Running `/link` again replaces it."
}

func discordTimestamp(t time.Time) string {
	return fmt.Sprintf("<t:%d:R>", t.Unix())
}

func ratingEmbed(res linker.SyncResult, perf string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "Lichess rating",
		URL:   "https://lichess.org/@/" + res.LichessID,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Account", Value: res.LichessID, Inline: true},
			{Name: "Rating (" + perf + ")", Value: fmt.Sprintf("%d", res.Rating), Inline: true},
			{Name: "Tier", Value: res.Tier.Name, Inline: true},
		},
	}
}

func helpText() string {
	return "**Commands**\n" +
		"`/link` — link your Lichess account; you'll get a verification link to sign in with.\n" +
		"`/rating` — show your current rating and refresh your tier role.\n" +
		"`/unlink` — remove the link and all tier roles.\n" +
		"Tier roles are also refreshed periodically in the background."
}
