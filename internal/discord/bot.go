// Package discord connects the command core to Discord through discordgo:
// gateway events, slash command sync, interaction replies and the
// platform.Client implementation.
package discord

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"server-warden/internal/command"
	"server-warden/internal/config"
	"server-warden/internal/dispatch"
)

// Bot is a Discord bot.
type Bot struct {
	dg         *discordgo.Session
	cfg        *config.Config
	dispatcher *dispatch.Dispatcher
	platform   *Platform
}

// NewSession creates an unopened session for token.
func NewSession(token string) (*discordgo.Session, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers
	return dg, nil
}

// NewBot wires a session and its platform adapter to the dispatcher.
func NewBot(p *Platform, cfg *config.Config, d *dispatch.Dispatcher) *Bot {
	return &Bot{dg: p.s, cfg: cfg, dispatcher: d, platform: p}
}

// Run opens the gateway and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	b.dg.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) { b.onReady(ctx, s, r) })
	b.dg.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) { b.onInteractionCreate(ctx, s, i) })

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer b.dg.Close()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received, closing gateway")
	return nil
}

func (b *Bot) onReady(ctx context.Context, s *discordgo.Session, r *discordgo.Ready) {
	if err := s.UpdateStatusComplex(presence(b.cfg.Presence)); err != nil {
		log.Warn().Err(err).Msg("failed to set presence")
	}
	if err := b.registerCommands(ctx, r.User.ID, b.cfg.GuildID); err != nil {
		log.Error().Err(err).Msg("failed to sync slash commands")
	}
	log.Info().
		Str("user", r.User.Username).
		Int("guilds", len(r.Guilds)).
		Msg("discord bot is running")
}

func (b *Bot) onInteractionCreate(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	if data.CommandType != 0 && data.CommandType != discordgo.ChatApplicationCommand {
		return
	}

	var g guildInfo
	if i.GuildID != "" {
		g = b.platform.guild(ctx, i.GuildID)
	}
	c := &command.Context{
		GuildID:        i.GuildID,
		ChannelID:      i.ChannelID,
		Actor:          actorFrom(i.Interaction, g),
		BotPermissions: botPermissions(s, i.Interaction),
		Args:           argsFrom(data, g),
		Reply:          newResponder(s, i.Interaction),
	}
	// errors are already answered and logged by the dispatcher
	_ = b.dispatcher.Dispatch(ctx, data.Name, c)
}

// presence maps the configured activity onto a gateway status update.
func presence(p config.Presence) discordgo.UpdateStatusData {
	kind := discordgo.ActivityTypeWatching
	switch strings.ToLower(strings.TrimSpace(p.Type)) {
	case "playing":
		kind = discordgo.ActivityTypeGame
	case "streaming":
		kind = discordgo.ActivityTypeStreaming
	case "listening":
		kind = discordgo.ActivityTypeListening
	case "competing":
		kind = discordgo.ActivityTypeCompeting
	}
	return discordgo.UpdateStatusData{
		Status:     string(discordgo.StatusOnline),
		Activities: []*discordgo.Activity{{Name: p.Message, Type: kind}},
	}
}
