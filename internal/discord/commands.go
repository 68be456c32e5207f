package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"server-warden/internal/command"
)

// registerCommands syncs slash commands to guildID, or globally when empty.
// Nothing is sent when the remote set already matches.
func (b *Bot) registerCommands(ctx context.Context, appID, guildID string) error {
	local := localDefinitions(command.SlashDefinitions(b.dispatcher.Registry()), guildID)

	remote, err := b.dg.ApplicationCommands(appID, guildID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("list commands: %w", err)
	}
	if sameCommands(remote, local) {
		log.Info().Str("guild", guildID).Int("commands", len(local)).Msg("slash commands up to date")
		return nil
	}

	if _, err := b.dg.ApplicationCommandBulkOverwrite(appID, guildID, local, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("overwrite commands: %w", err)
	}
	log.Info().Str("guild", guildID).Int("commands", len(local)).Msg("slash commands synced")
	return nil
}

// localDefinitions normalizes defs for upload. DM permission only applies to
// global commands, so guild-scoped sets drop it.
func localDefinitions(defs []*discordgo.ApplicationCommand, guildID string) []*discordgo.ApplicationCommand {
	for _, def := range defs {
		if def.Type == 0 {
			def.Type = discordgo.ChatApplicationCommand
		}
		if guildID != "" {
			def.DMPermission = nil
		}
	}
	return defs
}

// sameCommands compares two command sets by definition hash.
func sameCommands(remote, local []*discordgo.ApplicationCommand) bool {
	if len(remote) != len(local) {
		return false
	}
	hashes := make(map[string]string, len(remote))
	for _, c := range remote {
		hashes[c.Name] = hashCommand(c)
	}
	for _, c := range local {
		if hashes[c.Name] != hashCommand(c) {
			return false
		}
	}
	return true
}
