package discord

import (
	"github.com/bwmarrin/discordgo"
)

// botPermissions returns the bot's permissions in the interaction's channel.
// Interactions carry them; older payloads without them fall back to the state.
func botPermissions(s *discordgo.Session, i *discordgo.Interaction) int64 {
	if i.AppPermissions != 0 {
		return i.AppPermissions
	}
	if s.State == nil || s.State.User == nil || i.ChannelID == "" {
		return 0
	}
	perms, err := s.UserChannelPermissions(s.State.User.ID, i.ChannelID)
	if err != nil {
		return 0
	}
	return perms
}
