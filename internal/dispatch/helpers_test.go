package dispatch

import "github.com/bwmarrin/discordgo"

func slash(name string) *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: name, Description: name}
}
