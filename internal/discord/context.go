package discord

import (
	"github.com/bwmarrin/discordgo"

	"server-warden/internal/command"
	"server-warden/internal/platform"
)

// actorFrom converts the invoking member. Interaction members always carry
// their roles; DMs only have a user, whose roles are unknown.
func actorFrom(i *discordgo.Interaction, g guildInfo) platform.Member {
	if i.Member != nil {
		return convertMember(i.Member, g)
	}
	return platform.Member{User: convertUser(i.User), Partial: true}
}

// argsFrom flattens command options. User options become platform.Member when
// the user is in the guild and platform.User otherwise.
func argsFrom(data discordgo.ApplicationCommandInteractionData, g guildInfo) command.Args {
	args := command.Args{}
	for _, opt := range data.Options {
		switch opt.Type {
		case discordgo.ApplicationCommandOptionString:
			args[opt.Name] = opt.StringValue()
		case discordgo.ApplicationCommandOptionInteger:
			args[opt.Name] = opt.IntValue()
		case discordgo.ApplicationCommandOptionNumber:
			args[opt.Name] = opt.FloatValue()
		case discordgo.ApplicationCommandOptionBoolean:
			args[opt.Name] = opt.BoolValue()
		case discordgo.ApplicationCommandOptionUser:
			id, _ := opt.Value.(string)
			args[opt.Name] = resolveUser(data.Resolved, id, g)
		}
	}
	return args
}

func resolveUser(res *discordgo.ApplicationCommandInteractionDataResolved, id string, g guildInfo) any {
	if res == nil {
		return platform.User{ID: id}
	}
	user := res.Users[id]
	if m, ok := res.Members[id]; ok && m != nil {
		full := *m
		if full.User == nil {
			full.User = user
		}
		if full.User == nil {
			full.User = &discordgo.User{ID: id}
		}
		return convertMember(&full, g)
	}
	if user != nil {
		return convertUser(user)
	}
	return platform.User{ID: id}
}
