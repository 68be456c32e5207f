// Package moderation defines the guarded moderation slash commands.
package moderation

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"server-warden/internal/command"
	"server-warden/internal/config"
	mod "server-warden/internal/moderation"
	"server-warden/internal/platform"
	"server-warden/internal/response"
)

// Category is the help heading of the moderation commands.
const Category = "🛡️ Moderation"

// Commands builds kick, ban, unban, timeout, untimeout and clear.
func Commands(exec *mod.Executor, cooldowns config.Cooldown) []*command.Spec {
	h := &handlers{exec: exec}
	limits := exec.Limits()
	guarded := command.Policy{Cooldown: cooldowns.Moderation, Guarded: true, GuildOnly: true}

	return []*command.Spec{
		{
			Slash: &discordgo.ApplicationCommand{
				Name:        "kick",
				Description: "Kick a member from the server",
				Options: []*discordgo.ApplicationCommandOption{
					memberOption("The member to kick", true),
					reasonOption("Reason for kicking"),
				},
			},
			Category: Category,
			Rules:    guarded,
			Handler:  h.kick,
		},
		{
			Slash: &discordgo.ApplicationCommand{
				Name:        "ban",
				Description: "Ban a member from the server",
				Options: []*discordgo.ApplicationCommandOption{
					memberOption("The member to ban", true),
					reasonOption("Reason for banning"),
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "delete_message_days",
						Description: "Number of days of messages to delete (0-7)",
						Choices:     deleteDayChoices(limits.BanDeleteDaysMin, limits.BanDeleteDaysMax),
					},
				},
			},
			Category: Category,
			Rules:    guarded,
			Handler:  h.ban,
		},
		{
			Slash: &discordgo.ApplicationCommand{
				Name:        "unban",
				Description: "Unban a user from the server",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "user_id",
						Description: "The user ID to unban",
						Required:    true,
					},
					reasonOption("Reason for unbanning"),
				},
			},
			Category: Category,
			Rules:    guarded,
			Handler:  h.unban,
		},
		{
			Slash: &discordgo.ApplicationCommand{
				Name:        "timeout",
				Description: "Timeout a member",
				Options: []*discordgo.ApplicationCommandOption{
					memberOption("The member to timeout", true),
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "minutes",
						Description: "Duration in minutes",
						Required:    true,
					},
					reasonOption("Reason for timeout"),
				},
			},
			Category: Category,
			Rules:    guarded,
			Handler:  h.timeout,
		},
		{
			Slash: &discordgo.ApplicationCommand{
				Name:        "untimeout",
				Description: "Remove timeout from a member",
				Options: []*discordgo.ApplicationCommandOption{
					memberOption("The member to remove timeout from", true),
					reasonOption("Reason for removing timeout"),
				},
			},
			Category: Category,
			Rules:    guarded,
			Handler:  h.untimeout,
		},
		{
			Slash: &discordgo.ApplicationCommand{
				Name:        "clear",
				Description: "Clear a number of messages",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "amount",
						Description: "Number of messages to clear",
						Required:    true,
					},
					memberOption("Only clear messages from this member (optional)", false),
				},
			},
			Category: Category,
			Rules: command.Policy{
				Cooldown:  cooldowns.Clear,
				Guarded:   true,
				GuildOnly: true,
				Deferred:  true,
				Ephemeral: true,
			},
			Handler: h.clear,
		},
	}
}

type handlers struct {
	exec *mod.Executor
}

func input(c *command.Context) mod.Input {
	return mod.Input{
		GuildID:        c.GuildID,
		ChannelID:      c.ChannelID,
		Actor:          c.Actor,
		BotPermissions: c.BotPermissions,
		Reason:         c.Args.String("reason", ""),
	}
}

// withMember runs fn with the "member" option or reports it missing.
func withMember(ctx context.Context, c *command.Context, fn func(target platform.Member) mod.Outcome) error {
	target, ok := c.Args.Member("member")
	if !ok {
		return c.Reply.Send(ctx, response.Failure("Member Not Found", response.MsgMemberNotFound))
	}
	return c.Reply.Send(ctx, fn(target).Message)
}

func (h *handlers) kick(ctx context.Context, c *command.Context) error {
	return withMember(ctx, c, func(t platform.Member) mod.Outcome {
		return h.exec.Kick(ctx, input(c), t)
	})
}

func (h *handlers) ban(ctx context.Context, c *command.Context) error {
	days := c.Args.Int("delete_message_days", h.exec.Limits().BanDeleteDaysDefault)
	return withMember(ctx, c, func(t platform.Member) mod.Outcome {
		return h.exec.Ban(ctx, input(c), t, days)
	})
}

func (h *handlers) unban(ctx context.Context, c *command.Context) error {
	out := h.exec.Unban(ctx, input(c), c.Args.String("user_id", ""))
	return c.Reply.Send(ctx, out.Message)
}

func (h *handlers) timeout(ctx context.Context, c *command.Context) error {
	minutes := c.Args.Int("minutes", h.exec.Limits().TimeoutDefault)
	return withMember(ctx, c, func(t platform.Member) mod.Outcome {
		return h.exec.Timeout(ctx, input(c), t, minutes)
	})
}

func (h *handlers) untimeout(ctx context.Context, c *command.Context) error {
	return withMember(ctx, c, func(t platform.Member) mod.Outcome {
		return h.exec.RemoveTimeout(ctx, input(c), t)
	})
}

func (h *handlers) clear(ctx context.Context, c *command.Context) error {
	amount := c.Args.Int("amount", h.exec.Limits().ClearDefault)
	var author *platform.Member
	if m, ok := c.Args.Member("member"); ok {
		author = &m
	}
	out := h.exec.Purge(ctx, input(c), amount, author)
	return c.Reply.Send(ctx, out.Message)
}

func memberOption(description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        "member",
		Description: description,
		Required:    required,
	}
}

func reasonOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "reason",
		Description: description,
	}
}

func deleteDayChoices(from, to int) []*discordgo.ApplicationCommandOptionChoice {
	var choices []*discordgo.ApplicationCommandOptionChoice
	for d := from; d <= to; d++ {
		name := "Don't delete any"
		switch {
		case d == 1:
			name = "1 day"
		case d > 1:
			name = fmt.Sprintf("%d days", d)
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: name, Value: d})
	}
	return choices
}
