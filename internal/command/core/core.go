// Package core defines the informational commands: ping and help.
package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"server-warden/internal/command"
	"server-warden/internal/command/moderation"
	"server-warden/internal/command/utility"
	"server-warden/internal/response"
	"server-warden/pkg/cmd"
)

const (
	CategoryInfo        = "🕯️ Information"
	CategoryMaintenance = "🛠️ Maintenance"
)

// categoryWeights orders help sections; unknown categories sort last by name.
var categoryWeights = map[string]int{
	CategoryInfo:        0,
	moderation.Category: 10,
	utility.Category:    20,
	CategoryMaintenance: 60,
}

// LatencyFunc reports the current gateway heartbeat latency.
type LatencyFunc func() time.Duration

// Commands builds ping and help. help lists whatever reg holds when it runs.
func Commands(appName string, reg *cmd.Registry, latency LatencyFunc) []*command.Spec {
	return []*command.Spec{
		{
			Slash: &discordgo.ApplicationCommand{
				Name:        "ping",
				Description: "Check bot latency",
			},
			Category: CategoryMaintenance,
			Handler: func(ctx context.Context, c *command.Context) error {
				ms := latency().Milliseconds()
				return c.Reply.Send(ctx, response.Plain("🏓", fmt.Sprintf("Pong! %dms", ms)))
			},
		},
		{
			Slash: &discordgo.ApplicationCommand{
				Name:        "help",
				Description: "Get a list of available commands",
			},
			Category: CategoryInfo,
			Handler: func(ctx context.Context, c *command.Context) error {
				m := response.New("", appName+" Help", Help(reg), response.Info).Private()
				m.Footer = "🔒 requires a moderator role"
				return c.Reply.Send(ctx, m)
			},
		},
	}
}

// Help renders every command in reg grouped by category.
func Help(reg *cmd.Registry) string {
	sections := map[string][]cmd.Command{}
	for _, c := range reg.GetAll() {
		cat := command.CategoryOf(c)
		sections[cat] = append(sections[cat], c)
	}

	cats := make([]string, 0, len(sections))
	for cat := range sections {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool {
		wi, iok := categoryWeights[cats[i]]
		wj, jok := categoryWeights[cats[j]]
		if iok != jok {
			return iok
		}
		if wi != wj {
			return wi < wj
		}
		return cats[i] < cats[j]
	})

	var sb strings.Builder
	for _, cat := range cats {
		if cat == "" {
			sb.WriteString("**Other**\n")
		} else {
			fmt.Fprintf(&sb, "**%s**\n", cat)
		}
		cmds := sections[cat]
		sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name() < cmds[j].Name() })
		for _, c := range cmds {
			lock := ""
			if p, ok := command.PolicyOf(c); ok && p.Guarded {
				lock = " 🔒"
			}
			fmt.Fprintf(&sb, "`/%s` - %s%s\n", c.Name(), c.Description(), lock)
		}
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}
