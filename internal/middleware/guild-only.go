package middleware

import (
	"context"

	"server-warden/internal/command"
	"server-warden/internal/response"
	"server-warden/pkg/cmd"
)

// WithGuildOnly rejects guild-only commands invoked from direct messages.
func WithGuildOnly() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			v, ok := inv.Data.(*command.Context)
			if !ok || v.GuildID != "" {
				return c.Run(ctx, inv)
			}
			if p, ok := command.PolicyOf(c); ok && p.GuildOnly {
				return v.Reply.Send(ctx, response.Failure("Guild Only", response.MsgGuildOnly))
			}
			return c.Run(ctx, inv)
		})
	}
}
