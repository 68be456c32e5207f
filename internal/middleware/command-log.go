package middleware

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"server-warden/internal/command"
	"server-warden/pkg/cmd"
)

// WithCommandLogger logs every invocation with its outcome and duration.
func WithCommandLogger() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			start := time.Now()
			err := c.Run(ctx, inv)

			l := zerolog.Ctx(ctx)
			ev := l.Info()
			if err != nil {
				ev = l.Warn().Err(err)
			}
			if v, ok := inv.Data.(*command.Context); ok {
				ev = ev.Str("guild", v.GuildID).
					Str("channel", v.ChannelID).
					Str("user", v.Actor.ID).
					Str("username", v.Actor.Username)
			}
			ev.Str("command", c.Name()).
				Dur("took", time.Since(start)).
				Msg("command handled")
			return err
		})
	}
}
