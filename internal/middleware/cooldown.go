package middleware

import (
	"context"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"server-warden/internal/command"
	"server-warden/internal/cooldown"
	"server-warden/internal/response"
	"server-warden/pkg/cmd"
)

// WithCooldown lets each user run a command once per its cooldown window.
// A rejected invocation gets the remaining wait and does not run.
func WithCooldown(store *cooldown.Store, clock clockwork.Clock) cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			v, ok := inv.Data.(*command.Context)
			if !ok {
				return c.Run(ctx, inv)
			}
			p, _ := command.PolicyOf(c)
			d := store.TryAcquire(v.Actor.ID, c.Name(), p.Cooldown, clock.Now())
			if !d.OK {
				zerolog.Ctx(ctx).Debug().Dur("retry_after", d.RetryAfter).Msg("command on cooldown")
				return v.Reply.Send(ctx, response.Cooldown(d.RetryAfter))
			}
			return c.Run(ctx, inv)
		})
	}
}
