package middleware

import (
	"context"

	"github.com/rs/zerolog"

	"server-warden/internal/command"
	"server-warden/internal/permission"
	"server-warden/internal/response"
	"server-warden/pkg/cmd"
)

// WithUserPermissionCheck runs guarded commands only for actors the gate
// allows. Everyone else gets the list of roles that would have worked.
func WithUserPermissionCheck(gate *permission.Gate) cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			v, ok := inv.Data.(*command.Context)
			if !ok {
				return c.Run(ctx, inv)
			}
			if p, ok := command.PolicyOf(c); !ok || !p.Guarded {
				return c.Run(ctx, inv)
			}

			d := gate.Authorize(ctx, v.GuildID, v.Actor)
			if !d.Allowed {
				zerolog.Ctx(ctx).Info().Stringer("reason", d.Reason).Msg("permission denied")
				return v.Reply.Send(ctx, response.PermissionDenied(v.Actor.ID, d.RequiredRoles))
			}
			return c.Run(ctx, inv)
		})
	}
}
