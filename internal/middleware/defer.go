package middleware

import (
	"context"
	"fmt"

	"server-warden/internal/command"
	"server-warden/pkg/cmd"
)

// WithDefer acknowledges slow commands before they run.
func WithDefer() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			v, ok := inv.Data.(*command.Context)
			if !ok {
				return c.Run(ctx, inv)
			}
			if p, ok := command.PolicyOf(c); ok && p.Deferred {
				if err := v.Reply.Defer(ctx, p.Ephemeral); err != nil {
					return fmt.Errorf("defer /%s: %w", c.Name(), err)
				}
			}
			return c.Run(ctx, inv)
		})
	}
}
