// Package dispatch routes an incoming command invocation through the
// cooldown and permission stages to its handler and makes sure the user
// always gets exactly one outcome.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"server-warden/internal/command"
	"server-warden/internal/cooldown"
	"server-warden/internal/middleware"
	"server-warden/internal/permission"
	"server-warden/internal/response"
	"server-warden/pkg/cmd"
)

// ErrUnknownCommand is returned for names that were never registered.
var ErrUnknownCommand = errors.New("unknown command")

// Options wire a Dispatcher.
type Options struct {
	Cooldowns *cooldown.Store
	Gate      *permission.Gate
	Clock     clockwork.Clock
	// LogErrors logs handler failures at error level.
	LogErrors bool
}

// Dispatcher owns the command registry and the stages every invocation passes.
type Dispatcher struct {
	registry  *cmd.Registry
	clock     clockwork.Clock
	stages    []cmd.Middleware
	logErrors bool
}

// New returns an empty Dispatcher.
func New(opts Options) *Dispatcher {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Dispatcher{
		registry: cmd.NewRegistry(),
		clock:    opts.Clock,
		stages: []cmd.Middleware{
			middleware.WithCommandLogger(),
			middleware.WithGuildOnly(),
			middleware.WithCooldown(opts.Cooldowns, opts.Clock),
			middleware.WithUserPermissionCheck(opts.Gate),
			middleware.WithDefer(),
		},
		logErrors: opts.LogErrors,
	}
}

// Register adds specs behind the dispatch stages.
func (d *Dispatcher) Register(specs ...*command.Spec) error {
	return command.Register(d.registry, specs, d.stages...)
}

// Registry exposes the registered commands, e.g. for syncing definitions.
func (d *Dispatcher) Registry() *cmd.Registry { return d.registry }

// Dispatch runs the command called name. Handler errors and panics are logged
// and answered with a generic failure; the returned error is informational.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, c *command.Context) (err error) {
	id := uuid.NewString()
	logger := log.Ctx(ctx).With().Str("invocation", id).Str("command", name).Logger()
	if logger.GetLevel() == zerolog.Disabled {
		logger = log.With().Str("invocation", id).Str("command", name).Logger()
	}
	ctx = logger.WithContext(ctx)

	reply := newReplier(c.Reply, d.clock, logger)
	c.Reply = reply

	found, ok := d.registry.Get(name)
	if !ok {
		logger.Warn().Msg("unknown command")
		_ = reply.Send(ctx, response.Failure("Unknown Command", fmt.Sprintf("Command `/%s` is not available.", name)))
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in /%s: %v", name, r)
			logger.Error().Err(err).Bytes("stack", debug.Stack()).Msg("command panicked")
			d.fail(ctx, reply, err)
		}
	}()

	if err = found.Run(ctx, &cmd.Invocation{ID: id, Name: name, Data: c}); err != nil {
		if d.logErrors {
			logger.Error().Err(err).Msg("command failed")
		}
		d.fail(ctx, reply, err)
		return err
	}
	if !reply.Replied() {
		logger.Warn().Msg("command finished without replying")
	}
	return nil
}

func (d *Dispatcher) fail(ctx context.Context, reply *replier, err error) {
	if sendErr := reply.Send(ctx, response.Unexpected(err)); sendErr != nil {
		zerolog.Ctx(ctx).Warn().Err(sendErr).Msg("failed to report command error")
	}
}
