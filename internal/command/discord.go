package command

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/discordgo"

	"server-warden/internal/platform"
	"server-warden/internal/response"
	"server-warden/pkg/cmd"
)

// SlashProvider is implemented by commands registered as slash commands.
type SlashProvider interface {
	SlashDefinition() *discordgo.ApplicationCommand
}

// Policy is how the dispatcher treats a command before its handler runs.
type Policy struct {
	// Cooldown is the per-user window between successful invocations.
	Cooldown time.Duration
	// Guarded commands pass the role based permission gate.
	Guarded bool
	// Deferred commands acknowledge the interaction before running.
	Deferred bool
	// Ephemeral makes the deferred acknowledgement private.
	Ephemeral bool
	GuildOnly bool
}

// Meta is exposed by Spec so middleware can read a command's Policy without
// depending on the concrete type. Use cmd.Root to reach it through wrappers.
type Meta interface {
	Policy() Policy
}

// Handler runs a command for one invocation.
type Handler func(ctx context.Context, c *Context) error

// Spec is a slash command: its platform definition, dispatch policy and
// handler. It adapts to cmd.Command so it can live in a cmd.Registry.
type Spec struct {
	Slash *discordgo.ApplicationCommand
	// Category groups the command in help output.
	Category string
	Rules    Policy
	Handler  Handler
}

var (
	_ cmd.Command   = (*Spec)(nil)
	_ SlashProvider = (*Spec)(nil)
	_ Meta          = (*Spec)(nil)
)

// ErrNoContext is returned when an invocation does not carry a *Context.
var ErrNoContext = errors.New("invocation has no command context")

func (s *Spec) Name() string        { return s.Slash.Name }
func (s *Spec) Description() string { return s.Slash.Description }
func (s *Spec) Policy() Policy      { return s.Rules }

// SlashDefinition returns the definition synced to the platform.
func (s *Spec) SlashDefinition() *discordgo.ApplicationCommand {
	def := *s.Slash
	if s.Rules.GuildOnly {
		dm := false
		def.DMPermission = &dm
	}
	return &def
}

func (s *Spec) Run(ctx context.Context, inv *cmd.Invocation) error {
	c, ok := inv.Data.(*Context)
	if !ok {
		return ErrNoContext
	}
	return s.Handler(ctx, c)
}

// CategoryOf returns the help category of c or of the command it wraps.
func CategoryOf(c cmd.Command) string {
	if s, ok := cmd.Root(c).(*Spec); ok {
		return s.Category
	}
	return ""
}

// Register applies mws to every spec and adds it to reg.
func Register(reg *cmd.Registry, specs []*Spec, mws ...cmd.Middleware) error {
	for _, s := range specs {
		if err := reg.Register(cmd.Apply(s, mws...)); err != nil {
			return err
		}
	}
	return nil
}

// PolicyOf returns the Policy of c or of the command it wraps.
func PolicyOf(c cmd.Command) (Policy, bool) {
	m, ok := cmd.Root(c).(Meta)
	if !ok {
		return Policy{}, false
	}
	return m.Policy(), true
}

// SlashDefinitions collects the definitions of every registered slash command.
func SlashDefinitions(reg *cmd.Registry) []*discordgo.ApplicationCommand {
	var defs []*discordgo.ApplicationCommand
	for _, c := range reg.GetAll() {
		if sp, ok := cmd.Root(c).(SlashProvider); ok {
			defs = append(defs, sp.SlashDefinition())
		}
	}
	return defs
}

// Context is what the transport hands to a command for one invocation.
type Context struct {
	GuildID   string
	ChannelID string
	Actor     platform.Member
	// BotPermissions are the bot's effective permissions where the command ran.
	BotPermissions int64
	Args           Args
	Reply          Responder
}

// Responder answers the invoking user. The first Send after Defer edits or
// follows up the acknowledgement; implementations track that themselves.
type Responder interface {
	Defer(ctx context.Context, ephemeral bool) error
	Send(ctx context.Context, m response.Message) error
	// DeleteOriginal removes the first reply.
	DeleteOriginal(ctx context.Context) error
}
