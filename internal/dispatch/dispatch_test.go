package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"server-warden/internal/command"
	"server-warden/internal/command/commandtest"
	modcmd "server-warden/internal/command/moderation"
	"server-warden/internal/config"
	"server-warden/internal/cooldown"
	"server-warden/internal/moderation"
	"server-warden/internal/permission"
	"server-warden/internal/platform"
	"server-warden/internal/platform/platformtest"
	"server-warden/internal/response"
)

const allPerms = platform.PermKickMembers | platform.PermBanMembers |
	platform.PermManageMessages | platform.PermModerateMembers

var cooldowns = config.Cooldown{Moderation: 3 * time.Second, Clear: 5 * time.Second, Weather: 10 * time.Second, Fact: 5 * time.Second}

type harness struct {
	d      *Dispatcher
	client *platformtest.Client
	clock  *clockwork.FakeClock
}

func newHarness(t *testing.T, policy permission.Policy, extra ...*command.Spec) *harness {
	t.Helper()
	client := platformtest.New("bot")
	clock := clockwork.NewFakeClockAt(time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC))
	exec := moderation.NewExecutor(client, moderation.Options{
		Clock:   clock,
		Limits:  moderation.DefaultLimits(),
		Reasons: moderation.Reasons{Default: "No reason provided", Kick: "Violation of server rules"},
	})
	d := New(Options{
		Cooldowns: cooldown.NewStore(100),
		Gate:      permission.NewGate(policy, client),
		Clock:     clock,
		LogErrors: true,
	})
	require.NoError(t, d.Register(modcmd.Commands(exec, cooldowns)...))
	require.NoError(t, d.Register(extra...))
	return &harness{d: d, client: client, clock: clock}
}

func actor(id string, rank int, roles ...string) platform.Member {
	return platform.Member{User: platform.User{ID: id, Username: "user" + id}, Rank: rank, RoleIDs: roles}
}

func invocation(from platform.Member, args command.Args) (*command.Context, *commandtest.Recorder) {
	rec := &commandtest.Recorder{}
	return &command.Context{
		GuildID:        "guild",
		ChannelID:      "chan",
		Actor:          from,
		BotPermissions: allPerms,
		Args:           args,
		Reply:          rec,
	}, rec
}

func TestDispatch_KickWithoutRoleIsDenied(t *testing.T) {
	h := newHarness(t, permission.Policy{AllowedRoles: []string{"mod"}})
	c, rec := invocation(actor("1", 5), command.Args{"member": actor("2", 1)})

	require.NoError(t, h.d.Dispatch(context.Background(), "kick", c))

	assert.Empty(t, h.client.Calls())
	require.Len(t, rec.Sent(), 1)
	msg := rec.Last()
	assert.Contains(t, msg.Title, "Permission Denied")
	assert.Equal(t, "<@&mod>", msg.Fields[0].Value)
	assert.True(t, msg.Ephemeral)
}

func TestDispatch_SelfKickStopsBeforeMutation(t *testing.T) {
	h := newHarness(t, permission.Policy{AllowedRoles: []string{"mod"}})
	self := actor("1", 5, "mod")
	c, rec := invocation(self, command.Args{"member": self})

	require.NoError(t, h.d.Dispatch(context.Background(), "kick", c))

	assert.Empty(t, h.client.Calls())
	assert.Equal(t, response.MsgNoSelfAction, rec.Last().Description)
}

func TestDispatch_Kick(t *testing.T) {
	h := newHarness(t, permission.Policy{AllowedRoles: []string{"mod"}})
	c, rec := invocation(actor("1", 5, "mod"), command.Args{"member": actor("2", 1), "reason": "spam"})

	require.NoError(t, h.d.Dispatch(context.Background(), "kick", c))

	assert.Equal(t, []string{"kick"}, h.client.Ops())
	assert.Contains(t, rec.Last().Title, "Member Kicked")
	assert.Empty(t, rec.Deferred(), "moderation commands answer directly")
}

func TestDispatch_Cooldown(t *testing.T) {
	h := newHarness(t, permission.Policy{})
	mod := actor("1", 5)

	c, _ := invocation(mod, command.Args{"member": actor("2", 1)})
	require.NoError(t, h.d.Dispatch(context.Background(), "kick", c))

	h.clock.Advance(time.Second)
	c, rec := invocation(mod, command.Args{"member": actor("3", 1)})
	require.NoError(t, h.d.Dispatch(context.Background(), "kick", c))

	assert.Equal(t, []string{"kick"}, h.client.Ops())
	msg := rec.Last()
	assert.Contains(t, msg.Title, "Command on Cooldown")
	assert.Contains(t, msg.Description, "2.0 seconds")

	h.clock.Advance(2 * time.Second)
	c, _ = invocation(mod, command.Args{"member": actor("3", 1)})
	require.NoError(t, h.d.Dispatch(context.Background(), "kick", c))
	assert.Equal(t, []string{"kick", "kick"}, h.client.Ops())
}

func TestDispatch_CooldownIsPerCommand(t *testing.T) {
	h := newHarness(t, permission.Policy{})
	mod := actor("1", 5)

	c, _ := invocation(mod, command.Args{"member": actor("2", 1)})
	require.NoError(t, h.d.Dispatch(context.Background(), "kick", c))
	c, _ = invocation(mod, command.Args{"member": actor("3", 1)})
	require.NoError(t, h.d.Dispatch(context.Background(), "ban", c))

	assert.Equal(t, []string{"kick", "ban"}, h.client.Ops())
}

func TestDispatch_ClearDefersAndSelfDestructs(t *testing.T) {
	h := newHarness(t, permission.Policy{})
	h.client.Messages = []platform.Message{
		{ID: "a", AuthorID: "x", CreatedAt: h.clock.Now()},
		{ID: "b", AuthorID: "y", CreatedAt: h.clock.Now()},
	}
	c, rec := invocation(actor("1", 5), command.Args{"amount": int64(2)})

	require.NoError(t, h.d.Dispatch(context.Background(), "clear", c))

	assert.Equal(t, []bool{true}, rec.Deferred())
	assert.Equal(t, []string{"bulk"}, h.client.Ops())
	assert.Equal(t, 0, rec.Deletions())

	h.clock.Advance(5 * time.Second)
	assert.Eventually(t, func() bool { return rec.Deletions() == 1 }, time.Second, 10*time.Millisecond)
}

func TestDispatch_GuildOnly(t *testing.T) {
	h := newHarness(t, permission.Policy{})
	c, rec := invocation(actor("1", 5), command.Args{"member": actor("2", 1)})
	c.GuildID = ""

	require.NoError(t, h.d.Dispatch(context.Background(), "kick", c))

	assert.Empty(t, h.client.Calls())
	assert.Equal(t, response.MsgGuildOnly, rec.Last().Description)
}

func TestDispatch_MissingMember(t *testing.T) {
	h := newHarness(t, permission.Policy{})
	c, rec := invocation(actor("1", 5), command.Args{"member": platform.User{ID: "2"}})

	require.NoError(t, h.d.Dispatch(context.Background(), "kick", c))

	assert.Empty(t, h.client.Calls())
	assert.Equal(t, response.MsgMemberNotFound, rec.Last().Description)
}

func TestDispatch_Unknown(t *testing.T) {
	h := newHarness(t, permission.Policy{})
	c, rec := invocation(actor("1", 5), nil)

	err := h.d.Dispatch(context.Background(), "nope", c)

	assert.ErrorIs(t, err, ErrUnknownCommand)
	assert.Contains(t, rec.Last().Title, "Unknown Command")
}

func TestDispatch_HandlerError(t *testing.T) {
	failing := &command.Spec{
		Slash:   slash("broken"),
		Handler: func(context.Context, *command.Context) error { return errors.New("database on fire") },
	}
	h := newHarness(t, permission.Policy{}, failing)
	c, rec := invocation(actor("1", 5), nil)

	err := h.d.Dispatch(context.Background(), "broken", c)

	require.Error(t, err)
	msg := rec.Last()
	assert.True(t, msg.Ephemeral)
	assert.Contains(t, msg.Description, response.MsgUnknownError)
	assert.Contains(t, msg.Description, "database on fire")
}

func TestDispatch_PanicIsRecoveredAndTruncated(t *testing.T) {
	long := strings.Repeat("x", 5000)
	panicking := &command.Spec{
		Slash:   slash("panics"),
		Handler: func(context.Context, *command.Context) error { panic(long) },
	}
	h := newHarness(t, permission.Policy{}, panicking)
	c, rec := invocation(actor("1", 5), nil)

	err := h.d.Dispatch(context.Background(), "panics", c)

	require.Error(t, err)
	msg := rec.Last()
	assert.Contains(t, msg.Description, response.MsgUnknownError)
	assert.LessOrEqual(t, strings.Count(msg.Description, "x"), response.MaxErrorDetail)
}

func TestDispatch_DeferredPublicCommand(t *testing.T) {
	called := false
	spec := &command.Spec{
		Slash: slash("slow"),
		Rules: command.Policy{Deferred: true},
		Handler: func(ctx context.Context, c *command.Context) error {
			called = true
			return c.Reply.Send(ctx, response.New("", "done", "", response.Info))
		},
	}
	h := newHarness(t, permission.Policy{AllowedRoles: []string{"mod"}}, spec)
	c, rec := invocation(actor("1", 0), nil)

	require.NoError(t, h.d.Dispatch(context.Background(), "slow", c))

	assert.True(t, called, "unguarded commands skip the role check")
	assert.Equal(t, []bool{false}, rec.Deferred())
	assert.Len(t, rec.Sent(), 1)
}
