package moderation

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"server-warden/internal/command"
	"server-warden/internal/command/commandtest"
	"server-warden/internal/config"
	mod "server-warden/internal/moderation"
	"server-warden/internal/platform"
	"server-warden/internal/platform/platformtest"
)

var cooldowns = config.Cooldown{Moderation: 3 * time.Second, Clear: 5 * time.Second}

func setup(t *testing.T) (map[string]*command.Spec, *platformtest.Client) {
	t.Helper()
	client := platformtest.New("bot")
	exec := mod.NewExecutor(client, mod.Options{
		Clock:   clockwork.NewFakeClock(),
		Limits:  mod.DefaultLimits(),
		Reasons: mod.Reasons{Default: "No reason provided", Kick: "Rules", Ban: "Rules", Timeout: "Rules"},
	})
	out := map[string]*command.Spec{}
	for _, s := range Commands(exec, cooldowns) {
		out[s.Name()] = s
	}
	return out, client
}

func invoke(t *testing.T, s *command.Spec, args command.Args) *commandtest.Recorder {
	t.Helper()
	rec := &commandtest.Recorder{}
	c := &command.Context{
		GuildID:        "g",
		ChannelID:      "c",
		Actor:          platform.Member{User: platform.User{ID: "1", Username: "alice"}, Rank: 5},
		BotPermissions: platform.PermAdministrator,
		Args:           args,
		Reply:          rec,
	}
	require.NoError(t, s.Handler(context.Background(), c))
	return rec
}

func TestCommands_Table(t *testing.T) {
	specs, _ := setup(t)

	for _, name := range []string{"kick", "ban", "unban", "timeout", "untimeout", "clear"} {
		s, ok := specs[name]
		require.True(t, ok, name)
		p := s.Policy()
		assert.True(t, p.Guarded, name)
		assert.True(t, p.GuildOnly, name)
	}
	assert.Equal(t, 3*time.Second, specs["kick"].Policy().Cooldown)
	assert.Equal(t, 5*time.Second, specs["clear"].Policy().Cooldown)
	assert.True(t, specs["clear"].Policy().Ephemeral)

	days := specs["ban"].SlashDefinition().Options[2]
	require.Len(t, days.Choices, 8)
	assert.Equal(t, "Don't delete any", days.Choices[0].Name)
	assert.Equal(t, "1 day", days.Choices[1].Name)
	assert.Equal(t, "7 days", days.Choices[7].Name)
}

func TestBan_PassesDeleteDays(t *testing.T) {
	specs, client := setup(t)
	target := platform.Member{User: platform.User{ID: "2", Username: "bob"}, Rank: 1}

	invoke(t, specs["ban"], command.Args{"member": target, "delete_message_days": int64(3)})

	calls := client.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "ban", calls[0].Op)
	assert.Equal(t, 3, calls[0].Days)
	assert.Equal(t, "alice: Rules", calls[0].Reason)
}

func TestMemberMissing(t *testing.T) {
	specs, client := setup(t)

	rec := invoke(t, specs["kick"], command.Args{"member": platform.User{ID: "9"}})

	assert.Empty(t, client.Calls())
	assert.Contains(t, rec.Last().Title, "Member Not Found")
	assert.True(t, rec.Last().Ephemeral)
}

func TestUnban_InvalidID(t *testing.T) {
	specs, client := setup(t)

	rec := invoke(t, specs["unban"], command.Args{"user_id": "not-a-number"})

	assert.Empty(t, client.Calls())
	assert.True(t, rec.Last().Ephemeral)
}
