package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{"DISCORD_BOT_TOKEN": "token"})
	require.NoError(t, err)

	assert.Equal(t, "token", cfg.DiscordToken)
	assert.Empty(t, cfg.GuildID)
	assert.Equal(t, "watching", cfg.Presence.Type)
	assert.Equal(t, "for /commands", cfg.Presence.Message)
	assert.Equal(t, 3*time.Second, cfg.Cooldown.Moderation)
	assert.Equal(t, 5*time.Second, cfg.Cooldown.Clear)
	assert.Equal(t, 10*time.Second, cfg.Cooldown.Weather)
	assert.Equal(t, 5*time.Second, cfg.Cooldown.Fact)
	assert.Equal(t, 1, cfg.Limits.ClearMin)
	assert.Equal(t, 100, cfg.Limits.ClearMax)
	assert.Equal(t, 40320, cfg.Limits.TimeoutMax)
	assert.Equal(t, 7, cfg.Limits.BanDeleteDaysMax)
	assert.Equal(t, 5*time.Second, cfg.Limits.ClearNoticeTTL)
	assert.Equal(t, "Violation of server rules", cfg.Reasons.Kick)
	assert.True(t, cfg.Log.Commands)
	assert.Empty(t, cfg.Access.AllowedRoles)
}

func TestLoadFrom_AllowLists(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"DISCORD_BOT_TOKEN": "token",
		"ALLOWED_ROLES":     "111,222",
		"ALLOWED_USERS":     "333",
		"COOLDOWN_WEATHER":  "30s",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"111", "222"}, cfg.Access.AllowedRoles)
	assert.Equal(t, []string{"333"}, cfg.Access.AllowedUsers)
	assert.Equal(t, 30*time.Second, cfg.Cooldown.Weather)
}

func TestLoadFrom_MissingToken(t *testing.T) {
	_, err := LoadFrom(map[string]string{})
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestLoadFrom_RejectsBrokenBounds(t *testing.T) {
	_, err := LoadFrom(map[string]string{
		"DISCORD_BOT_TOKEN": "token",
		"CLEAR_MAX":         "500",
	})
	assert.Error(t, err)
}
