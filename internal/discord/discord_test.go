package discord

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"server-warden/internal/config"
	"server-warden/internal/platform"
	"server-warden/internal/response"
)

func restError(status int) error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: status},
		Message:  &discordgo.APIErrorMessage{Code: 50013, Message: "Missing Permissions"},
	}
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify("kick", nil))

	err := classify("kick", restError(http.StatusForbidden))
	assert.ErrorIs(t, err, platform.ErrForbidden)
	assert.NotErrorIs(t, err, platform.ErrNotFound)

	err = classify("get ban", restError(http.StatusNotFound))
	assert.ErrorIs(t, err, platform.ErrNotFound)

	err = classify("ban", restError(http.StatusInternalServerError))
	assert.NotErrorIs(t, err, platform.ErrForbidden)
	assert.NotErrorIs(t, err, platform.ErrNotFound)

	cause := errors.New("socket closed")
	assert.ErrorIs(t, classify("ban", cause), cause)
}

func TestConvertMember(t *testing.T) {
	until := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g := newGuildInfo(&discordgo.Guild{
		OwnerID: "owner",
		Roles: []*discordgo.Role{
			{ID: "mod", Position: 5},
			{ID: "helper", Position: 2},
		},
	})

	m := convertMember(&discordgo.Member{
		User:                       &discordgo.User{ID: "1", Username: "alice"},
		Roles:                      []string{"helper", "mod", "gone"},
		CommunicationDisabledUntil: &until,
	}, g)

	assert.Equal(t, "alice", m.Username)
	assert.Equal(t, 5, m.Rank)
	assert.False(t, m.IsOwner)
	assert.True(t, m.HasRole("mod"))
	assert.Equal(t, &until, m.TimedOutUntil)

	owner := convertMember(&discordgo.Member{User: &discordgo.User{ID: "owner"}}, g)
	assert.True(t, owner.IsOwner)
	assert.Equal(t, 0, owner.Rank)
}

func TestActorFrom(t *testing.T) {
	g := newGuildInfo(&discordgo.Guild{Roles: []*discordgo.Role{{ID: "mod", Position: 3}}})

	member := actorFrom(&discordgo.Interaction{
		Member: &discordgo.Member{User: &discordgo.User{ID: "1", Username: "alice"}, Roles: []string{"mod"}},
	}, g)
	assert.False(t, member.Partial)
	assert.Equal(t, 3, member.Rank)

	dm := actorFrom(&discordgo.Interaction{User: &discordgo.User{ID: "2", Username: "bob"}}, g)
	assert.True(t, dm.Partial)
	assert.Equal(t, "bob", dm.Username)
	assert.Empty(t, dm.RoleIDs)
}

func TestArgsFrom(t *testing.T) {
	data := discordgo.ApplicationCommandInteractionData{
		Name: "ban",
		Options: []*discordgo.ApplicationCommandInteractionDataOption{
			{Name: "member", Type: discordgo.ApplicationCommandOptionUser, Value: "2"},
			{Name: "stranger", Type: discordgo.ApplicationCommandOptionUser, Value: "3"},
			{Name: "reason", Type: discordgo.ApplicationCommandOptionString, Value: "spam"},
			{Name: "delete_message_days", Type: discordgo.ApplicationCommandOptionInteger, Value: float64(3)},
		},
		Resolved: &discordgo.ApplicationCommandInteractionDataResolved{
			Users: map[string]*discordgo.User{
				"2": {ID: "2", Username: "bob"},
				"3": {ID: "3", Username: "carol"},
			},
			Members: map[string]*discordgo.Member{
				"2": {Roles: []string{"helper"}},
			},
		},
	}
	g := newGuildInfo(&discordgo.Guild{Roles: []*discordgo.Role{{ID: "helper", Position: 2}}})

	args := argsFrom(data, g)

	m, ok := args.Member("member")
	require.True(t, ok)
	assert.Equal(t, "bob", m.Username)
	assert.Equal(t, 2, m.Rank)

	_, ok = args.Member("stranger")
	assert.False(t, ok)
	u, ok := args.User("stranger")
	require.True(t, ok)
	assert.Equal(t, "carol", u.Username)

	assert.Equal(t, "spam", args.String("reason", ""))
	assert.Equal(t, 3, args.Int("delete_message_days", 0))
}

func TestToEmbeds(t *testing.T) {
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	m := response.New(response.IconBan, "Member Banned", "gone", response.Danger).
		AddField("Reason", "spam", false)
	m.Footer = "User ID: 2"
	m.Timestamp = at
	m.Thumbnail = "https://example.com/t.png"

	embeds := toEmbeds(m)

	require.Len(t, embeds, 1)
	e := embeds[0]
	assert.Equal(t, "🔨 Member Banned", e.Title)
	assert.Equal(t, response.Danger.Color(), e.Color)
	assert.Equal(t, "2026-02-03T04:05:06Z", e.Timestamp)
	assert.Equal(t, "User ID: 2", e.Footer.Text)
	assert.Equal(t, "https://example.com/t.png", e.Thumbnail.URL)
	require.Len(t, e.Fields, 1)

	assert.Empty(t, toEmbeds(response.Plain(response.IconNo, "just text")))
}

func TestLocalDefinitions(t *testing.T) {
	dm := false
	defs := func() []*discordgo.ApplicationCommand {
		return []*discordgo.ApplicationCommand{{Name: "kick", DMPermission: &dm}}
	}

	global := localDefinitions(defs(), "")
	assert.Equal(t, discordgo.ChatApplicationCommand, global[0].Type)
	require.NotNil(t, global[0].DMPermission)
	assert.False(t, *global[0].DMPermission)

	guild := localDefinitions(defs(), "g1")
	assert.Nil(t, guild[0].DMPermission)
}

func TestPresence(t *testing.T) {
	p := presence(config.Presence{Type: "Listening", Message: "to reports"})
	require.Len(t, p.Activities, 1)
	assert.Equal(t, discordgo.ActivityTypeListening, p.Activities[0].Type)
	assert.Equal(t, "to reports", p.Activities[0].Name)

	assert.Equal(t, discordgo.ActivityTypeWatching, presence(config.Presence{Type: "unknown"}).Activities[0].Type)
}

func TestSameCommands(t *testing.T) {
	local := []*discordgo.ApplicationCommand{{
		Name:        "ban",
		Description: "Ban a member",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionInteger, Name: "days", Description: "d",
				Choices: []*discordgo.ApplicationCommandOptionChoice{{Name: "1 day", Value: 1}}},
			{Type: discordgo.ApplicationCommandOptionUser, Name: "member", Description: "m", Required: true},
		},
	}}
	remote := []*discordgo.ApplicationCommand{{
		ID:          "123",
		Version:     "9",
		Type:        discordgo.ChatApplicationCommand,
		Name:        "ban",
		Description: "Ban a member",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionUser, Name: "member", Description: "m", Required: true},
			{Type: discordgo.ApplicationCommandOptionInteger, Name: "days", Description: "d",
				Choices: []*discordgo.ApplicationCommandOptionChoice{{Name: "1 day", Value: float64(1)}}},
		},
	}}

	assert.True(t, sameCommands(remote, local))

	dm := false
	local[0].DMPermission = &dm
	assert.False(t, sameCommands(remote, local), "guild-only change must resync")
	remote[0].DMPermission = &dm
	assert.True(t, sameCommands(remote, local))

	local[0].Description = "Ban someone"
	assert.False(t, sameCommands(remote, local))
	assert.False(t, sameCommands(nil, local))
}
