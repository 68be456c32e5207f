package discord

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"

	"server-warden/internal/platform"
)

// Platform implements platform.Client over a discordgo session, preferring
// the state cache for reads.
type Platform struct {
	s *discordgo.Session
}

var _ platform.Client = (*Platform)(nil)

// NewPlatform wraps s.
func NewPlatform(s *discordgo.Session) *Platform {
	return &Platform{s: s}
}

func (p *Platform) BotUserID() string {
	if p.s.State == nil || p.s.State.User == nil {
		return ""
	}
	return p.s.State.User.ID
}

func (p *Platform) Member(ctx context.Context, guildID, userID string) (*platform.Member, error) {
	m, err := p.s.State.Member(guildID, userID)
	if err != nil || m == nil {
		m, err = p.s.GuildMember(guildID, userID, discordgo.WithContext(ctx))
		if err != nil {
			return nil, classify("get member", err)
		}
	}
	cp := *m
	if cp.User == nil {
		cp.User = &discordgo.User{ID: userID}
	}
	conv := convertMember(&cp, p.guild(ctx, guildID))
	return &conv, nil
}

func (p *Platform) User(ctx context.Context, userID string) (*platform.User, error) {
	u, err := p.s.User(userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, classify("get user", err)
	}
	conv := convertUser(u)
	return &conv, nil
}

func (p *Platform) RemoveMember(ctx context.Context, guildID, userID, reason string) error {
	err := p.s.GuildMemberDeleteWithReason(guildID, userID, reason, discordgo.WithContext(ctx))
	return classify("kick", err)
}

func (p *Platform) Ban(ctx context.Context, guildID, userID, reason string, deleteDays int) error {
	err := p.s.GuildBanCreateWithReason(guildID, userID, reason, deleteDays, discordgo.WithContext(ctx))
	return classify("ban", err)
}

func (p *Platform) Unban(ctx context.Context, guildID, userID, reason string) error {
	err := p.s.GuildBanDelete(guildID, userID, discordgo.WithContext(ctx), discordgo.WithAuditLogReason(reason))
	return classify("unban", err)
}

func (p *Platform) IsBanned(ctx context.Context, guildID, userID string) (bool, error) {
	_, err := p.s.GuildBan(guildID, userID, discordgo.WithContext(ctx))
	if err == nil {
		return true, nil
	}
	err = classify("get ban", err)
	if errors.Is(err, platform.ErrNotFound) {
		return false, nil
	}
	return false, err
}

func (p *Platform) SetTimeout(ctx context.Context, guildID, userID string, until *time.Time, reason string) error {
	err := p.s.GuildMemberTimeout(guildID, userID, until, discordgo.WithContext(ctx), discordgo.WithAuditLogReason(reason))
	return classify("timeout", err)
}

func (p *Platform) RecentMessages(ctx context.Context, channelID string, limit int) ([]platform.Message, error) {
	msgs, err := p.s.ChannelMessages(channelID, limit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, classify("list messages", err)
	}
	out := make([]platform.Message, 0, len(msgs))
	for _, m := range msgs {
		pm := platform.Message{ID: m.ID, CreatedAt: m.Timestamp}
		if m.Author != nil {
			pm.AuthorID = m.Author.ID
		}
		out = append(out, pm)
	}
	return out, nil
}

func (p *Platform) BulkDelete(ctx context.Context, channelID string, messageIDs []string) error {
	err := p.s.ChannelMessagesBulkDelete(channelID, messageIDs, discordgo.WithContext(ctx))
	return classify("bulk delete", err)
}

func (p *Platform) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	err := p.s.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
	return classify("delete message", err)
}

// guildInfo is what member conversion needs from the guild.
type guildInfo struct {
	ownerID   string
	positions map[string]int
}

func (p *Platform) guild(ctx context.Context, guildID string) guildInfo {
	g, err := p.s.State.Guild(guildID)
	if err != nil || g == nil || len(g.Roles) == 0 {
		g, err = p.s.Guild(guildID, discordgo.WithContext(ctx))
		if err != nil || g == nil {
			return guildInfo{}
		}
	}
	return newGuildInfo(g)
}

func newGuildInfo(g *discordgo.Guild) guildInfo {
	info := guildInfo{ownerID: g.OwnerID, positions: make(map[string]int, len(g.Roles))}
	for _, r := range g.Roles {
		info.positions[r.ID] = r.Position
	}
	return info
}

func convertUser(u *discordgo.User) platform.User {
	if u == nil {
		return platform.User{}
	}
	return platform.User{ID: u.ID, Username: u.Username, Bot: u.Bot}
}

// convertMember maps a discordgo member; Rank is its highest role position.
func convertMember(m *discordgo.Member, g guildInfo) platform.Member {
	out := platform.Member{
		User:          convertUser(m.User),
		RoleIDs:       append([]string(nil), m.Roles...),
		TimedOutUntil: m.CommunicationDisabledUntil,
	}
	out.IsOwner = g.ownerID != "" && out.ID == g.ownerID
	for _, id := range m.Roles {
		if pos := g.positions[id]; pos > out.Rank {
			out.Rank = pos
		}
	}
	return out
}

// classify maps REST failures onto platform sentinels.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil {
		switch rest.Response.StatusCode {
		case http.StatusForbidden:
			return &platform.Error{Op: op, Kind: platform.ErrForbidden, Err: err}
		case http.StatusNotFound:
			return &platform.Error{Op: op, Kind: platform.ErrNotFound, Err: err}
		}
	}
	return &platform.Error{Op: op, Err: err}
}
