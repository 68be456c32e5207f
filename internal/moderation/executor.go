// Package moderation implements the guarded actions moderators run against
// members: kick, ban, unban, timeout, untimeout and message purge.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"server-warden/internal/permission"
	"server-warden/internal/platform"
	"server-warden/internal/response"
)

// Limits are the numeric bounds of action parameters.
type Limits struct {
	ClearMin, ClearMax, ClearDefault       int
	TimeoutMin, TimeoutMax, TimeoutDefault int
	BanDeleteDaysMin, BanDeleteDaysMax     int
	BanDeleteDaysDefault                   int
	ClearNoticeTTL                         time.Duration
}

// DefaultLimits mirrors the platform's own bounds.
func DefaultLimits() Limits {
	return Limits{
		ClearMin: 1, ClearMax: 100, ClearDefault: 10,
		TimeoutMin: 1, TimeoutMax: 40320, TimeoutDefault: 10,
		BanDeleteDaysMin: 0, BanDeleteDaysMax: 7, BanDeleteDaysDefault: 0,
		ClearNoticeTTL: 5 * time.Second,
	}
}

// Reasons are the audit-log reasons used when the moderator gives none.
type Reasons struct {
	Default string
	Kick    string
	Ban     string
	Timeout string
}

// Options configure an Executor.
type Options struct {
	Clock   clockwork.Clock
	Limits  Limits
	Reasons Reasons
	// LogActions writes an info line for every successful action.
	LogActions bool
}

// Input is what every action knows about its invocation.
type Input struct {
	GuildID   string
	ChannelID string
	Actor     platform.Member
	// BotPermissions are the bot's effective permissions in the channel.
	BotPermissions int64
	Reason         string
}

// Executor runs moderation actions against a platform client. Every expected
// failure comes back as an Outcome; nothing here returns an error.
type Executor struct {
	client  platform.Client
	clock   clockwork.Clock
	limits  Limits
	reasons Reasons
	logs    bool
}

// NewExecutor returns an Executor.
func NewExecutor(client platform.Client, opts Options) *Executor {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Executor{
		client:  client,
		clock:   opts.Clock,
		limits:  opts.Limits,
		reasons: opts.Reasons,
		logs:    opts.LogActions,
	}
}

// Limits returns the configured bounds.
func (e *Executor) Limits() Limits { return e.limits }

// Kick removes target from the guild.
func (e *Executor) Kick(ctx context.Context, in Input, target platform.Member) Outcome {
	if !platform.HasPermission(in.BotPermissions, platform.PermKickMembers) {
		return botPermissionDenied()
	}
	if o, ok := e.checkTarget(in.Actor, target); !ok {
		return o
	}

	reason := orDefault(in.Reason, e.reasons.Kick)
	if err := e.client.RemoveMember(ctx, in.GuildID, target.ID, auditReason(in.Actor, reason)); err != nil {
		return e.mutationFailed(ctx, "kick", err)
	}

	msg := response.New(response.IconKick, "Member Kicked",
		fmt.Sprintf("**%s** has been kicked from the server.", target.Username), response.Success).
		AddField("Reason", reason, false).
		AddField("Moderator", in.Actor.Mention(), true).
		AddField("Member", target.Mention(), true)
	e.logAction(ctx, "kick", in, target.ID, reason)
	return succeeded(e.stamp(msg, target.ID, in.Actor))
}

// Ban bans target and optionally removes deleteDays of their messages. Out of
// range values fall back to the default instead of failing the command.
func (e *Executor) Ban(ctx context.Context, in Input, target platform.Member, deleteDays int) Outcome {
	if !platform.HasPermission(in.BotPermissions, platform.PermBanMembers) {
		return botPermissionDenied()
	}
	if o, ok := e.checkTarget(in.Actor, target); !ok {
		return o
	}

	deleteDays = e.ClampDeleteDays(deleteDays)
	reason := orDefault(in.Reason, e.reasons.Ban)
	if err := e.client.Ban(ctx, in.GuildID, target.ID, auditReason(in.Actor, reason), deleteDays); err != nil {
		return e.mutationFailed(ctx, "ban", err)
	}

	msg := response.New(response.IconBan, "Member Banned",
		fmt.Sprintf("**%s** has been banned from the server.", target.Username), response.Danger).
		AddField("Reason", reason, false).
		AddField("Messages Deleted", fmt.Sprintf("%d days", deleteDays), true).
		AddField("Moderator", in.Actor.Mention(), true)
	e.logAction(ctx, "ban", in, target.ID, reason)
	return succeeded(e.stamp(msg, target.ID, in.Actor))
}

// ClampDeleteDays maps out-of-range history windows to the default.
func (e *Executor) ClampDeleteDays(days int) int {
	if days < e.limits.BanDeleteDaysMin || days > e.limits.BanDeleteDaysMax {
		return e.limits.BanDeleteDaysDefault
	}
	return days
}

// Unban lifts the ban of rawUserID, which must be a numeric user id.
func (e *Executor) Unban(ctx context.Context, in Input, rawUserID string) Outcome {
	if !platform.HasPermission(in.BotPermissions, platform.PermBanMembers) {
		return botPermissionDenied()
	}
	userID := strings.TrimSpace(rawUserID)
	if _, err := strconv.ParseUint(userID, 10, 64); err != nil {
		return failed(KindInvalidID, "Invalid Input", "Please provide a valid numeric user ID.")
	}

	reason := orDefault(in.Reason, e.reasons.Default)

	user, err := e.client.User(ctx, userID)
	if err != nil {
		return e.lookupFailed(ctx, "unban", err)
	}
	banned, err := e.client.IsBanned(ctx, in.GuildID, userID)
	if err != nil {
		return e.lookupFailed(ctx, "unban", err)
	}
	if !banned {
		return failed(KindNotBanned, "Not Banned", fmt.Sprintf("User **%s** is not banned.", user.Username))
	}
	if err := e.client.Unban(ctx, in.GuildID, userID, auditReason(in.Actor, reason)); err != nil {
		return e.lookupFailed(ctx, "unban", err)
	}

	msg := response.New(response.IconYes, "User Unbanned",
		fmt.Sprintf("**%s** has been unbanned from the server.", user.Username), response.Success).
		AddField("Reason", reason, false).
		AddField("Moderator", in.Actor.Mention(), true)
	msg.Footer = "User ID: " + user.ID
	msg.Timestamp = e.clock.Now()
	e.logAction(ctx, "unban", in, userID, reason)
	return succeeded(msg)
}

// Timeout suspends target for minutes. Durations outside the configured
// bounds are rejected before anything is sent to the platform.
func (e *Executor) Timeout(ctx context.Context, in Input, target platform.Member, minutes int) Outcome {
	if !platform.HasPermission(in.BotPermissions, platform.PermModerateMembers) {
		return botPermissionDenied()
	}
	if minutes < e.limits.TimeoutMin || minutes > e.limits.TimeoutMax {
		return failed(KindInvalidDuration, "Invalid Duration",
			fmt.Sprintf("Timeout duration must be between %d and %d minutes.", e.limits.TimeoutMin, e.limits.TimeoutMax))
	}
	if o, ok := e.checkTarget(in.Actor, target); !ok {
		return o
	}

	reason := orDefault(in.Reason, e.reasons.Timeout)
	until := e.clock.Now().Add(time.Duration(minutes) * time.Minute)
	if err := e.client.SetTimeout(ctx, in.GuildID, target.ID, &until, auditReason(in.Actor, reason)); err != nil {
		return e.mutationFailed(ctx, "timeout", err)
	}

	msg := response.New(response.IconTimeout, "Member Timed Out",
		fmt.Sprintf("**%s** has been timed out.", target.Username), response.Warning).
		AddField("Duration", fmt.Sprintf("%d minutes", minutes), true).
		AddField("Until", fmt.Sprintf("<t:%d:R>", until.Unix()), true).
		AddField("Reason", reason, false).
		AddField("Moderator", in.Actor.Mention(), true)
	e.logAction(ctx, "timeout", in, target.ID, reason)
	return succeeded(e.stamp(msg, target.ID, in.Actor))
}

// RemoveTimeout lifts the suspension of a currently timed out member.
func (e *Executor) RemoveTimeout(ctx context.Context, in Input, target platform.Member) Outcome {
	if !platform.HasPermission(in.BotPermissions, platform.PermModerateMembers) {
		return botPermissionDenied()
	}
	if !target.TimedOut(e.clock.Now()) {
		return failed(KindNotTimedOut, "Not Timed Out", "This member is not timed out.")
	}
	if o, ok := e.checkTarget(in.Actor, target); !ok {
		return o
	}

	reason := orDefault(in.Reason, e.reasons.Default)
	if err := e.client.SetTimeout(ctx, in.GuildID, target.ID, nil, auditReason(in.Actor, reason)); err != nil {
		return e.mutationFailed(ctx, "untimeout", err)
	}

	msg := response.New(response.IconYes, "Timeout Removed",
		fmt.Sprintf("Timeout removed from **%s**.", target.Username), response.Success).
		AddField("Reason", reason, false).
		AddField("Moderator", in.Actor.Mention(), true).
		AddField("Member", target.Mention(), true)
	e.logAction(ctx, "untimeout", in, target.ID, reason)
	return succeeded(e.stamp(msg, target.ID, in.Actor))
}

func (e *Executor) checkTarget(actor, target platform.Member) (Outcome, bool) {
	d := permission.CheckTarget(actor, target, e.client.BotUserID())
	switch d.Reason {
	case permission.ReasonNone:
		return Outcome{}, true
	case permission.ReasonSelfTarget:
		return failed(KindSelfTarget, "Invalid Action", response.MsgNoSelfAction), false
	case permission.ReasonBotTarget:
		return failed(KindBotTarget, "Invalid Action", response.MsgNoBotAction), false
	default:
		return failed(KindHierarchy, "Hierarchy Error", response.MsgHierarchy), false
	}
}

// mutationFailed maps an error from a member mutation.
func (e *Executor) mutationFailed(ctx context.Context, action string, err error) Outcome {
	if errors.Is(err, platform.ErrForbidden) {
		zerolog.Ctx(ctx).Warn().Err(err).Str("action", action).Msg("platform refused action")
		return failed(KindForbidden, "Permission Error", response.MsgNoBotPermission)
	}
	zerolog.Ctx(ctx).Error().Err(err).Str("action", action).Msg("action failed")
	return failed(KindUnknown, "Error", "An error occurred: "+response.Truncate(err.Error(), response.MaxErrorDetail))
}

// lookupFailed is mutationFailed for id-based actions, where not-found means
// the user does not exist.
func (e *Executor) lookupFailed(ctx context.Context, action string, err error) Outcome {
	if errors.Is(err, platform.ErrNotFound) {
		return failed(KindUserNotFound, "User Not Found", response.MsgUserNotFound)
	}
	return e.mutationFailed(ctx, action, err)
}

func (e *Executor) stamp(m response.Message, targetID string, moderator platform.Member) response.Message {
	m.Footer = fmt.Sprintf("User ID: %s | Moderator: %s", targetID, moderator.Username)
	m.Timestamp = e.clock.Now()
	return m
}

func (e *Executor) logAction(ctx context.Context, action string, in Input, targetID, reason string) {
	if !e.logs {
		return
	}
	zerolog.Ctx(ctx).Info().
		Str("action", action).
		Str("guild", in.GuildID).
		Str("moderator", in.Actor.Username).
		Str("target", targetID).
		Str("reason", reason).
		Msg("moderation action")
}

func auditReason(actor platform.Member, reason string) string {
	return actor.Username + ": " + reason
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
