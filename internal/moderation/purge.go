package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"server-warden/internal/platform"
	"server-warden/internal/response"
)

// bulkDeleteMaxAge is how old a message may be for the platform's bulk delete.
// A small margin keeps messages near the boundary out of the bulk request.
const bulkDeleteMaxAge = 14*24*time.Hour - time.Minute

// Purge deletes up to amount of the most recent channel messages. When author
// is set, only that member's messages among them are removed. The confirmation
// is private and removes itself after Limits.ClearNoticeTTL.
func (e *Executor) Purge(ctx context.Context, in Input, amount int, author *platform.Member) Outcome {
	if !platform.HasPermission(in.BotPermissions, platform.PermManageMessages) {
		return botPermissionDenied()
	}
	if amount < e.limits.ClearMin || amount > e.limits.ClearMax {
		return failed(KindInvalidAmount, "Invalid Amount",
			fmt.Sprintf("Amount must be between %d and %d.", e.limits.ClearMin, e.limits.ClearMax))
	}

	msgs, err := e.client.RecentMessages(ctx, in.ChannelID, amount)
	if err != nil {
		return e.mutationFailed(ctx, "clear", err)
	}

	now := e.clock.Now()
	var recent, old []string
	for _, m := range msgs {
		if author != nil && m.AuthorID != author.ID {
			continue
		}
		if now.Sub(m.CreatedAt) < bulkDeleteMaxAge {
			recent = append(recent, m.ID)
		} else {
			old = append(old, m.ID)
		}
	}

	deleted := 0
	switch len(recent) {
	case 0:
	case 1:
		// bulk delete rejects a single id
		old = append(recent, old...)
	default:
		if err := e.client.BulkDelete(ctx, in.ChannelID, recent); err != nil {
			return e.mutationFailed(ctx, "clear", err)
		}
		deleted += len(recent)
	}
	for _, id := range old {
		err := e.client.DeleteMessage(ctx, in.ChannelID, id)
		switch {
		case err == nil:
			deleted++
		case errors.Is(err, platform.ErrNotFound):
			zerolog.Ctx(ctx).Debug().Str("message", id).Msg("message already gone")
		default:
			return e.mutationFailed(ctx, "clear", err)
		}
	}

	msg := response.New(response.IconClear, "Messages Cleared",
		fmt.Sprintf("Cleared **%d** messages.", deleted), response.Success)
	if author != nil {
		msg = msg.AddField("Filtered By", author.Mention(), true)
	}
	msg = msg.AddField("Channel", "<#"+in.ChannelID+">", true).
		AddField("Moderator", in.Actor.Mention(), true).
		Private()
	msg.Footer = "Cleared at"
	msg.Timestamp = now
	msg.DeleteAfter = e.limits.ClearNoticeTTL

	if e.logs {
		ev := zerolog.Ctx(ctx).Info().
			Str("action", "clear").
			Str("guild", in.GuildID).
			Str("channel", in.ChannelID).
			Str("moderator", in.Actor.Username).
			Int("deleted", deleted)
		if author != nil {
			ev = ev.Str("author", author.ID)
		}
		ev.Msg("moderation action")
	}

	o := succeeded(msg)
	o.Count = deleted
	return o
}
