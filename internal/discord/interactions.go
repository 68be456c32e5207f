package discord

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"server-warden/internal/command"
	"server-warden/internal/response"
)

// interactionResponder answers one interaction. The first message is the
// interaction response (or the edit of a deferred one); later messages are
// follow-ups.
type interactionResponder struct {
	s *discordgo.Session
	i *discordgo.Interaction

	mu                sync.Mutex
	deferred          bool
	deferredEphemeral bool
	answered          bool
}

var _ command.Responder = (*interactionResponder)(nil)

func newResponder(s *discordgo.Session, i *discordgo.Interaction) *interactionResponder {
	return &interactionResponder{s: s, i: i}
}

func (r *interactionResponder) Defer(ctx context.Context, ephemeral bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deferred || r.answered {
		return nil
	}
	data := &discordgo.InteractionResponseData{}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := r.s.InteractionRespond(r.i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: data,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return err
	}
	r.deferred = true
	r.deferredEphemeral = ephemeral
	return nil
}

func (r *interactionResponder) Send(ctx context.Context, m response.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	embeds := toEmbeds(m)
	switch {
	case r.answered:
		return r.followup(ctx, m, embeds)

	case r.deferred && m.Ephemeral && !r.deferredEphemeral:
		// A public acknowledgement cannot turn private: answer privately and
		// drop the "thinking" placeholder.
		if err := r.followup(ctx, m, embeds); err != nil {
			return err
		}
		r.answered = true
		return r.s.InteractionResponseDelete(r.i, discordgo.WithContext(ctx))

	case r.deferred:
		edit := &discordgo.WebhookEdit{Embeds: &embeds}
		if m.Content != "" {
			edit.Content = &m.Content
		}
		if _, err := r.s.InteractionResponseEdit(r.i, edit, discordgo.WithContext(ctx)); err != nil {
			return err
		}

	default:
		data := &discordgo.InteractionResponseData{Content: m.Content, Embeds: embeds}
		if m.Ephemeral {
			data.Flags = discordgo.MessageFlagsEphemeral
		}
		err := r.s.InteractionRespond(r.i, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: data,
		}, discordgo.WithContext(ctx))
		if err != nil {
			return err
		}
	}
	r.answered = true
	return nil
}

func (r *interactionResponder) followup(ctx context.Context, m response.Message, embeds []*discordgo.MessageEmbed) error {
	params := &discordgo.WebhookParams{Content: m.Content, Embeds: embeds}
	if m.Ephemeral {
		params.Flags = discordgo.MessageFlagsEphemeral
	}
	_, err := r.s.FollowupMessageCreate(r.i, true, params, discordgo.WithContext(ctx))
	return err
}

func (r *interactionResponder) DeleteOriginal(ctx context.Context) error {
	return r.s.InteractionResponseDelete(r.i, discordgo.WithContext(ctx))
}

// toEmbeds renders m as at most one embed; text-only messages have none.
func toEmbeds(m response.Message) []*discordgo.MessageEmbed {
	if m.Title == "" && m.Description == "" && len(m.Fields) == 0 {
		return []*discordgo.MessageEmbed{}
	}
	e := &discordgo.MessageEmbed{
		Title:       m.Title,
		Description: m.Description,
		URL:         m.URL,
		Color:       m.Severity.Color(),
	}
	for _, f := range m.Fields {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	if m.Thumbnail != "" {
		e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: m.Thumbnail}
	}
	if m.Footer != "" {
		e.Footer = &discordgo.MessageEmbedFooter{Text: m.Footer, IconURL: m.FooterIcon}
	}
	if !m.Timestamp.IsZero() {
		e.Timestamp = m.Timestamp.UTC().Format(time.RFC3339)
	}
	return []*discordgo.MessageEmbed{e}
}
