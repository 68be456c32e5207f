package dispatch

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"server-warden/internal/command"
	"server-warden/internal/response"
)

// replier wraps a transport Responder. It remembers whether a reply was sent
// and schedules deletion of self-destructing messages.
type replier struct {
	inner  command.Responder
	clock  clockwork.Clock
	logger zerolog.Logger

	mu       sync.Mutex
	deferred bool
	sent     int
}

func newReplier(inner command.Responder, clock clockwork.Clock, logger zerolog.Logger) *replier {
	return &replier{inner: inner, clock: clock, logger: logger}
}

func (r *replier) Defer(ctx context.Context, ephemeral bool) error {
	r.mu.Lock()
	if r.deferred || r.sent > 0 {
		r.mu.Unlock()
		return nil
	}
	r.deferred = true
	r.mu.Unlock()
	return r.inner.Defer(ctx, ephemeral)
}

func (r *replier) Send(ctx context.Context, m response.Message) error {
	if err := r.inner.Send(ctx, m); err != nil {
		return err
	}
	r.mu.Lock()
	r.sent++
	first := r.sent == 1
	r.mu.Unlock()

	if m.DeleteAfter > 0 && first {
		r.clock.AfterFunc(m.DeleteAfter, func() {
			// the invocation context is gone by now
			if err := r.inner.DeleteOriginal(context.Background()); err != nil {
				r.logger.Debug().Err(err).Msg("could not delete reply")
			}
		})
	}
	return nil
}

func (r *replier) DeleteOriginal(ctx context.Context) error {
	return r.inner.DeleteOriginal(ctx)
}

// Replied reports whether anything was sent.
func (r *replier) Replied() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent > 0
}
