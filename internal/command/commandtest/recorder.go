// Package commandtest provides a recording command.Responder for tests.
package commandtest

import (
	"context"
	"sync"

	"server-warden/internal/command"
	"server-warden/internal/response"
)

// Recorder records everything sent through it.
type Recorder struct {
	// SendErr is returned from Send when set.
	SendErr error

	mu        sync.Mutex
	deferred  []bool
	sent      []response.Message
	deletions int
}

var _ command.Responder = (*Recorder)(nil)

func (r *Recorder) Defer(_ context.Context, ephemeral bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deferred = append(r.deferred, ephemeral)
	return nil
}

func (r *Recorder) Send(_ context.Context, m response.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SendErr != nil {
		return r.SendErr
	}
	r.sent = append(r.sent, m)
	return nil
}

func (r *Recorder) DeleteOriginal(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletions++
	return nil
}

// Deferred returns the ephemeral flag of every Defer call.
func (r *Recorder) Deferred() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.deferred...)
}

// Sent returns the messages sent so far.
func (r *Recorder) Sent() []response.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]response.Message(nil), r.sent...)
}

// Last returns the last message sent, or the zero Message.
func (r *Recorder) Last() response.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return response.Message{}
	}
	return r.sent[len(r.sent)-1]
}

// Deletions counts DeleteOriginal calls.
func (r *Recorder) Deletions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deletions
}
