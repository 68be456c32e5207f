// Package platformtest provides an in-memory platform.Client for tests.
package platformtest

import (
	"context"
	"sync"
	"time"

	"server-warden/internal/platform"
)

// Call records one mutating request.
type Call struct {
	Op      string
	GuildID string
	UserID  string
	Reason  string
	Until   *time.Time
	Days    int
	IDs     []string
}

// Client is a scriptable platform.Client. Fields may be set before use;
// Errs maps an operation name ("kick", "ban", "unban", "timeout", "user",
// "banned", "member", "messages", "bulk", "delete") to the error it returns.
type Client struct {
	BotID    string
	Members  map[string]platform.Member
	Users    map[string]platform.User
	Bans     map[string]bool
	Messages []platform.Message
	Errs     map[string]error

	mu    sync.Mutex
	calls []Call
}

var _ platform.Client = (*Client)(nil)

// New returns an empty fake whose bot user id is botID.
func New(botID string) *Client {
	return &Client{
		BotID:   botID,
		Members: map[string]platform.Member{},
		Users:   map[string]platform.User{},
		Bans:    map[string]bool{},
		Errs:    map[string]error{},
	}
}

// Calls returns the recorded mutations in order.
func (c *Client) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Call, len(c.calls))
	copy(out, c.calls)
	return out
}

// Ops returns only the operation names of recorded mutations.
func (c *Client) Ops() []string {
	var ops []string
	for _, call := range c.Calls() {
		ops = append(ops, call.Op)
	}
	return ops
}

func (c *Client) record(call Call) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)
	return c.Errs[call.Op]
}

func (c *Client) err(op string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Errs[op]
}

func (c *Client) BotUserID() string { return c.BotID }

func (c *Client) Member(_ context.Context, _, userID string) (*platform.Member, error) {
	if err := c.err("member"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.Members[userID]
	if !ok {
		return nil, platform.ErrNotFound
	}
	return &m, nil
}

func (c *Client) User(_ context.Context, userID string) (*platform.User, error) {
	if err := c.err("user"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.Users[userID]
	if !ok {
		return nil, platform.ErrNotFound
	}
	return &u, nil
}

func (c *Client) RemoveMember(_ context.Context, guildID, userID, reason string) error {
	return c.record(Call{Op: "kick", GuildID: guildID, UserID: userID, Reason: reason})
}

func (c *Client) Ban(_ context.Context, guildID, userID, reason string, deleteDays int) error {
	return c.record(Call{Op: "ban", GuildID: guildID, UserID: userID, Reason: reason, Days: deleteDays})
}

func (c *Client) Unban(_ context.Context, guildID, userID, reason string) error {
	return c.record(Call{Op: "unban", GuildID: guildID, UserID: userID, Reason: reason})
}

func (c *Client) IsBanned(_ context.Context, _, userID string) (bool, error) {
	if err := c.err("banned"); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Bans[userID], nil
}

func (c *Client) SetTimeout(_ context.Context, guildID, userID string, until *time.Time, reason string) error {
	return c.record(Call{Op: "timeout", GuildID: guildID, UserID: userID, Reason: reason, Until: until})
}

func (c *Client) RecentMessages(_ context.Context, _ string, limit int) ([]platform.Message, error) {
	if err := c.err("messages"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if limit > len(c.Messages) {
		limit = len(c.Messages)
	}
	out := make([]platform.Message, limit)
	copy(out, c.Messages[:limit])
	return out, nil
}

func (c *Client) BulkDelete(_ context.Context, _ string, ids []string) error {
	return c.record(Call{Op: "bulk", IDs: ids})
}

func (c *Client) DeleteMessage(_ context.Context, _, messageID string) error {
	return c.record(Call{Op: "delete", IDs: []string{messageID}})
}
