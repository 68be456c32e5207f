// Package platform describes the chat platform as the bot core sees it: the
// members it acts on, the mutations it can request and the errors it gets back.
package platform

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Permission bits, matching Discord's permission bitfield.
const (
	PermKickMembers     int64 = 1 << 1
	PermBanMembers      int64 = 1 << 2
	PermAdministrator   int64 = 1 << 3
	PermManageMessages  int64 = 1 << 13
	PermModerateMembers int64 = 1 << 40
)

var (
	// ErrForbidden means the bot lacks a permission for the request.
	ErrForbidden = errors.New("platform: forbidden")
	// ErrNotFound means the member, user, ban or message does not exist.
	ErrNotFound = errors.New("platform: not found")
)

// HasPermission reports whether perms grants perm. Administrator grants all.
func HasPermission(perms, perm int64) bool {
	return perms&PermAdministrator != 0 || perms&perm == perm
}

// User is a platform account.
type User struct {
	ID       string
	Username string
	Bot      bool
}

// Mention renders the user as a platform mention.
func (u User) Mention() string { return "<@" + u.ID + ">" }

// Member is a user inside a guild, with what the permission checks need.
type Member struct {
	User
	RoleIDs []string
	// Rank is the position of the member's highest role; 0 means no roles.
	Rank          int
	IsOwner       bool
	TimedOutUntil *time.Time
	// Partial is set when RoleIDs were not delivered with the event and have to
	// be looked up before they can be trusted.
	Partial bool
}

// HasRole reports whether the member holds roleID.
func (m Member) HasRole(roleID string) bool {
	for _, id := range m.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

// TimedOut reports whether the member is timed out at now.
func (m Member) TimedOut(now time.Time) bool {
	return m.TimedOutUntil != nil && m.TimedOutUntil.After(now)
}

// Message is a channel message as seen by the purge executor.
type Message struct {
	ID        string
	AuthorID  string
	CreatedAt time.Time
}

// MemberResolver looks up a member's full record.
type MemberResolver interface {
	Member(ctx context.Context, guildID, userID string) (*Member, error)
}

// Client is the set of platform operations the core consumes.
type Client interface {
	MemberResolver

	BotUserID() string
	User(ctx context.Context, userID string) (*User, error)

	RemoveMember(ctx context.Context, guildID, userID, reason string) error
	Ban(ctx context.Context, guildID, userID, reason string, deleteDays int) error
	Unban(ctx context.Context, guildID, userID, reason string) error
	IsBanned(ctx context.Context, guildID, userID string) (bool, error)
	// SetTimeout suspends the member until the given time; nil clears it.
	SetTimeout(ctx context.Context, guildID, userID string, until *time.Time, reason string) error

	// RecentMessages returns up to limit (max 100) newest messages, newest first.
	RecentMessages(ctx context.Context, channelID string, limit int) ([]Message, error)
	// BulkDelete removes up to 100 messages younger than two weeks in one call.
	BulkDelete(ctx context.Context, channelID string, messageIDs []string) error
	DeleteMessage(ctx context.Context, channelID, messageID string) error
}

// Error wraps a platform failure with the operation that produced it while
// keeping the sentinel reachable through errors.Is.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Kind == nil {
		return []error{e.Err}
	}
	return []error{e.Kind, e.Err}
}
