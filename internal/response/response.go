// Package response builds the uniform outcome messages the bot replies with.
// It knows nothing about the transport; the Discord adapter turns a Message
// into an embed.
package response

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Severity selects the accent colour of a message.
type Severity int

const (
	Info Severity = iota
	Success
	Warning
	Error
	Danger
)

// Color returns the embed colour for the severity.
func (s Severity) Color() int {
	switch s {
	case Success:
		return 0x00FF00
	case Warning:
		return 0xFFA500
	case Error:
		return 0xFF0000
	case Danger:
		return 0x992D22
	default:
		return 0x3498DB
	}
}

// Icons used in titles.
const (
	IconYes      = "✅"
	IconNo       = "❌"
	IconWarning  = "⚠️"
	IconInfo     = "ℹ️"
	IconClock    = "⏰"
	IconBan      = "🔨"
	IconKick     = "👢"
	IconTimeout  = "⏸️"
	IconClear    = "🗑️"
	IconShield   = "🛡️"
	IconQuestion = "❓"
)

// MaxErrorDetail bounds how much of an internal error text reaches a user.
const MaxErrorDetail = 1000

// User-facing texts shared by several commands.
const (
	MsgNoPermission    = "You don't have permission to use this command."
	MsgNoBotPermission = "I don't have the necessary permissions to perform this action."
	MsgHierarchy       = "You cannot perform this action on this member due to role hierarchy."
	MsgUnknownError    = "An unknown error occurred."
	MsgMemberNotFound  = "Member not found."
	MsgUserNotFound    = "User not found."
	MsgNoSelfAction    = "You cannot perform this action on yourself."
	MsgNoBotAction     = "I cannot perform this action on myself."
	MsgGuildOnly       = "You must be in a guild to use this command."
)

// Field is a name/value pair shown under the description.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Message is a rendered command outcome.
type Message struct {
	Title       string
	Description string
	Severity    Severity
	URL         string
	Thumbnail   string
	Fields      []Field
	Footer      string
	FooterIcon  string
	Timestamp   time.Time
	// Content is plain text sent instead of (or above) the embed.
	Content string
	// Ephemeral replies are visible to the invoking user only.
	Ephemeral bool
	// DeleteAfter schedules removal of the reply; zero keeps it.
	DeleteAfter time.Duration
}

// New returns a message whose title is prefixed with icon.
func New(icon, title, description string, severity Severity) Message {
	if icon != "" {
		title = icon + " " + title
	}
	return Message{Title: title, Description: description, Severity: severity}
}

// AddField appends a field and returns the message for chaining.
func (m Message) AddField(name, value string, inline bool) Message {
	m.Fields = append(m.Fields, Field{Name: name, Value: value, Inline: inline})
	return m
}

// Private marks the message as ephemeral.
func (m Message) Private() Message {
	m.Ephemeral = true
	return m
}

// Failure is an ephemeral error message.
func Failure(title, description string) Message {
	return New(IconNo, title, description, Error).Private()
}

// Notice is an ephemeral warning, used for no-op outcomes.
func Notice(title, description string) Message {
	return New(IconWarning, title, description, Warning).Private()
}

// Plain is an ephemeral text-only reply.
func Plain(icon, text string) Message {
	if icon != "" {
		text = icon + " " + text
	}
	return Message{Content: text, Ephemeral: true}
}

// Cooldown renders a rejected invocation with the remaining wait.
func Cooldown(retryAfter time.Duration) Message {
	return New(IconClock, "Command on Cooldown",
		fmt.Sprintf("Please wait %.1f seconds before using this command again.", retryAfter.Seconds()),
		Warning).Private()
}

// PermissionDenied lists the roles that would have allowed the command.
func PermissionDenied(userID string, allowedRoles []string) Message {
	roles := make([]string, 0, len(allowedRoles))
	for _, id := range allowedRoles {
		roles = append(roles, "<@&"+id+">")
	}
	value := strings.Join(roles, "\n")
	if value == "" {
		value = "Not configured"
	}
	m := New(IconNo, "Permission Denied", MsgNoPermission, Error).
		AddField("Required Roles", value, false).
		Private()
	m.Footer = "User ID: " + userID
	return m
}

// Unexpected renders an uncaught failure with bounded detail.
func Unexpected(err error) Message {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	return Failure("Error", MsgUnknownError+"\n```"+Truncate(detail, MaxErrorDetail)+"```")
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
