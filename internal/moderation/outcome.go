package moderation

import (
	"server-warden/internal/response"
)

// Kind classifies an Outcome. KindNone is success.
type Kind int

const (
	KindNone Kind = iota
	// KindBotPermission: the bot lacks the platform permission up front.
	KindBotPermission
	// KindForbidden: the platform refused the mutation.
	KindForbidden
	KindSelfTarget
	KindBotTarget
	KindHierarchy
	KindInvalidID
	KindInvalidDuration
	KindInvalidAmount
	KindNotBanned
	KindNotTimedOut
	KindUserNotFound
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "ok"
	case KindBotPermission:
		return "bot_permission"
	case KindForbidden:
		return "forbidden"
	case KindSelfTarget:
		return "self_target"
	case KindBotTarget:
		return "bot_target"
	case KindHierarchy:
		return "hierarchy"
	case KindInvalidID:
		return "invalid_id"
	case KindInvalidDuration:
		return "invalid_duration"
	case KindInvalidAmount:
		return "invalid_amount"
	case KindNotBanned:
		return "not_banned"
	case KindNotTimedOut:
		return "not_timed_out"
	case KindUserNotFound:
		return "user_not_found"
	default:
		return "unknown"
	}
}

// Conflict reports kinds that mean "nothing to do" rather than a failure.
func (k Kind) Conflict() bool {
	return k == KindNotBanned || k == KindNotTimedOut
}

// Outcome is the result of an executor: either success with the message to
// show, or a failure kind with its message.
type Outcome struct {
	Kind    Kind
	Message response.Message
	// Count is the number of affected items (deleted messages for purge).
	Count int
}

// OK reports success.
func (o Outcome) OK() bool { return o.Kind == KindNone }

func succeeded(m response.Message) Outcome {
	return Outcome{Kind: KindNone, Message: m}
}

func failed(kind Kind, title, description string) Outcome {
	if kind.Conflict() {
		return Outcome{Kind: kind, Message: response.Notice(title, description)}
	}
	return Outcome{Kind: kind, Message: response.Failure(title, description)}
}

func botPermissionDenied() Outcome {
	return failed(KindBotPermission, "Permission Error", response.MsgNoBotPermission)
}
