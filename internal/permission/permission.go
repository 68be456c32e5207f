// Package permission decides who may run guarded commands and against whom.
package permission

import (
	"context"
	"slices"

	"github.com/rs/zerolog"

	"server-warden/internal/platform"
)

// Reason explains a denial.
type Reason int

const (
	ReasonNone Reason = iota
	// ReasonMissingRole: the actor holds none of the allowed roles.
	ReasonMissingRole
	// ReasonLookupFailed: the actor's roles could not be resolved.
	ReasonLookupFailed
	ReasonSelfTarget
	ReasonBotTarget
	ReasonHierarchy
)

func (r Reason) String() string {
	switch r {
	case ReasonMissingRole:
		return "missing role"
	case ReasonLookupFailed:
		return "member lookup failed"
	case ReasonSelfTarget:
		return "self target"
	case ReasonBotTarget:
		return "bot target"
	case ReasonHierarchy:
		return "role hierarchy"
	default:
		return "allowed"
	}
}

// Decision is the outcome of a check. RequiredRoles is filled on role denials
// so the reply can list them.
type Decision struct {
	Allowed       bool
	Reason        Reason
	RequiredRoles []string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(r Reason) Decision { return Decision{Reason: r} }

// Policy is the process-wide allow-list configuration.
type Policy struct {
	AllowedUsers []string
	AllowedRoles []string
}

// Gate applies a Policy. It is safe for concurrent use; it never mutates the policy.
type Gate struct {
	policy  Policy
	members platform.MemberResolver
}

// NewGate returns a gate that resolves partial actors through members.
func NewGate(policy Policy, members platform.MemberResolver) *Gate {
	return &Gate{
		policy: Policy{
			AllowedUsers: slices.Clone(policy.AllowedUsers),
			AllowedRoles: slices.Clone(policy.AllowedRoles),
		},
		members: members,
	}
}

// AllowedRoles returns a copy of the configured role allow-list.
func (g *Gate) AllowedRoles() []string {
	return slices.Clone(g.policy.AllowedRoles)
}

// Authorize decides whether actor may invoke a guarded command in guildID.
func (g *Gate) Authorize(ctx context.Context, guildID string, actor platform.Member) Decision {
	if slices.Contains(g.policy.AllowedUsers, actor.ID) {
		return allow()
	}
	if len(g.policy.AllowedRoles) == 0 {
		return allow()
	}

	if actor.Partial {
		if g.members == nil {
			return g.denyRoles(ReasonLookupFailed)
		}
		full, err := g.members.Member(ctx, guildID, actor.ID)
		if err != nil || full == nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("user", actor.ID).Msg("could not resolve member roles")
			return g.denyRoles(ReasonLookupFailed)
		}
		actor = *full
	}

	for _, roleID := range g.policy.AllowedRoles {
		if actor.HasRole(roleID) {
			return allow()
		}
	}
	return g.denyRoles(ReasonMissingRole)
}

func (g *Gate) denyRoles(r Reason) Decision {
	d := deny(r)
	d.RequiredRoles = g.AllowedRoles()
	return d
}

// CheckTarget applies the target-specific rules of member actions: nobody acts
// on themselves or on the bot, and only the owner or a strictly higher ranked
// member may act on someone.
func CheckTarget(actor, target platform.Member, botUserID string) Decision {
	if target.ID == actor.ID {
		return deny(ReasonSelfTarget)
	}
	if target.ID == botUserID {
		return deny(ReasonBotTarget)
	}
	if !actor.IsOwner && target.Rank >= actor.Rank {
		return deny(ReasonHierarchy)
	}
	return allow()
}
