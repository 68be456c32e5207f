// Package cmd provides a transport-agnostic command core: a command is something
// with a name, description, and Run(ctx, invocation). How it is registered with
// the chat platform and how replies are delivered is defined by adapters.
package cmd

import "context"

// Invocation carries what a runner hands to a command: an id for correlating
// logs, the invoked name and an opaque payload. Adapters set Data to their own
// context type (for slash commands, *command.Context).
type Invocation struct {
	ID   string
	Name string
	Data interface{}
}

// Command is the universal contract: identity plus execution. Permissions,
// cooldowns and transport-specific registration stay in adapters.
type Command interface {
	Name() string
	Description() string
	Run(ctx context.Context, inv *Invocation) error
}
