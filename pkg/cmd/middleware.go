package cmd

// Middleware wraps a command (logging, guild checks, metrics).
// The wrapped value is still a Command.
type Middleware func(Command) Command

// Apply wraps c with mws. The first middleware in the list is the outermost,
// so it sees the invocation first and the result last.
func Apply(c Command, mws ...Middleware) Command {
	for i := len(mws) - 1; i >= 0; i-- {
		c = mws[i](c)
	}
	return c
}
