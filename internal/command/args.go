package command

import "server-warden/internal/platform"

// Args holds option values by name: strings, integers, booleans and resolved
// members or users.
type Args map[string]any

func (a Args) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// String returns the option as text, or def when absent.
func (a Args) String(name, def string) string {
	if s, ok := a[name].(string); ok {
		return s
	}
	return def
}

// Int returns the option as int, or def when absent.
func (a Args) Int(name string, def int) int {
	switch v := a[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

func (a Args) Bool(name string, def bool) bool {
	if b, ok := a[name].(bool); ok {
		return b
	}
	return def
}

// Member returns a user option resolved as a guild member. It is false for
// users that are not in the guild.
func (a Args) Member(name string) (platform.Member, bool) {
	switch v := a[name].(type) {
	case platform.Member:
		return v, true
	case *platform.Member:
		if v != nil {
			return *v, true
		}
	}
	return platform.Member{}, false
}

// User returns a user option, whether or not it resolved to a member.
func (a Args) User(name string) (platform.User, bool) {
	switch v := a[name].(type) {
	case platform.User:
		return v, true
	case platform.Member:
		return v.User, true
	case *platform.Member:
		if v != nil {
			return v.User, true
		}
	}
	return platform.User{}, false
}
