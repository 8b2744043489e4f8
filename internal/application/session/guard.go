package session

import "agora/internal/domain/auth"

// GuardState is what a role gated view renders
type GuardState int

const (
	GuardLoading GuardState = iota
	GuardForbidden
	GuardContent
)

func (s GuardState) String() string {
	switch s {
	case GuardForbidden:
		return "forbidden"
	case GuardContent:
		return "content"
	default:
		return "loading"
	}
}

// Guard derives the state of a view that requires one of the given roles.
// No required roles means any resolved session may see the content.
func Guard(claims *auth.Claims, required ...auth.Role) GuardState {
	if claims == nil {
		return GuardLoading
	}
	if len(required) == 0 || claims.HasAnyRole(required...) {
		return GuardContent
	}
	return GuardForbidden
}

// Guard applies Guard to the active session
func (c *Controller) Guard(required ...auth.Role) GuardState {
	return Guard(c.Claims(), required...)
}
