package guard

import "bytefinance/internal/session"

// Access is the requirement a route declares.
type Access int

const (
	AccessPublic Access = iota
	AccessUser
	AccessAdmin
)

// Decision is the guard's verdict for one navigation.
type Decision int

const (
	// Wait means the session is still resolving; render a neutral
	// waiting state and decide again on the next state change. Never
	// redirect off a not-yet-resolved session.
	Wait Decision = iota
	Allow
	RedirectLogin
	RedirectHome
)

func (d Decision) String() string {
	switch d {
	case Wait:
		return "wait"
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect-to-login"
	case RedirectHome:
		return "redirect-to-default"
	}
	return "unknown"
}

// AuthState classifies a session snapshot.
type AuthState int

const (
	Unknown AuthState = iota
	Checking
	Unauthenticated
	AuthenticatedUser
	AuthenticatedAdmin
)

// Classify maps a session snapshot onto the guard state machine.
// Transitions are driven solely by session state changes.
func Classify(s session.State) AuthState {
	switch {
	case s.Loading:
		return Checking
	case !s.Ready:
		return Unknown
	case !s.Authenticated() || s.User == nil:
		// A token whose identity never resolved does not grant access.
		return Unauthenticated
	case s.Admin():
		return AuthenticatedAdmin
	default:
		return AuthenticatedUser
	}
}

// Decide gates one navigation target against the current session.
func Decide(required Access, s session.State) Decision {
	if required == AccessPublic {
		return Allow
	}
	switch Classify(s) {
	case Unknown, Checking:
		return Wait
	case Unauthenticated:
		return RedirectLogin
	case AuthenticatedAdmin:
		return Allow
	case AuthenticatedUser:
		if required == AccessAdmin {
			return RedirectHome
		}
		return Allow
	}
	return Wait
}
