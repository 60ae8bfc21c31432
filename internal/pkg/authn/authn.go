// Package authn carries the per-request session resolution result through
// context.Context.
package authn

import "context"

// State is the outcome of resolving a request's session token.
type State int

const (
	// NoToken means the request carried no session token.
	NoToken State = iota
	// TokenPresentUnresolved means a token is present but not yet checked.
	TokenPresentUnresolved
	// Authenticated means the token matched a stored session.
	Authenticated
	// Rejected means the token matched nothing and can be discarded.
	Rejected
)

func (s State) String() string {
	switch s {
	case NoToken:
		return "no_token"
	case TokenPresentUnresolved:
		return "token_present_unresolved"
	case Authenticated:
		return "authenticated"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Session is the resolved identity of a request.
type Session struct {
	State State
	Email string
	Token string
}

// IsAuthenticated reports whether the session resolved to a user.
func (s Session) IsAuthenticated() bool {
	return s.State == Authenticated && s.Email != ""
}

// HasToken reports whether the request carried a token, valid or not.
func (s Session) HasToken() bool {
	return s.Token != ""
}

type sessionKey struct{}

// SetSession stores s in ctx.
func SetSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// GetSession returns the session stored in ctx. A context without one yields
// a NoToken session.
func GetSession(ctx context.Context) Session {
	if ctx == nil {
		return Session{State: NoToken}
	}
	if s, ok := ctx.Value(sessionKey{}).(Session); ok {
		return s
	}
	return Session{State: NoToken}
}
