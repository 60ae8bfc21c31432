package entity

import "strings"

// APIAccess controls who may call the OTP listing endpoints.
type APIAccess int

const (
	// APIAccessOpen lets anyone call the listings.
	APIAccessOpen APIAccess = iota
	// APIAccessSession requires an authenticated session.
	APIAccessSession
	// APIAccessPolicy requires a session allowed by the casbin policy.
	APIAccessPolicy
)

// ParseAPIAccess maps a config value to an APIAccess. Unknown or empty values
// fall back to APIAccessOpen and report ok=false.
func ParseAPIAccess(v string) (APIAccess, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "open":
		return APIAccessOpen, true
	case "session":
		return APIAccessSession, true
	case "policy":
		return APIAccessPolicy, true
	default:
		return APIAccessOpen, false
	}
}

func (a APIAccess) String() string {
	switch a {
	case APIAccessSession:
		return "session"
	case APIAccessPolicy:
		return "policy"
	default:
		return "open"
	}
}
