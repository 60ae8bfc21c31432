package entity

import (
	"strings"
	"time"
)

// User is the login record of the users collection.
type User struct {
	Email    string
	Password string
}

// UserAuthData is the OTP projection of a user. The password hash is never
// part of it.
type UserAuthData struct {
	ID        string
	Email     string
	OTPSecret string
}

// LocalPart returns ID up to the first "@", or the whole ID without one.
func (u UserAuthData) LocalPart() string {
	local, _, _ := strings.Cut(u.ID, "@")
	return local
}

// Session binds an opaque token to the email that logged in.
type Session struct {
	Token     string
	Email     string
	CreatedAt time.Time
	// ExpiresAt is zero when sessions never expire.
	ExpiresAt time.Time
}

// Expired reports whether the session has an expiry that is not after now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// UserOTP is a derived code, never stored.
type UserOTP struct {
	Email string
	Code  string
}

// NormalizeEmail trims and lowercases a submitted identifier.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
