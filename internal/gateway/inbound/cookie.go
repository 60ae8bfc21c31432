package inbound

import (
	"net/http"
	"strings"
	"time"

	"github.com/shandysiswandi/otpdash/internal/pkg/router"
)

const DefaultCookieName = "session_id"

// Secure modes of the session cookie.
const (
	SecureAuto   = "auto"
	SecureAlways = "always"
	SecureNever  = "never"
)

// Cookie describes how the session token travels to the browser.
type Cookie struct {
	Name string
	// Secure is one of SecureAuto, SecureAlways or SecureNever. Auto marks the
	// cookie Secure when the request arrived over https.
	Secure string
}

func (c Cookie) withDefaults() Cookie {
	if strings.TrimSpace(c.Name) == "" {
		c.Name = DefaultCookieName
	}
	switch strings.ToLower(strings.TrimSpace(c.Secure)) {
	case SecureAlways:
		c.Secure = SecureAlways
	case SecureNever:
		c.Secure = SecureNever
	default:
		c.Secure = SecureAuto
	}
	return c
}

func (c Cookie) secure(r *router.Request) bool {
	switch c.Secure {
	case SecureAlways:
		return true
	case SecureNever:
		return false
	default:
		return r.IsSecure()
	}
}

// issue builds the cookie carrying token. A zero expiresAt makes it a
// browser-session cookie.
func (c Cookie) issue(r *router.Request, token string, expiresAt time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   c.secure(r),
		SameSite: http.SameSiteLaxMode,
	}
}

func (c Cookie) clear(r *router.Request) *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.secure(r),
		SameSite: http.SameSiteLaxMode,
	}
}
