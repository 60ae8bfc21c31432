package router

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/shandysiswandi/otpdash/internal/pkg/authn"
)

// SessionResolver turns a raw session token into an authn.Session.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (authn.Session, error)
}

// MiddlewareSession reads the cookie named cookieName, resolves it and stores
// the result in the request context. Storage failures end the request with 500.
func MiddlewareSession(resolver SessionResolver, cookieName string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string
			if c, err := r.Cookie(cookieName); err == nil {
				token = c.Value
			}

			sess, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				if setter, ok := w.(interface{ SetError(error) }); ok {
					setter.SetError(err)
				}
				slog.ErrorContext(r.Context(), "failed to resolve session", "error", err)
				writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(authn.SetSession(r.Context(), sess)))
		})
	}
}
