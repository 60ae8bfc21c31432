package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/otpdash/internal/pkg/authn"
	"github.com/shandysiswandi/otpdash/internal/pkg/goerror"
	"github.com/shandysiswandi/otpdash/internal/shared/event"
)

type LogoutOutput struct {
	RedirectTo string
}

// Logout deletes the request's session if it carried a token. The caller
// clears the cookie and redirects whether or not a session existed.
func (s *Usecase) Logout(ctx context.Context) (*LogoutOutput, error) {
	ctx, span := s.startSpan(ctx, "Logout")
	defer span.End()

	sess := authn.GetSession(ctx)
	if sess.HasToken() {
		if err := s.store.DeleteSession(ctx, sess.Token); err != nil {
			slog.ErrorContext(ctx, "failed to delete session", "error", err)
			return nil, goerror.NewServer(err)
		}
		if sess.IsAuthenticated() {
			s.publishAudit(ctx, event.SessionDeleted, sess.Email, sess.Token, "")
		}
	}

	return &LogoutOutput{RedirectTo: PathLogin}, nil
}

// Home picks the landing page for "/".
func (s *Usecase) Home(ctx context.Context) string {
	if authn.GetSession(ctx).IsAuthenticated() {
		return PathDashboard
	}
	return PathLogin
}
