package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpdash/internal/gateway/entity"
	"github.com/shandysiswandi/otpdash/internal/pkg/authn"
	"github.com/shandysiswandi/otpdash/internal/pkg/goerror"
	"github.com/shandysiswandi/otpdash/internal/shared/event"
)

type LoginInput struct {
	Email    string `validate:"required,notblank,max=320"`
	Password string `validate:"required,max=1024"`
}

type LoginOutput struct {
	// Token is empty when the request was already authenticated.
	Token      string
	ExpiresAt  time.Time
	RedirectTo string
}

type LoginPageOutput struct {
	RedirectTo string
	// ClearToken is set when the request carried a token nobody knows.
	ClearToken bool
}

// LoginPage sends authenticated visitors to the dashboard.
func (s *Usecase) LoginPage(ctx context.Context) *LoginPageOutput {
	sess := authn.GetSession(ctx)
	if sess.IsAuthenticated() {
		return &LoginPageOutput{RedirectTo: PathDashboard}
	}
	return &LoginPageOutput{ClearToken: sess.State == authn.Rejected}
}

func (s *Usecase) Login(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer span.End()

	if authn.GetSession(ctx).IsAuthenticated() {
		return &LoginOutput{RedirectTo: PathDashboard}, nil
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	email := entity.NormalizeEmail(in.Email)
	user, err := s.store.FindUserByIdentifier(ctx, email)
	switch {
	case errors.Is(err, goerror.ErrNotFound):
		slog.WarnContext(ctx, "user account not found", "email", email)
		s.publishAudit(ctx, event.LoginFailed, email, "", "not_found")
		return nil, goerror.NewUnauthorized(err)
	case err != nil:
		slog.ErrorContext(ctx, "failed to find user by email", "email", email, "error", err)
		s.publishAudit(ctx, event.LoginFailed, email, "", "unavailable")
		return nil, goerror.NewUnauthorized(err)
	}

	if !s.store.VerifyPassword(in.Password, user.Password) {
		slog.WarnContext(ctx, "password user account not match", "email", email)
		s.publishAudit(ctx, event.LoginFailed, email, "", "invalid_credential")
		return nil, goerror.NewUnauthorized(goerror.ErrInvalidCredential)
	}

	sess, err := s.store.CreateSession(ctx, email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create session", "email", email, "error", err)
		s.publishAudit(ctx, event.LoginFailed, email, "", "unavailable")
		return nil, goerror.NewUnauthorized(err)
	}

	s.publishAudit(ctx, event.SessionCreated, email, sess.Token, "")

	return &LoginOutput{
		Token:      sess.Token,
		ExpiresAt:  sess.ExpiresAt,
		RedirectTo: PathDashboard,
	}, nil
}
