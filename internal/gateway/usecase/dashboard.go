package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/otpdash/internal/gateway/entity"
	"github.com/shandysiswandi/otpdash/internal/pkg/authn"
	"github.com/shandysiswandi/otpdash/internal/pkg/goerror"
)

type DashboardInput struct {
	SearchQuery string `validate:"max=256"`
}

type DashboardOutput struct {
	// RedirectTo is set, and the rest empty, when the request is anonymous.
	RedirectTo  string
	ClearToken  bool
	Users       []entity.UserOTP
	SearchQuery string
}

// Dashboard lists the current code of every user whose email contains the
// search query, labelled by user ID.
func (s *Usecase) Dashboard(ctx context.Context, in DashboardInput) (*DashboardOutput, error) {
	ctx, span := s.startSpan(ctx, "Dashboard")
	defer span.End()

	sess := authn.GetSession(ctx)
	if !sess.IsAuthenticated() {
		return &DashboardOutput{RedirectTo: PathLogin, ClearToken: sess.State == authn.Rejected}, nil
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	records, err := s.store.ListUsers(ctx, in.SearchQuery)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list users", "error", err)
		return nil, goerror.NewServer(err)
	}

	return &DashboardOutput{
		Users:       s.issuer.Issue(ctx, records, func(u entity.UserAuthData) string { return u.ID }),
		SearchQuery: in.SearchQuery,
	}, nil
}
