package usecase

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/shandysiswandi/otpdash/internal/gateway/entity"
	"github.com/shandysiswandi/otpdash/internal/pkg/goerror"
)

// ListTOTP backs /api/totp: codes labelled by email, sorted by email
// ignoring case. Records without an email fall back to their ID.
func (s *Usecase) ListTOTP(ctx context.Context) ([]entity.UserOTP, error) {
	ctx, span := s.startSpan(ctx, "ListTOTP")
	defer span.End()

	if err := s.authorizeAPI(ctx, "/api/totp"); err != nil {
		return nil, err
	}

	records, err := s.store.ListUsers(ctx, "")
	if err != nil {
		slog.ErrorContext(ctx, "failed to list users", "error", err)
		return nil, goerror.NewServer(err)
	}

	codes := s.issuer.Issue(ctx, records, func(u entity.UserAuthData) string {
		if u.Email != "" {
			return u.Email
		}
		return u.ID
	})

	slices.SortStableFunc(codes, func(a, b entity.UserOTP) int {
		return strings.Compare(strings.ToLower(a.Email), strings.ToLower(b.Email))
	})

	return codes, nil
}

// ListTOTPByLocalPart backs /api/get_totps: codes labelled by the part of the
// ID before "@", in store order.
func (s *Usecase) ListTOTPByLocalPart(ctx context.Context) ([]entity.UserOTP, error) {
	ctx, span := s.startSpan(ctx, "ListTOTPByLocalPart")
	defer span.End()

	if err := s.authorizeAPI(ctx, "/api/get_totps"); err != nil {
		return nil, err
	}

	records, err := s.store.ListUsers(ctx, "")
	if err != nil {
		slog.ErrorContext(ctx, "failed to list users", "error", err)
		return nil, goerror.NewServer(err)
	}

	return s.issuer.Issue(ctx, records, entity.UserAuthData.LocalPart), nil
}
