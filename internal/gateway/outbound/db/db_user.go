package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/otpdash/internal/gateway/entity"
)

func (s *DB) FindUserByEmail(ctx context.Context, email string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "FindUserByEmail")
	defer func() { s.endSpan(span, err) }()

	var user entity.User
	err = s.conn.QueryRow(ctx,
		`SELECT email, password FROM users WHERE lower(email) = lower($1) LIMIT 1`,
		email,
	).Scan(&user.Email, &user.Password)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &user, nil
}

type authDataRow struct {
	ID        string
	Email     string
	OTPSecret string
}

// ListUserAuthData returns records whose email contains search, ignoring case.
func (s *DB) ListUserAuthData(ctx context.Context, search string) (_ []entity.UserAuthData, err error) {
	ctx, span := s.startSpan(ctx, "ListUserAuthData")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx,
		`SELECT id, email, otp_secret FROM user_auth_data
		WHERE $1::text = '' OR position(lower($1::text) IN lower(email)) > 0
		ORDER BY id`,
		search,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	result, err := pgx.CollectRows(rows, pgx.RowToStructByPos[authDataRow])
	if err != nil {
		return nil, s.mapError(err)
	}

	out := make([]entity.UserAuthData, 0, len(result))
	for _, r := range result {
		out = append(out, entity.UserAuthData{ID: r.ID, Email: r.Email, OTPSecret: r.OTPSecret})
	}
	return out, nil
}
