package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shandysiswandi/otpdash/internal/gateway/entity"
)

func (s *DB) CreateSession(ctx context.Context, in entity.Session) (err error) {
	ctx, span := s.startSpan(ctx, "CreateSession")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx,
		`INSERT INTO sessions (session_id, email, created_at, expires_at) VALUES ($1, $2, $3, $4)`,
		in.Token,
		in.Email,
		in.CreatedAt,
		pgtype.Timestamptz{Time: in.ExpiresAt, Valid: !in.ExpiresAt.IsZero()},
	)
	err = s.mapError(err)
	return err
}

func (s *DB) GetSession(ctx context.Context, token string) (_ *entity.Session, err error) {
	ctx, span := s.startSpan(ctx, "GetSession")
	defer func() { s.endSpan(span, err) }()

	var (
		sess      entity.Session
		expiresAt pgtype.Timestamptz
	)
	err = s.conn.QueryRow(ctx,
		`SELECT session_id, email, created_at, expires_at FROM sessions WHERE session_id = $1`,
		token,
	).Scan(&sess.Token, &sess.Email, &sess.CreatedAt, &expiresAt)
	if err != nil {
		return nil, s.mapError(err)
	}

	if expiresAt.Valid {
		sess.ExpiresAt = expiresAt.Time
	}
	return &sess, nil
}

func (s *DB) DeleteSession(ctx context.Context, token string) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteSession")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `DELETE FROM sessions WHERE session_id = $1`, token)
	err = s.mapError(err)
	return err
}
