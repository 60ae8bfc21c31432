package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shandysiswandi/otpdash/internal/gateway/entity"
	"github.com/shandysiswandi/otpdash/internal/pkg/clock"
	"github.com/shandysiswandi/otpdash/internal/pkg/goerror"
	"github.com/shandysiswandi/otpdash/internal/pkg/hash"
	"github.com/shandysiswandi/otpdash/internal/pkg/uid"
)

// CredentialStore is the source of truth for users and sessions.
//
// Lookups that find nothing return goerror.ErrNotFound. Every other storage
// failure is wrapped with goerror.ErrUnavailable.
type CredentialStore struct {
	users    repoUser
	sessions repoSession
	password hash.Hash
	token    uid.StringID
	clock    clock.Clocker
	ttl      time.Duration
}

func NewCredentialStore(users repoUser, sessions repoSession, password hash.Hash, token uid.StringID, clk clock.Clocker, ttl time.Duration) *CredentialStore {
	if ttl < 0 {
		ttl = 0
	}
	return &CredentialStore{
		users:    users,
		sessions: sessions,
		password: password,
		token:    token,
		clock:    clk,
		ttl:      ttl,
	}
}

// VerifyPassword compares candidate with a stored hash.
func (c *CredentialStore) VerifyPassword(candidate, storedHash string) bool {
	if storedHash == "" {
		return false
	}
	return c.password.Verify(storedHash, candidate)
}

// FindUserByIdentifier looks a user up by email, ignoring case.
func (c *CredentialStore) FindUserByIdentifier(ctx context.Context, identifier string) (*entity.User, error) {
	email := entity.NormalizeEmail(identifier)
	if email == "" {
		return nil, goerror.ErrNotFound
	}

	user, err := c.users.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, storageError(err)
	}
	return user, nil
}

// CreateSession persists a fresh token for identifier and returns it.
func (c *CredentialStore) CreateSession(ctx context.Context, identifier string) (*entity.Session, error) {
	now := c.clock.Now()
	sess := entity.Session{
		Token:     c.token.Generate(),
		Email:     entity.NormalizeEmail(identifier),
		CreatedAt: now,
	}
	if c.ttl > 0 {
		sess.ExpiresAt = now.Add(c.ttl)
	}

	if err := c.sessions.CreateSession(ctx, sess); err != nil {
		return nil, storageError(err)
	}
	return &sess, nil
}

// DeleteSession removes token. Unknown or empty tokens are not an error.
func (c *CredentialStore) DeleteSession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	err := c.sessions.DeleteSession(ctx, token)
	if err == nil || errors.Is(err, goerror.ErrNotFound) {
		return nil
	}
	return storageError(err)
}

// GetSession returns the session stored under exactly token. An empty token
// never reaches storage. Expired sessions are removed and reported missing.
func (c *CredentialStore) GetSession(ctx context.Context, token string) (*entity.Session, error) {
	if token == "" {
		return nil, goerror.ErrNotFound
	}

	sess, err := c.sessions.GetSession(ctx, token)
	if err != nil {
		return nil, storageError(err)
	}

	if sess.Expired(c.clock.Now()) {
		if err := c.DeleteSession(ctx, token); err != nil {
			return nil, err
		}
		return nil, goerror.ErrNotFound
	}

	return sess, nil
}

// ListUsers returns the OTP projection of every user whose email contains
// search, ignoring case. An empty search lists everyone.
func (c *CredentialStore) ListUsers(ctx context.Context, search string) ([]entity.UserAuthData, error) {
	users, err := c.users.ListUserAuthData(ctx, search)
	if err != nil {
		return nil, storageError(err)
	}
	return users, nil
}

func storageError(err error) error {
	if errors.Is(err, goerror.ErrNotFound) || errors.Is(err, goerror.ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", goerror.ErrUnavailable, err)
}
