// Package memory keeps users and sessions in process memory. It serves local
// runs and tests; nothing survives a restart.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/samber/lo"
	"github.com/shandysiswandi/otpdash/internal/gateway/entity"
	"github.com/shandysiswandi/otpdash/internal/pkg/goerror"
)

type Memory struct {
	mu       sync.RWMutex
	users    []entity.User
	authData []entity.UserAuthData
	sessions map[string]entity.Session
}

func New() *Memory {
	return &Memory{sessions: map[string]entity.Session{}}
}

// AddUser stores u as given. Emails are not normalised.
func (m *Memory) AddUser(u entity.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = append(m.users, u)
}

// AddUserAuthData appends an OTP record.
func (m *Memory) AddUserAuthData(d entity.UserAuthData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authData = append(m.authData, d)
}

func (m *Memory) FindUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := lo.Find(m.users, func(u entity.User) bool {
		return strings.EqualFold(u.Email, email)
	})
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &u, nil
}

func (m *Memory) ListUserAuthData(ctx context.Context, search string) ([]entity.UserAuthData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(search)
	return lo.Filter(m.authData, func(d entity.UserAuthData, _ int) bool {
		return strings.Contains(strings.ToLower(d.Email), needle)
	}), nil
}

func (m *Memory) CreateSession(ctx context.Context, s entity.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[s.Token]; exists {
		return goerror.ErrConflict
	}
	m.sessions[s.Token] = s
	return nil
}

func (m *Memory) GetSession(ctx context.Context, token string) (*entity.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[token]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &s, nil
}

func (m *Memory) DeleteSession(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, token)
	return nil
}

// SessionCount reports how many sessions are stored.
func (m *Memory) SessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
