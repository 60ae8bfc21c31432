package usecase

import (
	"context"
	"errors"

	"github.com/shandysiswandi/otpdash/internal/pkg/authn"
	"github.com/shandysiswandi/otpdash/internal/pkg/goerror"
)

// SessionResolver maps a raw token to an authn.Session.
type SessionResolver struct {
	store *CredentialStore
}

func NewSessionResolver(store *CredentialStore) *SessionResolver {
	return &SessionResolver{store: store}
}

// Resolve returns NoToken for an empty token, Authenticated when the store
// knows the token and Rejected when it does not. Storage failures are
// returned as errors.
func (r *SessionResolver) Resolve(ctx context.Context, token string) (authn.Session, error) {
	if token == "" {
		return authn.Session{State: authn.NoToken}, nil
	}

	sess, err := r.store.GetSession(ctx, token)
	if errors.Is(err, goerror.ErrNotFound) {
		return authn.Session{State: authn.Rejected, Token: token}, nil
	}
	if err != nil {
		return authn.Session{State: authn.TokenPresentUnresolved, Token: token}, err
	}

	return authn.Session{State: authn.Authenticated, Email: sess.Email, Token: token}, nil
}
