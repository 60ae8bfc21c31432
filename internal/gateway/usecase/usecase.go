package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpdash/internal/gateway/entity"
	"github.com/shandysiswandi/otpdash/internal/pkg/authn"
	"github.com/shandysiswandi/otpdash/internal/pkg/clock"
	"github.com/shandysiswandi/otpdash/internal/pkg/goerror"
	"github.com/shandysiswandi/otpdash/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpdash/internal/pkg/hash"
	"github.com/shandysiswandi/otpdash/internal/pkg/instrument"
	"github.com/shandysiswandi/otpdash/internal/pkg/otp"
	"github.com/shandysiswandi/otpdash/internal/pkg/uid"
	"github.com/shandysiswandi/otpdash/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

const (
	PathLogin     = "/login"
	PathDashboard = "/dashboard"
)

type SessionAuditEvent struct {
	Type             string
	Email            string
	TokenFingerprint string
	Reason           string
	OccurredAt       time.Time
}

type repoUser interface {
	FindUserByEmail(ctx context.Context, email string) (*entity.User, error)
	ListUserAuthData(ctx context.Context, search string) ([]entity.UserAuthData, error)
}

type repoSession interface {
	CreateSession(ctx context.Context, s entity.Session) error
	GetSession(ctx context.Context, token string) (*entity.Session, error)
	DeleteSession(ctx context.Context, token string) error
}

type repoAudit interface {
	PublishSessionAudit(ctx context.Context, ev SessionAuditEvent) error
}

type enforcer interface {
	Enforce(rvals ...any) (bool, error)
}

type fingerprinter interface {
	Fingerprint(str string, n int) string
}

type Usecase struct {
	store       *CredentialStore
	issuer      *TOTPIssuer
	resolver    *SessionResolver
	repoAudit   repoAudit
	validator   validator.Validator
	enforcer    enforcer
	access      entity.APIAccess
	fingerprint fingerprinter
	clock       clock.Clocker
	goroutine   *goroutine.Manager
	ins         instrument.Instrumentation
}

type Dependency struct {
	RepoUser    repoUser
	RepoSession repoSession
	RepoAudit   repoAudit
	Password    hash.Hash
	Fingerprint fingerprinter
	Token       uid.StringID
	Totp        otp.OTP
	Clock       clock.Clocker
	Validator   validator.Validator
	Enforcer    enforcer
	Goroutine   *goroutine.Manager
	Instrument  instrument.Instrumentation
	// SessionTTL of zero keeps sessions until logout.
	SessionTTL time.Duration
	APIAccess  entity.APIAccess
}

func New(dep Dependency) *Usecase {
	store := NewCredentialStore(dep.RepoUser, dep.RepoSession, dep.Password, dep.Token, dep.Clock, dep.SessionTTL)

	return &Usecase{
		store:       store,
		issuer:      NewTOTPIssuer(dep.Totp, dep.Clock),
		resolver:    NewSessionResolver(store),
		repoAudit:   dep.RepoAudit,
		validator:   dep.Validator,
		enforcer:    dep.Enforcer,
		access:      dep.APIAccess,
		fingerprint: dep.Fingerprint,
		clock:       dep.Clock,
		goroutine:   dep.Goroutine,
		ins:         dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("gateway.usecase").Start(ctx, name)
}

// Resolve lets the router turn the session cookie into an authn.Session.
func (s *Usecase) Resolve(ctx context.Context, token string) (authn.Session, error) {
	ctx, span := s.startSpan(ctx, "Resolve")
	defer span.End()

	return s.resolver.Resolve(ctx, token)
}

func (s *Usecase) authorizeAPI(ctx context.Context, obj string) error {
	if s.access == entity.APIAccessOpen {
		return nil
	}

	sess := authn.GetSession(ctx)
	if !sess.IsAuthenticated() {
		return goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	if s.access != entity.APIAccessPolicy {
		return nil
	}

	if s.enforcer == nil {
		slog.ErrorContext(ctx, "api access is policy but no enforcer is configured")
		return goerror.NewServer(goerror.ErrUnavailable)
	}

	ok, err := s.enforcer.Enforce(sess.Email, obj, "GET")
	if err != nil {
		slog.ErrorContext(ctx, "failed to check authorization", "email", sess.Email, "error", err)
		return goerror.NewServer(err)
	}
	if !ok {
		slog.WarnContext(ctx, "otp listing denied by policy", "email", sess.Email, "object", obj)
		return goerror.NewBusiness("Account not allowed", goerror.CodeForbidden)
	}

	return nil
}
