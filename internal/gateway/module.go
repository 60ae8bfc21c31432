package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpdash/internal/gateway/entity"
	"github.com/shandysiswandi/otpdash/internal/gateway/inbound"
	"github.com/shandysiswandi/otpdash/internal/gateway/outbound/cache"
	"github.com/shandysiswandi/otpdash/internal/gateway/outbound/db"
	"github.com/shandysiswandi/otpdash/internal/gateway/outbound/memory"
	"github.com/shandysiswandi/otpdash/internal/gateway/outbound/mongo"
	"github.com/shandysiswandi/otpdash/internal/gateway/outbound/mq"
	"github.com/shandysiswandi/otpdash/internal/gateway/usecase"
	"github.com/shandysiswandi/otpdash/internal/pkg/clock"
	"github.com/shandysiswandi/otpdash/internal/pkg/config"
	"github.com/shandysiswandi/otpdash/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpdash/internal/pkg/hash"
	"github.com/shandysiswandi/otpdash/internal/pkg/instrument"
	"github.com/shandysiswandi/otpdash/internal/pkg/messaging"
	"github.com/shandysiswandi/otpdash/internal/pkg/otp"
	"github.com/shandysiswandi/otpdash/internal/pkg/router"
	"github.com/shandysiswandi/otpdash/internal/pkg/uid"
	"github.com/shandysiswandi/otpdash/internal/pkg/validator"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
)

// Storage drivers for storage.driver and modules.gateway.session.driver.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
	DriverRedis    = "redis"
)

var (
	ErrUnknownDriver     = errors.New("gateway: unknown storage driver")
	ErrMissingConnection = errors.New("gateway: no connection for the configured driver")
)

type Dependency struct {
	Ctx        context.Context            `validate:"required"`
	Config     config.Config              `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Password   hash.Hash                  `validate:"required"`
	HMAC       *hash.HMACSHA256           `validate:"required"`
	Totp       otp.OTP                    `validate:"required"`
	Messaging  messaging.Publisher        `validate:"required"`

	// Only the handle matching the configured driver is needed.
	MongoDB   *mongodriver.Database
	DBConn    *pgxpool.Pool
	CacheConn redis.UniversalClient
	Memory    *memory.Memory
	Enforcer  *casbin.Enforcer
}

type userStore interface {
	FindUserByEmail(ctx context.Context, email string) (*entity.User, error)
	ListUserAuthData(ctx context.Context, search string) ([]entity.UserAuthData, error)
}

type sessionStore interface {
	CreateSession(ctx context.Context, s entity.Session) error
	GetSession(ctx context.Context, token string) (*entity.Session, error)
	DeleteSession(ctx context.Context, token string) error
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	users, sessions, err := newStores(dep)
	if err != nil {
		return err
	}

	access, ok := entity.ParseAPIAccess(dep.Config.GetString("modules.gateway.api_access"))
	if !ok {
		slog.Warn("unknown api access mode, listings stay open", "value", dep.Config.GetString("modules.gateway.api_access"))
	}

	ucDep := usecase.Dependency{
		RepoUser:    users,
		RepoSession: sessions,
		RepoAudit:   mq.NewMessaging(dep.Messaging, dep.Instrument),
		Password:    dep.Password,
		Fingerprint: dep.HMAC,
		Token:       uid.NewToken(dep.Config.GetInt("modules.gateway.session.token_bytes")),
		Totp:        dep.Totp,
		Clock:       dep.Clock,
		Validator:   dep.Validator,
		Goroutine:   dep.Goroutine,
		Instrument:  dep.Instrument,
		SessionTTL:  dep.Config.GetMinute("modules.gateway.session.ttl_minutes"),
		APIAccess:   access,
	}
	if access == entity.APIAccessPolicy {
		if dep.Enforcer == nil {
			return fmt.Errorf("%w: casbin enforcer for api access %s", ErrMissingConnection, access)
		}
		ucDep.Enforcer = dep.Enforcer
	}

	uc := usecase.New(ucDep)

	inbound.RegisterHTTPEndpoint(dep.Router, uc, inbound.Cookie{
		Name:   dep.Config.GetString("modules.gateway.cookie.name"),
		Secure: dep.Config.GetString("modules.gateway.cookie.secure"),
	})

	return nil
}

func newStores(dep Dependency) (userStore, sessionStore, error) {
	var (
		users    userStore
		sessions sessionStore
	)

	driver := strings.ToLower(strings.TrimSpace(dep.Config.GetString("storage.driver")))
	switch driver {
	case "", DriverMongo:
		if dep.MongoDB == nil {
			return nil, nil, fmt.Errorf("%w: %s", ErrMissingConnection, DriverMongo)
		}
		store := mongo.NewMongo(dep.MongoDB, dep.Instrument)
		if err := store.EnsureIndexes(dep.Ctx); err != nil {
			return nil, nil, fmt.Errorf("gateway: mongo indexes: %w", err)
		}
		users, sessions = store, store

	case DriverPostgres:
		if dep.DBConn == nil {
			return nil, nil, fmt.Errorf("%w: %s", ErrMissingConnection, DriverPostgres)
		}
		if dep.Config.GetBool("database.postgres.migrate") {
			if err := db.Migrate(dep.Ctx, dep.DBConn); err != nil {
				return nil, nil, err
			}
		}
		store := db.NewDB(dep.DBConn, dep.Instrument)
		users, sessions = store, store

	case DriverMemory:
		if dep.Memory == nil {
			return nil, nil, fmt.Errorf("%w: %s", ErrMissingConnection, DriverMemory)
		}
		users, sessions = dep.Memory, dep.Memory

	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}

	switch sd := strings.ToLower(strings.TrimSpace(dep.Config.GetString("modules.gateway.session.driver"))); sd {
	case "":
	case DriverRedis:
		if dep.CacheConn == nil {
			return nil, nil, fmt.Errorf("%w: %s", ErrMissingConnection, DriverRedis)
		}
		sessions = cache.NewCache(dep.CacheConn, dep.Instrument)
	default:
		return nil, nil, fmt.Errorf("%w: session %s", ErrUnknownDriver, sd)
	}

	return users, sessions, nil
}
