package app

import (
	"context"
	"net/http"

	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpdash/internal/gateway/outbound/memory"
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
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/atomic"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      *hash.HMACSHA256
	password  hash.Hash
	uuid      uid.StringID
	totp      otp.OTP

	// resources
	mongoClient *mongo.Client
	mongoDB     *mongo.Database
	dbConn      *pgxpool.Pool
	cacheConn   *redis.Client
	memory      *memory.Memory
	messaging   messaging.Publisher
	casbin      *casbin.Enforcer

	// server
	ready      *atomic.Bool
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
		ready:  atomic.NewBool(false),
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initStorage()
	app.initCache()
	app.initMessaging()
	app.initCasbin()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	app.ready.Store(true)

	return app
}
