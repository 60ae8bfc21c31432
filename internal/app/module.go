package app

import (
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpdash/internal/gateway"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.gateway.enabled") {
		if err := gateway.New(gateway.Dependency{
			Ctx:        a.ctx,
			Config:     a.config,
			Router:     a.router,
			Instrument: a.ins,
			Validator:  a.validator,
			Goroutine:  a.goroutine,
			Clock:      a.clock,
			Password:   a.password,
			HMAC:       a.hmac,
			Totp:       a.totp,
			Messaging:  a.messaging,
			MongoDB:    a.mongoDB,
			DBConn:     a.dbConn,
			CacheConn:  a.cacheClient(),
			Memory:     a.memory,
			Enforcer:   a.casbin,
		}); err != nil {
			slog.Error("failed to init module gateway", "error", err)
			os.Exit(1)
		}
	}
}

// cacheClient keeps a nil *redis.Client from becoming a non-nil interface.
func (a *App) cacheClient() redis.UniversalClient {
	if a.cacheConn == nil {
		return nil
	}
	return a.cacheConn
}
