package router

import (
	"net/http"
	"strconv"

	"github.com/shandysiswandi/otpdash/internal/pkg/config"
)

// middlewareMaintenance answers 503 on routes listed in
// app.maintenance.endpoints, or on every route except /health when
// app.maintenance.enabled is set.
func middlewareMaintenance(cfg config.Config) Middleware {
	if cfg == nil {
		return nil
	}

	all := cfg.GetBool("app.maintenance.enabled")
	blocked := make(map[string]struct{})
	for _, endpoint := range cfg.GetArray("app.maintenance.endpoints") {
		blocked[endpoint] = struct{}{}
	}
	retryAfter := cfg.GetInt("app.maintenance.retry_after_seconds")

	if !all && len(blocked) == 0 {
		return nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := matchedRoutePath(r)
			_, listed := blocked[route]
			if (!all || route == "/health") && !listed {
				next.ServeHTTP(w, r)
				return
			}

			if retryAfter > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			}
			writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
		})
	}
}

