package router

import (
	"net"
	"net/http"
	"strings"
)

// clientIPHeaders are consulted in order when the service runs behind a
// trusted proxy.
var clientIPHeaders = []string{"True-Client-IP", "X-Real-IP", "X-Forwarded-For"}

// middlewareIP rewrites RemoteAddr to the bare client IP. Proxy headers are
// ignored unless trustProxy is set, so a direct client cannot spoof the
// address recorded in request logs.
func middlewareIP(trustProxy bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ip := clientIP(r, trustProxy); ip != "" {
				r.RemoteAddr = ip
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		for _, h := range clientIPHeaders {
			v, _, _ := strings.Cut(r.Header.Get(h), ",")
			if v = strings.TrimSpace(v); net.ParseIP(v) != nil {
				return v
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || net.ParseIP(host) == nil {
		return ""
	}
	return host
}
