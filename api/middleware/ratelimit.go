package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/fitlinehq/fitline-backend/api/responses"
	pkgerrors "github.com/fitlinehq/fitline-backend/pkg/errors"
	"github.com/fitlinehq/fitline-backend/pkg/logger"
)

const (
	rateLimitWindow   = time.Minute
	rateLimitRequests = 120
)

type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimit throttles authenticated traffic per user with a fixed
// window counter. Unauthenticated requests fall back to the client IP.
func RateLimit(store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope := UserIDFromContext(r.Context())
			if scope == "" {
				scope = "ip:" + clientIP(r)
			}

			allowed, _, err := store.FixedWindowAllow(r.Context(), scope, rateLimitRequests, rateLimitWindow)
			if err != nil {
				// Fail open: a degraded Redis must not take the API down.
				if logg != nil {
					logg.Error(r.Context(), "rate limit check failed", err)
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
