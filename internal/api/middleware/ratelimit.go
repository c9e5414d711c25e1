package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/LOSS98/tunis-gp/internal/common"

	"go.uber.org/zap"
)

// Limiter is satisfied by kv.RedisLimiter and kv.MemoryLimiter.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimit caps requests per client IP. When the limiter backend errors the
// request is let through and the error logged.
func RateLimit(l Limiter, name string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := name + ":" + clientIP(r)
			ok, err := l.Allow(r.Context(), key, limit, window)
			if err != nil {
				zap.L().Warn("rate limiter unavailable", zap.String("limiter", name), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				common.RespondWithError(w, http.StatusTooManyRequests, common.ErrTooManyRequests.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
