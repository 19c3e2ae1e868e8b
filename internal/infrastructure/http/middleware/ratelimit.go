package middleware

import (
	"net"
	"net/http"

	"github.com/alchemorsel/recipes/internal/infrastructure/http/respond"
	"github.com/alchemorsel/recipes/internal/infrastructure/security"
	"github.com/alchemorsel/recipes/pkg/errors"
	"go.uber.org/zap"
)

// Limiter decides whether a client key may proceed
type Limiter interface {
	Allow(key string) bool
}

var _ Limiter = (*security.LoginLimiter)(nil)

// RateLimit rejects requests from clients over their budget with 429. It
// keys on the remote address, which RealIP has already rewritten.
func RateLimit(limiter Limiter, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)
			if !limiter.Allow(key) {
				logger.Warn("Rate limit exceeded", zap.String("ip", key), zap.String("path", r.URL.Path))
				w.Header().Set("Retry-After", "60")
				respond.Error(w, r, logger, errors.NewTooManyRequestsError())
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
