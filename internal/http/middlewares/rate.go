package middlewares

import (
	"net/http"
	"strconv"
	"time"

	httperrors "github.com/dropDatabas3/pdfsummary/internal/http/errors"
	"github.com/dropDatabas3/pdfsummary/internal/observability/logger"
	"github.com/dropDatabas3/pdfsummary/internal/rate"
)

// RateKeyFunc define cómo generar la clave de rate limiting.
type RateKeyFunc func(r *http.Request) string

// UserOrIPRateKey usa el usuario autenticado; sin usuario, la IP del cliente.
func UserOrIPRateKey(r *http.Request) string {
	if uid := GetUserID(r.Context()); uid != "" {
		return "u:" + uid + "|" + r.URL.Path
	}
	return "ip:" + clientIP(r) + "|" + r.URL.Path
}

// RateObserver recibe los rechazos (p.ej. métricas).
type RateObserver interface {
	RateLimited(path string)
}

type RateLimitConfig struct {
	Limiter  rate.Limiter
	Max      int64
	KeyFunc  RateKeyFunc
	Observer RateObserver
}

// WithRateLimit aplica el limiter. Si el limiter falla se deja pasar el request.
func WithRateLimit(cfg RateLimitConfig) Middleware {
	if cfg.Limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = UserOrIPRateKey
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := cfg.Limiter.Allow(r.Context(), cfg.KeyFunc(r))
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter unavailable", logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			if cfg.Max > 0 {
				h.Set("X-RateLimit-Limit", strconv.FormatInt(cfg.Max, 10))
			}
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			if res.WindowTTL > 0 {
				h.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(res.WindowTTL).Unix(), 10))
			}

			if !res.Allowed {
				if res.RetryAfter > 0 {
					h.Set("Retry-After", strconv.Itoa(int(res.RetryAfter/time.Second)))
				}
				if cfg.Observer != nil {
					cfg.Observer.RateLimited(r.URL.Path)
				}
				httperrors.WriteError(w, httperrors.ErrRateLimitExceeded)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
