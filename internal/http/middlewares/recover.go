package middlewares

import (
	"net/http"

	httperrors "github.com/dropDatabas3/pdfsummary/internal/http/errors"
	"github.com/dropDatabas3/pdfsummary/internal/observability/logger"
)

// WithRecover captura panics y devuelve un 500 con el envelope de error.
func WithRecover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.From(r.Context()).Error("panic recovered",
						logger.Op("recover"),
						logger.Any("panic", rec),
					)
					httperrors.WriteError(w, httperrors.ErrInternalServerError.WithDetail("panic recovered"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
