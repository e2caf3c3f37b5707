package middlewares

import (
	"net/http"
	"strings"

	httperrors "github.com/dropDatabas3/pdfsummary/internal/http/errors"
	"github.com/dropDatabas3/pdfsummary/internal/observability/logger"
)

// SubjectVerifier valida un bearer token y devuelve su "sub".
// Implementado por *jwt.Verifier.
type SubjectVerifier interface {
	Subject(raw string) (string, error)
}

func bearerToken(r *http.Request) (string, bool) {
	ah := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(ah) < len("bearer ") || !strings.EqualFold(ah[:len("bearer ")], "bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(ah[len("bearer "):])
	return raw, raw != ""
}

// OptionalAuth valida el token si viene. Sin token sigue sin usuario (el caso
// de uso decide); con token inválido responde 401.
func OptionalAuth(v SubjectVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok || v == nil {
				next.ServeHTTP(w, r)
				return
			}

			sub, err := v.Subject(raw)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				httperrors.WriteError(w, httperrors.ErrTokenInvalid.WithCause(err))
				return
			}

			ctx := WithUserID(r.Context(), sub)
			ctx = logger.ToContext(ctx, logger.From(ctx).With(logger.UserID(sub)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser corta con 401 si no hay usuario en el contexto.
// Debe ir después de OptionalAuth.
func RequireUser() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetUserID(r.Context()) == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				httperrors.WriteError(w, httperrors.ErrUnauthenticated)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
