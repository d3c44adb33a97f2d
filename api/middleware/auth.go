package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/tillworks/tillpoint-backend/api/responses"
	pkgauth "github.com/tillworks/tillpoint-backend/pkg/auth"
	"github.com/tillworks/tillpoint-backend/pkg/config"
	pkgerrors "github.com/tillworks/tillpoint-backend/pkg/errors"
	"github.com/tillworks/tillpoint-backend/pkg/logger"
)

// Auth validates a terminal bearer token and seeds the request context
// with the terminal identity.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseTerminalToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxTerminalID, claims.TerminalID.String())
			ctx = context.WithValue(ctx, ctxCashier, claims.Cashier)
			if logg != nil {
				ctx = logg.WithTerminalID(ctx, claims.TerminalID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
