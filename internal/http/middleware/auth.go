package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mjoly/fete-invites/internal/http/response"
	"github.com/mjoly/fete-invites/internal/token"
	"github.com/mjoly/fete-invites/pkg/logger"
)

type ctxKey string

const ctxClaims ctxKey = "admin_claims"

// RequireAdmin gates admin-only routes on a valid access token. The 403
// message is identical for malformed, expired and wrongly-typed tokens so
// a caller cannot tell which failed.
func RequireAdmin(tokens *token.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				response.Unauthorized(w, "Access token required")
				return
			}

			claims, err := tokens.Verify(strings.TrimPrefix(authz, "Bearer "))
			if err != nil {
				response.Forbidden(w, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), ctxClaims, claims)
			ctx = context.WithValue(ctx, logger.AdminIDKey, claims.AdminID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminClaims returns the claims RequireAdmin stored, or nil.
func AdminClaims(r *http.Request) *token.Claims {
	if v := r.Context().Value(ctxClaims); v != nil {
		if c, ok := v.(*token.Claims); ok {
			return c
		}
	}
	return nil
}
