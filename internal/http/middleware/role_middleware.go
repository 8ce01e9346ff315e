package middleware

import (
	"net/http"

	"github.com/sandeepkv93/session-lifecycle-service/internal/http/response"
)

// RequireRole gates a route group on a role carried in the access token.
// Admin surfaces (fleet stats, terminate-any) are operator-only.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
				return
			}
			if !claims.HasRole(role) {
				response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "insufficient role", map[string]string{"required": role})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
