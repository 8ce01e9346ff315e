package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sandeepkv93/session-lifecycle-service/internal/http/response"
	"github.com/sandeepkv93/session-lifecycle-service/internal/observability"
	"github.com/sandeepkv93/session-lifecycle-service/internal/security"
)

type contextKey string

const (
	ClaimsContextKey contextKey = "claims"
)

// RevocationChecker asks the shared denylist whether a session's credentials
// were already revoked by this or another instance.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, sessionID string) (bool, string, error)
}

// AuthMiddleware validates the access token (cookie first, then bearer) and
// rejects sessions on the revocation denylist. The denylist check fails open:
// a Redis outage must not take down every authenticated route, and the
// in-process tracker still enforces timeouts behind it.
func AuthMiddleware(jwtMgr *security.JWTManager, revocations RevocationChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := security.GetCookie(r, "access_token")
			source := "cookie"
			if raw == "" {
				auth := r.Header.Get("Authorization")
				if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
					raw = strings.TrimSpace(auth[7:])
					source = "bearer"
				}
			}
			if raw == "" {
				observability.RecordAccessTokenValidation(r.Context(), "missing", "none")
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing access token", nil)
				return
			}
			claims, err := jwtMgr.ParseAccessToken(raw)
			if err != nil {
				observability.RecordAccessTokenValidation(r.Context(), "invalid", source)
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid access token", nil)
				return
			}
			if revocations != nil {
				revoked, reason, err := revocations.IsRevoked(r.Context(), claims.SessionID)
				if err != nil {
					slog.WarnContext(r.Context(), "revocation check failed", "session_id", claims.SessionID, "error", err)
				} else if revoked {
					observability.RecordAccessTokenValidation(r.Context(), "revoked", source)
					response.Error(w, r, http.StatusUnauthorized, "SESSION_REVOKED", "session has been revoked", map[string]string{"reason": reason})
					return
				}
			}
			observability.RecordAccessTokenValidation(r.Context(), "valid", source)
			ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ClaimsFromContext(ctx context.Context) (*security.Claims, bool) {
	c, ok := ctx.Value(ClaimsContextKey).(*security.Claims)
	return c, ok
}
