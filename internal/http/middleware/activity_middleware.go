package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/sandeepkv93/session-lifecycle-service/internal/http/response"
	"github.com/sandeepkv93/session-lifecycle-service/internal/session"
)

const (
	TrackResultContextKey contextKey = "track_result"

	CodeSessionExpiredInactivity = "SESSION_EXPIRED_INACTIVITY"
	CodeSessionExpiredAbsolute   = "SESSION_EXPIRED_ABSOLUTE"
)

// ActivityMiddleware is the tracker's ingress hook: every authenticated
// request updates the session's activity record and is rejected when the
// evaluation says the session is dead. Distinct error codes let clients tell
// an idle logout apart from a hard lifetime cap.
func ActivityMiddleware(tracker *session.Tracker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing authentication context", nil)
				return
			}

			res := tracker.Track(r.Context(), session.TrackInput{
				SessionID: claims.SessionID,
				UserID:    claims.Subject,
				IP:        r.RemoteAddr,
				UserAgent: r.UserAgent(),
			})
			if !res.OK {
				code := CodeSessionExpiredInactivity
				if res.Reason == session.ReasonAbsolute {
					code = CodeSessionExpiredAbsolute
				}
				response.Error(w, r, http.StatusUnauthorized, code, "session expired", map[string]string{"reason": res.Reason})
				return
			}

			w.Header().Set("X-Session-Time-Remaining", strconv.FormatInt(int64(res.TimeRemaining.Seconds()), 10))
			w.Header().Set("X-Session-Requests", strconv.FormatInt(res.RequestCount, 10))
			ctx := context.WithValue(r.Context(), TrackResultContextKey, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func TrackResultFromContext(ctx context.Context) (session.TrackResult, bool) {
	res, ok := ctx.Value(TrackResultContextKey).(session.TrackResult)
	return res, ok
}
