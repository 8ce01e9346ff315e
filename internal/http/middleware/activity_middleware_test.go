package middleware

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sandeepkv93/session-lifecycle-service/internal/domain"
	"github.com/sandeepkv93/session-lifecycle-service/internal/security"
	"github.com/sandeepkv93/session-lifecycle-service/internal/session"
)

type trackerClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *trackerClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *trackerClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type discardRevoker struct{}

func (discardRevoker) Revoke(context.Context, string, string) error { return nil }

type discardAudit struct{}

func (discardAudit) Record(context.Context, domain.SessionEvent) error { return nil }

func newActivityHarness(t *testing.T) (http.Handler, *trackerClock) {
	t.Helper()
	clock := &trackerClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	limits := session.Limits{
		IdleTimeout:     30 * time.Minute,
		AbsoluteTimeout: 8 * time.Hour,
		WarningLeadTime: 5 * time.Minute,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tracker := session.NewTracker(session.NewRegistry(), limits, discardRevoker{}, discardAudit{}, logger, clock.Now)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := TrackResultFromContext(r.Context()); !ok {
			t.Fatal("track result missing from context")
		}
		w.WriteHeader(http.StatusNoContent)
	})
	withClaims := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := &security.Claims{SessionID: "sess-1"}
			claims.Subject = "user-1"
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ClaimsContextKey, claims)))
		})
	}
	return withClaims(ActivityMiddleware(tracker)(inner)), clock
}

func TestActivityMiddlewareAnnotatesLiveSession(t *testing.T) {
	h, _ := newActivityHarness(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if rr.Header().Get("X-Session-Requests") != "1" {
		t.Fatalf("X-Session-Requests=%q want 1", rr.Header().Get("X-Session-Requests"))
	}
	if rr.Header().Get("X-Session-Time-Remaining") != "1800" {
		t.Fatalf("X-Session-Time-Remaining=%q want 1800", rr.Header().Get("X-Session-Time-Remaining"))
	}
}

func TestActivityMiddlewareRejectsIdleExpiry(t *testing.T) {
	h, clock := newActivityHarness(t)

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
	if first.Code != http.StatusNoContent {
		t.Fatalf("priming request failed: %d", first.Code)
	}

	clock.Advance(31 * time.Minute)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				Reason string `json:"reason"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error.Code != CodeSessionExpiredInactivity {
		t.Fatalf("code=%q want %q", body.Error.Code, CodeSessionExpiredInactivity)
	}
	if body.Error.Details.Reason != session.ReasonInactivity {
		t.Fatalf("reason=%q want %q", body.Error.Details.Reason, session.ReasonInactivity)
	}
}

func TestActivityMiddlewareMissingClaimsRejected(t *testing.T) {
	clock := &trackerClock{now: time.Now()}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tracker := session.NewTracker(session.NewRegistry(), session.Limits{
		IdleTimeout: time.Minute, AbsoluteTimeout: time.Hour, WarningLeadTime: time.Second,
	}, discardRevoker{}, discardAudit{}, logger, clock.Now)
	h := ActivityMiddleware(tracker)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without claims, got %d", rr.Code)
	}
}
