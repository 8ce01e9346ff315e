package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sandeepkv93/session-lifecycle-service/internal/health"
	"github.com/sandeepkv93/session-lifecycle-service/internal/http/handler"
	"github.com/sandeepkv93/session-lifecycle-service/internal/http/middleware"
	"github.com/sandeepkv93/session-lifecycle-service/internal/http/response"
	"github.com/sandeepkv93/session-lifecycle-service/internal/security"
	"github.com/sandeepkv93/session-lifecycle-service/internal/session"
)

type Dependencies struct {
	SessionHandler *handler.SessionHandler
	JWTManager     *security.JWTManager
	Tracker        *session.Tracker
	Revocations    middleware.RevocationChecker
	Readiness      *health.ProbeRunner
	EnableOTelHTTP bool
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(dep.JWTManager, dep.Revocations))
		r.Use(middleware.ActivityMiddleware(dep.Tracker))

		r.Get("/me", dep.SessionHandler.Me)
		r.Get("/me/sessions", dep.SessionHandler.Sessions)
		r.Group(func(r chi.Router) {
			r.Use(middleware.CSRFMiddleware)
			r.Delete("/me/sessions/{session_id}", dep.SessionHandler.TerminateOwnSession)
		})

		r.Route("/admin/sessions", func(r chi.Router) {
			r.Use(middleware.RequireRole("operator"))
			r.Get("/stats", dep.SessionHandler.Stats)
			r.With(middleware.CSRFMiddleware).Delete("/{session_id}", dep.SessionHandler.TerminateSession)
		})
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
