package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sandeepkv93/session-lifecycle-service/internal/http/middleware"
	"github.com/sandeepkv93/session-lifecycle-service/internal/http/response"
	"github.com/sandeepkv93/session-lifecycle-service/internal/service"
)

type SessionHandler struct {
	admin *service.SessionAdminService
}

func NewSessionHandler(admin *service.SessionAdminService) *SessionHandler {
	return &SessionHandler{admin: admin}
}

// Me echoes the caller's identity and the tracker's view of the current
// request, so clients can render "time remaining" without a dedicated poll
// endpoint.
func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing authentication context", nil)
		return
	}
	body := map[string]any{
		"user_id":    claims.Subject,
		"session_id": claims.SessionID,
	}
	if res, ok := middleware.TrackResultFromContext(r.Context()); ok {
		body["request_count"] = res.RequestCount
		body["time_remaining"] = res.TimeRemaining.String()
	}
	response.JSON(w, r, http.StatusOK, body)
}

// Sessions lists the caller's live sessions across devices.
func (h *SessionHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing authentication context", nil)
		return
	}
	views := h.admin.ListActiveSessions(claims.Subject, claims.SessionID)
	response.JSON(w, r, http.StatusOK, views)
}

// TerminateOwnSession lets a user force-terminate one of their own sessions
// (log out another device). Ownership is checked against the registry before
// the shared expiry path runs.
func (h *SessionHandler) TerminateOwnSession(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing authentication context", nil)
		return
	}
	sessionID := chi.URLParam(r, "session_id")
	owned := false
	for _, view := range h.admin.ListActiveSessions(claims.Subject, claims.SessionID) {
		if view.SessionID == sessionID {
			owned = true
			break
		}
	}
	if !owned {
		response.Error(w, r, http.StatusNotFound, "SESSION_NOT_FOUND", "no such session for this user", nil)
		return
	}
	h.admin.TerminateSession(r.Context(), sessionID)
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "terminated"})
}

// TerminateSession is the operator entry point: any session, no ownership
// check.
func (h *SessionHandler) TerminateSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	if !h.admin.TerminateSession(r.Context(), sessionID) {
		response.Error(w, r, http.StatusNotFound, "SESSION_NOT_FOUND", "session not present in registry", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "terminated"})
}

func (h *SessionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, h.admin.Stats())
}
