package service

import (
	"context"
	"time"

	"github.com/sandeepkv93/session-lifecycle-service/internal/session"
)

// SessionView is the read model for the administrative surface. TimeRemaining
// is computed at snapshot time and goes stale immediately; it is display
// data, not an authorization input.
type SessionView struct {
	SessionID     string    `json:"session_id"`
	UserID        string    `json:"user_id"`
	CreatedAt     time.Time `json:"created_at"`
	LastActivity  time.Time `json:"last_activity"`
	RequestCount  int64     `json:"request_count"`
	TimeRemaining string    `json:"time_remaining"`
	WarningIssued bool      `json:"warning_issued"`
	UserAgent     string    `json:"user_agent"`
	IP            string    `json:"ip"`
	IsCurrent     bool      `json:"is_current"`
}

// RegistryStats summarizes the live registry for operators.
type RegistryStats struct {
	ActiveSessions int            `json:"active_sessions"`
	ActiveUsers    int            `json:"active_users"`
	SessionsByUser map[string]int `json:"sessions_by_user"`
}

// SessionAdminService exposes the tracker's administrative surface: listing a
// user's live sessions, forced termination, and registry statistics.
type SessionAdminService struct {
	tracker *session.Tracker
	clock   session.Clock
}

func NewSessionAdminService(tracker *session.Tracker, clock session.Clock) *SessionAdminService {
	if clock == nil {
		clock = time.Now
	}
	return &SessionAdminService{tracker: tracker, clock: clock}
}

func (s *SessionAdminService) ListActiveSessions(userID, currentSessionID string) []SessionView {
	now := s.clock()
	limits := s.tracker.Limits()
	records := s.tracker.Registry().ListByUser(userID)
	views := make([]SessionView, 0, len(records))
	for _, rec := range records {
		eval := session.Evaluate(&rec, now, limits)
		remaining := eval.TimeRemaining
		if eval.Expired {
			remaining = 0
		}
		views = append(views, SessionView{
			SessionID:     rec.SessionID,
			UserID:        rec.UserID,
			CreatedAt:     rec.CreatedAt,
			LastActivity:  rec.LastActivity,
			RequestCount:  rec.RequestCount,
			TimeRemaining: remaining.String(),
			WarningIssued: rec.WarningIssued,
			UserAgent:     rec.UserAgent,
			IP:            rec.IP,
			IsCurrent:     rec.SessionID == currentSessionID,
		})
	}
	return views
}

// TerminateSession force-expires a session. It reports whether the session
// was present in the registry.
func (s *SessionAdminService) TerminateSession(ctx context.Context, sessionID string) bool {
	return s.tracker.Terminate(ctx, sessionID)
}

func (s *SessionAdminService) Stats() RegistryStats {
	byUser := make(map[string]int)
	for _, rec := range s.tracker.Registry().Snapshot() {
		byUser[rec.UserID]++
	}
	return RegistryStats{
		ActiveSessions: s.tracker.Registry().Len(),
		ActiveUsers:    len(byUser),
		SessionsByUser: byUser,
	}
}
