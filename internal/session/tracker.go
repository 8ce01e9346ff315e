package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/sandeepkv93/session-lifecycle-service/internal/domain"
	"github.com/sandeepkv93/session-lifecycle-service/internal/observability"
)

// TrackInput is what the request pipeline knows about an authenticated call.
type TrackInput struct {
	SessionID string
	UserID    string
	IP        string
	UserAgent string
}

// TrackResult is the explicit outcome handed back to the pipeline. When OK is
// false the request must be rejected with Reason and no further
// session-dependent work attempted.
type TrackResult struct {
	OK            bool
	Reason        string
	TimeRemaining time.Duration
	RequestCount  int64
	Warned        bool
}

// Tracker ties the registry and the evaluator to the external collaborators.
// One instance serves every request plus the sweeper.
type Tracker struct {
	registry *Registry
	limits   Limits
	revoker  TokenRevoker
	audit    AuditRecorder
	logger   *slog.Logger
	clock    Clock
}

func NewTracker(registry *Registry, limits Limits, revoker TokenRevoker, audit AuditRecorder, logger *slog.Logger, clock Clock) *Tracker {
	if clock == nil {
		clock = time.Now
	}
	return &Tracker{
		registry: registry,
		limits:   limits,
		revoker:  revoker,
		audit:    audit,
		logger:   logger,
		clock:    clock,
	}
}

func (t *Tracker) Registry() *Registry { return t.registry }

func (t *Tracker) Limits() Limits { return t.limits }

// Track processes one authenticated request. An unknown session ID is not an
// error: the token store is the source of truth and the registry only a
// derivative, so the record is created on first sight.
//
// Expiry is judged on the record as it stood when the request arrived. A
// session idle past its limit is rejected with the inactivity reason and its
// activity clock is not reset; only a surviving request counts and touches.
func (t *Tracker) Track(ctx context.Context, in TrackInput) TrackResult {
	now := t.clock()
	var arrival Evaluation
	rec, created, live := t.registry.Observe(in.SessionID, in.UserID, now, in.IP, in.UserAgent,
		func(current domain.SessionRecord) bool {
			arrival = Evaluate(&current, now, t.limits)
			return !arrival.Expired
		})
	if created {
		observability.RecordSessionCreated(ctx)
		t.recordEvent(ctx, domain.SessionEvent{
			UserID:    in.UserID,
			SessionID: in.SessionID,
			Type:      domain.EventSessionCreated,
			Severity:  domain.SeverityInfo,
			IP:        in.IP,
			UserAgent: in.UserAgent,
		})
	}

	if !live {
		t.expire(ctx, in.SessionID, arrival.Reason, domain.EventSessionExpired, now)
		return TrackResult{Reason: arrival.Reason}
	}

	// The touch reset the idle window; re-evaluate so TimeRemaining reflects
	// the state this request leaves behind. The warning decision stays with
	// the arrival state: it is the gap before this request, or the nearing
	// absolute limit, that the user needs to hear about.
	refreshed := Evaluate(&rec, now, t.limits)
	res := TrackResult{
		OK:            true,
		TimeRemaining: refreshed.TimeRemaining,
		RequestCount:  rec.RequestCount,
	}
	if arrival.WarningNeeded && t.registry.SetWarningIssued(in.SessionID) {
		res.Warned = true
		observability.RecordTimeoutWarning(ctx)
		observability.Audit(ctx, domain.EventSessionTimeoutWarning,
			"user_id", rec.UserID,
			"session_id", rec.SessionID,
			"time_remaining", arrival.TimeRemaining.String(),
		)
		t.recordEvent(ctx, domain.SessionEvent{
			UserID:       rec.UserID,
			SessionID:    rec.SessionID,
			Type:         domain.EventSessionTimeoutWarning,
			Severity:     domain.SeverityWarning,
			DurationMS:   rec.Duration(now).Milliseconds(),
			RequestCount: rec.RequestCount,
			IP:           rec.IP,
			UserAgent:    rec.UserAgent,
		})
	}
	return res
}

// Terminate force-expires a session on behalf of the administrative surface.
// It reports whether the session was present.
func (t *Tracker) Terminate(ctx context.Context, sessionID string) bool {
	return t.expire(ctx, sessionID, ReasonManual, domain.EventSessionTerminated, t.clock())
}

// expire is the single expiry-handling path shared by Track, Terminate and
// the sweeper. Removal comes first and gates the side effects: whichever
// caller wins the Remove performs revocation and audit exactly once, the
// loser does nothing. Collaborator failures are logged and never reverse the
// removal.
func (t *Tracker) expire(ctx context.Context, sessionID, reason, eventType string, now time.Time) bool {
	rec, ok := t.registry.Remove(sessionID)
	if !ok {
		return false
	}

	observability.RecordSessionExpiration(ctx, reason)
	if err := t.revoker.Revoke(ctx, sessionID, reason); err != nil {
		t.logger.Warn("session token revocation failed",
			"session_id", sessionID,
			"reason", reason,
			"error", err,
		)
	}
	observability.Audit(ctx, eventType,
		"user_id", rec.UserID,
		"session_id", rec.SessionID,
		"reason", reason,
		"duration", rec.Duration(now).String(),
		"request_count", rec.RequestCount,
	)
	t.recordEvent(ctx, domain.SessionEvent{
		UserID:       rec.UserID,
		SessionID:    rec.SessionID,
		Type:         eventType,
		Severity:     domain.SeverityInfo,
		Reason:       reason,
		DurationMS:   rec.Duration(now).Milliseconds(),
		RequestCount: rec.RequestCount,
		IP:           rec.IP,
		UserAgent:    rec.UserAgent,
	})
	return true
}

func (t *Tracker) recordEvent(ctx context.Context, ev domain.SessionEvent) {
	if t.audit == nil {
		return
	}
	if err := t.audit.Record(ctx, ev); err != nil {
		t.logger.Warn("session audit event not persisted",
			"session_id", ev.SessionID,
			"type", ev.Type,
			"error", err,
		)
	}
}
