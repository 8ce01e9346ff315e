package session

import (
	"time"

	"github.com/sandeepkv93/session-lifecycle-service/internal/domain"
)

// Expiry reasons surfaced to the request pipeline and the audit trail.
const (
	ReasonInactivity = "inactivity"
	ReasonAbsolute   = "absolute timeout"
	ReasonManual     = "manual termination"
)

// Limits holds the three durations that bound a session's life.
type Limits struct {
	// IdleTimeout is the maximum gap between consecutive requests.
	IdleTimeout time.Duration
	// AbsoluteTimeout caps total session lifetime regardless of activity.
	AbsoluteTimeout time.Duration
	// WarningLeadTime is how long before expiry a warning is issued.
	// Must be shorter than IdleTimeout; config validation enforces this.
	WarningLeadTime time.Duration
}

// Evaluation is the outcome of checking one record against Limits at a
// point in time.
type Evaluation struct {
	Expired       bool
	Reason        string
	WarningNeeded bool
	TimeRemaining time.Duration
}

// Evaluate computes the expiry state for rec at now. It is a pure function:
// no side effects, no clock reads, so the per-request path and the sweeper
// can never diverge on the same inputs.
//
// Absolute timeout wins over inactivity when both have elapsed. The boundary
// is strict: a session exactly at its limit is not yet expired.
func Evaluate(rec *domain.SessionRecord, now time.Time, limits Limits) Evaluation {
	totalElapsed := now.Sub(rec.CreatedAt)
	idleElapsed := now.Sub(rec.LastActivity)

	if totalElapsed > limits.AbsoluteTimeout {
		return Evaluation{Expired: true, Reason: ReasonAbsolute}
	}
	if idleElapsed > limits.IdleTimeout {
		return Evaluation{Expired: true, Reason: ReasonInactivity}
	}

	remaining := limits.IdleTimeout - idleElapsed
	if untilAbsolute := limits.AbsoluteTimeout - totalElapsed; untilAbsolute < remaining {
		remaining = untilAbsolute
	}
	return Evaluation{
		TimeRemaining: remaining,
		WarningNeeded: remaining > 0 && remaining <= limits.WarningLeadTime,
	}
}
