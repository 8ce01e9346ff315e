package domain

import "time"

// SessionRecord is the in-memory activity state for one live session. The
// session ID is minted by the external token issuer; the tracker only indexes
// by it. Records are process-local and rebuilt from traffic after a restart.
type SessionRecord struct {
	SessionID     string
	UserID        string
	CreatedAt     time.Time
	LastActivity  time.Time
	RequestCount  int64
	WarningIssued bool
	IP            string
	UserAgent     string
}

// Clone returns a copy safe to hand outside the registry lock.
func (r *SessionRecord) Clone() SessionRecord {
	return *r
}

// Duration is the session lifetime observed so far.
func (r *SessionRecord) Duration(now time.Time) time.Duration {
	return now.Sub(r.CreatedAt)
}
