package domain

import "time"

const (
	EventSessionExpired        = "session_expired"
	EventSessionTimeoutWarning = "session_timeout_warning"
	EventSessionCreated        = "session_created"
	EventSessionTerminated     = "session_terminated"
)

const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
)

// SessionEvent is the persisted audit trail entry for session lifecycle
// transitions. Reason is only set for expiry/termination events.
type SessionEvent struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       string    `gorm:"size:64;index;not null" json:"user_id"`
	SessionID    string    `gorm:"size:128;index;not null" json:"session_id"`
	Type         string    `gorm:"size:48;index;not null" json:"type"`
	Severity     string    `gorm:"size:16;not null" json:"severity"`
	Reason       string    `gorm:"size:64" json:"reason,omitempty"`
	DurationMS   int64     `json:"duration_ms"`
	RequestCount int64     `json:"request_count"`
	IP           string    `gorm:"size:64" json:"ip,omitempty"`
	UserAgent    string    `gorm:"size:512" json:"user_agent,omitempty"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}
