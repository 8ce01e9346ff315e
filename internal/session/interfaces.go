package session

import (
	"context"

	"github.com/sandeepkv93/session-lifecycle-service/internal/domain"
)

// TokenRevoker revokes the external credential bound to a session when the
// tracker declares it dead. Calls are best-effort: a failed revoke never
// reverses a local expiry decision.
type TokenRevoker interface {
	Revoke(ctx context.Context, sessionID, reason string) error
}

// AuditRecorder persists session lifecycle events. Failures are logged by the
// caller and otherwise swallowed.
type AuditRecorder interface {
	Record(ctx context.Context, event domain.SessionEvent) error
}
