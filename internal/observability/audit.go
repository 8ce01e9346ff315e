package observability

import (
	"context"
	"log/slog"
)

// Audit writes a structured audit line. Session lifecycle transitions go
// through here in addition to the persisted event trail, so operators can
// follow expiry decisions from logs alone.
func Audit(ctx context.Context, event string, attrs ...any) {
	base := []any{"event", event}
	base = append(base, attrs...)
	slog.InfoContext(ctx, "audit", base...)
}
