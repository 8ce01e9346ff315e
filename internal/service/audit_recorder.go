package service

import (
	"context"

	"github.com/sandeepkv93/session-lifecycle-service/internal/domain"
	"github.com/sandeepkv93/session-lifecycle-service/internal/repository"
)

// PersistingAuditRecorder writes session lifecycle events to the database.
// The tracker treats failures as best-effort, so this adapter stays thin and
// lets the error bubble up for logging there.
type PersistingAuditRecorder struct {
	events repository.SessionEventRepository
}

func NewPersistingAuditRecorder(events repository.SessionEventRepository) *PersistingAuditRecorder {
	return &PersistingAuditRecorder{events: events}
}

func (a *PersistingAuditRecorder) Record(_ context.Context, ev domain.SessionEvent) error {
	return a.events.Create(&ev)
}

// NoopAuditRecorder drops events, for dev profiles without a database.
type NoopAuditRecorder struct{}

func NewNoopAuditRecorder() *NoopAuditRecorder { return &NoopAuditRecorder{} }

func (*NoopAuditRecorder) Record(context.Context, domain.SessionEvent) error { return nil }
