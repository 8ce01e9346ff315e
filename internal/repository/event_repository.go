package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sandeepkv93/session-lifecycle-service/internal/domain"
	"github.com/sandeepkv93/session-lifecycle-service/internal/observability"

	"gorm.io/gorm"
)

var ErrEventNotFound = errors.New("session event not found")

// SessionEventRepository is the persisted audit trail for session lifecycle
// transitions.
type SessionEventRepository interface {
	Create(ev *domain.SessionEvent) error
	ListBySessionID(sessionID string) ([]domain.SessionEvent, error)
	ListByUserID(userID string, limit int) ([]domain.SessionEvent, error)
	CountByType(eventType string) (int64, error)
	CleanupOlderThan(cutoff time.Time) (int64, error)
}

type GormSessionEventRepository struct{ db *gorm.DB }

func NewSessionEventRepository(db *gorm.DB) SessionEventRepository {
	return &GormSessionEventRepository{db: db}
}

func (r *GormSessionEventRepository) Create(ev *domain.SessionEvent) error {
	err := r.db.Create(ev).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "session_event", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "session_event", "create", "success")
	return nil
}

func (r *GormSessionEventRepository) ListBySessionID(sessionID string) ([]domain.SessionEvent, error) {
	var events []domain.SessionEvent
	err := r.db.Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "session_event", "list_by_session_id", "error")
		return events, err
	}
	observability.RecordRepositoryOperation(context.Background(), "session_event", "list_by_session_id", "success")
	return events, nil
}

func (r *GormSessionEventRepository) ListByUserID(userID string, limit int) ([]domain.SessionEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	var events []domain.SessionEvent
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "session_event", "list_by_user_id", "error")
		return events, err
	}
	observability.RecordRepositoryOperation(context.Background(), "session_event", "list_by_user_id", "success")
	return events, nil
}

func (r *GormSessionEventRepository) CountByType(eventType string) (int64, error) {
	var count int64
	err := r.db.Model(&domain.SessionEvent{}).Where("type = ?", eventType).Count(&count).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "session_event", "count_by_type", "error")
		return 0, err
	}
	observability.RecordRepositoryOperation(context.Background(), "session_event", "count_by_type", "success")
	return count, nil
}

func (r *GormSessionEventRepository) CleanupOlderThan(cutoff time.Time) (int64, error) {
	res := r.db.Where("created_at < ?", cutoff).Delete(&domain.SessionEvent{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "session_event", "cleanup_older_than", "error")
		return res.RowsAffected, res.Error
	}
	observability.RecordRepositoryOperation(context.Background(), "session_event", "cleanup_older_than", "success")
	return res.RowsAffected, nil
}
