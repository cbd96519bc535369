package repository

import (
	"context"
	"fmt"
	"time"

	"supplytrack/internal/dto"
	"supplytrack/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLogRepository is append-only: there is no update or delete.
type AuditLogRepository interface {
	CreateTx(tx *gorm.DB, entry *model.AuditLog) error
	List(ctx context.Context, filter dto.AuditLogFilter) ([]model.AuditLog, dto.Pagination, error)
}

type auditLogRepo struct{ db *gorm.DB }

func NewAuditLogRepository(db *gorm.DB) AuditLogRepository { return &auditLogRepo{db: db} }

func (r *auditLogRepo) CreateTx(tx *gorm.DB, entry *model.AuditLog) error {
	return tx.Create(entry).Error
}

// List filters by action, user and an inclusive UTC date range, newest first.
func (r *auditLogRepo) List(ctx context.Context, filter dto.AuditLogFilter) ([]model.AuditLog, dto.Pagination, error) {
	q := r.db.WithContext(ctx).Model(&model.AuditLog{})

	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if id, err := uuid.Parse(filter.UserID); err == nil {
		q = q.Where("user_id = ?", id)
	}
	if filter.DateFrom != "" {
		from, err := time.ParseInLocation(time.DateOnly, filter.DateFrom, time.UTC)
		if err != nil {
			return nil, dto.Pagination{}, fmt.Errorf("date_from: %w", err)
		}
		q = q.Where("timestamp >= ?", from)
	}
	if filter.DateTo != "" {
		to, err := time.ParseInLocation(time.DateOnly, filter.DateTo, time.UTC)
		if err != nil {
			return nil, dto.Pagination{}, fmt.Errorf("date_to: %w", err)
		}
		// inclusive: everything before the start of the following day
		q = q.Where("timestamp < ?", to.AddDate(0, 0, 1))
	}

	var logs []model.AuditLog
	page, err := paginate(q, filter.Page, "timestamp DESC, id DESC", &logs)
	return logs, page, err
}
