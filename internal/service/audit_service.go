package service

import (
	"context"
	"fmt"
	"time"

	"supplytrack/internal/dto"
	"supplytrack/internal/model"
	"supplytrack/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditService exposes the read side of the audit trail. Writes happen inside
// the mutating services through recordAudit.
type AuditService interface {
	List(ctx context.Context, filter dto.AuditLogFilter) (*dto.AuditLogListResponse, error)
}

type auditService struct {
	repo repository.AuditLogRepository
}

func NewAuditService(repo repository.AuditLogRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) List(ctx context.Context, filter dto.AuditLogFilter) (*dto.AuditLogListResponse, error) {
	if filter.Action != "" && !model.AuditAction(filter.Action).Valid() {
		return nil, invalid("action", "oneof")
	}
	for field, v := range map[string]string{"date_from": filter.DateFrom, "date_to": filter.DateTo} {
		if v == "" {
			continue
		}
		if _, err := time.Parse(time.DateOnly, v); err != nil {
			return nil, invalid(field, "datetime")
		}
	}
	if filter.UserID != "" {
		if _, err := uuid.Parse(filter.UserID); err != nil {
			return nil, invalid("user", "uuid")
		}
	}
	logs, page, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.AuditLogListResponse{Data: make([]dto.AuditLogResponse, len(logs)), Pagination: page}
	for i := range logs {
		resp.Data[i] = auditToResponse(&logs[i])
	}
	return resp, nil
}

// recordAudit appends one audit row on tx. A failure here must fail the caller's
// transaction.
func recordAudit(tx *gorm.DB, repo repository.AuditLogRepository, actor Actor, supplyID *uuid.UUID, supplyName string, action model.AuditAction, details string) error {
	entry := &model.AuditLog{
		SupplyID:   supplyID,
		SupplyName: supplyName,
		Action:     action,
		UserID:     actor.userRef(),
		Username:   actor.Username,
		Details:    details,
	}
	if err := repo.CreateTx(tx, entry); err != nil {
		return fmt.Errorf("write %s audit: %w", action, err)
	}
	return nil
}

func auditToResponse(l *model.AuditLog) dto.AuditLogResponse {
	return dto.AuditLogResponse{
		ID:         l.ID.String(),
		SupplyID:   uuidString(l.SupplyID),
		SupplyName: l.SupplyName,
		Action:     string(l.Action),
		Timestamp:  l.Timestamp,
		UserID:     uuidString(l.UserID),
		Username:   l.Username,
		Details:    l.Details,
	}
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
