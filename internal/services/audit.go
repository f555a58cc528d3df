package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wellbeam/burnout-backend/internal/logger"
	"github.com/wellbeam/burnout-backend/internal/repos"
	"github.com/wellbeam/burnout-backend/internal/types"
)

// AuditService records user actions. Recording is observability, not
// correctness: failures are logged and swallowed, never surfaced to the
// caller or allowed to fail the operation being audited.
type AuditService interface {
	Record(ctx context.Context, userID uuid.UUID, action, details string)
}

type auditService struct {
	db           *gorm.DB
	log          *logger.Logger
	auditLogRepo repos.AuditLogRepo
}

func NewAuditService(db *gorm.DB, log *logger.Logger, auditLogRepo repos.AuditLogRepo) AuditService {
	return &auditService{
		db:           db,
		log:          log.With("service", "AuditService"),
		auditLogRepo: auditLogRepo,
	}
}

func (s *auditService) Record(ctx context.Context, userID uuid.UUID, action, details string) {
	if userID == uuid.Nil {
		return
	}
	entry := &types.AuditLog{
		UserID:  userID,
		Action:  action,
		Details: details,
	}
	if _, err := s.auditLogRepo.Create(ctx, nil, []*types.AuditLog{entry}); err != nil {
		s.log.Warn("audit write failed", "action", action, "user_id", userID, "error", err)
	}
}
