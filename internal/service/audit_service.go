package service

import (
	"context"
	"encoding/json"

	"formsportal/internal/model"
	"formsportal/internal/repository"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// AuditService keeps the admin audit trail.
type AuditService interface {
	// Record writes one entry. A failed write is logged and otherwise
	// ignored; the audited change has already happened.
	Record(ctx context.Context, actor Actor, action, entityID, entityName string, details interface{})
	List(ctx context.Context, action string, page, limit int) ([]model.AuditLog, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
	log  *zap.Logger
}

func NewAuditService(repo repository.AuditRepository, log *zap.Logger) AuditService {
	if log == nil {
		log = zap.NewNop()
	}
	return &auditService{repo: repo, log: log}
}

func (s *auditService) Record(ctx context.Context, actor Actor, action, entityID, entityName string, details interface{}) {
	raw := []byte("{}")
	if details != nil {
		if b, err := json.Marshal(details); err == nil {
			raw = b
		}
	}

	entry := &model.AuditLog{
		ActorID:    actor.UserID,
		ActorName:  actor.Name,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    datatypes.JSON(raw),
	}
	if err := s.repo.Log(ctx, entry); err != nil {
		s.log.Warn("failed to write audit log",
			zap.String("action", action),
			zap.String("entity_id", entityID),
			zap.Error(err),
		)
	}
}

func (s *auditService) List(ctx context.Context, action string, page, limit int) ([]model.AuditLog, int64, error) {
	logs, total, err := s.repo.List(ctx, action, page, limit)
	if err != nil {
		s.log.Error("failed to list audit logs", zap.Error(err))
		return nil, 0, internalError(MsgLoadFailed, err)
	}
	return logs, total, nil
}
