package repository

import (
	"context"

	"formsportal/internal/model"

	"gorm.io/gorm"
)

type StatusLogRepository interface {
	Log(ctx context.Context, entry *model.StatusLog) error
	ListByRequest(ctx context.Context, formType string, requestID int64) ([]model.StatusLog, error)
}

type statusLogRepository struct {
	db *gorm.DB
}

func NewStatusLogRepository(db *gorm.DB) StatusLogRepository {
	return &statusLogRepository{db: db}
}

func (r *statusLogRepository) Log(ctx context.Context, entry *model.StatusLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *statusLogRepository) ListByRequest(ctx context.Context, formType string, requestID int64) ([]model.StatusLog, error) {
	logs := []model.StatusLog{}
	if err := GetDB(ctx, r.db).
		Where("form_type = ? AND request_id = ?", formType, requestID).
		Order("created_at ASC").
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
