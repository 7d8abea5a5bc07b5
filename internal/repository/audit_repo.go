package repository

import (
	"context"

	"backoffice/internal/models"

	"gorm.io/gorm"
)

type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Create(ctx context.Context, log *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// ListForResource returns the history of one row, oldest first.
func (r *AuditLogRepository) ListForResource(ctx context.Context, resource string, id uint) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := r.db.WithContext(ctx).
		Where("resource = ? AND resource_id = ?", resource, id).
		Order("created_at ASC, id ASC").
		Find(&logs).Error
	return logs, err
}
