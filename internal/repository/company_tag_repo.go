package repository

import (
	"context"

	"backoffice/internal/models"

	"gorm.io/gorm"
)

type CompanyTagRepository struct {
	db *gorm.DB
}

func NewCompanyTagRepository(db *gorm.DB) *CompanyTagRepository {
	return &CompanyTagRepository{db: db}
}

func (r *CompanyTagRepository) GetByID(ctx context.Context, id uint) (*models.CompanyTag, error) {
	var tag models.CompanyTag
	if err := r.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &tag, nil
}

func (r *CompanyTagRepository) ListActive(ctx context.Context) ([]models.CompanyTag, error) {
	var tags []models.CompanyTag
	err := r.db.WithContext(ctx).Where("active = ?", true).Order("name ASC").Find(&tags).Error
	return tags, err
}
