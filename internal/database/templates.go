package database

import (
	"context"

	"wati-proxy/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TemplateStore struct {
	db *gorm.DB
}

func NewTemplateStore(db *gorm.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

func (s *TemplateStore) List(ctx context.Context) ([]models.Template, error) {
	templates := []models.Template{}
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&templates).Error
	return templates, err
}

func (s *TemplateStore) Get(ctx context.Context, id uuid.UUID) (*models.Template, error) {
	var tmpl models.Template
	if err := s.db.WithContext(ctx).First(&tmpl, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &tmpl, nil
}

func (s *TemplateStore) Create(ctx context.Context, tmpl *models.Template) error {
	return s.db.WithContext(ctx).Create(tmpl).Error
}

func (s *TemplateStore) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*models.Template, error) {
	if err := updateByID(ctx, s.db, &models.Template{}, id, fields); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *TemplateStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&models.Template{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
