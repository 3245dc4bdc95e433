package database

import (
	"context"

	"wati-proxy/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CampaignStore struct {
	db *gorm.DB
}

func NewCampaignStore(db *gorm.DB) *CampaignStore {
	return &CampaignStore{db: db}
}

// List returns every campaign, newest first.
func (s *CampaignStore) List(ctx context.Context) ([]models.Campaign, error) {
	campaigns := []models.Campaign{}
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&campaigns).Error
	return campaigns, err
}

func (s *CampaignStore) Get(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := s.db.WithContext(ctx).First(&campaign, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &campaign, nil
}

func (s *CampaignStore) Create(ctx context.Context, campaign *models.Campaign) error {
	return s.db.WithContext(ctx).Create(campaign).Error
}

func (s *CampaignStore) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*models.Campaign, error) {
	if err := updateByID(ctx, s.db, &models.Campaign{}, id, fields); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}
