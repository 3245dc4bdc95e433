package database

import (
	"context"

	"wati-proxy/internal/models"

	"gorm.io/gorm"
)

type MessageStore struct {
	db *gorm.DB
}

func NewMessageStore(db *gorm.DB) *MessageStore {
	return &MessageStore{db: db}
}

func (s *MessageStore) Create(ctx context.Context, msg *models.Message) error {
	return s.db.WithContext(ctx).Create(msg).Error
}

// UpdateStatus sets status and error message (nil clears it).
func (s *MessageStore) UpdateStatus(ctx context.Context, id uint, status string, errorMessage *string) (*models.Message, error) {
	result := s.db.WithContext(ctx).Model(&models.Message{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":        status,
		"error_message": errorMessage,
	})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var msg models.Message
	if err := s.db.WithContext(ctx).First(&msg, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &msg, nil
}

// Recent returns the newest messages with the owning contact's name and phone.
func (s *MessageStore) Recent(ctx context.Context, limit int) ([]models.Message, error) {
	messages := []models.Message{}
	err := s.db.WithContext(ctx).
		Preload("Contact", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "phone")
		}).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}
