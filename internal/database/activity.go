package database

import (
	"context"
	"encoding/json"

	"wati-proxy/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActivityStore appends and lists audit entries. OnAppend, when set, is called
// with every row that was written.
type ActivityStore struct {
	db       *gorm.DB
	OnAppend func(models.ActivityLog)
}

func NewActivityStore(db *gorm.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

// Append writes one entry. A nil details value is stored as {}.
func (s *ActivityStore) Append(ctx context.Context, action string, details any) (*models.ActivityLog, error) {
	raw, err := encodeDetails(details)
	if err != nil {
		return nil, err
	}

	entry := models.ActivityLog{Action: action, Details: raw}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, err
	}
	if s.OnAppend != nil {
		s.OnAppend(entry)
	}
	return &entry, nil
}

// Recent returns the newest entries first.
func (s *ActivityStore) Recent(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	logs := []models.ActivityLog{}
	err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Limit(limit).Find(&logs).Error
	return logs, err
}

func encodeDetails(details any) (datatypes.JSON, error) {
	switch v := details.(type) {
	case nil:
		return datatypes.JSON("{}"), nil
	case json.RawMessage:
		if len(v) == 0 || string(v) == "null" {
			return datatypes.JSON("{}"), nil
		}
		return datatypes.JSON(v), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return datatypes.JSON(b), nil
	}
}
