package database

import (
	"context"
	"encoding/json"

	"wati-proxy/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingsStore reads and writes the key/value settings table.
type SettingsStore struct {
	db *gorm.DB
}

func NewSettingsStore(db *gorm.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Get returns the setting stored under key, or ErrNotFound.
func (s *SettingsStore) Get(ctx context.Context, key string) (*models.Setting, error) {
	var setting models.Setting
	if err := s.db.WithContext(ctx).Where("key = ?", key).First(&setting).Error; err != nil {
		return nil, notFound(err)
	}
	return &setting, nil
}

// Put inserts or replaces the value stored under key.
func (s *SettingsStore) Put(ctx context.Context, key string, value json.RawMessage) (*models.Setting, error) {
	setting := models.Setting{Key: key, Value: datatypes.JSON(value)}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, key)
}

// Strings resolves keys to plain string values. Keys that are missing, null or
// not a JSON string come back as "".
func (s *SettingsStore) Strings(ctx context.Context, keys ...string) (map[string]string, error) {
	var rows []models.Setting
	if err := s.db.WithContext(ctx).Where("key IN ?", keys).Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[string]string, len(keys))
	for _, k := range keys {
		out[k] = ""
	}
	for _, row := range rows {
		var v string
		if err := json.Unmarshal(row.Value, &v); err == nil {
			out[row.Key] = v
		}
	}
	return out, nil
}
