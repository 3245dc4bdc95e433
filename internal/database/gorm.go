package database

import (
	"context"
	"errors"
	"fmt"

	"wati-proxy/internal/config"
	"wati-proxy/internal/models"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when an addressed row does not exist.
var ErrNotFound = errors.New("record not found")

// Open connects to the configured store, sizes the pool and runs auto-migration.
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN())
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DBPath)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	level := logger.Warn
	if cfg.LogLevel == "debug" {
		level = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.DBDriver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	log.Info().Str("driver", cfg.DBDriver).Msg("Connected to database")

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates every table the service uses.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to run auto-migration: %w", err)
	}
	log.Info().Msg("Database migration completed")
	return nil
}

// Ping runs a cheap query used by health checks and reports the contact count.
func Ping(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&models.Contact{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// updateByID applies a partial update to one row. An empty field set only
// checks that the row exists, which the caller's follow-up read does.
func updateByID(ctx context.Context, db *gorm.DB, model interface{}, id interface{}, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	result := db.WithContext(ctx).Model(model).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
