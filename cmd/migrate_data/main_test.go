package main

import (
	"fmt"
	"testing"

	"wati-proxy/internal/database"
	"wati-proxy/internal/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openMemory(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func TestMigrateTableCountsOnlyInsertedRows(t *testing.T) {
	src := openMemory(t)
	dst := openMemory(t)

	for i := 0; i < batchSize+3; i++ {
		c := models.Contact{Name: fmt.Sprintf("c%d", i), Phone: fmt.Sprintf("%d", 1000+i)}
		if err := src.Create(&c).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
		// the first two already exist in the destination
		if i < 2 {
			if err := dst.Create(&c).Error; err != nil {
				t.Fatalf("seed destination: %v", err)
			}
		}
	}

	res := migrateTable[models.Contact](src, dst, "contacts")
	if res.Err != nil {
		t.Fatalf("migrate: %v", res.Err)
	}
	if res.Read != batchSize+3 {
		t.Errorf("read = %d, want %d", res.Read, batchSize+3)
	}
	if res.Copied != batchSize+1 {
		t.Errorf("copied = %d, want %d", res.Copied, batchSize+1)
	}

	again := migrateTable[models.Contact](src, dst, "contacts")
	if again.Err != nil || again.Copied != 0 {
		t.Errorf("rerun copied %d rows (err %v), want 0", again.Copied, again.Err)
	}

	var count int64
	dst.Model(&models.Contact{}).Count(&count)
	if count != batchSize+3 {
		t.Errorf("destination holds %d rows, want %d", count, batchSize+3)
	}
}
