package main

import (
	"flag"

	"wati-proxy/internal/config"
	"wati-proxy/internal/database"
	"wati-proxy/internal/models"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const batchSize = 500

// Copies every table from the SQLite file at DB_PATH into the Postgres store.
// Rows already present in Postgres are left alone, so the tool can be rerun.
func main() {
	source := flag.String("source", "", "SQLite file to read (defaults to DB_PATH)")
	flag.Parse()

	cfg := config.LoadConfig()
	if *source == "" {
		*source = cfg.DBPath
	}

	sqliteDB, err := gorm.Open(sqlite.Open(*source), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to SQLite")
	}
	log.Info().Str("path", *source).Msg("Connected to SQLite")

	cfg.DBDriver = config.DriverPostgres
	pgDB, err := database.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.Close(pgDB)

	log.Info().Msg("Starting data migration...")

	// contacts first, messages reference them
	failed := false
	failed = report(migrateTable[models.Contact](sqliteDB, pgDB, "contacts")) || failed
	failed = report(migrateTable[models.Message](sqliteDB, pgDB, "messages")) || failed
	failed = report(migrateTable[models.Campaign](sqliteDB, pgDB, "campaigns")) || failed
	failed = report(migrateTable[models.Template](sqliteDB, pgDB, "templates")) || failed
	failed = report(migrateTable[models.Setting](sqliteDB, pgDB, "settings")) || failed
	failed = report(migrateTable[models.ActivityLog](sqliteDB, pgDB, "activity_logs")) || failed

	if failed {
		log.Fatal().Msg("Migration finished with errors")
	}
	log.Info().Msg("Migration completed! Run sync_sequences before serving traffic.")
}

// tableResult counts rows read from the source and rows actually inserted.
// Rows already present in the destination are read but not copied.
type tableResult struct {
	Table  string
	Read   int64
	Copied int64
	Err    error
}

// migrateTable streams one table in batches into dst.
func migrateTable[T any](src, dst *gorm.DB, table string) tableResult {
	log.Info().Str("table", table).Msg("Migrating table")

	res := tableResult{Table: table}
	var batch []T
	result := src.Table(table).FindInBatches(&batch, batchSize, func(_ *gorm.DB, n int) error {
		res.Read += int64(n)
		return dst.Transaction(func(tx *gorm.DB) error {
			insert := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&batch)
			if insert.Error != nil {
				return insert.Error
			}
			res.Copied += insert.RowsAffected
			return nil
		})
	})
	res.Err = result.Error
	return res
}

// report logs one table's outcome and reports whether it failed.
func report(res tableResult) bool {
	if res.Err != nil {
		log.Error().Err(res.Err).Str("table", res.Table).Msg("Error migrating table")
		return true
	}
	log.Info().
		Str("table", res.Table).
		Int64("read", res.Read).
		Int64("copied", res.Copied).
		Int64("skipped", res.Read-res.Copied).
		Msg("Successfully migrated table")
	return false
}
