package main

import (
	"wati-proxy/internal/config"
	"wati-proxy/internal/database"

	"github.com/rs/zerolog/log"
)

// Tables with serial ids. Copying rows with explicit ids leaves their
// sequences behind, so the next insert would collide.
var tables = []string{
	"messages",
	"activity_logs",
}

// Run once after migrate_data and before the server takes traffic. Rows copied
// with their serial ids leave each sequence at 1, so the first new message or
// activity log would fail with a duplicate key.
func main() {
	cfg := config.LoadConfig()
	cfg.DBDriver = config.DriverPostgres

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.Close(db)

	log.Info().Msg("Syncing PostgreSQL sequences...")

	for _, table := range tables {
		query := "SELECT setval(pg_get_serial_sequence('" + table + "', 'id'), coalesce(max(id), 0) + 1, false) FROM " + table
		if err := db.Exec(query).Error; err != nil {
			log.Error().Err(err).Str("table", table).Msg("Error syncing sequence")
		} else {
			log.Info().Str("table", table).Msg("Successfully synced sequence")
		}
	}

	log.Info().Msg("DONE!")
}
