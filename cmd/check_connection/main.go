package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"wati-proxy/internal/config"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Tries every port and user combination against DB_HOST and reports the first
// one that accepts a connection. Exits non-zero when none does.
func main() {
	ports := flag.String("ports", "5432,54321,6543,5433", "comma separated ports to try")
	users := flag.String("users", "", "comma separated users to try (defaults to DB_USER)")
	timeout := flag.Duration("timeout", 3*time.Second, "per attempt connect timeout")
	flag.Parse()

	cfg := config.LoadConfig()
	userList := splitFlag(*users)
	if len(userList) == 0 {
		userList = []string{cfg.DBUser}
	}

	for _, port := range splitFlag(*ports) {
		for _, user := range userList {
			target := fmt.Sprintf("%s@%s:%s", user, cfg.DBHost, port)
			log.Info().Str("target", target).Msg("Testing")

			probe := *cfg
			probe.DatabaseURL = ""
			probe.DBPort = port
			probe.DBUser = user

			currentUser, currentDB, err := check(probe.DSN(), *timeout)
			if err != nil {
				log.Warn().Err(err).Str("target", target).Msg("Connection failed")
				continue
			}
			log.Info().Str("target", target).Str("user", currentUser).Str("database", currentDB).Msg("Connection succeeded")
			os.Exit(0)
		}
	}

	log.Error().Msg("No port/user combination worked. Check that the database port is public and the firewall allows it.")
	os.Exit(1)
}

func check(dsn string, timeout time.Duration) (string, string, error) {
	dsn = fmt.Sprintf("%s connect_timeout=%d", dsn, int(timeout.Seconds()))
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return "", "", err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return "", "", err
	}
	defer sqlDB.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var row struct {
		Username string
		Dbname   string
	}
	err = db.WithContext(ctx).Raw("SELECT current_user AS username, current_database() AS dbname").Scan(&row).Error
	return row.Username, row.Dbname, err
}

func splitFlag(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
