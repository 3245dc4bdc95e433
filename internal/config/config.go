package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Port string

	// DatabaseURL wins over the discrete DB_* settings when set.
	DatabaseURL string
	DBDriver    string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	DBPath      string

	CORSOrigins  []string
	LogLevel     string
	Env          string
	MaxBodyBytes int64
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Error loading .env file, using process environment")
	}

	return &Config{
		Port:         getEnv("PORT", "3001"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		DBDriver:     strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
		DBHost:       getEnv("DB_HOST", "localhost"),
		DBPort:       getEnv("DB_PORT", "5432"),
		DBUser:       getEnv("DB_USER", "postgres"),
		DBPassword:   getEnv("DB_PASSWORD", ""),
		DBName:       getEnv("DB_NAME", "postgres"),
		DBSSLMode:    getEnv("DB_SSLMODE", "disable"),
		DBPath:       getEnv("DB_PATH", "./wati.db"),
		CORSOrigins:  splitList(getEnv("CORS_ORIGINS", "*")),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Env:          getEnv("APP_ENV", "production"),
		MaxBodyBytes: getEnvInt64("MAX_BODY_BYTES", 10<<20),
	}
}

// DSN returns the Postgres connection string for the configured store.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// AllowsAllOrigins reports whether CORS_ORIGINS is the wildcard.
func (c *Config) AllowsAllOrigins() bool {
	return len(c.CORSOrigins) == 0 || (len(c.CORSOrigins) == 1 && c.CORSOrigins[0] == "*")
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n <= 0 {
		log.Warn().Str("key", key).Str("value", raw).Msg("Invalid integer setting, using default")
		return fallback
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
