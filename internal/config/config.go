package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds service configuration.
type Config struct {
	DatabaseURL         string
	ServerAddr          string
	MigrationsDir       string
	SessionTTL          time.Duration
	SessionCookieName   string
	SessionCookieSecure bool
	AuditSigningKey     string
	ReminderAge         time.Duration
	ReminderInterval    time.Duration
	ReminderBatchSize   int
	LogLevel            string
}

// Load reads configuration from environment.
func Load() (*Config, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		user := getenv("POSTGRES_USER", "agency_hub")
		pass := getenv("POSTGRES_PASSWORD", "agency_hub_pass")
		db := getenv("POSTGRES_DB", "agency_hub")
		host := getenv("POSTGRES_HOST", "localhost")
		port := getenv("POSTGRES_PORT", "5432")
		sslmode := getenv("DATABASE_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, sslmode)
	}
	addr := getenv("SERVER_ADDR", "0.0.0.0:8080")
	migrationsDir := getenv("MIGRATIONS_DIR", "internal/migrations")
	ttl := parseDuration(getenv("SESSION_TTL", "24h"), 24*time.Hour)
	cookieName := getenv("SESSION_COOKIE_NAME", "agency_hub_session")
	cookieSecure := parseBool(getenv("SESSION_COOKIE_SECURE", "false"), false)
	signingKey := getenv("AUDIT_SIGNING_KEY", "")
	reminderAge := parseDuration(getenv("APPROVAL_REMINDER_AGE", "24h"), 24*time.Hour)
	reminderInterval := parseDuration(getenv("APPROVAL_REMINDER_INTERVAL", "1h"), time.Hour)
	reminderBatch := parseInt(getenv("APPROVAL_REMINDER_BATCH", "100"), 100)
	logLevel := getenv("LOG_LEVEL", "info")

	return &Config{
		DatabaseURL:         dsn,
		ServerAddr:          addr,
		MigrationsDir:       migrationsDir,
		SessionTTL:          ttl,
		SessionCookieName:   cookieName,
		SessionCookieSecure: cookieSecure,
		AuditSigningKey:     signingKey,
		ReminderAge:         reminderAge,
		ReminderInterval:    reminderInterval,
		ReminderBatchSize:   reminderBatch,
		LogLevel:            logLevel,
	}, nil
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func parseDuration(val string, def time.Duration) time.Duration {
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return def
	}
	return d
}

func parseBool(val string, def bool) bool {
	if val == "" {
		return def
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return def
	}
	return b
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return n
}
