package config

import (
	"fmt"
	"strings"
	"time"

	"foyer-backend/services"
	"foyer-backend/utils"
)

// Settings is everything the process reads from its environment.
type Settings struct {
	Port        string
	CorsOrigins []string

	LogLevel   string
	LogFormat  string
	DBLogLevel string

	DBDriver   string
	SQLitePath string
	RedisURL   string

	StoreTimeout time.Duration
	LockTimeout  time.Duration
	Collision    services.CollisionPolicy

	SnapshotSchedule string
	SeedDemoData     bool
}

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	// DriverMemory is SQLite in memory, for demos and local runs.
	DriverMemory = "memory"
)

func LoadSettings() (Settings, error) {
	s := Settings{
		Port:             utils.EnvOrDefault("PORT", "8080"),
		CorsOrigins:      utils.SplitList(utils.EnvOrDefault("CORS_ORIGINS", "*")),
		LogLevel:         utils.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:        utils.EnvOrDefault("LOG_FORMAT", "text"),
		DBLogLevel:       utils.EnvOrDefault("DB_LOG_LEVEL", "warn"),
		DBDriver:         strings.ToLower(utils.EnvOrDefault("DB_DRIVER", DriverMySQL)),
		SQLitePath:       utils.EnvOrDefault("SQLITE_PATH", "foyer.db"),
		RedisURL:         utils.EnvOrDefault("REDIS_URL", ""),
		StoreTimeout:     utils.EnvDuration("STORE_TIMEOUT", 5*time.Second),
		LockTimeout:      utils.EnvDuration("LOCK_TIMEOUT", 3*time.Second),
		SnapshotSchedule: utils.EnvOrDefault("AVAILABILITY_SNAPSHOT_SCHEDULE", "@every 30m"),
		SeedDemoData:     utils.EnvBool("SEED_DEMO_DATA", false),
	}
	if strings.EqualFold(s.SnapshotSchedule, "off") {
		s.SnapshotSchedule = ""
	}

	switch s.DBDriver {
	case DriverMySQL, DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return s, fmt.Errorf("unsupported DB_DRIVER %q (mysql, postgres, sqlite, memory)", s.DBDriver)
	}

	policy, err := services.ParseCollisionPolicy(utils.EnvOrDefault("RESERVATION_ID_COLLISION", string(services.CollisionOverwrite)))
	if err != nil {
		return s, err
	}
	s.Collision = policy
	return s, nil
}
