package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Log         LogConfig
	Seed        SeedConfig
	Maintenance MaintenanceConfig
}

type AppConfig struct {
	Env          string
	ImageBaseURL string
}

type DatabaseConfig struct {
	URL             string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
}

type LogConfig struct {
	Level    string
	Encoding string
}

type SeedConfig struct {
	BcryptCost       int
	AdminPassword    string
	StaffPassword    string
	CustomerPassword string
	SampleCatalog    bool
}

type MaintenanceConfig struct {
	ReconcileSchedule   string
	TokenPurgeSchedule  string
	GuestCartSchedule   string
	TokenRetention      time.Duration
	ReconcileBatchLimit int
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development" || c.App.Env == "dev"
}

func Load() (*Config, error) {
	godotenv.Load()

	dbURL, dbName, err := databaseURL()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Env:          getEnv("APP_ENV", "development"),
			ImageBaseURL: getEnv("IMAGE_BASE_URL", ""),
		},
		Database: DatabaseConfig{
			URL:             dbURL,
			Name:            dbName,
			MaxOpenConns:    getEnvInt("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getEnvInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DATABASE_CONN_MAX_LIFETIME", time.Hour),
			ConnectTimeout:  getEnvDuration("DATABASE_CONNECT_TIMEOUT", 5*time.Second),
		},
		Log: LogConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Encoding: getEnv("LOG_ENCODING", ""),
		},
		Seed: SeedConfig{
			BcryptCost:       getEnvInt("BCRYPT_COST", 12),
			AdminPassword:    getEnv("SEED_ADMIN_PASSWORD", ""),
			StaffPassword:    getEnv("SEED_STAFF_PASSWORD", ""),
			CustomerPassword: getEnv("SEED_CUSTOMER_PASSWORD", ""),
			SampleCatalog:    getEnvBool("SEED_SAMPLE_CATALOG", true),
		},
		Maintenance: MaintenanceConfig{
			ReconcileSchedule:   getEnv("RECONCILE_SCHEDULE", "@daily"),
			TokenPurgeSchedule:  getEnv("TOKEN_PURGE_SCHEDULE", "@hourly"),
			GuestCartSchedule:   getEnv("GUEST_CART_SCHEDULE", "@every 6h"),
			TokenRetention:      getEnvDuration("TOKEN_RETENTION", 7*24*time.Hour),
			ReconcileBatchLimit: getEnvInt("RECONCILE_BATCH_LIMIT", 0),
		},
	}

	if cfg.Log.Encoding == "" {
		cfg.Log.Encoding = "json"
		if cfg.IsDevelopment() {
			cfg.Log.Encoding = "console"
		}
	}

	return cfg, nil
}

// databaseURL prefers DATABASE_URL and falls back to the discrete DB_* variables
// documented in the setup guide.
func databaseURL() (string, string, error) {
	if raw := os.Getenv("DATABASE_URL"); raw != "" {
		u, err := url.Parse(raw)
		if err != nil {
			return "", "", fmt.Errorf("parse DATABASE_URL: %w", err)
		}
		name := u.Path
		if len(name) > 0 && name[0] == '/' {
			name = name[1:]
		}
		return raw, name, nil
	}

	name := getEnv("DB_NAME", "bookstore_online")
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(getEnv("DB_USER", "postgres"), getEnv("DB_PASSWORD", "postgres")),
		Host:   getEnv("DB_HOST", "localhost") + ":" + getEnv("DB_PORT", "5432"),
		Path:   "/" + name,
	}
	q := u.Query()
	q.Set("sslmode", getEnv("DB_SSLMODE", "disable"))
	q.Set("timezone", "UTC")
	u.RawQuery = q.Encode()

	return u.String(), name, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		fmt.Fprintf(os.Stderr, "Warning: invalid duration for %s, using default\n", key)
	}
	return defaultValue
}
