package config

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearDatabaseEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DATABASE_URL", "DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD", "DB_SSLMODE"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearDatabaseEnv(t)
	t.Setenv("APP_ENV", "")
	t.Setenv("LOG_ENCODING", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "bookstore_online", cfg.Database.Name)
	assert.Equal(t, "console", cfg.Log.Encoding)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 12, cfg.Seed.BcryptCost)
	assert.Equal(t, 7*24*time.Hour, cfg.Maintenance.TokenRetention)

	u, err := url.Parse(cfg.Database.URL)
	require.NoError(t, err)
	assert.Equal(t, "localhost:5432", u.Host)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
}

func TestLoadDiscreteVariables(t *testing.T) {
	clearDatabaseEnv(t)
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_NAME", "shop")
	t.Setenv("DB_USER", "openpg")
	t.Setenv("DB_PASSWORD", "p@ss word")

	cfg, err := Load()
	require.NoError(t, err)

	u, err := url.Parse(cfg.Database.URL)
	require.NoError(t, err)
	assert.Equal(t, "db.internal:6543", u.Host)
	assert.Equal(t, "/shop", u.Path)
	assert.Equal(t, "openpg", u.User.Username())
	password, _ := u.User.Password()
	assert.Equal(t, "p@ss word", password)
	assert.Equal(t, "shop", cfg.Database.Name)
}

func TestLoadDatabaseURLWins(t *testing.T) {
	clearDatabaseEnv(t)
	t.Setenv("DATABASE_URL", "postgres://u:p@example.com:5432/catalog?sslmode=require")
	t.Setenv("DB_NAME", "ignored")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@example.com:5432/catalog?sslmode=require", cfg.Database.URL)
	assert.Equal(t, "catalog", cfg.Database.Name)
}

func TestLoadProductionEncoding(t *testing.T) {
	clearDatabaseEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_ENCODING", "")
	t.Setenv("TOKEN_RETENTION", "not-a-duration")
	t.Setenv("SEED_SAMPLE_CATALOG", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "json", cfg.Log.Encoding)
	assert.Equal(t, 7*24*time.Hour, cfg.Maintenance.TokenRetention)
	assert.False(t, cfg.Seed.SampleCatalog)
}
