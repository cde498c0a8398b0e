package database_test

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/dbtest"
	"github.com/safar/go-bookstore/migrations"
)

func TestLoadMigrationsOrdersAndPairs(t *testing.T) {
	fsys := fstest.MapFS{
		"000002_books.up.sql":   {Data: []byte("CREATE TABLE b (id INT);")},
		"000002_books.down.sql": {Data: []byte("DROP TABLE b;")},
		"000001_users.up.sql":   {Data: []byte("CREATE TABLE u (id INT);")},
		"000001_users.down.sql": {Data: []byte("DROP TABLE u;")},
		"README.md":             {Data: []byte("ignored")},
	}

	ms, err := database.LoadMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, "000001", ms[0].Version)
	assert.Equal(t, "users", ms[0].Name)
	assert.Equal(t, "DROP TABLE u;", ms[0].Down)
	assert.Equal(t, "books", ms[1].Name)
}

func TestLoadMigrationsRejectsBadNames(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
	}{
		{"no direction", fstest.MapFS{"000001_users.sql": {Data: []byte("x")}}},
		{"no version", fstest.MapFS{"users.up.sql": {Data: []byte("x")}}},
		{"down only", fstest.MapFS{"000001_users.down.sql": {Data: []byte("x")}}},
		{"name mismatch", fstest.MapFS{
			"000001_users.up.sql":     {Data: []byte("x")},
			"000001_members.down.sql": {Data: []byte("x")},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := database.LoadMigrations(tt.fsys)
			assert.Error(t, err)
		})
	}
}

func TestEmbeddedMigrationsHaveDownScripts(t *testing.T) {
	ms, err := database.LoadMigrations(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, ms)
	for _, m := range ms {
		assert.NotEmpty(t, m.Down, "migration %s_%s", m.Version, m.Name)
	}
}

func TestMigrateUpDownRoundTrip(t *testing.T) {
	db := dbtest.NewEmpty(t)
	ctx := context.Background()
	log := zap.NewNop()

	all, err := database.LoadMigrations(migrations.FS)
	require.NoError(t, err)

	applied, err := database.MigrateUp(ctx, db, migrations.FS, log)
	require.NoError(t, err)
	assert.Equal(t, len(all), applied)

	applied, err = database.MigrateUp(ctx, db, migrations.FS, log)
	require.NoError(t, err)
	assert.Zero(t, applied, "second run must be a no-op")

	health, err := database.CheckHealth(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, "bookstore_test", health.Database)
	assert.Greater(t, health.Tables, 20)
	assert.GreaterOrEqual(t, health.ActiveConnections, 1)

	reverted, err := database.MigrateDown(ctx, db, migrations.FS, 1, log)
	require.NoError(t, err)
	assert.Equal(t, 1, reverted)

	statuses, err := database.MigrationStatuses(ctx, db, migrations.FS)
	require.NoError(t, err)
	require.Len(t, statuses, len(all))
	assert.False(t, statuses[len(statuses)-1].Applied)
	assert.True(t, statuses[0].Applied)
	assert.NotNil(t, statuses[0].AppliedAt)

	reverted, err = database.MigrateDown(ctx, db, migrations.FS, 0, log)
	require.NoError(t, err)
	assert.Equal(t, len(all)-1, reverted)

	health, err = database.CheckHealth(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 1, health.Tables, "only schema_migrations should remain")

	applied, err = database.MigrateUp(ctx, db, migrations.FS, log)
	require.NoError(t, err)
	assert.Equal(t, len(all), applied)
}
