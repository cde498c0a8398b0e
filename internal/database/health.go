package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type Health struct {
	Database          string
	Version           string
	Tables            int
	ActiveConnections int
	Latency           time.Duration
}

// CheckHealth pings the server and reports the public table count and the
// number of backends connected to the current database.
func CheckHealth(ctx context.Context, db *sql.DB) (*Health, error) {
	start := time.Now()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	h := &Health{Latency: time.Since(start)}

	err := db.QueryRowContext(ctx, `SELECT current_database(), current_setting('server_version')`).
		Scan(&h.Database, &h.Version)
	if err != nil {
		return nil, fmt.Errorf("query database name: %w", err)
	}

	err = db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
	`).Scan(&h.Tables)
	if err != nil {
		return nil, fmt.Errorf("count tables: %w", err)
	}

	err = db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM pg_stat_activity
		WHERE datname = current_database()
	`).Scan(&h.ActiveConnections)
	if err != nil {
		return nil, fmt.Errorf("count connections: %w", err)
	}

	return h, nil
}
