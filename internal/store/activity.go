package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/models"
)

type ActivityEntry struct {
	UserID     *int64
	Action     string
	EntityType *string
	EntityID   *int64
	Details    any
	Client     ClientInfo
}

const activityColumns = `id, user_id, action, entity_type, entity_id, details, host(ip_address), user_agent, created_at`

func scanActivity(row scanner) (*models.ActivityLog, error) {
	a := &models.ActivityLog{}
	var details []byte
	err := row.Scan(&a.ID, &a.UserID, &a.Action, &a.EntityType, &a.EntityID, &details, &a.IPAddress, &a.UserAgent, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.Details = json.RawMessage(details)
	return a, nil
}

// LogActivity appends an audit row. Details is marshalled to JSON; nil
// becomes an empty object.
func LogActivity(ctx context.Context, db Querier, entry ActivityEntry) (*models.ActivityLog, error) {
	details := []byte(`{}`)
	if entry.Details != nil {
		var err error
		details, err = json.Marshal(entry.Details)
		if err != nil {
			return nil, fmt.Errorf("encode activity details: %w", err)
		}
	}

	a, err := scanActivity(db.QueryRowContext(ctx,
		`INSERT INTO activity_logs (user_id, action, entity_type, entity_id, details, ip_address, user_agent)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+activityColumns,
		entry.UserID, entry.Action, entry.EntityType, entry.EntityID, string(details),
		entry.Client.IPAddress, entry.Client.UserAgent))
	if err != nil {
		return nil, fmt.Errorf("log activity: %w", database.TranslateError(err))
	}
	return a, nil
}

func ListEntityActivity(ctx context.Context, db Querier, entityType string, entityID int64, limit int) ([]models.ActivityLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+activityColumns+`
		 FROM activity_logs
		 WHERE entity_type = $1 AND entity_id = $2
		 ORDER BY created_at DESC, id DESC
		 LIMIT $3`, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var logs []models.ActivityLog
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		logs = append(logs, *a)
	}
	return logs, rows.Err()
}

func ListUserActivity(ctx context.Context, db Querier, userID int64, limit int) ([]models.ActivityLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+activityColumns+`
		 FROM activity_logs
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list user activity: %w", err)
	}
	defer rows.Close()

	var logs []models.ActivityLog
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		logs = append(logs, *a)
	}
	return logs, rows.Err()
}
