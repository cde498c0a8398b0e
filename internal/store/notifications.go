package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/models"
)

const notificationColumns = `id, user_id, type, title, message, data, is_read, read_at, created_at`

func scanNotification(row scanner) (*models.Notification, error) {
	n := &models.Notification{}
	var data []byte
	err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &data, &n.IsRead, &n.ReadAt, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	n.Data = json.RawMessage(data)
	return n, nil
}

// CreateNotification stores a message for a user. A nil data payload is
// stored as an empty JSON object.
func CreateNotification(ctx context.Context, db Querier, userID int64, kind, title, message string, data json.RawMessage) (*models.Notification, error) {
	if len(data) == 0 {
		data = json.RawMessage(`{}`)
	}

	n, err := scanNotification(db.QueryRowContext(ctx,
		`INSERT INTO notifications (user_id, type, title, message, data)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+notificationColumns,
		userID, kind, title, message, string(data)))
	if err != nil {
		return nil, fmt.Errorf("create notification: %w", database.TranslateError(err))
	}
	return n, nil
}

func ListNotifications(ctx context.Context, db Querier, userID int64, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+notificationColumns+`
		 FROM notifications
		 WHERE user_id = $1 AND (NOT $2 OR NOT is_read)
		 ORDER BY created_at DESC, id DESC
		 LIMIT $3`, userID, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, *n)
	}
	return notifications, rows.Err()
}

func CountUnreadNotifications(ctx context.Context, db Querier, userID int64) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkNotificationRead is scoped to the owner so one user cannot touch
// another user's notifications. Marking an already read notification keeps
// its original read_at.
func MarkNotificationRead(ctx context.Context, db Querier, userID, notificationID int64) error {
	var id int64
	err := db.QueryRowContext(ctx,
		`UPDATE notifications
		 SET is_read = TRUE, read_at = COALESCE(read_at, CURRENT_TIMESTAMP)
		 WHERE id = $1 AND user_id = $2
		 RETURNING id`, notificationID, userID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return database.ErrNotificationNotFound
		}
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

func MarkAllNotificationsRead(ctx context.Context, db Querier, userID int64) (int64, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE, read_at = CURRENT_TIMESTAMP
		 WHERE user_id = $1 AND NOT is_read`, userID)
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	return result.RowsAffected()
}
