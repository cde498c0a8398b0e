package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/models"
)

type CreateUserRequest struct {
	Username      string
	Email         string
	PasswordHash  string
	FirstName     string
	LastName      string
	Phone         *string
	RoleID        int64
	EmailVerified bool
}

const userColumns = `id, username, email, password_hash, first_name, last_name, phone, date_of_birth,
	gender, avatar_url, role_id, is_active, email_verified, phone_verified, last_login,
	login_count, deleted_at, created_at, updated_at`

func scanUser(row scanner) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Phone,
		&user.DateOfBirth,
		&user.Gender,
		&user.AvatarURL,
		&user.RoleID,
		&user.IsActive,
		&user.EmailVerified,
		&user.PhoneVerified,
		&user.LastLogin,
		&user.LoginCount,
		&user.DeletedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func CreateUser(ctx context.Context, db Querier, req CreateUserRequest) (*models.User, error) {
	roleID := req.RoleID
	if roleID == 0 {
		roleID = models.RoleCustomer
	}

	query := `
		INSERT INTO users (username, email, password_hash, first_name, last_name, phone, role_id, email_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + userColumns

	user, err := scanUser(db.QueryRowContext(ctx, query,
		req.Username, req.Email, req.PasswordHash, req.FirstName, req.LastName,
		req.Phone, roleID, req.EmailVerified))
	if err != nil {
		return nil, fmt.Errorf("create user: %w", database.TranslateError(err))
	}

	return user, nil
}

func GetUser(ctx context.Context, db Querier, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

func GetUserByEmail(ctx context.Context, db Querier, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`

	user, err := scanUser(db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return user, nil
}

// ListUsers pages through accounts that have not been anonymized.
func ListUsers(ctx context.Context, db Querier, page, pageSize int) (*OffsetPage, error) {
	page, pageSize = normalizePage(page, pageSize)

	var total int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE deleted_at IS NULL`).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`

	rows, err := db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return &OffsetPage{
		Items:      users,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

// RecordLogin bumps login_count and last_login for an active account.
func RecordLogin(ctx context.Context, db Querier, id int64) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`UPDATE users
		 SET login_count = login_count + 1, last_login = CURRENT_TIMESTAMP
		 WHERE id = $1 AND is_active AND deleted_at IS NULL
		 RETURNING login_count`,
		id).Scan(&count)
	if err == nil {
		return count, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("record login: %w", err)
	}

	if _, err := GetUser(ctx, db, id); err != nil {
		return 0, err
	}
	return 0, database.ErrUserInactive
}

func SetUserActive(ctx context.Context, db Querier, id int64, active bool) error {
	result, err := db.ExecContext(ctx,
		`UPDATE users SET is_active = $1 WHERE id = $2 AND deleted_at IS NULL`,
		active, id)
	if err != nil {
		return fmt.Errorf("set user active: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrUserNotFound
	}

	return nil
}

func VerifyUserEmail(ctx context.Context, db Querier, id int64) error {
	result, err := db.ExecContext(ctx, `UPDATE users SET email_verified = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("verify email: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrUserNotFound
	}
	return nil
}

func UpdatePasswordHash(ctx context.Context, db Querier, id int64, hash string) error {
	result, err := db.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, hash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrUserNotFound
	}
	return nil
}

// AnonymizeUser removes an account without touching its orders: PII is
// scrubbed, the account is deactivated and stamped deleted_at, and every
// credential and personal collection is dropped. Orders keep their rows and
// totals. Calling it twice is a no-op.
func AnonymizeUser(ctx context.Context, db *sql.DB, id int64) error {
	return database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var deletedAt sql.NullTime
		err := tx.QueryRowContext(ctx,
			`SELECT deleted_at FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&deletedAt)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return database.ErrUserNotFound
			}
			return fmt.Errorf("lock user: %w", err)
		}
		if deletedAt.Valid {
			return nil
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE users
			 SET username = 'deleted-' || id,
			     email = 'deleted-' || id || '@invalid.local',
			     password_hash = '!',
			     first_name = 'Deleted',
			     last_name = 'User',
			     phone = NULL,
			     date_of_birth = NULL,
			     gender = NULL,
			     avatar_url = NULL,
			     email_verified = FALSE,
			     phone_verified = FALSE,
			     is_active = FALSE,
			     deleted_at = CURRENT_TIMESTAMP
			 WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("scrub user: %w", err)
		}

		if _, err := revokeUserCredentials(ctx, tx, id); err != nil {
			return err
		}

		for _, stmt := range []string{
			`DELETE FROM user_addresses WHERE user_id = $1`,
			`DELETE FROM cart_items WHERE user_id = $1`,
			`DELETE FROM wishlist_items WHERE user_id = $1`,
		} {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return fmt.Errorf("anonymize user: %w", err)
			}
		}

		return nil
	})
}

// DeleteUser hard-deletes an account. Engagement rows cascade; orders,
// voucher usage and history keep their rows with user_id set to NULL.
func DeleteUser(ctx context.Context, db Querier, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", database.TranslateError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrUserNotFound
	}

	return nil
}

func ListRoles(ctx context.Context, db Querier) ([]models.Role, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, role_name, description, permissions, is_active, created_at
		 FROM user_roles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	var roles []models.Role
	for rows.Next() {
		var role models.Role
		var permissions []byte
		if err := rows.Scan(&role.ID, &role.RoleName, &role.Description, &permissions, &role.IsActive, &role.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		role.Permissions = permissions
		roles = append(roles, role)
	}

	return roles, rows.Err()
}
