package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/safar/go-bookstore/internal/auth"
	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/models"
)

type ClientInfo struct {
	IPAddress *string
	UserAgent *string
}

const sessionColumns = `id, user_id, session_token, ip_address, user_agent, is_active, expires_at, last_activity, created_at`

func scanSession(row scanner) (*models.Session, error) {
	s := &models.Session{}
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.TokenHash,
		&s.IPAddress,
		&s.UserAgent,
		&s.IsActive,
		&s.ExpiresAt,
		&s.LastActivity,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// CreateSession stores a session for userID and returns the opaque secret
// the client keeps. Only its SHA-256 digest is persisted.
func CreateSession(ctx context.Context, db Querier, userID int64, ttl time.Duration, client ClientInfo) (string, *models.Session, error) {
	secret, hash, err := auth.NewSecret()
	if err != nil {
		return "", nil, fmt.Errorf("generate session secret: %w", err)
	}

	s, err := scanSession(db.QueryRowContext(ctx,
		`INSERT INTO user_sessions (user_id, session_token, ip_address, user_agent, expires_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+sessionColumns,
		userID, hash, client.IPAddress, client.UserAgent, time.Now().Add(ttl)))
	if err != nil {
		return "", nil, fmt.Errorf("create session: %w", database.TranslateError(err))
	}

	return secret, s, nil
}

// GetSession resolves a client secret to its live session.
func GetSession(ctx context.Context, db Querier, secret string) (*models.Session, error) {
	s, err := scanSession(db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM user_sessions WHERE session_token = $1`,
		auth.HashToken(secret)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	if !s.IsActive {
		return nil, database.ErrTokenRevoked
	}
	if !s.ExpiresAt.After(time.Now()) {
		return nil, database.ErrTokenExpired
	}

	return s, nil
}

func TouchSession(ctx context.Context, db Querier, sessionID int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE user_sessions SET last_activity = CURRENT_TIMESTAMP WHERE id = $1 AND is_active`,
		sessionID)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrSessionNotFound
	}
	return nil
}

func RevokeSession(ctx context.Context, db Querier, secret string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE user_sessions SET is_active = FALSE WHERE session_token = $1`,
		auth.HashToken(secret))
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrSessionNotFound
	}
	return nil
}

// RevokeUserCredentials ends every session, revokes every refresh token and
// drops pending verification/reset tokens of a user. It returns the number of
// sessions and refresh tokens revoked.
func RevokeUserCredentials(ctx context.Context, db Querier, userID int64) (int64, error) {
	return revokeUserCredentials(ctx, db, userID)
}

func revokeUserCredentials(ctx context.Context, db Querier, userID int64) (int64, error) {
	var revoked int64

	result, err := db.ExecContext(ctx,
		`UPDATE user_sessions SET is_active = FALSE WHERE user_id = $1 AND is_active`, userID)
	if err != nil {
		return 0, fmt.Errorf("revoke sessions: %w", err)
	}
	n, _ := result.RowsAffected()
	revoked += n

	result, err = db.ExecContext(ctx,
		`UPDATE refresh_tokens SET is_revoked = TRUE, revoked_at = CURRENT_TIMESTAMP
		 WHERE user_id = $1 AND NOT is_revoked`, userID)
	if err != nil {
		return 0, fmt.Errorf("revoke refresh tokens: %w", err)
	}
	n, _ = result.RowsAffected()
	revoked += n

	for _, kind := range []models.TokenKind{models.TokenEmailVerification, models.TokenPasswordReset} {
		if _, err := db.ExecContext(ctx,
			`DELETE FROM `+string(kind)+` WHERE user_id = $1 AND used_at IS NULL`, userID); err != nil {
			return 0, fmt.Errorf("drop %s: %w", kind, err)
		}
	}

	return revoked, nil
}
