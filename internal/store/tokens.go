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

const refreshTokenColumns = `id, user_id, token_hash, device_info, ip_address, expires_at,
	is_revoked, revoked_at, last_used_at, created_at`

func scanRefreshToken(row scanner) (*models.RefreshToken, error) {
	t := &models.RefreshToken{}
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.TokenHash,
		&t.DeviceInfo,
		&t.IPAddress,
		&t.ExpiresAt,
		&t.IsRevoked,
		&t.RevokedAt,
		&t.LastUsedAt,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func IssueRefreshToken(ctx context.Context, db Querier, userID int64, ttl time.Duration, deviceInfo *string, client ClientInfo) (string, *models.RefreshToken, error) {
	secret, hash, err := auth.NewSecret()
	if err != nil {
		return "", nil, fmt.Errorf("generate refresh token: %w", err)
	}

	t, err := scanRefreshToken(db.QueryRowContext(ctx,
		`INSERT INTO refresh_tokens (user_id, token_hash, device_info, ip_address, expires_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+refreshTokenColumns,
		userID, hash, deviceInfo, client.IPAddress, time.Now().Add(ttl)))
	if err != nil {
		return "", nil, fmt.Errorf("issue refresh token: %w", database.TranslateError(err))
	}

	return secret, t, nil
}

// RotateRefreshToken exchanges a live refresh token for a new one. The old
// token is revoked in the same transaction, so a replayed token fails with
// ErrTokenRevoked.
func RotateRefreshToken(ctx context.Context, db *sql.DB, secret string, ttl time.Duration, client ClientInfo) (string, *models.RefreshToken, error) {
	var newSecret string
	var issued *models.RefreshToken

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		old, err := scanRefreshToken(tx.QueryRowContext(ctx,
			`SELECT `+refreshTokenColumns+` FROM refresh_tokens WHERE token_hash = $1 FOR UPDATE`,
			auth.HashToken(secret)))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return database.ErrTokenNotFound
			}
			return fmt.Errorf("lock refresh token: %w", err)
		}

		if old.IsRevoked {
			return database.ErrTokenRevoked
		}
		if !old.ExpiresAt.After(time.Now()) {
			return database.ErrTokenExpired
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE refresh_tokens
			 SET is_revoked = TRUE, revoked_at = CURRENT_TIMESTAMP, last_used_at = CURRENT_TIMESTAMP
			 WHERE id = $1`, old.ID)
		if err != nil {
			return fmt.Errorf("revoke refresh token: %w", err)
		}

		newSecret, issued, err = IssueRefreshToken(ctx, tx, old.UserID, ttl, old.DeviceInfo, client)
		return err
	})
	if err != nil {
		return "", nil, err
	}

	return newSecret, issued, nil
}

func RevokeRefreshToken(ctx context.Context, db Querier, secret string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE refresh_tokens SET is_revoked = TRUE, revoked_at = CURRENT_TIMESTAMP
		 WHERE token_hash = $1 AND NOT is_revoked`,
		auth.HashToken(secret))
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrTokenNotFound
	}
	return nil
}

func tokenTable(kind models.TokenKind) (string, error) {
	switch kind {
	case models.TokenEmailVerification, models.TokenPasswordReset:
		return string(kind), nil
	}
	return "", fmt.Errorf("unknown token kind %q", kind)
}

// IssueOneTimeToken creates an email verification or password reset token.
func IssueOneTimeToken(ctx context.Context, db Querier, kind models.TokenKind, userID int64, ttl time.Duration) (string, *models.OneTimeToken, error) {
	table, err := tokenTable(kind)
	if err != nil {
		return "", nil, err
	}

	secret, hash, err := auth.NewSecret()
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}

	t := &models.OneTimeToken{Kind: kind}
	err = db.QueryRowContext(ctx,
		`INSERT INTO `+table+` (user_id, token_hash, expires_at)
		 VALUES ($1, $2, $3)
		 RETURNING id, user_id, token_hash, expires_at, used_at, created_at`,
		userID, hash, time.Now().Add(ttl)).Scan(
		&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt)
	if err != nil {
		return "", nil, fmt.Errorf("issue %s: %w", kind, database.TranslateError(err))
	}

	return secret, t, nil
}

// ConsumeOneTimeToken marks a token used. Each token succeeds at most once.
func ConsumeOneTimeToken(ctx context.Context, db Querier, kind models.TokenKind, secret string) (*models.OneTimeToken, error) {
	table, err := tokenTable(kind)
	if err != nil {
		return nil, err
	}

	hash := auth.HashToken(secret)
	t := &models.OneTimeToken{Kind: kind}
	err = db.QueryRowContext(ctx,
		`UPDATE `+table+`
		 SET used_at = CURRENT_TIMESTAMP
		 WHERE token_hash = $1 AND used_at IS NULL AND expires_at > CURRENT_TIMESTAMP
		 RETURNING id, user_id, token_hash, expires_at, used_at, created_at`,
		hash).Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("consume %s: %w", kind, err)
	}

	var usedAt sql.NullTime
	var expiresAt time.Time
	err = db.QueryRowContext(ctx,
		`SELECT used_at, expires_at FROM `+table+` WHERE token_hash = $1`, hash).Scan(&usedAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrTokenNotFound
		}
		return nil, fmt.Errorf("inspect %s: %w", kind, err)
	}
	if usedAt.Valid {
		return nil, database.ErrTokenRevoked
	}
	return nil, database.ErrTokenExpired
}

type TokenPurgeResult struct {
	Sessions           int64
	RefreshTokens      int64
	VerificationTokens int64
	ResetTokens        int64
}

func (r TokenPurgeResult) Total() int64 {
	return r.Sessions + r.RefreshTokens + r.VerificationTokens + r.ResetTokens
}

// PurgeExpiredTokens deletes credentials that expired, or were revoked or
// used, more than retention ago.
func PurgeExpiredTokens(ctx context.Context, db *sql.DB, retention time.Duration) (TokenPurgeResult, error) {
	var res TokenPurgeResult
	cutoff := time.Now().Add(-retention)

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		steps := []struct {
			name  string
			query string
			dst   *int64
		}{
			{"sessions", `DELETE FROM user_sessions
				WHERE expires_at < $1 OR (NOT is_active AND last_activity < $1)`, &res.Sessions},
			{"refresh tokens", `DELETE FROM refresh_tokens
				WHERE expires_at < $1 OR (is_revoked AND revoked_at < $1)`, &res.RefreshTokens},
			{"verification tokens", `DELETE FROM email_verification_tokens
				WHERE expires_at < $1 OR used_at < $1`, &res.VerificationTokens},
			{"reset tokens", `DELETE FROM password_reset_tokens
				WHERE expires_at < $1 OR used_at < $1`, &res.ResetTokens},
		}

		for _, step := range steps {
			result, err := tx.ExecContext(ctx, step.query, cutoff)
			if err != nil {
				return fmt.Errorf("purge %s: %w", step.name, err)
			}
			n, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("get rows affected: %w", err)
			}
			*step.dst = n
		}
		return nil
	})
	if err != nil {
		return TokenPurgeResult{}, err
	}

	return res, nil
}
