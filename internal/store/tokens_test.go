package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safar/go-bookstore/internal/auth"
	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/models"
)

func TestSessionLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db)

	ip := "10.0.0.7"
	secret, session, err := CreateSession(ctx, db, user.ID, time.Hour, ClientInfo{IPAddress: &ip})
	require.NoError(t, err)
	assert.Equal(t, auth.HashToken(secret), session.TokenHash, "only the digest is stored")

	got, err := GetSession(ctx, db, secret)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
	require.NoError(t, TouchSession(ctx, db, got.ID))

	_, err = GetSession(ctx, db, "not-a-session")
	assert.ErrorIs(t, err, database.ErrSessionNotFound)

	require.NoError(t, RevokeSession(ctx, db, secret))
	_, err = GetSession(ctx, db, secret)
	assert.ErrorIs(t, err, database.ErrTokenRevoked)

	expired, _, err := CreateSession(ctx, db, user.ID, -time.Minute, ClientInfo{})
	require.NoError(t, err)
	_, err = GetSession(ctx, db, expired)
	assert.ErrorIs(t, err, database.ErrTokenExpired)
}

func TestRotateRefreshToken(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db)

	device := "Pixel 8"
	first, _, err := IssueRefreshToken(ctx, db, user.ID, time.Hour, &device, ClientInfo{})
	require.NoError(t, err)

	second, rotated, err := RotateRefreshToken(ctx, db, first, time.Hour, ClientInfo{})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	require.NotNil(t, rotated.DeviceInfo)
	assert.Equal(t, device, *rotated.DeviceInfo)

	_, _, err = RotateRefreshToken(ctx, db, first, time.Hour, ClientInfo{})
	assert.ErrorIs(t, err, database.ErrTokenRevoked, "replay is rejected")

	_, _, err = RotateRefreshToken(ctx, db, "unknown", time.Hour, ClientInfo{})
	assert.ErrorIs(t, err, database.ErrTokenNotFound)

	revoked, err := RevokeUserCredentials(ctx, db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), revoked)

	_, _, err = RotateRefreshToken(ctx, db, second, time.Hour, ClientInfo{})
	assert.ErrorIs(t, err, database.ErrTokenRevoked)
}

func TestOneTimeTokens(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db)

	for _, kind := range []models.TokenKind{models.TokenEmailVerification, models.TokenPasswordReset} {
		t.Run(string(kind), func(t *testing.T) {
			secret, _, err := IssueOneTimeToken(ctx, db, kind, user.ID, time.Hour)
			require.NoError(t, err)

			used, err := ConsumeOneTimeToken(ctx, db, kind, secret)
			require.NoError(t, err)
			assert.Equal(t, user.ID, used.UserID)
			assert.NotNil(t, used.UsedAt)

			_, err = ConsumeOneTimeToken(ctx, db, kind, secret)
			assert.ErrorIs(t, err, database.ErrTokenRevoked)

			stale, _, err := IssueOneTimeToken(ctx, db, kind, user.ID, -time.Minute)
			require.NoError(t, err)
			_, err = ConsumeOneTimeToken(ctx, db, kind, stale)
			assert.ErrorIs(t, err, database.ErrTokenExpired)

			_, err = ConsumeOneTimeToken(ctx, db, kind, "missing")
			assert.ErrorIs(t, err, database.ErrTokenNotFound)
		})
	}

	_, _, err := IssueOneTimeToken(ctx, db, models.TokenKind("users"), user.ID, time.Hour)
	assert.Error(t, err)
}

func TestPurgeExpiredTokens(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db)

	_, _, err := CreateSession(ctx, db, user.ID, -48*time.Hour, ClientInfo{})
	require.NoError(t, err)
	_, _, err = CreateSession(ctx, db, user.ID, time.Hour, ClientInfo{})
	require.NoError(t, err)
	_, _, err = IssueRefreshToken(ctx, db, user.ID, -48*time.Hour, nil, ClientInfo{})
	require.NoError(t, err)
	_, _, err = IssueOneTimeToken(ctx, db, models.TokenPasswordReset, user.ID, -48*time.Hour)
	require.NoError(t, err)
	_, _, err = IssueOneTimeToken(ctx, db, models.TokenEmailVerification, user.ID, time.Hour)
	require.NoError(t, err)

	res, err := PurgeExpiredTokens(ctx, db, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, TokenPurgeResult{Sessions: 1, RefreshTokens: 1, ResetTokens: 1}, res)
	assert.Equal(t, int64(3), res.Total())
}

func TestMalformedClientAddressIsRejected(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db)

	bad := "not-an-ip"
	_, _, err := CreateSession(ctx, db, user.ID, time.Hour, ClientInfo{IPAddress: &bad})
	assert.ErrorIs(t, err, database.ErrConstraintViolation)

	_, err = LogActivity(ctx, db, ActivityEntry{Action: "user.login", Client: ClientInfo{IPAddress: &bad}})
	assert.ErrorIs(t, err, database.ErrConstraintViolation)

	v6 := "2001:db8::1"
	_, session, err := CreateSession(ctx, db, user.ID, time.Hour, ClientInfo{IPAddress: &v6})
	require.NoError(t, err)
	require.NotNil(t, session.IPAddress)
	assert.Equal(t, v6, *session.IPAddress)
}
