package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safar/go-bookstore/internal/database"
)

func TestCartLines(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, db)
	book := createTestBook(t, db, "85000", 50)

	_, err := AddToCart(ctx, db, user.ID, book.ID, 1)
	require.NoError(t, err)
	item, err := AddToCart(ctx, db, user.ID, book.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, item.Quantity, "adding the same book merges lines")

	lines, err := ListCart(ctx, db, user.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "255000.00", lines[0].LineTotal().StringFixed(2))

	require.NoError(t, SetCartQuantity(ctx, db, user.ID, book.ID, 7))
	lines, err = ListCart(ctx, db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, lines[0].Quantity)

	_, err = db.Exec(`INSERT INTO cart_items (user_id, book_id, quantity) VALUES ($1, $2, 1)`, user.ID, book.ID)
	assert.ErrorIs(t, database.TranslateError(err), database.ErrDuplicate)

	_, err = AddToCart(ctx, db, user.ID, book.ID, 0)
	assert.ErrorIs(t, err, database.ErrInvalidQuantity)

	_, err = AddToCart(ctx, db, user.ID, 999999, 1)
	assert.ErrorIs(t, err, database.ErrInvalidReference)

	require.NoError(t, SetCartQuantity(ctx, db, user.ID, book.ID, 0))
	assert.ErrorIs(t, RemoveFromCart(ctx, db, user.ID, book.ID), database.ErrCartItemNotFound)
}

func TestWishlist(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, db)
	book := createTestBook(t, db, "100", 1)

	require.NoError(t, AddToWishlist(ctx, db, user.ID, book.ID))
	require.NoError(t, AddToWishlist(ctx, db, user.ID, book.ID))

	items, err := ListWishlist(ctx, db, user.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	require.NoError(t, RemoveFromWishlist(ctx, db, user.ID, book.ID))
	assert.ErrorIs(t, RemoveFromWishlist(ctx, db, user.ID, book.ID), database.ErrWishlistItemNotFound)
}

func TestMergeGuestCart(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, db)
	owned := createTestBook(t, db, "100", 10)
	fresh := createTestBook(t, db, "100", 10)
	stale := createTestBook(t, db, "100", 10)

	_, err := AddToCart(ctx, db, user.ID, owned.ID, 1)
	require.NoError(t, err)

	session := NewGuestSessionID()
	_, err = AddToGuestCart(ctx, db, session, owned.ID, 2, 0)
	require.NoError(t, err)
	_, err = AddToGuestCart(ctx, db, session, fresh.ID, 1, time.Hour)
	require.NoError(t, err)
	_, err = AddToGuestCart(ctx, db, session, stale.ID, 1, time.Hour)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE guest_carts SET expires_at = CURRENT_TIMESTAMP - INTERVAL '1 minute' WHERE book_id = $1`, stale.ID)
	require.NoError(t, err)

	guest, err := ListGuestCart(ctx, db, session)
	require.NoError(t, err)
	assert.Len(t, guest, 2, "expired lines are hidden")

	merged, err := MergeGuestCart(ctx, db, session, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), merged)

	lines, err := ListCart(ctx, db, user.ID)
	require.NoError(t, err)
	quantities := map[int64]int{}
	for _, l := range lines {
		quantities[l.BookID] = l.Quantity
	}
	assert.Equal(t, map[int64]int{owned.ID: 3, fresh.ID: 1}, quantities)

	guest, err = ListGuestCart(ctx, db, session)
	require.NoError(t, err)
	assert.Empty(t, guest)
}

func TestExpireGuestCarts(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	book := createTestBook(t, db, "100", 10)

	_, err := AddToGuestCart(ctx, db, NewGuestSessionID(), book.ID, 1, time.Hour)
	require.NoError(t, err)
	old := NewGuestSessionID()
	_, err = AddToGuestCart(ctx, db, old, book.ID, 1, time.Hour)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE guest_carts SET expires_at = CURRENT_TIMESTAMP - INTERVAL '1 day' WHERE session_id = $1`, old)
	require.NoError(t, err)

	n, err := ExpireGuestCarts(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
