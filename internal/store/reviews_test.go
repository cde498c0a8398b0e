package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/models"
)

func ratingOf(t *testing.T, db *sql.DB, bookID int64) (decimal.Decimal, int) {
	t.Helper()
	var avg decimal.Decimal
	var count int
	err := db.QueryRow(`SELECT rating_average, rating_count FROM books WHERE id = $1`, bookID).Scan(&avg, &count)
	require.NoError(t, err)
	return avg, count
}

func TestRatingFollowsApprovedReviews(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	book := createTestBook(t, db, "100", 10)
	alice := createTestUser(t, db)
	bob := createTestUser(t, db)
	carol := createTestUser(t, db)

	r1, err := CreateReview(ctx, db, CreateReviewRequest{BookID: book.ID, UserID: alice.ID, Rating: 4})
	require.NoError(t, err)
	_, err = CreateReview(ctx, db, CreateReviewRequest{BookID: book.ID, UserID: bob.ID, Rating: 5})
	require.NoError(t, err)

	avg, count := ratingOf(t, db, book.ID)
	assert.Equal(t, "4.50", avg.StringFixed(2))
	assert.Equal(t, 2, count)

	r3, err := CreateReview(ctx, db, CreateReviewRequest{BookID: book.ID, UserID: carol.ID, Rating: 1})
	require.NoError(t, err)
	avg, count = ratingOf(t, db, book.ID)
	assert.Equal(t, "3.33", avg.StringFixed(2))
	assert.Equal(t, 3, count)

	require.NoError(t, SetReviewApproved(ctx, db, r3.ID, false, strPtr("spam")))
	avg, count = ratingOf(t, db, book.ID)
	assert.Equal(t, "4.50", avg.StringFixed(2))
	assert.Equal(t, 2, count)

	require.NoError(t, UpdateReviewRating(ctx, db, r1.ID, 2, nil))
	avg, _ = ratingOf(t, db, book.ID)
	assert.Equal(t, "3.50", avg.StringFixed(2))

	require.NoError(t, DeleteReview(ctx, db, r1.ID))
	avg, count = ratingOf(t, db, book.ID)
	assert.Equal(t, "5.00", avg.StringFixed(2))
	assert.Equal(t, 1, count)

	_, err = CreateReview(ctx, db, CreateReviewRequest{BookID: book.ID, UserID: bob.ID, Rating: 3})
	assert.ErrorIs(t, err, database.ErrDuplicate, "one review per user and book")

	_, err = CreateReview(ctx, db, CreateReviewRequest{BookID: book.ID, UserID: alice.ID, Rating: 6})
	assert.ErrorIs(t, err, database.ErrConstraintViolation)

	approved, err := ListBookReviews(ctx, db, book.ID, true)
	require.NoError(t, err)
	assert.Len(t, approved, 1)
}

func TestVerifiedPurchaseAndVotes(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	book := createTestBook(t, db, "100", 10)
	buyer := createTestUser(t, db)
	browser := createTestUser(t, db)
	voter := createTestUser(t, db)

	order := placeTestOrder(t, db, buyer.ID, OrderItemRequest{BookID: book.ID, Quantity: 1})
	for _, to := range []models.OrderStatus{
		models.OrderStatusConfirmed, models.OrderStatusProcessing,
		models.OrderStatusShipped, models.OrderStatusDelivered,
	} {
		_, err := TransitionOrderStatus(ctx, db, TransitionRequest{OrderID: order.ID, To: to})
		require.NoError(t, err)
	}

	verified, err := CreateReview(ctx, db, CreateReviewRequest{BookID: book.ID, UserID: buyer.ID, Rating: 5})
	require.NoError(t, err)
	assert.True(t, verified.IsVerifiedPurchase)

	unverified, err := CreateReview(ctx, db, CreateReviewRequest{BookID: book.ID, UserID: browser.ID, Rating: 4})
	require.NoError(t, err)
	assert.False(t, unverified.IsVerifiedPurchase)

	count, err := VoteReview(ctx, db, verified.ID, voter.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = VoteReview(ctx, db, verified.ID, browser.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = VoteReview(ctx, db, verified.ID, voter.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "changing a vote replaces it")

	_, err = VoteReview(ctx, db, 999999, voter.ID, true)
	assert.ErrorIs(t, err, database.ErrReviewNotFound)
}

func TestReconcileBookRatings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	book := createTestBook(t, db, "100", 10)
	untouched := createTestBook(t, db, "100", 10)
	user := createTestUser(t, db)

	_, err := CreateReview(ctx, db, CreateReviewRequest{BookID: book.ID, UserID: user.ID, Rating: 4})
	require.NoError(t, err)

	drifts, err := ReconcileBookRatings(ctx, db, 0)
	require.NoError(t, err)
	assert.Empty(t, drifts, "trigger-maintained aggregates are consistent")

	_, err = db.Exec(`UPDATE books SET rating_average = 1.00, rating_count = 9, rating_sum = 9 WHERE id = $1`, book.ID)
	require.NoError(t, err)

	drifts, err = ReconcileBookRatings(ctx, db, 0)
	require.NoError(t, err)
	require.Len(t, drifts, 1)
	assert.Equal(t, book.ID, drifts[0].BookID)
	assert.Equal(t, "1.00", drifts[0].StoredAverage.StringFixed(2))
	assert.Equal(t, "4.00", drifts[0].ActualAverage.StringFixed(2))
	assert.Equal(t, 9, drifts[0].StoredCount)
	assert.Equal(t, 1, drifts[0].ActualCount)

	avg, count := ratingOf(t, db, book.ID)
	assert.Equal(t, "4.00", avg.StringFixed(2))
	assert.Equal(t, 1, count)

	avg, count = ratingOf(t, db, untouched.ID)
	assert.True(t, avg.IsZero())
	assert.Zero(t, count)
}
