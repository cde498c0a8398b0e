package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/models"
)

type CreateReviewRequest struct {
	BookID  int64
	UserID  int64
	Rating  int
	Title   *string
	Comment *string
	Pros    *string
	Cons    *string
}

const reviewColumns = `id, book_id, user_id, rating, title, comment, pros, cons, is_verified_purchase,
	helpful_count, is_approved, admin_notes, created_at, updated_at`

func scanReview(row scanner) (*models.Review, error) {
	r := &models.Review{}
	err := row.Scan(&r.ID, &r.BookID, &r.UserID, &r.Rating, &r.Title, &r.Comment, &r.Pros,
		&r.Cons, &r.IsVerifiedPurchase, &r.HelpfulCount, &r.IsApproved, &r.AdminNotes,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func validRating(rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", database.ErrConstraintViolation)
	}
	return nil
}

// CreateReview stores a review, flagging it as a verified purchase when the
// user has a delivered order containing the book. The rating trigger folds
// approved reviews into the book's average.
func CreateReview(ctx context.Context, db Querier, req CreateReviewRequest) (*models.Review, error) {
	if err := validRating(req.Rating); err != nil {
		return nil, err
	}

	r, err := scanReview(db.QueryRowContext(ctx,
		`INSERT INTO book_reviews (book_id, user_id, rating, title, comment, pros, cons, is_verified_purchase)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, EXISTS (
		     SELECT 1
		     FROM orders o
		     JOIN order_items oi ON oi.order_id = o.id
		     WHERE o.user_id = $2 AND oi.book_id = $1 AND o.status = 'delivered'
		 ))
		 RETURNING `+reviewColumns,
		req.BookID, req.UserID, req.Rating, req.Title, req.Comment, req.Pros, req.Cons))
	if err != nil {
		return nil, fmt.Errorf("create review: %w", database.TranslateError(err))
	}
	return r, nil
}

func GetReview(ctx context.Context, db Querier, id int64) (*models.Review, error) {
	r, err := scanReview(db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM book_reviews WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrReviewNotFound
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return r, nil
}

func ListBookReviews(ctx context.Context, db Querier, bookID int64, approvedOnly bool) ([]models.Review, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+reviewColumns+`
		 FROM book_reviews
		 WHERE book_id = $1 AND (NOT $2 OR is_approved)
		 ORDER BY helpful_count DESC, created_at DESC, id DESC`, bookID, approvedOnly)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, *r)
	}
	return reviews, rows.Err()
}

// UpdateReviewRating changes the star rating; the trigger moves the book
// average by the difference.
func UpdateReviewRating(ctx context.Context, db Querier, id int64, rating int, comment *string) error {
	if err := validRating(rating); err != nil {
		return err
	}

	result, err := db.ExecContext(ctx,
		`UPDATE book_reviews SET rating = $1, comment = COALESCE($2, comment) WHERE id = $3`,
		rating, comment, id)
	if err != nil {
		return fmt.Errorf("update review: %w", database.TranslateError(err))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrReviewNotFound
	}
	return nil
}

// SetReviewApproved moderates a review; unapproved reviews drop out of the
// book's rating.
func SetReviewApproved(ctx context.Context, db Querier, id int64, approved bool, adminNotes *string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE book_reviews SET is_approved = $1, admin_notes = COALESCE($2, admin_notes) WHERE id = $3`,
		approved, adminNotes, id)
	if err != nil {
		return fmt.Errorf("moderate review: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrReviewNotFound
	}
	return nil
}

func DeleteReview(ctx context.Context, db Querier, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM book_reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrReviewNotFound
	}
	return nil
}

// VoteReview records or changes a user's helpfulness vote and returns the
// review's new helpful_count.
func VoteReview(ctx context.Context, db *sql.DB, reviewID, userID int64, helpful bool) (int, error) {
	var count int

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM book_reviews WHERE id = $1 FOR UPDATE`, reviewID).Scan(&id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return database.ErrReviewNotFound
			}
			return fmt.Errorf("lock review: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO review_ratings (review_id, user_id, is_helpful)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (review_id, user_id) DO UPDATE SET is_helpful = EXCLUDED.is_helpful`,
			reviewID, userID, helpful)
		if err != nil {
			return fmt.Errorf("record vote: %w", database.TranslateError(err))
		}

		err = tx.QueryRowContext(ctx,
			`UPDATE book_reviews
			 SET helpful_count = (
			     SELECT COUNT(*) FROM review_ratings WHERE review_id = $1 AND is_helpful
			 )
			 WHERE id = $1
			 RETURNING helpful_count`, reviewID).Scan(&count)
		if err != nil {
			return fmt.Errorf("update helpful count: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

type RatingDrift struct {
	BookID        int64
	StoredAverage decimal.Decimal
	ActualAverage decimal.Decimal
	StoredCount   int
	ActualCount   int
}

// ReconcileBookRatings recomputes every book's rating aggregates from its
// approved reviews, repairs books whose stored values drifted, and reports
// them. limit caps how many books are repaired per call; 0 means no cap.
func ReconcileBookRatings(ctx context.Context, db Querier, limit int) ([]RatingDrift, error) {
	rows, err := db.QueryContext(ctx, `
		WITH actual AS (
			SELECT b.id,
			       COALESCE(SUM(r.rating), 0)::BIGINT AS rating_sum,
			       COUNT(r.id)::INTEGER AS rating_count
			FROM books b
			LEFT JOIN book_reviews r ON r.book_id = b.id AND r.is_approved
			GROUP BY b.id
		), drift AS (
			SELECT b.id,
			       b.rating_average AS stored_average,
			       b.rating_count AS stored_count,
			       a.rating_sum,
			       a.rating_count,
			       CASE WHEN a.rating_count > 0
			            THEN ROUND(a.rating_sum::NUMERIC / a.rating_count, 2)
			            ELSE 0
			       END AS actual_average
			FROM books b
			JOIN actual a ON a.id = b.id
			WHERE b.rating_sum <> a.rating_sum
			   OR b.rating_count <> a.rating_count
			   OR b.rating_average <> CASE WHEN a.rating_count > 0
			                               THEN ROUND(a.rating_sum::NUMERIC / a.rating_count, 2)
			                               ELSE 0
			                          END
			ORDER BY b.id
			LIMIT NULLIF($1::INTEGER, 0)
		)
		UPDATE books b
		SET rating_sum = d.rating_sum,
		    rating_count = d.rating_count,
		    rating_average = d.actual_average
		FROM drift d
		WHERE b.id = d.id
		RETURNING b.id, d.stored_average, b.rating_average, d.stored_count, b.rating_count`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("reconcile ratings: %w", err)
	}
	defer rows.Close()

	var drifts []RatingDrift
	for rows.Next() {
		var d RatingDrift
		if err := rows.Scan(&d.BookID, &d.StoredAverage, &d.ActualAverage, &d.StoredCount, &d.ActualCount); err != nil {
			return nil, fmt.Errorf("scan rating drift: %w", err)
		}
		drifts = append(drifts, d)
	}
	return drifts, rows.Err()
}
