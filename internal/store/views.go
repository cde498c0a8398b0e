package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/models"
)

// Read models over the reporting views. They are mapped with sqlx struct
// tags since the views are wide and read-only.

// NewViewReader wraps a pool for the view queries below.
func NewViewReader(db *sql.DB) *sqlx.DB {
	return sqlx.NewDb(db, "postgres")
}

func GetBookDetail(ctx context.Context, q sqlx.QueryerContext, id int64) (*models.BookDetail, error) {
	var d models.BookDetail
	err := sqlx.GetContext(ctx, q, &d, `SELECT * FROM book_details WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrBookNotFound
		}
		return nil, fmt.Errorf("get book detail: %w", err)
	}
	return &d, nil
}

func ListBookDetails(ctx context.Context, q sqlx.QueryerContext, filter BookFilter, page, pageSize int) (*OffsetPage, error) {
	page, pageSize = normalizePage(page, pageSize)
	pattern := containsPattern(filter.Search)

	where := `WHERE ($1::INTEGER IS NULL OR id IN (SELECT id FROM books WHERE category_id = $1))
		  AND ($2 = '' OR title ILIKE $2 OR authors ILIKE $2)
		  AND (NOT $3 OR is_active)`

	var total int64
	err := sqlx.GetContext(ctx, q, &total, `SELECT COUNT(*) FROM book_details `+where,
		filter.CategoryID, pattern, filter.ActiveOnly)
	if err != nil {
		return nil, fmt.Errorf("count book details: %w", err)
	}

	var details []models.BookDetail
	err = sqlx.SelectContext(ctx, q, &details,
		`SELECT * FROM book_details `+where+`
		 ORDER BY created_at DESC, id DESC
		 LIMIT $4 OFFSET $5`,
		filter.CategoryID, pattern, filter.ActiveOnly, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("list book details: %w", err)
	}

	return &OffsetPage{
		Items:      details,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

func GetOrderDetail(ctx context.Context, q sqlx.QueryerContext, id int64) (*models.OrderDetail, error) {
	var d models.OrderDetail
	err := sqlx.GetContext(ctx, q, &d, `SELECT * FROM order_details WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order detail: %w", err)
	}
	return &d, nil
}

// ListOrderDetails lists orders newest first, optionally narrowed to a status.
func ListOrderDetails(ctx context.Context, q sqlx.QueryerContext, status models.OrderStatus, limit int) ([]models.OrderDetail, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var details []models.OrderDetail
	err := sqlx.SelectContext(ctx, q, &details,
		`SELECT * FROM order_details
		 WHERE $1 = '' OR status = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("list order details: %w", err)
	}
	return details, nil
}

// ListBookStatistics returns active books by revenue. A non-empty
// stockStatus keeps only books in that stock band.
func ListBookStatistics(ctx context.Context, q sqlx.QueryerContext, stockStatus string, limit int) ([]models.BookStatistic, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var stats []models.BookStatistic
	err := sqlx.SelectContext(ctx, q, &stats,
		`SELECT * FROM book_statistics
		 WHERE $1 = '' OR stock_status = $1
		 ORDER BY revenue DESC, id
		 LIMIT $2`, stockStatus, limit)
	if err != nil {
		return nil, fmt.Errorf("list book statistics: %w", err)
	}
	return stats, nil
}

// ListLowStock returns active books at or below their minimum stock level,
// emptiest first.
func ListLowStock(ctx context.Context, q sqlx.QueryerContext) ([]models.BookStatistic, error) {
	var stats []models.BookStatistic
	err := sqlx.SelectContext(ctx, q, &stats,
		`SELECT * FROM book_statistics
		 WHERE stock_status <> $1
		 ORDER BY stock_quantity, id`, models.StockIn)
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	return stats, nil
}
