package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/models"
	"github.com/safar/go-bookstore/internal/slug"
)

type CreateCategoryRequest struct {
	Name        string
	Slug        string
	Description *string
	ParentID    *int64
	ImageURL    *string
	SortOrder   int
}

const categoryColumns = `id, name, slug, description, parent_id, image_url, sort_order, is_active, created_at`

func scanCategory(row scanner) (*models.Category, error) {
	c := &models.Category{}
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.ParentID,
		&c.ImageURL, &c.SortOrder, &c.IsActive, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func CreateCategory(ctx context.Context, db Querier, req CreateCategoryRequest) (*models.Category, error) {
	s := req.Slug
	if s == "" {
		s = slug.Make(req.Name)
	}
	if s == "" {
		return nil, fmt.Errorf("create category: %w: name %q yields an empty slug", database.ErrConstraintViolation, req.Name)
	}

	c, err := scanCategory(db.QueryRowContext(ctx,
		`INSERT INTO categories (name, slug, description, parent_id, image_url, sort_order)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+categoryColumns,
		req.Name, s, req.Description, req.ParentID, req.ImageURL, req.SortOrder))
	if err != nil {
		return nil, fmt.Errorf("create category: %w", database.TranslateError(err))
	}
	return c, nil
}

func GetCategory(ctx context.Context, db Querier, id int64) (*models.Category, error) {
	c, err := scanCategory(db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func GetCategoryBySlug(ctx context.Context, db Querier, s string) (*models.Category, error) {
	c, err := scanCategory(db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE slug = $1`, s))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("get category by slug: %w", err)
	}
	return c, nil
}

// ListCategories returns active categories; a nil parentID lists the roots.
func ListCategories(ctx context.Context, db Querier, parentID *int64) ([]models.Category, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+categoryColumns+`
		 FROM categories
		 WHERE is_active AND parent_id IS NOT DISTINCT FROM $1
		 ORDER BY sort_order, name`, parentID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

// MoveCategory re-parents a category. A nil parentID makes it a root. Moving
// a category under itself or one of its descendants fails with
// ErrCategoryCycle.
func MoveCategory(ctx context.Context, db *sql.DB, id int64, parentID *int64) error {
	return database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		// Serializes concurrent moves so two of them cannot close a loop together.
		if _, err := tx.ExecContext(ctx, `LOCK TABLE categories IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return fmt.Errorf("lock categories: %w", err)
		}

		if parentID != nil {
			var cycle bool
			err := tx.QueryRowContext(ctx, `
				WITH RECURSIVE ancestors AS (
					SELECT id, parent_id FROM categories WHERE id = $2
					UNION
					SELECT c.id, c.parent_id
					FROM categories c
					JOIN ancestors a ON c.id = a.parent_id
				)
				SELECT EXISTS (SELECT 1 FROM ancestors WHERE id = $1)`,
				id, *parentID).Scan(&cycle)
			if err != nil {
				return fmt.Errorf("check category ancestry: %w", err)
			}
			if cycle {
				return database.ErrCategoryCycle
			}
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE categories SET parent_id = $1 WHERE id = $2`, parentID, id)
		if err != nil {
			return fmt.Errorf("move category: %w", database.TranslateError(err))
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return database.ErrCategoryNotFound
		}
		return nil
	})
}

// DeleteCategory removes a category; children become roots and books lose
// their category.
func DeleteCategory(ctx context.Context, db Querier, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", database.TranslateError(err))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrCategoryNotFound
	}
	return nil
}
