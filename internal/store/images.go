package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/models"
)

type AddImageRequest struct {
	ImageURL  string
	ImageType string
	AltText   *string
	SortOrder int
	IsPrimary bool
	FileSize  *int
	Width     *int
	Height    *int
}

const imageColumns = `id, book_id, image_url, image_type, alt_text, sort_order, is_primary, file_size, width, height, created_at`

func scanImage(row scanner) (*models.BookImage, error) {
	img := &models.BookImage{}
	err := row.Scan(&img.ID, &img.BookID, &img.ImageURL, &img.ImageType, &img.AltText,
		&img.SortOrder, &img.IsPrimary, &img.FileSize, &img.Width, &img.Height, &img.CreatedAt)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// AddBookImage attaches an image. Marking it primary demotes the current
// primary image of the book.
func AddBookImage(ctx context.Context, db *sql.DB, bookID int64, req AddImageRequest) (*models.BookImage, error) {
	if req.ImageType == "" {
		req.ImageType = models.ImageCover
	}

	var img *models.BookImage
	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		if req.IsPrimary {
			if err := demotePrimaryImage(ctx, tx, bookID); err != nil {
				return err
			}
		}

		var err error
		img, err = scanImage(tx.QueryRowContext(ctx,
			`INSERT INTO book_images (book_id, image_url, image_type, alt_text, sort_order,
			     is_primary, file_size, width, height)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 RETURNING `+imageColumns,
			bookID, NormalizeImagePath(req.ImageURL), req.ImageType, req.AltText, req.SortOrder,
			req.IsPrimary, req.FileSize, req.Width, req.Height))
		if err != nil {
			return fmt.Errorf("add book image: %w", database.TranslateError(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return img, nil
}

func ListBookImages(ctx context.Context, db Querier, bookID int64) ([]models.BookImage, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+imageColumns+`
		 FROM book_images
		 WHERE book_id = $1
		 ORDER BY is_primary DESC, sort_order, id`, bookID)
	if err != nil {
		return nil, fmt.Errorf("list book images: %w", err)
	}
	defer rows.Close()

	var images []models.BookImage
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book image: %w", err)
		}
		images = append(images, *img)
	}
	return images, rows.Err()
}

func SetPrimaryImage(ctx context.Context, db *sql.DB, bookID, imageID int64) error {
	return database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		if err := demotePrimaryImage(ctx, tx, bookID); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE book_images SET is_primary = TRUE WHERE id = $1 AND book_id = $2`,
			imageID, bookID)
		if err != nil {
			return fmt.Errorf("set primary image: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return database.ErrImageNotFound
		}
		return nil
	})
}

func DeleteBookImage(ctx context.Context, db Querier, bookID, imageID int64) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM book_images WHERE id = $1 AND book_id = $2`, imageID, bookID)
	if err != nil {
		return fmt.Errorf("delete book image: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrImageNotFound
	}
	return nil
}

func demotePrimaryImage(ctx context.Context, tx *sql.Tx, bookID int64) error {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM books WHERE id = $1 FOR UPDATE`, bookID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return database.ErrBookNotFound
		}
		return fmt.Errorf("lock book: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE book_images SET is_primary = FALSE WHERE book_id = $1 AND is_primary`, bookID)
	if err != nil {
		return fmt.Errorf("demote primary image: %w", err)
	}
	return nil
}

// NormalizeImagePath turns Windows-style separators into forward slashes.
func NormalizeImagePath(raw string) string {
	return strings.ReplaceAll(raw, `\`, "/")
}

// RebaseImageURL normalizes separators and prefixes relative paths with
// baseURL. Absolute and protocol-relative URLs, and paths already under
// baseURL, are returned unchanged apart from separator normalization.
func RebaseImageURL(raw, baseURL string) string {
	p := NormalizeImagePath(raw)
	base := strings.TrimRight(baseURL, "/")
	if p == "" || base == "" {
		return p
	}
	if u, err := url.Parse(p); err == nil && (u.IsAbs() || u.Host != "") {
		return p
	}
	if p == base || strings.HasPrefix(p, base+"/") {
		return p
	}
	return base + "/" + strings.TrimLeft(p, "/")
}

// RebaseImageURLs rewrites every stored image URL through RebaseImageURL and
// returns how many rows changed.
func RebaseImageURLs(ctx context.Context, db *sql.DB, baseURL string) (int, error) {
	updated := 0

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT id, image_url FROM book_images ORDER BY id FOR UPDATE`)
		if err != nil {
			return fmt.Errorf("list image urls: %w", err)
		}

		changes := make(map[int64]string)
		for rows.Next() {
			var id int64
			var current string
			if err := rows.Scan(&id, &current); err != nil {
				rows.Close()
				return fmt.Errorf("scan image url: %w", err)
			}
			if next := RebaseImageURL(current, baseURL); next != current {
				changes[id] = next
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("rows error: %w", err)
		}

		for id, next := range changes {
			if _, err := tx.ExecContext(ctx,
				`UPDATE book_images SET image_url = $1 WHERE id = $2`, next, id); err != nil {
				return fmt.Errorf("update image url %d: %w", id, err)
			}
		}
		updated = len(changes)
		return nil
	})
	if err != nil {
		return 0, err
	}

	return updated, nil
}
