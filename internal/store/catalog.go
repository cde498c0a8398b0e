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

const publisherColumns = `id, name, description, website, contact_email, contact_phone, address, logo_url, is_active, created_at`

func scanPublisher(row scanner) (*models.Publisher, error) {
	p := &models.Publisher{}
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Website, &p.ContactEmail,
		&p.ContactPhone, &p.Address, &p.LogoURL, &p.IsActive, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func CreatePublisher(ctx context.Context, db Querier, p models.Publisher) (*models.Publisher, error) {
	created, err := scanPublisher(db.QueryRowContext(ctx,
		`INSERT INTO publishers (name, description, website, contact_email, contact_phone, address, logo_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+publisherColumns,
		p.Name, p.Description, p.Website, p.ContactEmail, p.ContactPhone, p.Address, p.LogoURL))
	if err != nil {
		return nil, fmt.Errorf("create publisher: %w", database.TranslateError(err))
	}
	return created, nil
}

func GetPublisher(ctx context.Context, db Querier, id int64) (*models.Publisher, error) {
	p, err := scanPublisher(db.QueryRowContext(ctx,
		`SELECT `+publisherColumns+` FROM publishers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrPublisherNotFound
		}
		return nil, fmt.Errorf("get publisher: %w", err)
	}
	return p, nil
}

func ListPublishers(ctx context.Context, db Querier) ([]models.Publisher, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+publisherColumns+` FROM publishers WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list publishers: %w", err)
	}
	defer rows.Close()

	var publishers []models.Publisher
	for rows.Next() {
		p, err := scanPublisher(rows)
		if err != nil {
			return nil, fmt.Errorf("scan publisher: %w", err)
		}
		publishers = append(publishers, *p)
	}
	return publishers, rows.Err()
}

const supplierColumns = `id, name, contact_person, email, phone, address, payment_terms, credit_limit, is_active, created_at`

func scanSupplier(row scanner) (*models.Supplier, error) {
	s := &models.Supplier{}
	err := row.Scan(&s.ID, &s.Name, &s.ContactPerson, &s.Email, &s.Phone,
		&s.Address, &s.PaymentTerms, &s.CreditLimit, &s.IsActive, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func CreateSupplier(ctx context.Context, db Querier, s models.Supplier) (*models.Supplier, error) {
	created, err := scanSupplier(db.QueryRowContext(ctx,
		`INSERT INTO suppliers (name, contact_person, email, phone, address, payment_terms, credit_limit)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+supplierColumns,
		s.Name, s.ContactPerson, s.Email, s.Phone, s.Address, s.PaymentTerms, s.CreditLimit))
	if err != nil {
		return nil, fmt.Errorf("create supplier: %w", database.TranslateError(err))
	}
	return created, nil
}

func GetSupplier(ctx context.Context, db Querier, id int64) (*models.Supplier, error) {
	s, err := scanSupplier(db.QueryRowContext(ctx,
		`SELECT `+supplierColumns+` FROM suppliers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrSupplierNotFound
		}
		return nil, fmt.Errorf("get supplier: %w", err)
	}
	return s, nil
}

func ListSuppliers(ctx context.Context, db Querier) ([]models.Supplier, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+supplierColumns+` FROM suppliers WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []models.Supplier
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		suppliers = append(suppliers, *s)
	}
	return suppliers, rows.Err()
}

const authorColumns = `id, first_name, last_name, pen_name, biography, birth_date, death_date,
	nationality, website, image_url, is_active, created_at`

func scanAuthor(row scanner) (*models.Author, error) {
	a := &models.Author{}
	err := row.Scan(&a.ID, &a.FirstName, &a.LastName, &a.PenName, &a.Biography,
		&a.BirthDate, &a.DeathDate, &a.Nationality, &a.Website, &a.ImageURL,
		&a.IsActive, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// CreateAuthor requires either a pen name or both first and last name.
func CreateAuthor(ctx context.Context, db Querier, a models.Author) (*models.Author, error) {
	created, err := scanAuthor(db.QueryRowContext(ctx,
		`INSERT INTO authors (first_name, last_name, pen_name, biography, birth_date, death_date,
		     nationality, website, image_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+authorColumns,
		a.FirstName, a.LastName, a.PenName, a.Biography, a.BirthDate, a.DeathDate,
		a.Nationality, a.Website, a.ImageURL))
	if err != nil {
		return nil, fmt.Errorf("create author: %w", database.TranslateError(err))
	}
	return created, nil
}

func GetAuthor(ctx context.Context, db Querier, id int64) (*models.Author, error) {
	a, err := scanAuthor(db.QueryRowContext(ctx,
		`SELECT `+authorColumns+` FROM authors WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrAuthorNotFound
		}
		return nil, fmt.Errorf("get author: %w", err)
	}
	return a, nil
}

func ListAuthors(ctx context.Context, db Querier) ([]models.Author, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+authorColumns+` FROM authors WHERE is_active
		 ORDER BY COALESCE(pen_name, last_name || ' ' || first_name)`)
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}
	defer rows.Close()

	var authors []models.Author
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan author: %w", err)
		}
		authors = append(authors, *a)
	}
	return authors, rows.Err()
}

// CreateTag derives the slug from the name.
func CreateTag(ctx context.Context, db Querier, name string) (*models.Tag, error) {
	s := slug.Make(name)
	if s == "" {
		return nil, fmt.Errorf("create tag: %w: name %q yields an empty slug", database.ErrConstraintViolation, name)
	}

	t := &models.Tag{}
	err := db.QueryRowContext(ctx,
		`INSERT INTO tags (name, slug) VALUES ($1, $2)
		 RETURNING id, name, slug, created_at`,
		name, s).Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create tag: %w", database.TranslateError(err))
	}
	return t, nil
}

// TagBook is idempotent.
func TagBook(ctx context.Context, db Querier, bookID, tagID int64) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO book_tags (book_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		bookID, tagID)
	if err != nil {
		return fmt.Errorf("tag book: %w", database.TranslateError(err))
	}
	return nil
}

func UntagBook(ctx context.Context, db Querier, bookID, tagID int64) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM book_tags WHERE book_id = $1 AND tag_id = $2`, bookID, tagID)
	if err != nil {
		return fmt.Errorf("untag book: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrTagNotFound
	}
	return nil
}

func ListBookTags(ctx context.Context, db Querier, bookID int64) ([]models.Tag, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT t.id, t.name, t.slug, t.created_at
		 FROM tags t
		 JOIN book_tags bt ON bt.tag_id = t.id
		 WHERE bt.book_id = $1
		 ORDER BY t.name`, bookID)
	if err != nil {
		return nil, fmt.Errorf("list book tags: %w", err)
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}
