package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/models"
	"github.com/safar/go-bookstore/internal/slug"
)

type CreateBookRequest struct {
	Title              string
	Subtitle           *string
	Slug               string
	ISBN               *string
	Description        *string
	Summary            *string
	PublicationYear    *int
	Pages              *int
	Length             decimal.NullDecimal
	Width              decimal.NullDecimal
	Thickness          decimal.NullDecimal
	Weight             *int
	CoverType          *string
	Language           string
	Price              decimal.Decimal
	OriginalPrice      decimal.NullDecimal
	DiscountPercentage decimal.Decimal
	CostPrice          decimal.NullDecimal
	StockQuantity      int
	MinStockLevel      int
	PublisherID        *int64
	SupplierID         *int64
	CategoryID         *int64
	IsFeatured         bool
	IsBestseller       bool
	IsNewRelease       bool
}

type BookFilter struct {
	CategoryID *int64
	Search     string
	ActiveOnly bool
}

const bookColumns = `id, title, subtitle, slug, isbn, description, summary, table_of_contents,
	publication_year, pages, length, width, thickness, weight, cover_type, language, price,
	original_price, discount_percentage, cost_price, stock_quantity, min_stock_level,
	sold_quantity, view_count, rating_average, rating_count, publisher_id, supplier_id,
	category_id, is_active, is_featured, is_bestseller, is_new_release, meta_title,
	meta_description, created_at, updated_at`

func scanBook(row scanner) (*models.Book, error) {
	b := &models.Book{}
	err := row.Scan(
		&b.ID,
		&b.Title,
		&b.Subtitle,
		&b.Slug,
		&b.ISBN,
		&b.Description,
		&b.Summary,
		&b.TableOfContents,
		&b.PublicationYear,
		&b.Pages,
		&b.Length,
		&b.Width,
		&b.Thickness,
		&b.Weight,
		&b.CoverType,
		&b.Language,
		&b.Price,
		&b.OriginalPrice,
		&b.DiscountPercentage,
		&b.CostPrice,
		&b.StockQuantity,
		&b.MinStockLevel,
		&b.SoldQuantity,
		&b.ViewCount,
		&b.RatingAverage,
		&b.RatingCount,
		&b.PublisherID,
		&b.SupplierID,
		&b.CategoryID,
		&b.IsActive,
		&b.IsFeatured,
		&b.IsBestseller,
		&b.IsNewRelease,
		&b.MetaTitle,
		&b.MetaDescription,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func CreateBook(ctx context.Context, db Querier, req CreateBookRequest) (*models.Book, error) {
	if req.Slug == "" {
		req.Slug = slug.Make(req.Title)
	}
	if req.Slug == "" {
		return nil, fmt.Errorf("create book: %w: title %q yields an empty slug", database.ErrConstraintViolation, req.Title)
	}
	if req.Language == "" {
		req.Language = "Vietnamese"
	}
	if req.MinStockLevel == 0 {
		req.MinStockLevel = 5
	}

	query := `
		INSERT INTO books (title, subtitle, slug, isbn, description, summary, publication_year, pages,
		    length, width, thickness, weight, cover_type, language, price, original_price,
		    discount_percentage, cost_price, stock_quantity, min_stock_level, publisher_id,
		    supplier_id, category_id, is_featured, is_bestseller, is_new_release)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		    $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
		RETURNING ` + bookColumns

	book, err := scanBook(db.QueryRowContext(ctx, query,
		req.Title, req.Subtitle, req.Slug, req.ISBN, req.Description, req.Summary,
		req.PublicationYear, req.Pages, req.Length, req.Width, req.Thickness, req.Weight,
		req.CoverType, req.Language, req.Price, req.OriginalPrice, req.DiscountPercentage,
		req.CostPrice, req.StockQuantity, req.MinStockLevel, req.PublisherID, req.SupplierID,
		req.CategoryID, req.IsFeatured, req.IsBestseller, req.IsNewRelease))
	if err != nil {
		return nil, fmt.Errorf("create book: %w", database.TranslateError(err))
	}

	return book, nil
}

func GetBook(ctx context.Context, db Querier, id int64) (*models.Book, error) {
	book, err := scanBook(db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrBookNotFound
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return book, nil
}

func GetBookBySlug(ctx context.Context, db Querier, s string) (*models.Book, error) {
	book, err := scanBook(db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE slug = $1`, s))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrBookNotFound
		}
		return nil, fmt.Errorf("get book by slug: %w", err)
	}
	return book, nil
}

// LockBook takes a row lock on a book for the rest of tx and checks that
// quantity can be sold from it.
func LockBook(ctx context.Context, tx *sql.Tx, bookID int64, quantity int) (*models.Book, error) {
	book, err := scanBook(tx.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = $1 FOR UPDATE`, bookID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrBookNotFound
		}
		return nil, fmt.Errorf("lock book: %w", err)
	}

	return book, checkSellable(book, quantity)
}

// LockBookNoWait is LockBook failing fast with ErrLockTimeout when another
// transaction holds the row.
func LockBookNoWait(ctx context.Context, tx *sql.Tx, bookID int64, quantity int) (*models.Book, error) {
	book, err := scanBook(tx.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = $1 FOR UPDATE NOWAIT`, bookID))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == database.CodeLockNotAvailable {
			return nil, database.ErrLockTimeout
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrBookNotFound
		}
		return nil, fmt.Errorf("lock book (nowait): %w", err)
	}

	return book, checkSellable(book, quantity)
}

func checkSellable(book *models.Book, quantity int) error {
	if !book.IsActive {
		return database.ErrBookInactive
	}
	if book.StockQuantity < quantity {
		return database.ErrInsufficientStock
	}
	return nil
}

// SetStockOptimistic overwrites the stock count after a stocktake. The write
// only lands if the row is unchanged since seenUpdatedAt.
func SetStockOptimistic(ctx context.Context, db Querier, bookID int64, newStock int, seenUpdatedAt time.Time) error {
	result, err := db.ExecContext(ctx,
		`UPDATE books
		 SET stock_quantity = $1
		 WHERE id = $2 AND updated_at = $3`,
		newStock, bookID, seenUpdatedAt)
	if err != nil {
		return fmt.Errorf("set stock: %w", database.TranslateError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return database.ErrOptimisticLockFailed
	}

	return nil
}

// Restock adds delivered copies to a book's stock.
func Restock(ctx context.Context, db Querier, bookID int64, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, database.ErrInvalidQuantity
	}

	var stock int
	err := db.QueryRowContext(ctx,
		`UPDATE books SET stock_quantity = stock_quantity + $1 WHERE id = $2 RETURNING stock_quantity`,
		quantity, bookID).Scan(&stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, database.ErrBookNotFound
		}
		return 0, fmt.Errorf("restock book: %w", err)
	}
	return stock, nil
}

// returnToStock reverses a sale without touching order_items, used when a
// cancelled order keeps its lines for the record.
func returnToStock(ctx context.Context, tx *sql.Tx, bookID int64, quantity int) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE books
		 SET stock_quantity = stock_quantity + $1,
		     sold_quantity = sold_quantity - $1
		 WHERE id = $2`,
		quantity, bookID)
	if err != nil {
		return fmt.Errorf("return stock: %w", database.TranslateError(err))
	}
	return nil
}

func SetBookActive(ctx context.Context, db Querier, bookID int64, active bool) error {
	result, err := db.ExecContext(ctx, `UPDATE books SET is_active = $1 WHERE id = $2`, active, bookID)
	if err != nil {
		return fmt.Errorf("set book active: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrBookNotFound
	}
	return nil
}

func UpdateBookPrice(ctx context.Context, db Querier, bookID int64, price decimal.Decimal, discount decimal.Decimal) error {
	result, err := db.ExecContext(ctx,
		`UPDATE books SET price = $1, discount_percentage = $2 WHERE id = $3`,
		price, discount, bookID)
	if err != nil {
		return fmt.Errorf("update book price: %w", database.TranslateError(err))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrBookNotFound
	}
	return nil
}

func IncrementViewCount(ctx context.Context, db Querier, bookID int64) error {
	_, err := db.ExecContext(ctx, `UPDATE books SET view_count = view_count + 1 WHERE id = $1`, bookID)
	if err != nil {
		return fmt.Errorf("increment view count: %w", err)
	}
	return nil
}

// DeleteBook fails with ErrReferenced once the book has been ordered;
// deactivate it instead.
func DeleteBook(ctx context.Context, db Querier, bookID int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, bookID)
	if err != nil {
		return fmt.Errorf("delete book: %w", database.TranslateError(err))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrBookNotFound
	}
	return nil
}

func ListBooks(ctx context.Context, db Querier, filter BookFilter, page, pageSize int) (*OffsetPage, error) {
	page, pageSize = normalizePage(page, pageSize)
	pattern := containsPattern(filter.Search)

	where := `WHERE ($1::INTEGER IS NULL OR category_id = $1)
		  AND ($2 = '' OR title ILIKE $2)
		  AND (NOT $3 OR is_active)`

	var total int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books `+where,
		filter.CategoryID, pattern, filter.ActiveOnly).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count books: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT ` + bookColumns + `
		FROM books
		` + where + `
		ORDER BY created_at DESC, id DESC
		LIMIT $4 OFFSET $5`

	rows, err := db.QueryContext(ctx, query,
		filter.CategoryID, pattern, filter.ActiveOnly, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var books []models.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, *book)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return &OffsetPage{
		Items:      books,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

func AddBookAuthor(ctx context.Context, db Querier, bookID, authorID int64, role string, sortOrder int) (*models.BookAuthor, error) {
	if role == "" {
		role = models.AuthorRoleAuthor
	}

	ba := &models.BookAuthor{}
	err := db.QueryRowContext(ctx,
		`INSERT INTO book_authors (book_id, author_id, role, sort_order)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, book_id, author_id, role, sort_order`,
		bookID, authorID, role, sortOrder).Scan(&ba.ID, &ba.BookID, &ba.AuthorID, &ba.Role, &ba.SortOrder)
	if err != nil {
		return nil, fmt.Errorf("add book author: %w", database.TranslateError(err))
	}
	return ba, nil
}

func RemoveBookAuthor(ctx context.Context, db Querier, bookID, authorID int64, role string) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM book_authors WHERE book_id = $1 AND author_id = $2 AND role = $3`,
		bookID, authorID, role)
	if err != nil {
		return fmt.Errorf("remove book author: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrAuthorNotFound
	}
	return nil
}

func ListBookAuthors(ctx context.Context, db Querier, bookID int64) ([]models.Author, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT a.id, a.first_name, a.last_name, a.pen_name, a.biography, a.birth_date, a.death_date,
		        a.nationality, a.website, a.image_url, a.is_active, a.created_at
		 FROM authors a
		 JOIN book_authors ba ON ba.author_id = a.id
		 WHERE ba.book_id = $1
		 ORDER BY ba.sort_order, ba.id`, bookID)
	if err != nil {
		return nil, fmt.Errorf("list book authors: %w", err)
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
