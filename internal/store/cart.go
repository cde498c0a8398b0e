package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/models"
)

// DefaultGuestCartTTL matches the guest_carts.expires_at column default.
const DefaultGuestCartTTL = 30 * 24 * time.Hour

// CartLine is a cart row joined with the book's current price and stock.
type CartLine struct {
	models.CartItem
	Title         string          `json:"title"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	IsActive      bool            `json:"is_active"`
}

func (l CartLine) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// AddToCart adds quantity copies of a book, merging with an existing line.
func AddToCart(ctx context.Context, db Querier, userID, bookID int64, quantity int) (*models.CartItem, error) {
	if quantity <= 0 {
		return nil, database.ErrInvalidQuantity
	}

	item := &models.CartItem{}
	err := db.QueryRowContext(ctx,
		`INSERT INTO cart_items (user_id, book_id, quantity)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, book_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		 RETURNING id, user_id, book_id, quantity, added_at, updated_at`,
		userID, bookID, quantity).Scan(
		&item.ID, &item.UserID, &item.BookID, &item.Quantity, &item.AddedAt, &item.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("add to cart: %w", database.TranslateError(err))
	}
	return item, nil
}

// SetCartQuantity overwrites a line's quantity; zero or less removes it.
func SetCartQuantity(ctx context.Context, db Querier, userID, bookID int64, quantity int) error {
	if quantity <= 0 {
		return RemoveFromCart(ctx, db, userID, bookID)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE cart_items SET quantity = $1 WHERE user_id = $2 AND book_id = $3`,
		quantity, userID, bookID)
	if err != nil {
		return fmt.Errorf("update cart: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrCartItemNotFound
	}
	return nil
}

func RemoveFromCart(ctx context.Context, db Querier, userID, bookID int64) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND book_id = $2`, userID, bookID)
	if err != nil {
		return fmt.Errorf("remove from cart: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrCartItemNotFound
	}
	return nil
}

func ClearCart(ctx context.Context, db Querier, userID int64) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func ListCart(ctx context.Context, db Querier, userID int64) ([]CartLine, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT c.id, c.user_id, c.book_id, c.quantity, c.added_at, c.updated_at,
		        b.title, b.price, b.stock_quantity, b.is_active
		 FROM cart_items c
		 JOIN books b ON b.id = c.book_id
		 WHERE c.user_id = $1
		 ORDER BY c.added_at, c.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	defer rows.Close()

	var lines []CartLine
	for rows.Next() {
		var l CartLine
		err := rows.Scan(&l.ID, &l.UserID, &l.BookID, &l.Quantity, &l.AddedAt, &l.UpdatedAt,
			&l.Title, &l.Price, &l.StockQuantity, &l.IsActive)
		if err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// AddToWishlist is idempotent.
func AddToWishlist(ctx context.Context, db Querier, userID, bookID int64) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO wishlist_items (user_id, book_id) VALUES ($1, $2)
		 ON CONFLICT (user_id, book_id) DO NOTHING`, userID, bookID)
	if err != nil {
		return fmt.Errorf("add to wishlist: %w", database.TranslateError(err))
	}
	return nil
}

func RemoveFromWishlist(ctx context.Context, db Querier, userID, bookID int64) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM wishlist_items WHERE user_id = $1 AND book_id = $2`, userID, bookID)
	if err != nil {
		return fmt.Errorf("remove from wishlist: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrWishlistItemNotFound
	}
	return nil
}

func ListWishlist(ctx context.Context, db Querier, userID int64) ([]models.WishlistItem, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, user_id, book_id, created_at FROM wishlist_items
		 WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	defer rows.Close()

	var items []models.WishlistItem
	for rows.Next() {
		var w models.WishlistItem
		if err := rows.Scan(&w.ID, &w.UserID, &w.BookID, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan wishlist item: %w", err)
		}
		items = append(items, w)
	}
	return items, rows.Err()
}

// NewGuestSessionID returns an identifier for an anonymous shopper's cart.
func NewGuestSessionID() string {
	return uuid.NewString()
}

// AddToGuestCart merges into an existing line and pushes its expiry out.
func AddToGuestCart(ctx context.Context, db Querier, sessionID string, bookID int64, quantity int, ttl time.Duration) (*models.GuestCartItem, error) {
	if quantity <= 0 {
		return nil, database.ErrInvalidQuantity
	}
	if ttl <= 0 {
		ttl = DefaultGuestCartTTL
	}

	item := &models.GuestCartItem{}
	err := db.QueryRowContext(ctx,
		`INSERT INTO guest_carts (session_id, book_id, quantity, expires_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (session_id, book_id) DO UPDATE
		 SET quantity = guest_carts.quantity + EXCLUDED.quantity,
		     expires_at = EXCLUDED.expires_at
		 RETURNING id, session_id, book_id, quantity, expires_at, created_at, updated_at`,
		sessionID, bookID, quantity, time.Now().Add(ttl)).Scan(
		&item.ID, &item.SessionID, &item.BookID, &item.Quantity, &item.ExpiresAt,
		&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("add to guest cart: %w", database.TranslateError(err))
	}
	return item, nil
}

func ListGuestCart(ctx context.Context, db Querier, sessionID string) ([]models.GuestCartItem, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, session_id, book_id, quantity, expires_at, created_at, updated_at
		 FROM guest_carts
		 WHERE session_id = $1 AND expires_at > CURRENT_TIMESTAMP
		 ORDER BY created_at, id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list guest cart: %w", err)
	}
	defer rows.Close()

	var items []models.GuestCartItem
	for rows.Next() {
		var g models.GuestCartItem
		if err := rows.Scan(&g.ID, &g.SessionID, &g.BookID, &g.Quantity, &g.ExpiresAt, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan guest cart item: %w", err)
		}
		items = append(items, g)
	}
	return items, rows.Err()
}

// MergeGuestCart moves the unexpired lines of a guest session into a user's
// cart, summing quantities for books already there, and empties the guest
// cart. It returns the number of lines merged.
func MergeGuestCart(ctx context.Context, db *sql.DB, sessionID string, userID int64) (int64, error) {
	var merged int64

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		if err := lockUser(ctx, tx, userID); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx,
			`INSERT INTO cart_items (user_id, book_id, quantity)
			 SELECT $2, book_id, quantity
			 FROM guest_carts
			 WHERE session_id = $1 AND expires_at > CURRENT_TIMESTAMP
			 ON CONFLICT (user_id, book_id) DO UPDATE
			 SET quantity = cart_items.quantity + EXCLUDED.quantity`,
			sessionID, userID)
		if err != nil {
			return fmt.Errorf("merge guest cart: %w", database.TranslateError(err))
		}
		merged, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM guest_carts WHERE session_id = $1`, sessionID); err != nil {
			return fmt.Errorf("clear guest cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return merged, nil
}

// ExpireGuestCarts deletes guest cart lines past their expiry.
func ExpireGuestCarts(ctx context.Context, db Querier) (int64, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM guest_carts WHERE expires_at <= CURRENT_TIMESTAMP`)
	if err != nil {
		return 0, fmt.Errorf("expire guest carts: %w", err)
	}
	return result.RowsAffected()
}
