package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/safar/go-bookstore/internal/dbtest"
	"github.com/safar/go-bookstore/internal/models"
)

var fixtureSeq atomic.Int64

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db := dbtest.New(t)

	_, err := db.Exec(`INSERT INTO user_roles (id, role_name) VALUES (1, 'admin'), (2, 'staff'), (3, 'customer')`)
	require.NoError(t, err)

	return db
}

func createTestUser(t *testing.T, db *sql.DB) *models.User {
	t.Helper()
	n := fixtureSeq.Add(1)

	user, err := CreateUser(context.Background(), db, CreateUserRequest{
		Username:     fmt.Sprintf("reader%d", n),
		Email:        fmt.Sprintf("reader%d@example.com", n),
		PasswordHash: "$2a$04$fixture",
		FirstName:    "Test",
		LastName:     fmt.Sprintf("Reader %d", n),
	})
	require.NoError(t, err)
	return user
}

func createTestBook(t *testing.T, db *sql.DB, price string, stock int) *models.Book {
	t.Helper()
	return createTestBookIn(t, db, nil, price, stock)
}

func createTestBookIn(t *testing.T, db *sql.DB, categoryID *int64, price string, stock int) *models.Book {
	t.Helper()
	n := fixtureSeq.Add(1)

	book, err := CreateBook(context.Background(), db, CreateBookRequest{
		Title:         fmt.Sprintf("Test Book %d", n),
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		CategoryID:    categoryID,
	})
	require.NoError(t, err)
	return book
}

func createTestCategory(t *testing.T, db *sql.DB, parentID *int64) *models.Category {
	t.Helper()
	n := fixtureSeq.Add(1)

	c, err := CreateCategory(context.Background(), db, CreateCategoryRequest{
		Name:     fmt.Sprintf("Category %d", n),
		ParentID: parentID,
	})
	require.NoError(t, err)
	return c
}

func placeTestOrder(t *testing.T, db *sql.DB, userID int64, items ...OrderItemRequest) *models.Order {
	t.Helper()
	order, err := PlaceOrder(context.Background(), db, PlaceOrderRequest{UserID: userID, Items: items})
	require.NoError(t, err)
	return order
}

func stockOf(t *testing.T, db *sql.DB, bookID int64) (stock, sold int) {
	t.Helper()
	err := db.QueryRow(`SELECT stock_quantity, sold_quantity FROM books WHERE id = $1`, bookID).Scan(&stock, &sold)
	require.NoError(t, err)
	return stock, sold
}

func int64Ptr(v int64) *int64 { return &v }

func intPtr(v int) *int { return &v }
