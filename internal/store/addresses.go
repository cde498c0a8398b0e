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

type AddressRequest struct {
	AddressType   string
	RecipientName string
	Phone         *string
	AddressLine1  string
	AddressLine2  *string
	Ward          *string
	District      *string
	City          string
	PostalCode    *string
	Country       string
	Latitude      decimal.NullDecimal
	Longitude     decimal.NullDecimal
	IsDefault     bool
}

const addressColumns = `id, user_id, address_type, recipient_name, phone, address_line1, address_line2,
	ward, district, city, postal_code, country, is_default, latitude, longitude, created_at, updated_at`

func scanAddress(row scanner) (*models.Address, error) {
	a := &models.Address{}
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.AddressType,
		&a.RecipientName,
		&a.Phone,
		&a.AddressLine1,
		&a.AddressLine2,
		&a.Ward,
		&a.District,
		&a.City,
		&a.PostalCode,
		&a.Country,
		&a.IsDefault,
		&a.Latitude,
		&a.Longitude,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// AddAddress stores a new address. The first address of a user, or one
// flagged IsDefault, becomes the default.
func AddAddress(ctx context.Context, db *sql.DB, userID int64, req AddressRequest) (*models.Address, error) {
	if req.AddressType == "" {
		req.AddressType = models.AddressHome
	}
	if req.Country == "" {
		req.Country = "Vietnam"
	}

	var address *models.Address
	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		if err := lockUser(ctx, tx, userID); err != nil {
			return err
		}

		var existing int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM user_addresses WHERE user_id = $1`, userID).Scan(&existing)
		if err != nil {
			return fmt.Errorf("count addresses: %w", err)
		}

		makeDefault := req.IsDefault || existing == 0
		if makeDefault {
			if _, err := tx.ExecContext(ctx,
				`UPDATE user_addresses SET is_default = FALSE WHERE user_id = $1 AND is_default`, userID); err != nil {
				return fmt.Errorf("clear default address: %w", err)
			}
		}

		address, err = scanAddress(tx.QueryRowContext(ctx,
			`INSERT INTO user_addresses (user_id, address_type, recipient_name, phone, address_line1,
			     address_line2, ward, district, city, postal_code, country, is_default, latitude, longitude)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			 RETURNING `+addressColumns,
			userID, req.AddressType, req.RecipientName, req.Phone, req.AddressLine1,
			req.AddressLine2, req.Ward, req.District, req.City, req.PostalCode, req.Country,
			makeDefault, req.Latitude, req.Longitude))
		if err != nil {
			return fmt.Errorf("insert address: %w", database.TranslateError(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return address, nil
}

func ListAddresses(ctx context.Context, db Querier, userID int64) ([]models.Address, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+addressColumns+`
		 FROM user_addresses
		 WHERE user_id = $1
		 ORDER BY is_default DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	var addresses []models.Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		addresses = append(addresses, *a)
	}

	return addresses, rows.Err()
}

func GetAddress(ctx context.Context, db Querier, userID, addressID int64) (*models.Address, error) {
	a, err := scanAddress(db.QueryRowContext(ctx,
		`SELECT `+addressColumns+` FROM user_addresses WHERE id = $1 AND user_id = $2`,
		addressID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrAddressNotFound
		}
		return nil, fmt.Errorf("get address: %w", err)
	}
	return a, nil
}

// SetDefaultAddress moves the default flag to addressID. The partial unique
// index on (user_id) WHERE is_default forbids two defaults at any instant, so
// the old flag is cleared first.
func SetDefaultAddress(ctx context.Context, db *sql.DB, userID, addressID int64) error {
	return database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		if err := lockUser(ctx, tx, userID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE user_addresses SET is_default = FALSE
			 WHERE user_id = $1 AND is_default AND id <> $2`, userID, addressID); err != nil {
			return fmt.Errorf("clear default address: %w", err)
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE user_addresses SET is_default = TRUE WHERE id = $1 AND user_id = $2`,
			addressID, userID)
		if err != nil {
			return fmt.Errorf("set default address: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return database.ErrAddressNotFound
		}
		return nil
	})
}

func DeleteAddress(ctx context.Context, db Querier, userID, addressID int64) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM user_addresses WHERE id = $1 AND user_id = $2`, addressID, userID)
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrAddressNotFound
	}
	return nil
}

// lockUser serializes per-user writes such as default-address changes.
func lockUser(ctx context.Context, tx *sql.Tx, userID int64) error {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return database.ErrUserNotFound
		}
		return fmt.Errorf("lock user: %w", err)
	}
	return nil
}
