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

const paymentMethodColumns = `id, name, description, icon_url, is_active, processing_fee_percentage,
	min_amount, max_amount, sort_order, created_at`

func scanPaymentMethod(row scanner) (*models.PaymentMethod, error) {
	pm := &models.PaymentMethod{}
	err := row.Scan(&pm.ID, &pm.Name, &pm.Description, &pm.IconURL, &pm.IsActive,
		&pm.ProcessingFeePercentage, &pm.MinAmount, &pm.MaxAmount, &pm.SortOrder, &pm.CreatedAt)
	if err != nil {
		return nil, err
	}
	return pm, nil
}

func GetPaymentMethod(ctx context.Context, db Querier, id int64) (*models.PaymentMethod, error) {
	pm, err := scanPaymentMethod(db.QueryRowContext(ctx,
		`SELECT `+paymentMethodColumns+` FROM payment_methods WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrPaymentMethodNotFound
		}
		return nil, fmt.Errorf("get payment method: %w", err)
	}
	return pm, nil
}

func ListPaymentMethods(ctx context.Context, db Querier) ([]models.PaymentMethod, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+paymentMethodColumns+` FROM payment_methods WHERE is_active ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	defer rows.Close()

	var methods []models.PaymentMethod
	for rows.Next() {
		pm, err := scanPaymentMethod(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment method: %w", err)
		}
		methods = append(methods, *pm)
	}
	return methods, rows.Err()
}

// checkPaymentMethod verifies the method is active and accepts total.
func checkPaymentMethod(pm *models.PaymentMethod, total decimal.Decimal) error {
	if !pm.IsActive {
		return fmt.Errorf("%w: %s is disabled", database.ErrPaymentMethodRejected, pm.Name)
	}
	if total.LessThan(pm.MinAmount) {
		return fmt.Errorf("%w: %s requires at least %s", database.ErrPaymentMethodRejected, pm.Name, pm.MinAmount.StringFixed(2))
	}
	if pm.MaxAmount.Valid && total.GreaterThan(pm.MaxAmount.Decimal) {
		return fmt.Errorf("%w: %s accepts at most %s", database.ErrPaymentMethodRejected, pm.Name, pm.MaxAmount.Decimal.StringFixed(2))
	}
	return nil
}
