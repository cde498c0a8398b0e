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
)

type CreateVoucherRequest struct {
	Code                 string
	Name                 string
	Description          *string
	DiscountType         string
	DiscountValue        decimal.Decimal
	MinOrderAmount       decimal.Decimal
	MaxDiscountAmount    decimal.NullDecimal
	UsageLimit           *int
	UserLimit            int
	StartDate            time.Time
	EndDate              time.Time
	ApplicableCategories []int64
	ApplicableBooks      []int64
	ExcludedCategories   []int64
	ExcludedBooks        []int64
	CreatedBy            *int64
}

// VoucherLine is one priced order line as seen by voucher rules.
type VoucherLine struct {
	BookID     int64
	CategoryID *int64
	Subtotal   decimal.Decimal
}

type VoucherQuote struct {
	VoucherID        int64           `json:"voucher_id"`
	Code             string          `json:"code"`
	EligibleSubtotal decimal.Decimal `json:"eligible_subtotal"`
	Discount         decimal.Decimal `json:"discount"`
	FreeShipping     bool            `json:"free_shipping"`
}

const voucherColumns = `id, code, name, description, discount_type, discount_value, min_order_amount,
	max_discount_amount, usage_limit, used_count, user_limit, start_date, end_date, is_active,
	applicable_categories, applicable_books, excluded_categories, excluded_books, created_by, created_at`

func scanVoucher(row scanner) (*models.Voucher, error) {
	v := &models.Voucher{}
	err := row.Scan(
		&v.ID,
		&v.Code,
		&v.Name,
		&v.Description,
		&v.DiscountType,
		&v.DiscountValue,
		&v.MinOrderAmount,
		&v.MaxDiscountAmount,
		&v.UsageLimit,
		&v.UsedCount,
		&v.UserLimit,
		&v.StartDate,
		&v.EndDate,
		&v.IsActive,
		&v.ApplicableCategories,
		&v.ApplicableBooks,
		&v.ExcludedCategories,
		&v.ExcludedBooks,
		&v.CreatedBy,
		&v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// nullableArray keeps empty lists NULL in the database.
func nullableArray(ids []int64) any {
	if len(ids) == 0 {
		return nil
	}
	return pq.Int64Array(ids)
}

func CreateVoucher(ctx context.Context, db Querier, req CreateVoucherRequest) (*models.Voucher, error) {
	if req.UserLimit == 0 {
		req.UserLimit = 1
	}

	v, err := scanVoucher(db.QueryRowContext(ctx,
		`INSERT INTO vouchers (code, name, description, discount_type, discount_value, min_order_amount,
		     max_discount_amount, usage_limit, user_limit, start_date, end_date,
		     applicable_categories, applicable_books, excluded_categories, excluded_books, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		 RETURNING `+voucherColumns,
		req.Code, req.Name, req.Description, req.DiscountType, req.DiscountValue, req.MinOrderAmount,
		req.MaxDiscountAmount, req.UsageLimit, req.UserLimit, req.StartDate, req.EndDate,
		nullableArray(req.ApplicableCategories), nullableArray(req.ApplicableBooks),
		nullableArray(req.ExcludedCategories), nullableArray(req.ExcludedBooks), req.CreatedBy))
	if err != nil {
		return nil, fmt.Errorf("create voucher: %w", database.TranslateError(err))
	}
	return v, nil
}

func GetVoucherByCode(ctx context.Context, db Querier, code string) (*models.Voucher, error) {
	v, err := scanVoucher(db.QueryRowContext(ctx,
		`SELECT `+voucherColumns+` FROM vouchers WHERE upper(code) = upper($1)`, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrVoucherNotFound
		}
		return nil, fmt.Errorf("get voucher: %w", err)
	}
	return v, nil
}

func lockVoucherByCode(ctx context.Context, tx *sql.Tx, code string) (*models.Voucher, error) {
	v, err := scanVoucher(tx.QueryRowContext(ctx,
		`SELECT `+voucherColumns+` FROM vouchers WHERE upper(code) = upper($1) FOR UPDATE`, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrVoucherNotFound
		}
		return nil, fmt.Errorf("lock voucher: %w", err)
	}
	return v, nil
}

// ListActiveVouchers returns vouchers usable right now.
func ListActiveVouchers(ctx context.Context, db Querier) ([]models.Voucher, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+voucherColumns+`
		 FROM vouchers
		 WHERE is_active
		   AND CURRENT_TIMESTAMP BETWEEN start_date AND end_date
		   AND (usage_limit IS NULL OR used_count < usage_limit)
		 ORDER BY end_date, id`)
	if err != nil {
		return nil, fmt.Errorf("list vouchers: %w", err)
	}
	defer rows.Close()

	var vouchers []models.Voucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, fmt.Errorf("scan voucher: %w", err)
		}
		vouchers = append(vouchers, *v)
	}
	return vouchers, rows.Err()
}

func countVoucherUses(ctx context.Context, db Querier, voucherID, userID int64) (int, error) {
	var uses int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM voucher_usage WHERE voucher_id = $1 AND user_id = $2`,
		voucherID, userID).Scan(&uses)
	if err != nil {
		return 0, fmt.Errorf("count voucher usage: %w", err)
	}
	return uses, nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func lineEligible(v *models.Voucher, line VoucherLine) bool {
	if containsID(v.ExcludedBooks, line.BookID) {
		return false
	}
	if line.CategoryID != nil && containsID(v.ExcludedCategories, *line.CategoryID) {
		return false
	}
	if len(v.ApplicableBooks) == 0 && len(v.ApplicableCategories) == 0 {
		return true
	}
	if containsID(v.ApplicableBooks, line.BookID) {
		return true
	}
	return line.CategoryID != nil && containsID(v.ApplicableCategories, *line.CategoryID)
}

// QuoteVoucher applies a voucher's rules to priced lines without touching
// the database. userUses is how many times the customer already redeemed it.
// A user_limit of zero means no per-user cap.
func QuoteVoucher(v *models.Voucher, lines []VoucherLine, shippingFee decimal.Decimal, userUses int, now time.Time) (*VoucherQuote, error) {
	if !v.IsActive {
		return nil, fmt.Errorf("%w: %s is inactive", database.ErrVoucherNotApplicable, v.Code)
	}
	if now.Before(v.StartDate) || now.After(v.EndDate) {
		return nil, fmt.Errorf("%w: %s is outside its validity window", database.ErrVoucherNotApplicable, v.Code)
	}
	if v.UsageLimit != nil && v.UsedCount >= *v.UsageLimit {
		return nil, fmt.Errorf("%w: %s", database.ErrVoucherExhausted, v.Code)
	}
	if v.UserLimit > 0 && userUses >= v.UserLimit {
		return nil, fmt.Errorf("%w: %s already used %d time(s)", database.ErrVoucherExhausted, v.Code, userUses)
	}

	subtotal := decimal.Zero
	eligible := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.Subtotal)
		if lineEligible(v, line) {
			eligible = eligible.Add(line.Subtotal)
		}
	}

	if subtotal.LessThan(v.MinOrderAmount) {
		return nil, fmt.Errorf("%w: order below minimum %s", database.ErrVoucherNotApplicable, v.MinOrderAmount.StringFixed(2))
	}
	if !eligible.IsPositive() {
		return nil, fmt.Errorf("%w: no eligible items", database.ErrVoucherNotApplicable)
	}

	quote := &VoucherQuote{VoucherID: v.ID, Code: v.Code, EligibleSubtotal: eligible}

	switch v.DiscountType {
	case models.DiscountPercentage:
		quote.Discount = eligible.Mul(v.DiscountValue).Div(decimal.NewFromInt(100)).Round(2)
	case models.DiscountFixedAmount:
		quote.Discount = decimal.Min(v.DiscountValue, eligible)
	case models.DiscountFreeShipping:
		quote.Discount = shippingFee
		quote.FreeShipping = true
	default:
		return nil, fmt.Errorf("%w: unknown discount type %q", database.ErrVoucherNotApplicable, v.DiscountType)
	}

	if v.MaxDiscountAmount.Valid && quote.Discount.GreaterThan(v.MaxDiscountAmount.Decimal) {
		quote.Discount = v.MaxDiscountAmount.Decimal
	}

	return quote, nil
}

// EvaluateVoucher previews a voucher against a prospective order using
// current prices. Nothing is reserved or recorded.
func EvaluateVoucher(ctx context.Context, db Querier, code string, userID int64, items []OrderItemRequest, shippingFee decimal.Decimal) (*VoucherQuote, error) {
	v, err := GetVoucherByCode(ctx, db, code)
	if err != nil {
		return nil, err
	}

	uses, err := countVoucherUses(ctx, db, v.ID, userID)
	if err != nil {
		return nil, err
	}

	lines := make([]VoucherLine, 0, len(items))
	for _, item := range items {
		book, err := GetBook(ctx, db, item.BookID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, VoucherLine{
			BookID:     book.ID,
			CategoryID: book.CategoryID,
			Subtotal:   book.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}

	return QuoteVoucher(v, lines, shippingFee, uses, time.Now())
}

func SetVoucherActive(ctx context.Context, db Querier, id int64, active bool) error {
	result, err := db.ExecContext(ctx, `UPDATE vouchers SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("set voucher active: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrVoucherNotFound
	}
	return nil
}
