package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func baseVoucher(now time.Time) *models.Voucher {
	return &models.Voucher{
		ID:             7,
		Code:           "WELCOME10",
		DiscountType:   models.DiscountPercentage,
		DiscountValue:  dec("10"),
		MinOrderAmount: dec("100000"),
		UserLimit:      1,
		StartDate:      now.Add(-time.Hour),
		EndDate:        now.Add(30 * 24 * time.Hour),
		IsActive:       true,
	}
}

func TestQuoteVoucher(t *testing.T) {
	now := time.Now()
	fiction := int64(1)
	science := int64(2)

	lines := []VoucherLine{
		{BookID: 10, CategoryID: &fiction, Subtotal: dec("200000")},
		{BookID: 11, CategoryID: &science, Subtotal: dec("150000")},
	}

	tests := []struct {
		name     string
		mutate   func(v *models.Voucher)
		uses     int
		shipping string
		want     string
		wantErr  error
	}{
		{
			name: "percentage of whole order",
			want: "35000",
		},
		{
			name: "percentage capped by max discount",
			mutate: func(v *models.Voucher) {
				v.MaxDiscountAmount = decimal.NewNullDecimal(dec("20000"))
			},
			want: "20000",
		},
		{
			name: "fixed amount",
			mutate: func(v *models.Voucher) {
				v.DiscountType = models.DiscountFixedAmount
				v.DiscountValue = dec("50000")
			},
			want: "50000",
		},
		{
			name: "fixed amount never exceeds eligible subtotal",
			mutate: func(v *models.Voucher) {
				v.DiscountType = models.DiscountFixedAmount
				v.DiscountValue = dec("500000")
				v.MinOrderAmount = decimal.Zero
				v.ApplicableBooks = pq.Int64Array{11}
			},
			want: "150000",
		},
		{
			name: "free shipping",
			mutate: func(v *models.Voucher) {
				v.DiscountType = models.DiscountFreeShipping
				v.DiscountValue = decimal.Zero
			},
			shipping: "30000",
			want:     "30000",
		},
		{
			name: "applicable category only",
			mutate: func(v *models.Voucher) {
				v.ApplicableCategories = pq.Int64Array{fiction}
			},
			want: "20000",
		},
		{
			name: "excluded book removed from eligible subtotal",
			mutate: func(v *models.Voucher) {
				v.ExcludedBooks = pq.Int64Array{10}
			},
			want: "15000",
		},
		{
			name: "everything excluded",
			mutate: func(v *models.Voucher) {
				v.ExcludedCategories = pq.Int64Array{fiction, science}
			},
			wantErr: database.ErrVoucherNotApplicable,
		},
		{
			name: "inactive",
			mutate: func(v *models.Voucher) {
				v.IsActive = false
			},
			wantErr: database.ErrVoucherNotApplicable,
		},
		{
			name: "expired",
			mutate: func(v *models.Voucher) {
				v.StartDate = now.Add(-48 * time.Hour)
				v.EndDate = now.Add(-24 * time.Hour)
			},
			wantErr: database.ErrVoucherNotApplicable,
		},
		{
			name: "not started",
			mutate: func(v *models.Voucher) {
				v.StartDate = now.Add(time.Hour)
			},
			wantErr: database.ErrVoucherNotApplicable,
		},
		{
			name: "below minimum order",
			mutate: func(v *models.Voucher) {
				v.MinOrderAmount = dec("500000")
			},
			wantErr: database.ErrVoucherNotApplicable,
		},
		{
			name: "global limit reached",
			mutate: func(v *models.Voucher) {
				v.UsageLimit = intPtr(100)
				v.UsedCount = 100
			},
			wantErr: database.ErrVoucherExhausted,
		},
		{
			name:    "per user limit reached",
			uses:    1,
			wantErr: database.ErrVoucherExhausted,
		},
		{
			name: "zero user limit is unlimited",
			mutate: func(v *models.Voucher) {
				v.UserLimit = 0
			},
			uses: 25,
			want: "35000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := baseVoucher(now)
			if tt.mutate != nil {
				tt.mutate(v)
			}
			shipping := decimal.Zero
			if tt.shipping != "" {
				shipping = dec(tt.shipping)
			}

			quote, err := QuoteVoucher(v, lines, shipping, tt.uses, now)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.Nil(t, quote)
				return
			}

			require.NoError(t, err)
			assert.True(t, quote.Discount.Equal(dec(tt.want)), "discount %s, want %s", quote.Discount, tt.want)
			assert.Equal(t, v.ID, quote.VoucherID)
			assert.Equal(t, v.DiscountType == models.DiscountFreeShipping, quote.FreeShipping)
		})
	}
}

func TestQuoteVoucherRoundsPercentage(t *testing.T) {
	now := time.Now()
	v := baseVoucher(now)
	v.DiscountValue = dec("16.67")
	v.MinOrderAmount = decimal.Zero

	quote, err := QuoteVoucher(v, []VoucherLine{{BookID: 1, Subtotal: dec("99.99")}}, decimal.Zero, 0, now)
	require.NoError(t, err)
	assert.Equal(t, "16.67", quote.Discount.StringFixed(2))
}

func TestPlaceOrderWithVoucher(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, db)
	other := createTestUser(t, db)
	book := createTestBook(t, db, "120000", 10)

	v, err := CreateVoucher(ctx, db, CreateVoucherRequest{
		Code:              "WELCOME10",
		Name:              "Welcome",
		DiscountType:      models.DiscountPercentage,
		DiscountValue:     dec("10"),
		MinOrderAmount:    dec("100000"),
		MaxDiscountAmount: decimal.NewNullDecimal(dec("50000")),
		UsageLimit:        intPtr(2),
		StartDate:         time.Now().Add(-time.Hour),
		EndDate:           time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, v.UserLimit)

	quote, err := EvaluateVoucher(ctx, db, "welcome10", user.ID,
		[]OrderItemRequest{{BookID: book.ID, Quantity: 2}}, decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, "24000.00", quote.Discount.StringFixed(2))

	order, err := PlaceOrder(ctx, db, PlaceOrderRequest{
		UserID:      user.ID,
		Items:       []OrderItemRequest{{BookID: book.ID, Quantity: 2}},
		VoucherCode: "welcome10",
		ShippingFee: dec("30000"),
	})
	require.NoError(t, err)
	assert.Equal(t, "240000.00", order.Subtotal.StringFixed(2))
	assert.Equal(t, "24000.00", order.DiscountAmount.StringFixed(2))
	assert.Equal(t, "246000.00", order.TotalAmount.StringFixed(2))
	require.NotNil(t, order.VoucherID)
	assert.Equal(t, v.ID, *order.VoucherID)

	_, err = PlaceOrder(ctx, db, PlaceOrderRequest{
		UserID:      user.ID,
		Items:       []OrderItemRequest{{BookID: book.ID, Quantity: 1}},
		VoucherCode: "WELCOME10",
	})
	assert.ErrorIs(t, err, database.ErrVoucherExhausted, "per-user limit")

	stock, _ := stockOf(t, db, book.ID)
	assert.Equal(t, 8, stock, "rejected order must not move stock")

	_, err = PlaceOrder(ctx, db, PlaceOrderRequest{
		UserID:      other.ID,
		Items:       []OrderItemRequest{{BookID: book.ID, Quantity: 1}},
		VoucherCode: "WELCOME10",
	})
	require.NoError(t, err)

	redeemed, err := GetVoucherByCode(ctx, db, "WELCOME10")
	require.NoError(t, err)
	assert.Equal(t, 2, redeemed.UsedCount)

	var usages int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM voucher_usage WHERE voucher_id = $1`, v.ID).Scan(&usages))
	assert.Equal(t, 2, usages)

	third := createTestUser(t, db)
	_, err = PlaceOrder(ctx, db, PlaceOrderRequest{
		UserID:      third.ID,
		Items:       []OrderItemRequest{{BookID: book.ID, Quantity: 1}},
		VoucherCode: "WELCOME10",
	})
	assert.ErrorIs(t, err, database.ErrVoucherExhausted, "global limit")

	_, err = TransitionOrderStatus(ctx, db, TransitionRequest{
		OrderID: order.ID,
		To:      models.OrderStatusCancelled,
		Reason:  strPtr("changed my mind"),
	})
	require.NoError(t, err)

	released, err := GetVoucherByCode(ctx, db, "WELCOME10")
	require.NoError(t, err)
	assert.Equal(t, 1, released.UsedCount, "cancellation gives the redemption back")

	_, err = PlaceOrder(ctx, db, PlaceOrderRequest{
		UserID:      third.ID,
		Items:       []OrderItemRequest{{BookID: book.ID, Quantity: 1}},
		VoucherCode: "WELCOME10",
	})
	require.NoError(t, err)
}

func TestPlaceOrderUnknownVoucher(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db)
	book := createTestBook(t, db, "50000", 3)

	_, err := PlaceOrder(context.Background(), db, PlaceOrderRequest{
		UserID:      user.ID,
		Items:       []OrderItemRequest{{BookID: book.ID, Quantity: 1}},
		VoucherCode: "NOPE",
	})
	assert.ErrorIs(t, err, database.ErrVoucherNotFound)
}

func TestVoucherCodesAreCaseInsensitive(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	req := CreateVoucherRequest{
		Code:          "sale10",
		Name:          "Sale",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: dec("10"),
		StartDate:     time.Now().Add(-time.Hour),
		EndDate:       time.Now().Add(24 * time.Hour),
	}
	created, err := CreateVoucher(ctx, db, req)
	require.NoError(t, err)

	req.Code = "SALE10"
	_, err = CreateVoucher(ctx, db, req)
	assert.ErrorIs(t, err, database.ErrDuplicate)

	found, err := GetVoucherByCode(ctx, db, "Sale10")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}
