package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const (
	DiscountPercentage   = "percentage"
	DiscountFixedAmount  = "fixed_amount"
	DiscountFreeShipping = "free_shipping"
)

type Voucher struct {
	ID                   int64               `json:"id"`
	Code                 string              `json:"code"`
	Name                 string              `json:"name"`
	Description          *string             `json:"description,omitempty"`
	DiscountType         string              `json:"discount_type"`
	DiscountValue        decimal.Decimal     `json:"discount_value"`
	MinOrderAmount       decimal.Decimal     `json:"min_order_amount"`
	MaxDiscountAmount    decimal.NullDecimal `json:"max_discount_amount"`
	UsageLimit           *int                `json:"usage_limit,omitempty"`
	UsedCount            int                 `json:"used_count"`
	UserLimit            int                 `json:"user_limit"`
	StartDate            time.Time           `json:"start_date"`
	EndDate              time.Time           `json:"end_date"`
	IsActive             bool                `json:"is_active"`
	ApplicableCategories pq.Int64Array       `json:"applicable_categories"`
	ApplicableBooks      pq.Int64Array       `json:"applicable_books"`
	ExcludedCategories   pq.Int64Array       `json:"excluded_categories"`
	ExcludedBooks        pq.Int64Array       `json:"excluded_books"`
	CreatedBy            *int64              `json:"created_by,omitempty"`
	CreatedAt            time.Time           `json:"created_at"`
}

type VoucherUsage struct {
	ID             int64           `json:"id"`
	VoucherID      int64           `json:"voucher_id"`
	UserID         *int64          `json:"user_id,omitempty"`
	OrderID        int64           `json:"order_id"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	UsedAt         time.Time       `json:"used_at"`
}

type PaymentMethod struct {
	ID                      int64               `json:"id"`
	Name                    string              `json:"name"`
	Description             *string             `json:"description,omitempty"`
	IconURL                 *string             `json:"icon_url,omitempty"`
	IsActive                bool                `json:"is_active"`
	ProcessingFeePercentage decimal.Decimal     `json:"processing_fee_percentage"`
	MinAmount               decimal.Decimal     `json:"min_amount"`
	MaxAmount               decimal.NullDecimal `json:"max_amount"`
	SortOrder               int                 `json:"sort_order"`
	CreatedAt               time.Time           `json:"created_at"`
}

type Order struct {
	ID                    int64           `json:"id"`
	OrderNumber           string          `json:"order_number"`
	UserID                *int64          `json:"user_id,omitempty"`
	Status                OrderStatus     `json:"status"`
	Subtotal              decimal.Decimal `json:"subtotal"`
	DiscountAmount        decimal.Decimal `json:"discount_amount"`
	ShippingFee           decimal.Decimal `json:"shipping_fee"`
	TaxAmount             decimal.Decimal `json:"tax_amount"`
	TotalAmount           decimal.Decimal `json:"total_amount"`
	PaymentMethodID       *int64          `json:"payment_method_id,omitempty"`
	PaymentStatus         PaymentStatus   `json:"payment_status"`
	PaymentReference      *string         `json:"payment_reference,omitempty"`
	VoucherID             *int64          `json:"voucher_id,omitempty"`
	ShippingAddressID     *int64          `json:"shipping_address_id,omitempty"`
	Notes                 *string         `json:"notes,omitempty"`
	TrackingNumber        *string         `json:"tracking_number,omitempty"`
	EstimatedDeliveryDate *time.Time      `json:"estimated_delivery_date,omitempty"`
	ShippedAt             *time.Time      `json:"shipped_at,omitempty"`
	DeliveredAt           *time.Time      `json:"delivered_at,omitempty"`
	CancelledAt           *time.Time      `json:"cancelled_at,omitempty"`
	CancellationReason    *string         `json:"cancellation_reason,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
	Items                 []OrderItem     `json:"items,omitempty"`
}

// ComputeTotal returns subtotal - discount + shipping + tax, floored at zero.
func (o *Order) ComputeTotal() decimal.Decimal {
	total := o.Subtotal.Sub(o.DiscountAmount).Add(o.ShippingFee).Add(o.TaxAmount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

type OrderItem struct {
	ID             int64           `json:"id"`
	OrderID        int64           `json:"order_id"`
	BookID         *int64          `json:"book_id,omitempty"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	CreatedAt      time.Time       `json:"created_at"`
}

type OrderHistory struct {
	ID        int64       `json:"id"`
	OrderID   int64       `json:"order_id"`
	Status    OrderStatus `json:"status"`
	Notes     *string     `json:"notes,omitempty"`
	CreatedBy *int64      `json:"created_by,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}
