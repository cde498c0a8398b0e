package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var allOrderStatuses = []OrderStatus{
	OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing, OrderStatusShipped,
	OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded,
}

func TestOrderStatusTransitions(t *testing.T) {
	allowed := map[OrderStatus]map[OrderStatus]bool{
		OrderStatusPending:    {OrderStatusConfirmed: true, OrderStatusCancelled: true, OrderStatusRefunded: true},
		OrderStatusConfirmed:  {OrderStatusProcessing: true, OrderStatusCancelled: true, OrderStatusRefunded: true},
		OrderStatusProcessing: {OrderStatusShipped: true, OrderStatusCancelled: true, OrderStatusRefunded: true},
		OrderStatusShipped:    {OrderStatusDelivered: true, OrderStatusCancelled: true, OrderStatusRefunded: true},
		OrderStatusDelivered:  {OrderStatusRefunded: true},
	}

	for _, from := range allOrderStatuses {
		for _, to := range allOrderStatuses {
			want := allowed[from][to]
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	for _, s := range allOrderStatuses {
		assert.True(t, s.Valid())
		if s.Terminal() {
			for _, to := range allOrderStatuses {
				assert.False(t, s.CanTransitionTo(to), "terminal %s must not move to %s", s, to)
			}
		}
	}
	assert.False(t, OrderStatus("lost").Valid())
	assert.True(t, OrderStatusShipped.HasShipped())
	assert.False(t, OrderStatusProcessing.HasShipped())
}

func TestPaymentStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to PaymentStatus
		want     bool
	}{
		{PaymentPending, PaymentPaid, true},
		{PaymentPending, PaymentFailed, true},
		{PaymentPending, PaymentRefunded, false},
		{PaymentPaid, PaymentRefunded, true},
		{PaymentPaid, PaymentPartiallyRefunded, true},
		{PaymentPaid, PaymentPending, false},
		{PaymentPartiallyRefunded, PaymentRefunded, true},
		{PaymentFailed, PaymentPaid, false},
		{PaymentRefunded, PaymentPaid, false},
		{PaymentPaid, PaymentPaid, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestParseOrderNumber(t *testing.T) {
	day, ok := ParseOrderNumber("ORD-20240315-000042")
	assert.True(t, ok)
	assert.Equal(t, 2024, day.Year())
	assert.Equal(t, 15, day.Day())

	_, ok = ParseOrderNumber("ORD-20240315-1234567")
	assert.True(t, ok, "suffix widens past six digits")

	for _, bad := range []string{"", "ORD-2024031-000001", "ORD-20240315-12345", "ord-20240315-000001", "ORD-20241345-000001"} {
		_, ok := ParseOrderNumber(bad)
		assert.False(t, ok, bad)
	}
}

func TestOrderComputeTotal(t *testing.T) {
	o := Order{
		Subtotal:       decimal.RequireFromString("250000"),
		DiscountAmount: decimal.RequireFromString("25000"),
		ShippingFee:    decimal.RequireFromString("30000"),
		TaxAmount:      decimal.RequireFromString("12500"),
	}
	assert.True(t, o.ComputeTotal().Equal(decimal.RequireFromString("267500")))

	o.DiscountAmount = decimal.RequireFromString("400000")
	assert.True(t, o.ComputeTotal().IsZero())
}

func TestAuthorDisplayName(t *testing.T) {
	pen := "Nguyễn Nhật Ánh"
	first, last := "Nhật Ánh", "Nguyễn"

	assert.Equal(t, pen, (&Author{PenName: &pen, FirstName: &first, LastName: &last}).DisplayName())
	assert.Equal(t, "Nhật Ánh Nguyễn", (&Author{FirstName: &first, LastName: &last}).DisplayName())
}
