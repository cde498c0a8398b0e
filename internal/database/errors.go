package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

type ErrorClass int

const (
	ErrorClassPermanent ErrorClass = iota
	ErrorClassTransient
	ErrorClassDeadlock
	ErrorClassSerialization
)

// SQLSTATE codes the store reacts to.
const (
	CodeUniqueViolation     = "23505"
	CodeForeignKeyViolation = "23503"
	CodeNotNullViolation    = "23502"
	CodeCheckViolation      = "23514"
	CodeInvalidText         = "22P02"
	CodeSerialization       = "40001"
	CodeDeadlock            = "40P01"
	CodeLockNotAvailable    = "55P03"
)

// ConstraintStockNonNegative guards books.stock_quantity; the inventory trigger
// trips it when an order item would oversell.
const ConstraintStockNonNegative = "chk_books_stock_nonnegative"

func ClassifyError(err error) ErrorClass {
	if err == nil {
		return ErrorClassPermanent
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case CodeSerialization:
			return ErrorClassSerialization
		case CodeDeadlock:
			return ErrorClassDeadlock
		case CodeLockNotAvailable:
			return ErrorClassTransient
		}
	}

	return ErrorClassPermanent
}

func IsRetryable(err error) bool {
	class := ClassifyError(err)
	return class == ErrorClassTransient ||
		class == ErrorClassDeadlock ||
		class == ErrorClassSerialization
}

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrUserInactive          = errors.New("user is inactive")
	ErrRoleNotFound          = errors.New("role not found")
	ErrAddressNotFound       = errors.New("address not found")
	ErrSessionNotFound       = errors.New("session not found")
	ErrTokenNotFound         = errors.New("token not found")
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenRevoked          = errors.New("token revoked or already used")
	ErrBookNotFound          = errors.New("book not found")
	ErrBookInactive          = errors.New("book is not available")
	ErrCategoryNotFound      = errors.New("category not found")
	ErrCategoryCycle         = errors.New("category parent would create a cycle")
	ErrPublisherNotFound     = errors.New("publisher not found")
	ErrSupplierNotFound      = errors.New("supplier not found")
	ErrAuthorNotFound        = errors.New("author not found")
	ErrTagNotFound           = errors.New("tag not found")
	ErrImageNotFound         = errors.New("image not found")
	ErrReviewNotFound        = errors.New("review not found")
	ErrCartItemNotFound      = errors.New("cart item not found")
	ErrWishlistItemNotFound  = errors.New("wishlist item not found")
	ErrVoucherNotFound       = errors.New("voucher not found")
	ErrVoucherNotApplicable  = errors.New("voucher not applicable")
	ErrVoucherExhausted      = errors.New("voucher usage limit reached")
	ErrPaymentMethodNotFound = errors.New("payment method not found")
	ErrPaymentMethodRejected = errors.New("payment method unavailable for this order")
	ErrOrderNotFound         = errors.New("order not found")
	ErrEmptyOrder            = errors.New("order has no items")
	ErrInvalidQuantity       = errors.New("quantity must be positive")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrNotificationNotFound  = errors.New("notification not found")
	ErrSettingNotFound       = errors.New("setting not found")
	ErrOptimisticLockFailed  = errors.New("optimistic lock failed")
	ErrLockTimeout           = errors.New("lock timeout")

	ErrDuplicate           = errors.New("duplicate value")
	ErrReferenced          = errors.New("row is still referenced")
	ErrInvalidReference    = errors.New("referenced row does not exist")
	ErrConstraintViolation = errors.New("constraint violation")
)

// TranslateError maps integrity violations raised by PostgreSQL onto the
// sentinel errors above, keeping the constraint name in the message. Errors
// that are not integrity violations are returned unchanged.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return err
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch pqErr.Code {
	case CodeUniqueViolation:
		return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
	case CodeForeignKeyViolation:
		// The same code is raised for inserts pointing at missing rows and for
		// deletes blocked by RESTRICT/NO ACTION children.
		if strings.Contains(pqErr.Detail, "is still referenced") {
			return fmt.Errorf("%w: %s", ErrReferenced, pqErr.Constraint)
		}
		return fmt.Errorf("%w: %s", ErrInvalidReference, pqErr.Constraint)
	case CodeCheckViolation:
		if pqErr.Constraint == ConstraintStockNonNegative {
			return ErrInsufficientStock
		}
		return fmt.Errorf("%w: %s", ErrConstraintViolation, pqErr.Constraint)
	case CodeNotNullViolation:
		return fmt.Errorf("%w: %s.%s is required", ErrConstraintViolation, pqErr.Table, pqErr.Column)
	case CodeInvalidText:
		// Malformed typed input such as an INET or UUID literal.
		return fmt.Errorf("%w: %s", ErrConstraintViolation, pqErr.Message)
	}

	return err
}
