package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/models"
)

type PlaceOrderRequest struct {
	UserID            int64
	Items             []OrderItemRequest
	VoucherCode       string
	PaymentMethodID   *int64
	ShippingAddressID *int64
	ShippingFee       decimal.Decimal
	TaxAmount         decimal.Decimal
	Notes             *string
	// ClearCart removes the purchased books from the user's cart.
	ClearCart bool
}

type OrderItemRequest struct {
	BookID   int64
	Quantity int
}

type TransitionRequest struct {
	OrderID        int64
	To             models.OrderStatus
	ActorID        *int64
	Notes          *string
	Reason         *string
	TrackingNumber *string
}

const orderColumns = `id, order_number, user_id, status, subtotal, discount_amount, shipping_fee,
	tax_amount, total_amount, payment_method_id, payment_status, payment_reference, voucher_id,
	shipping_address_id, notes, tracking_number, estimated_delivery_date, shipped_at,
	delivered_at, cancelled_at, cancellation_reason, created_at, updated_at`

func scanOrder(row scanner) (*models.Order, error) {
	o := &models.Order{}
	err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.UserID,
		&o.Status,
		&o.Subtotal,
		&o.DiscountAmount,
		&o.ShippingFee,
		&o.TaxAmount,
		&o.TotalAmount,
		&o.PaymentMethodID,
		&o.PaymentStatus,
		&o.PaymentReference,
		&o.VoucherID,
		&o.ShippingAddressID,
		&o.Notes,
		&o.TrackingNumber,
		&o.EstimatedDeliveryDate,
		&o.ShippedAt,
		&o.DeliveredAt,
		&o.CancelledAt,
		&o.CancellationReason,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// mergeItems folds repeated books into one line and orders lines by book id,
// which is also the lock order.
func mergeItems(items []OrderItemRequest) ([]OrderItemRequest, error) {
	if len(items) == 0 {
		return nil, database.ErrEmptyOrder
	}

	quantities := make(map[int64]int, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, database.ErrInvalidQuantity
		}
		quantities[item.BookID] += item.Quantity
	}

	merged := make([]OrderItemRequest, 0, len(quantities))
	for bookID, qty := range quantities {
		merged = append(merged, OrderItemRequest{BookID: bookID, Quantity: qty})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].BookID < merged[j].BookID })

	return merged, nil
}

// PlaceOrder turns a basket into an order in one serializable transaction:
// books are locked in id order and priced, the optional voucher is redeemed,
// the order and its lines are written (triggers assign the order number and
// move stock into sold), the first history row and a notification are added.
// Serialization failures are retried.
func PlaceOrder(ctx context.Context, db *sql.DB, req PlaceOrderRequest) (*models.Order, error) {
	items, err := mergeItems(req.Items)
	if err != nil {
		return nil, err
	}
	if req.ShippingFee.IsNegative() || req.TaxAmount.IsNegative() {
		return nil, fmt.Errorf("%w: shipping fee and tax must not be negative", database.ErrConstraintViolation)
	}

	var order *models.Order

	err = database.WithRetry(ctx, db, database.SerializableTxOptions(), func(tx *sql.Tx) error {
		order = nil

		if err := checkCustomer(ctx, tx, req.UserID); err != nil {
			return err
		}

		if req.ShippingAddressID != nil {
			var ok bool
			err := tx.QueryRowContext(ctx,
				`SELECT EXISTS(SELECT 1 FROM user_addresses WHERE id = $1 AND user_id = $2)`,
				*req.ShippingAddressID, req.UserID).Scan(&ok)
			if err != nil {
				return fmt.Errorf("check shipping address: %w", err)
			}
			if !ok {
				return database.ErrAddressNotFound
			}
		}

		lines := make([]VoucherLine, 0, len(items))
		prices := make(map[int64]decimal.Decimal, len(items))
		subtotal := decimal.Zero
		for _, item := range items {
			book, err := LockBook(ctx, tx, item.BookID, item.Quantity)
			if err != nil {
				return fmt.Errorf("book %d: %w", item.BookID, err)
			}

			lineTotal := book.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			prices[item.BookID] = book.Price
			subtotal = subtotal.Add(lineTotal)
			lines = append(lines, VoucherLine{BookID: book.ID, CategoryID: book.CategoryID, Subtotal: lineTotal})
		}

		draft := models.Order{
			Subtotal:    subtotal,
			ShippingFee: req.ShippingFee,
			TaxAmount:   req.TaxAmount,
		}

		var quote *VoucherQuote
		if req.VoucherCode != "" {
			v, err := lockVoucherByCode(ctx, tx, req.VoucherCode)
			if err != nil {
				return err
			}
			uses, err := countVoucherUses(ctx, tx, v.ID, req.UserID)
			if err != nil {
				return err
			}
			quote, err = QuoteVoucher(v, lines, req.ShippingFee, uses, time.Now())
			if err != nil {
				return err
			}
			draft.DiscountAmount = quote.Discount
			draft.VoucherID = &v.ID
		}
		draft.TotalAmount = draft.ComputeTotal()

		if req.PaymentMethodID != nil {
			pm, err := GetPaymentMethod(ctx, tx, *req.PaymentMethodID)
			if err != nil {
				return err
			}
			if err := checkPaymentMethod(pm, draft.TotalAmount); err != nil {
				return err
			}
		}

		created, err := scanOrder(tx.QueryRowContext(ctx,
			`INSERT INTO orders (user_id, subtotal, discount_amount, shipping_fee, tax_amount,
			     total_amount, payment_method_id, voucher_id, shipping_address_id, notes)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 RETURNING `+orderColumns,
			req.UserID, draft.Subtotal, draft.DiscountAmount, draft.ShippingFee, draft.TaxAmount,
			draft.TotalAmount, req.PaymentMethodID, draft.VoucherID, req.ShippingAddressID, req.Notes))
		if err != nil {
			return fmt.Errorf("create order: %w", database.TranslateError(err))
		}

		for _, item := range items {
			unitPrice := prices[item.BookID]
			bookID := item.BookID
			line := models.OrderItem{
				OrderID:    created.ID,
				BookID:     &bookID,
				Quantity:   item.Quantity,
				UnitPrice:  unitPrice,
				TotalPrice: unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
			}

			err := tx.QueryRowContext(ctx,
				`INSERT INTO order_items (order_id, book_id, quantity, unit_price, discount_amount, total_price)
				 VALUES ($1, $2, $3, $4, $5, $6)
				 RETURNING id, created_at`,
				line.OrderID, line.BookID, line.Quantity, line.UnitPrice, line.DiscountAmount, line.TotalPrice,
			).Scan(&line.ID, &line.CreatedAt)
			if err != nil {
				return fmt.Errorf("create order item: %w", database.TranslateError(err))
			}
			created.Items = append(created.Items, line)
		}

		if quote != nil {
			if _, err := tx.ExecContext(ctx,
				`UPDATE vouchers SET used_count = used_count + 1 WHERE id = $1`, quote.VoucherID); err != nil {
				return fmt.Errorf("redeem voucher: %w", database.TranslateError(err))
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO voucher_usage (voucher_id, user_id, order_id, discount_amount)
				 VALUES ($1, $2, $3, $4)`,
				quote.VoucherID, req.UserID, created.ID, quote.Discount); err != nil {
				return fmt.Errorf("record voucher usage: %w", database.TranslateError(err))
			}
		}

		if err := appendOrderHistory(ctx, tx, created.ID, models.OrderStatusPending, strPtr("Order placed"), &req.UserID); err != nil {
			return err
		}

		if req.ClearCart {
			bookIDs := make([]int64, 0, len(items))
			for _, item := range items {
				bookIDs = append(bookIDs, item.BookID)
			}
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM cart_items WHERE user_id = $1 AND book_id = ANY($2)`,
				req.UserID, pq.Array(bookIDs)); err != nil {
				return fmt.Errorf("clear purchased cart items: %w", err)
			}
		}

		if err := notifyOrder(ctx, tx, req.UserID, created,
			"Order placed", fmt.Sprintf("Your order %s has been placed.", created.OrderNumber)); err != nil {
			return err
		}

		order = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

func checkCustomer(ctx context.Context, tx *sql.Tx, userID int64) error {
	var active bool
	var deletedAt sql.NullTime
	err := tx.QueryRowContext(ctx,
		`SELECT is_active, deleted_at FROM users WHERE id = $1 FOR SHARE`, userID).Scan(&active, &deletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return database.ErrUserNotFound
		}
		return fmt.Errorf("check user: %w", err)
	}
	if !active || deletedAt.Valid {
		return database.ErrUserInactive
	}
	return nil
}

func appendOrderHistory(ctx context.Context, tx *sql.Tx, orderID int64, status models.OrderStatus, notes *string, actorID *int64) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO order_history (order_id, status, notes, created_by) VALUES ($1, $2, $3, $4)`,
		orderID, status, notes, actorID)
	if err != nil {
		return fmt.Errorf("append order history: %w", database.TranslateError(err))
	}
	return nil
}

func notifyOrder(ctx context.Context, tx *sql.Tx, userID int64, order *models.Order, title, message string) error {
	data, err := json.Marshal(map[string]any{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"status":       order.Status,
	})
	if err != nil {
		return fmt.Errorf("encode notification data: %w", err)
	}
	_, err = CreateNotification(ctx, tx, userID, models.NotificationOrder, title, message, data)
	return err
}

func strPtr(s string) *string {
	return &s
}

func GetOrder(ctx context.Context, db Querier, id int64) (*models.Order, error) {
	order, err := scanOrder(db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	order.Items, err = listOrderItems(ctx, db, id)
	if err != nil {
		return nil, err
	}

	return order, nil
}

func GetOrderByNumber(ctx context.Context, db Querier, number string) (*models.Order, error) {
	var id int64
	err := db.QueryRowContext(ctx, `SELECT id FROM orders WHERE order_number = $1`, number).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order by number: %w", err)
	}
	return GetOrder(ctx, db, id)
}

func listOrderItems(ctx context.Context, db Querier, orderID int64) ([]models.OrderItem, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, order_id, book_id, quantity, unit_price, discount_amount, total_price, created_at
		 FROM order_items
		 WHERE order_id = $1
		 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.BookID,
			&item.Quantity,
			&item.UnitPrice,
			&item.DiscountAmount,
			&item.TotalPrice,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

func ListOrdersCursor(ctx context.Context, db Querier, userID int64, cursor string, limit int) (*CursorPage, error) {
	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		  AND (created_at, id) < ($2, $3::BIGINT)
		ORDER BY created_at DESC, id DESC
		LIMIT $4`

	rows, err := db.QueryContext(ctx, query, userID, cursorData.CreatedAt, cursorData.ID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		last := orders[len(orders)-1]
		nextCursor = EncodeCursor(Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}

	return &CursorPage{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// GetNextPendingOrder claims the oldest pending order for a fulfilment
// worker. Rows locked by other workers are skipped.
func GetNextPendingOrder(ctx context.Context, tx *sql.Tx) (*models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE status = $1
		ORDER BY created_at, id
		FOR UPDATE SKIP LOCKED
		LIMIT 1`

	order, err := scanOrder(tx.QueryRowContext(ctx, query, models.OrderStatusPending))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get next pending order: %w", err)
	}

	return order, nil
}

// TransitionOrderStatus moves an order along its lifecycle. It stamps the
// shipped/delivered/cancelled timestamps, appends order_history and notifies
// the customer. An order that ends (cancelled or refunded) before it shipped
// returns its books to stock and gives back its voucher redemption.
func TransitionOrderStatus(ctx context.Context, db *sql.DB, req TransitionRequest) (*models.Order, error) {
	if !req.To.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", database.ErrInvalidTransition, req.To)
	}

	var order *models.Order

	err := database.WithRetry(ctx, db, database.SerializableTxOptions(), func(tx *sql.Tx) error {
		current, err := lockOrder(ctx, tx, req.OrderID)
		if err != nil {
			return err
		}

		from := current.Status
		if !from.CanTransitionTo(req.To) {
			return fmt.Errorf("%w: %s -> %s", database.ErrInvalidTransition, from, req.To)
		}

		updated, err := scanOrder(tx.QueryRowContext(ctx,
			`UPDATE orders
			 SET status = $2,
			     shipped_at = CASE WHEN $2 = 'shipped' THEN CURRENT_TIMESTAMP ELSE shipped_at END,
			     delivered_at = CASE WHEN $2 = 'delivered' THEN CURRENT_TIMESTAMP ELSE delivered_at END,
			     cancelled_at = CASE WHEN $2 = 'cancelled' THEN CURRENT_TIMESTAMP ELSE cancelled_at END,
			     cancellation_reason = CASE WHEN $2 = 'cancelled' THEN $3 ELSE cancellation_reason END,
			     tracking_number = COALESCE($4, tracking_number)
			 WHERE id = $1
			 RETURNING `+orderColumns,
			req.OrderID, string(req.To), req.Reason, req.TrackingNumber))
		if err != nil {
			return fmt.Errorf("update order status: %w", database.TranslateError(err))
		}

		if req.To.Terminal() && !from.HasShipped() {
			if err := releaseOrder(ctx, tx, current); err != nil {
				return err
			}
		}

		if err := appendOrderHistory(ctx, tx, req.OrderID, req.To, req.Notes, req.ActorID); err != nil {
			return err
		}

		if updated.UserID != nil {
			if err := notifyOrder(ctx, tx, *updated.UserID, updated,
				"Order "+string(req.To),
				fmt.Sprintf("Your order %s is now %s.", updated.OrderNumber, req.To)); err != nil {
				return err
			}
		}

		order = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

func lockOrder(ctx context.Context, tx *sql.Tx, id int64) (*models.Order, error) {
	order, err := scanOrder(tx.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("lock order: %w", err)
	}
	return order, nil
}

// releaseOrder returns an unshipped order's books to stock and undoes its
// voucher redemption. Order lines stay for the record.
func releaseOrder(ctx context.Context, tx *sql.Tx, order *models.Order) error {
	items, err := listOrderItems(ctx, tx, order.ID)
	if err != nil {
		return err
	}
	sort.Slice(items, func(i, j int) bool {
		return derefID(items[i].BookID) < derefID(items[j].BookID)
	})

	for _, item := range items {
		if item.BookID == nil {
			continue
		}
		if err := returnToStock(ctx, tx, *item.BookID, item.Quantity); err != nil {
			return err
		}
	}

	if order.VoucherID == nil {
		return nil
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM voucher_usage WHERE voucher_id = $1 AND order_id = $2`, *order.VoucherID, order.ID)
	if err != nil {
		return fmt.Errorf("release voucher usage: %w", err)
	}
	if n, _ := result.RowsAffected(); n > 0 {
		if _, err := tx.ExecContext(ctx,
			`UPDATE vouchers SET used_count = GREATEST(used_count - 1, 0) WHERE id = $1`, *order.VoucherID); err != nil {
			return fmt.Errorf("release voucher: %w", err)
		}
	}
	return nil
}

func derefID(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}

// TransitionPaymentStatus records a payment outcome for an order.
func TransitionPaymentStatus(ctx context.Context, db *sql.DB, orderID int64, to models.PaymentStatus, reference *string) (*models.Order, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown payment status %q", database.ErrInvalidTransition, to)
	}

	var order *models.Order

	err := database.WithRetry(ctx, db, database.SerializableTxOptions(), func(tx *sql.Tx) error {
		current, err := lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}

		if !current.PaymentStatus.CanTransitionTo(to) {
			return fmt.Errorf("%w: payment %s -> %s", database.ErrInvalidTransition, current.PaymentStatus, to)
		}

		order, err = scanOrder(tx.QueryRowContext(ctx,
			`UPDATE orders
			 SET payment_status = $2, payment_reference = COALESCE($3, payment_reference)
			 WHERE id = $1
			 RETURNING `+orderColumns,
			orderID, string(to), reference))
		if err != nil {
			return fmt.Errorf("update payment status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

func ListOrderHistory(ctx context.Context, db Querier, orderID int64) ([]models.OrderHistory, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, order_id, status, notes, created_by, created_at
		 FROM order_history
		 WHERE order_id = $1
		 ORDER BY created_at, id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order history: %w", err)
	}
	defer rows.Close()

	var history []models.OrderHistory
	for rows.Next() {
		var h models.OrderHistory
		if err := rows.Scan(&h.ID, &h.OrderID, &h.Status, &h.Notes, &h.CreatedBy, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order history: %w", err)
		}
		history = append(history, h)
	}
	return history, rows.Err()
}
