package store

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"
)

type Stats struct {
	Users            int64           `json:"users"`
	ActiveBooks      int64           `json:"active_books"`
	ActiveCategories int64           `json:"active_categories"`
	Orders           int64           `json:"orders"`
	PendingOrders    int64           `json:"pending_orders"`
	LowStockBooks    int64           `json:"low_stock_books"`
	Revenue          decimal.Decimal `json:"revenue"`
}

// CollectStats runs the dashboard counters concurrently on the pool. The
// first failing query cancels the rest.
func CollectStats(ctx context.Context, db Querier) (*Stats, error) {
	stats := &Stats{}

	counters := []struct {
		name  string
		query string
		dest  *int64
	}{
		{"users", `SELECT COUNT(*) FROM users WHERE deleted_at IS NULL`, &stats.Users},
		{"active books", `SELECT COUNT(*) FROM books WHERE is_active`, &stats.ActiveBooks},
		{"active categories", `SELECT COUNT(*) FROM categories WHERE is_active`, &stats.ActiveCategories},
		{"orders", `SELECT COUNT(*) FROM orders`, &stats.Orders},
		{"pending orders", `SELECT COUNT(*) FROM orders WHERE status = 'pending'`, &stats.PendingOrders},
		{"low stock books", `SELECT COUNT(*) FROM books WHERE is_active AND stock_quantity <= min_stock_level`, &stats.LowStockBooks},
	}

	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	for _, c := range counters {
		p.Go(func(ctx context.Context) error {
			if err := db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
				return fmt.Errorf("count %s: %w", c.name, err)
			}
			return nil
		})
	}
	p.Go(func(ctx context.Context) error {
		err := db.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE status = 'delivered'`).Scan(&stats.Revenue)
		if err != nil {
			return fmt.Errorf("sum revenue: %w", err)
		}
		return nil
	})

	if err := p.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}
