package store

import (
	"context"
	"fmt"

	"eshop-service/internal/models"
)

// GetDashboardStats aggregates storefront counters in a single query.
func (s *Store) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	err := s.db.GetContext(ctx, &stats, `
		SELECT
			(SELECT COUNT(*) FROM users) AS total_users,
			(SELECT COUNT(*) FROM orders) AS total_orders,
			(SELECT COALESCE(SUM(total_selling_price), 0) FROM orders
				WHERE order_status <> 'CANCELLED') AS total_revenue,
			(SELECT COUNT(*) FROM products) AS total_products,
			(SELECT COUNT(*) FROM categories) AS total_categories,
			(SELECT COUNT(*) FROM orders
				WHERE order_status = 'CANCELLED') AS total_cancelled_orders,
			(SELECT COALESCE(SUM(total_selling_price), 0) FROM orders
				WHERE order_status = 'CANCELLED') AS total_refund_amount`)
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	return &stats, nil
}

// GetOrderStatusSummary counts orders grouped by status.
func (s *Store) GetOrderStatusSummary(ctx context.Context) (map[string]int64, error) {
	rows := []struct {
		Status string `db:"order_status"`
		Count  int64  `db:"count"`
	}{}
	err := s.db.SelectContext(ctx, &rows,
		"SELECT order_status, COUNT(*) AS count FROM orders GROUP BY order_status")
	if err != nil {
		return nil, fmt.Errorf("order status summary: %w", err)
	}

	summary := make(map[string]int64, len(rows))
	for _, row := range rows {
		summary[row.Status] = row.Count
	}
	return summary, nil
}
