package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"eshop-service/internal/errs"
	"eshop-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// deliveryWindow is the estimated gap between order and delivery.
const deliveryWindow = 7 * 24 * time.Hour

// CreateOrderTx converts a cart into an immutable order in a single
// transaction: address copy, order insert, item snapshots, conditional
// stock decrement and cart clear. Any failure rolls back every step.
func (s *Store) CreateOrderTx(ctx context.Context, userID int64, address *models.Address, cart *models.Cart) (*models.Order, error) {
	if len(cart.Items) == 0 {
		return nil, errs.Validation("EMPTY_CART", "cart is empty, cannot create order")
	}

	var order *models.Order
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &address.ID, `
			INSERT INTO addresses (locality, street, city, state, postal_code, mobile)
			VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			address.Locality, address.Street, address.City,
			address.State, address.PostalCode, address.Mobile); err != nil {
			return fmt.Errorf("insert address: %w", err)
		}

		var (
			totalMrp     int64
			totalSelling int64
			totalItems   int
		)
		for _, item := range cart.Items {
			totalMrp += item.MrpPrice * int64(item.Quantity)
			totalSelling += item.SellingPrice * int64(item.Quantity)
			totalItems += item.Quantity
		}

		now := time.Now()
		o := &models.Order{
			UserID:            userID,
			AddressID:         address.ID,
			TotalMrpPrice:     totalMrp,
			TotalSellingPrice: totalSelling,
			Discount:          totalMrp - totalSelling,
			TotalItem:         totalItems,
			OrderStatus:       models.OrderStatusPending,
			PaymentStatus:     models.PaymentStatusPending,
			PaymentMethod:     models.PaymentMethodRazorpay,
			OrderDate:         now,
			DeliverDate:       now.Add(deliveryWindow),
		}

		if err := tx.GetContext(ctx, &o.ID, `
			INSERT INTO orders (user_id, address_id, total_mrp_price, total_selling_price,
				discount, total_item, order_status, payment_status, payment_method,
				order_date, deliver_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id`,
			o.UserID, o.AddressID, o.TotalMrpPrice, o.TotalSellingPrice,
			o.Discount, o.TotalItem, o.OrderStatus, o.PaymentStatus,
			o.PaymentMethod, o.OrderDate, o.DeliverDate); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for _, item := range cart.Items {
			oi := models.OrderItem{
				OrderID:      o.ID,
				ProductID:    item.ProductID,
				Quantity:     item.Quantity,
				MrpPrice:     item.MrpPrice,
				SellingPrice: item.SellingPrice,
				UserID:       userID,
			}
			if err := tx.GetContext(ctx, &oi.ID, `
				INSERT INTO order_items (order_id, product_id, quantity, mrp_price, selling_price, user_id)
				VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
				oi.OrderID, oi.ProductID, oi.Quantity, oi.MrpPrice, oi.SellingPrice, oi.UserID); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
			o.Items = append(o.Items, oi)

			// Conditional decrement keeps quantity >= 0 under
			// concurrent orders; zero rows means insufficient stock.
			res, err := tx.ExecContext(ctx, `
				UPDATE products
				SET quantity = quantity - $1, updated_at = NOW()
				WHERE id = $2 AND quantity >= $1`,
				item.Quantity, item.ProductID)
			if err != nil {
				return fmt.Errorf("decrement stock: %w", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if n == 0 {
				return errs.Conflict("INSUFFICIENT_STOCK",
					fmt.Sprintf("insufficient stock for product %d", item.ProductID))
			}
		}

		if err := clearCartTx(ctx, tx, cart.ID); err != nil {
			return err
		}

		o.ShippingAddress = address
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrderByID retrieves an order with its items and shipping address.
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := s.attachOrderDetails(ctx, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrdersByUser returns a user's order history, newest first.
func (s *Store) ListOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE user_id = $1 ORDER BY order_date DESC", userID)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if err := s.attachOrderDetails(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// ListOrders returns all orders, optionally filtered by status.
func (s *Store) ListOrders(ctx context.Context, status string) ([]models.Order, error) {
	orders := []models.Order{}
	var err error
	if status == "" {
		err = s.db.SelectContext(ctx, &orders,
			"SELECT * FROM orders ORDER BY order_date DESC")
	} else {
		err = s.db.SelectContext(ctx, &orders,
			"SELECT * FROM orders WHERE order_status = $1 ORDER BY order_date DESC", status)
	}
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if err := s.attachOrderDetails(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// GetOrderItems returns the items of an order.
func (s *Store) GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	items := []models.OrderItem{}
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	return items, err
}

// UpdateOrderStatus flips order_status without transition checks; the
// service layer owns the legal-transition set.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET order_status = $1 WHERE id = $2", status, orderID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.NotFound("NOT_FOUND", "order not found")
	}
	return nil
}

// CancelOrderTx restores stock and flips the order to CANCELLED in one
// transaction. The status guard on the final UPDATE makes a second
// cancel fail even when two requests race.
func (s *Store) CancelOrderTx(ctx context.Context, orderID int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var status string
		err := tx.GetContext(ctx, &status,
			"SELECT order_status FROM orders WHERE id = $1 FOR UPDATE", orderID)
		if errors.Is(err, sql.ErrNoRows) {
			return errs.NotFound("NOT_FOUND", "order not found")
		}
		if err != nil {
			return err
		}
		if status == models.OrderStatusCancelled {
			return errs.Conflict("ALREADY_CANCELLED", "order is already cancelled")
		}

		items := []models.OrderItem{}
		if err := tx.SelectContext(ctx, &items,
			"SELECT * FROM order_items WHERE order_id = $1", orderID); err != nil {
			return fmt.Errorf("load order items: %w", err)
		}

		for _, item := range items {
			if _, err := tx.ExecContext(ctx, `
				UPDATE products
				SET quantity = quantity + $1, updated_at = NOW()
				WHERE id = $2`,
				item.Quantity, item.ProductID); err != nil {
				return fmt.Errorf("restore stock: %w", err)
			}
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE orders SET order_status = $1
			WHERE id = $2 AND order_status <> $1`,
			models.OrderStatusCancelled, orderID)
		if err != nil {
			return fmt.Errorf("cancel order: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return errs.Conflict("ALREADY_CANCELLED", "order is already cancelled")
		}
		return nil
	})
}

func (s *Store) attachOrderDetails(ctx context.Context, order *models.Order) error {
	items, err := s.GetOrderItems(ctx, order.ID)
	if err != nil {
		return err
	}
	order.Items = items

	var addr models.Address
	err = s.db.GetContext(ctx, &addr, "SELECT * FROM addresses WHERE id = $1", order.AddressID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if err == nil {
		order.ShippingAddress = &addr
	}
	return nil
}
