package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eshop-service/internal/errs"
	"eshop-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// CreatePaymentOrder persists a PENDING payment order for an order.
func (s *Store) CreatePaymentOrder(ctx context.Context, po *models.PaymentOrder) error {
	err := s.db.GetContext(ctx, po, `
		INSERT INTO payment_orders (user_id, order_id, amount, payment_method, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		po.UserID, po.OrderID, po.Amount, po.PaymentMethod, po.Status)
	if err != nil && errs.IsUniqueViolation(err, "") {
		return errs.Conflict("PAYMENT_ORDER_EXISTS", "payment order already exists for this order")
	}
	return err
}

// AttachPaymentLink stores the provider's link id and short URL on the
// payment order.
func (s *Store) AttachPaymentLink(ctx context.Context, paymentOrderID int64, linkID, paymentURL string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE payment_orders SET payment_link_id = $1, payment_url = $2 WHERE id = $3",
		linkID, paymentURL, paymentOrderID)
	return err
}

// GetPaymentOrderByLinkID resolves the callback's payment link id.
func (s *Store) GetPaymentOrderByLinkID(ctx context.Context, linkID string) (*models.PaymentOrder, error) {
	var po models.PaymentOrder
	err := s.db.GetContext(ctx, &po,
		"SELECT * FROM payment_orders WHERE payment_link_id = $1", linkID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound("NOT_FOUND", "payment order not found with provided payment link id")
	}
	if err != nil {
		return nil, err
	}
	return &po, nil
}

// GetPaymentOrderByOrderID returns the payment order linked to an order.
func (s *Store) GetPaymentOrderByOrderID(ctx context.Context, orderID int64) (*models.PaymentOrder, error) {
	var po models.PaymentOrder
	err := s.db.GetContext(ctx, &po,
		"SELECT * FROM payment_orders WHERE order_id = $1", orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound("NOT_FOUND", "payment order not found for order")
	}
	if err != nil {
		return nil, err
	}
	return &po, nil
}

// MarkPaymentCapturedTx commits a successful capture: the order flips to
// COMPLETED/CONFIRMED, the payment order to SUCCESS, and exactly one
// transaction row is written. The PENDING guard plus the partial unique
// index on transactions(order_id) make the whole thing exactly-once.
func (s *Store) MarkPaymentCapturedTx(ctx context.Context, po *models.PaymentOrder, paymentID string) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE payment_orders SET status = $1
			WHERE id = $2 AND status = $3`,
			models.PaymentOrderSuccess, po.ID, models.PaymentOrderPending)
		if err != nil {
			return fmt.Errorf("flip payment order: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return errs.Conflict("PAYMENT_NOT_PENDING", "payment order is not pending")
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE orders SET payment_status = $1, order_status = $2
			WHERE id = $3`,
			models.PaymentStatusCompleted, models.OrderStatusConfirmed, po.OrderID); err != nil {
			return fmt.Errorf("confirm order: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (order_id, user_id, amount, status, payment_id, payment_link_id, payment_method)
			VALUES ($1, $2, $3, 'SUCCESS', $4, $5, $6)`,
			po.OrderID, po.UserID, po.Amount, paymentID, po.PaymentLinkID, po.PaymentMethod); err != nil {
			if errs.IsUniqueViolation(err, "") {
				return errs.Conflict("TRANSACTION_EXISTS", "transaction already recorded for this order")
			}
			return fmt.Errorf("insert transaction: %w", err)
		}

		return nil
	})
}

// MarkPaymentFailed flips the payment order to FAILED. Only a PENDING
// row moves; repeated callbacks stay failed.
func (s *Store) MarkPaymentFailed(ctx context.Context, paymentOrderID int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE payment_orders SET status = $1
		WHERE id = $2 AND status = $3`,
		models.PaymentOrderFailed, paymentOrderID, models.PaymentOrderPending)
	return err
}

// ListTransactionsByUser returns a shopper's transactions, newest first.
func (s *Store) ListTransactionsByUser(ctx context.Context, userID int64) ([]models.Transaction, error) {
	txs := []models.Transaction{}
	err := s.db.SelectContext(ctx, &txs,
		"SELECT * FROM transactions WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return txs, err
}

// ListTransactions returns all transactions, newest first.
func (s *Store) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	txs := []models.Transaction{}
	err := s.db.SelectContext(ctx, &txs,
		"SELECT * FROM transactions ORDER BY created_at DESC")
	return txs, err
}
