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

// GetOrCreateCart returns the user's cart, creating it lazily.
func (s *Store) GetOrCreateCart(ctx context.Context, userID int64) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.GetContext(ctx, &cart, "SELECT * FROM carts WHERE user_id = $1", userID)
	if errors.Is(err, sql.ErrNoRows) {
		err = s.db.GetContext(ctx, &cart, `
			INSERT INTO carts (user_id) VALUES ($1)
			ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
			RETURNING *`, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("get or create cart: %w", err)
	}

	items, err := s.GetCartItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Items = items
	return &cart, nil
}

// GetCartItems returns the items of a cart in insertion order.
func (s *Store) GetCartItems(ctx context.Context, cartID int64) ([]models.CartItem, error) {
	items := []models.CartItem{}
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM cart_items WHERE cart_id = $1 ORDER BY id", cartID)
	return items, err
}

// GetCartItemByID retrieves a single cart item.
func (s *Store) GetCartItemByID(ctx context.Context, id int64) (*models.CartItem, error) {
	var item models.CartItem
	err := s.db.GetContext(ctx, &item, "SELECT * FROM cart_items WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFound("NOT_FOUND", "cart item not found")
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindCartItem returns the item for (cart, product), or nil.
func (s *Store) FindCartItem(ctx context.Context, cartID, productID int64) (*models.CartItem, error) {
	var item models.CartItem
	err := s.db.GetContext(ctx, &item,
		"SELECT * FROM cart_items WHERE cart_id = $1 AND product_id = $2", cartID, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// AddCartItemTx inserts or increments an item and recomputes totals in
// one transaction. Unit prices are snapshotted only on first insert.
func (s *Store) AddCartItemTx(ctx context.Context, cartID int64, item *models.CartItem) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, item, `
			INSERT INTO cart_items (cart_id, product_id, quantity, mrp_price, selling_price)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (cart_id, product_id) DO UPDATE
			SET quantity = cart_items.quantity + EXCLUDED.quantity
			RETURNING *`,
			cartID, item.ProductID, item.Quantity, item.MrpPrice, item.SellingPrice)
		if err != nil {
			return fmt.Errorf("upsert cart item: %w", err)
		}
		return recalculateCartTx(ctx, tx, cartID)
	})
}

// UpdateCartItemQuantityTx sets an item's quantity and recomputes totals.
func (s *Store) UpdateCartItemQuantityTx(ctx context.Context, cartID, itemID int64, quantity int) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE cart_items SET quantity = $1 WHERE id = $2 AND cart_id = $3",
			quantity, itemID, cartID)
		if err != nil {
			return fmt.Errorf("update cart item: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return errs.NotFound("NOT_FOUND", "cart item not found")
		}
		return recalculateCartTx(ctx, tx, cartID)
	})
}

// RemoveCartItemTx deletes an item and recomputes totals.
func (s *Store) RemoveCartItemTx(ctx context.Context, cartID, itemID int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			"DELETE FROM cart_items WHERE id = $1 AND cart_id = $2", itemID, cartID)
		if err != nil {
			return fmt.Errorf("delete cart item: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return errs.NotFound("NOT_FOUND", "cart item not found")
		}
		return recalculateCartTx(ctx, tx, cartID)
	})
}

// ClearCartTx empties the cart and zeros all totals.
func (s *Store) ClearCartTx(ctx context.Context, cartID int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		return clearCartTx(ctx, tx, cartID)
	})
}

func clearCartTx(ctx context.Context, tx *sqlx.Tx, cartID int64) error {
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM cart_items WHERE cart_id = $1", cartID); err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}
	_, err := tx.ExecContext(ctx, `
		UPDATE carts
		SET total_item = 0, total_mrp_price = 0, total_selling_price = 0, discount = 0
		WHERE id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("zero cart totals: %w", err)
	}
	return nil
}

// recalculateCartTx rebuilds cart totals from its remaining items.
// Discount is a floor percentage, 0 when the MRP total is 0.
func recalculateCartTx(ctx context.Context, tx *sqlx.Tx, cartID int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE carts c
		SET total_item = t.items,
		    total_mrp_price = t.mrp,
		    total_selling_price = t.selling,
		    discount = CASE WHEN t.mrp > 0
		        THEN ((t.mrp - t.selling) * 100) / t.mrp
		        ELSE 0 END
		FROM (
			SELECT COALESCE(SUM(quantity), 0) AS items,
			       COALESCE(SUM(quantity * mrp_price), 0) AS mrp,
			       COALESCE(SUM(quantity * selling_price), 0) AS selling
			FROM cart_items WHERE cart_id = $1
		) t
		WHERE c.id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("recalculate cart: %w", err)
	}
	return nil
}
