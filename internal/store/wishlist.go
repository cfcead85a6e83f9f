package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eshop-service/internal/errs"
	"eshop-service/internal/models"
)

// GetOrCreateWishlist returns the user's wishlist with its products,
// creating the row lazily.
func (s *Store) GetOrCreateWishlist(ctx context.Context, userID int64) (*models.Wishlist, error) {
	var wl models.Wishlist
	err := s.db.GetContext(ctx, &wl, "SELECT * FROM wishlists WHERE user_id = $1", userID)
	if errors.Is(err, sql.ErrNoRows) {
		err = s.db.GetContext(ctx, &wl, `
			INSERT INTO wishlists (user_id) VALUES ($1)
			ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
			RETURNING *`, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("get or create wishlist: %w", err)
	}

	products := []models.Product{}
	err = s.db.SelectContext(ctx, &products, fmt.Sprintf(`
		SELECT %s FROM wishlist_products wp
		JOIN products p ON p.id = wp.product_id
		JOIN categories c ON c.id = p.category_id
		WHERE wp.wishlist_id = $1
		ORDER BY wp.product_id`, productColumns), wl.ID)
	if err != nil {
		return nil, fmt.Errorf("load wishlist products: %w", err)
	}

	refs := make([]*models.Product, len(products))
	for i := range products {
		refs[i] = &products[i]
	}
	if err := s.loadImages(ctx, refs); err != nil {
		return nil, err
	}

	wl.Products = products
	return &wl, nil
}

// ToggleWishlistProduct adds the product if absent, removes it if
// present. Returns true when the product ended up in the set.
func (s *Store) ToggleWishlistProduct(ctx context.Context, wishlistID, productID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM wishlist_products WHERE wishlist_id = $1 AND product_id = $2",
		wishlistID, productID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO wishlist_products (wishlist_id, product_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, wishlistID, productID)
	if err != nil {
		return false, err
	}
	return true, nil
}

// RemoveWishlistProduct deletes a product from the set; absence is an error.
func (s *Store) RemoveWishlistProduct(ctx context.Context, wishlistID, productID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM wishlist_products WHERE wishlist_id = $1 AND product_id = $2",
		wishlistID, productID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.NotFound("NOT_IN_WISHLIST", "product not found in wishlist")
	}
	return nil
}
