package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"eshop-service/internal/errs"
	"eshop-service/internal/models"
	"eshop-service/internal/store"
	"eshop-service/internal/util"
)

// WishlistService handles the shopper's wishlist
type WishlistService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewWishlistService creates a new wishlist service
func NewWishlistService(store *store.Store) *WishlistService {
	return &WishlistService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// GetWishlist returns the user's wishlist, creating it lazily.
func (s *WishlistService) GetWishlist(ctx context.Context, email string) (*models.Wishlist, error) {
	user, err := s.requireUser(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.store.GetOrCreateWishlist(ctx, user.ID)
}

// ToggleProduct adds the product to the wishlist, or removes it when
// already present.
func (s *WishlistService) ToggleProduct(ctx context.Context, email string, productID int64) (*models.Wishlist, error) {
	user, err := s.requireUser(ctx, email)
	if err != nil {
		return nil, err
	}
	wishlist, err := s.store.GetOrCreateWishlist(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	product, err := s.store.GetProductByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		return nil, errs.NotFound("PRODUCT_NOT_FOUND", "product not found")
	}

	added, err := s.store.ToggleWishlistProduct(ctx, wishlist.ID, productID)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Wishlist toggled",
		zap.Int64("wishlist_id", wishlist.ID),
		zap.Int64("product_id", productID),
		zap.Bool("added", added))

	return s.store.GetOrCreateWishlist(ctx, user.ID)
}

// RemoveProduct removes a product from the wishlist. Fails when the
// product is not in the set.
func (s *WishlistService) RemoveProduct(ctx context.Context, email string, productID int64) error {
	user, err := s.requireUser(ctx, email)
	if err != nil {
		return err
	}
	wishlist, err := s.store.GetOrCreateWishlist(ctx, user.ID)
	if err != nil {
		return err
	}
	return s.store.RemoveWishlistProduct(ctx, wishlist.ID, productID)
}

func (s *WishlistService) requireUser(ctx context.Context, email string) (*models.User, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, errs.NotFound("USER_NOT_FOUND", "user not found")
	}
	return user, nil
}
