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

// CartService handles the shopper's cart
type CartService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(store *store.Store) *CartService {
	return &CartService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// AddItemRequest is the add-to-cart payload
type AddItemRequest struct {
	ProductID int64 `json:"productId" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

// UpdateItemRequest is the cart item quantity payload
type UpdateItemRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// GetCart returns the user's cart, creating it lazily.
func (s *CartService) GetCart(ctx context.Context, email string) (*models.Cart, error) {
	ctx, span := util.StartSpan(ctx, "CartService.GetCart")
	defer span.End()

	user, err := s.requireUser(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.store.GetOrCreateCart(ctx, user.ID)
}

// AddItem adds a product to the cart, incrementing quantity when the
// product is already present. Unit prices are snapshotted on first add.
func (s *CartService) AddItem(ctx context.Context, email string, req *AddItemRequest) (*models.Cart, error) {
	ctx, span := util.StartSpan(ctx, "CartService.AddItem")
	defer span.End()

	if req.Quantity <= 0 {
		return nil, errs.Validation("INVALID_QUANTITY", "quantity must be positive")
	}

	user, err := s.requireUser(ctx, email)
	if err != nil {
		return nil, err
	}
	cart, err := s.store.GetOrCreateCart(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	product, err := s.store.GetProductByID(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		return nil, errs.NotFound("PRODUCT_NOT_FOUND", "product not found")
	}

	item := &models.CartItem{
		ProductID:    product.ID,
		Quantity:     req.Quantity,
		MrpPrice:     product.MrpPrice,
		SellingPrice: product.SellingPrice,
	}
	if err := s.store.AddCartItemTx(ctx, cart.ID, item); err != nil {
		return nil, err
	}

	util.CartMutationsTotal.WithLabelValues("add").Inc()
	return s.store.GetOrCreateCart(ctx, user.ID)
}

// UpdateItem sets a cart item's quantity. The item must belong to the
// caller's own cart.
func (s *CartService) UpdateItem(ctx context.Context, email string, itemID int64, req *UpdateItemRequest) (*models.Cart, error) {
	ctx, span := util.StartSpan(ctx, "CartService.UpdateItem")
	defer span.End()

	if req.Quantity <= 0 {
		return nil, errs.Validation("INVALID_QUANTITY", "quantity must be positive")
	}

	user, err := s.requireUser(ctx, email)
	if err != nil {
		return nil, err
	}
	cart, err := s.store.GetOrCreateCart(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	item, err := s.store.GetCartItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.CartID != cart.ID {
		return nil, errs.Forbidden("FORBIDDEN", "cart item belongs to another user")
	}

	if err := s.store.UpdateCartItemQuantityTx(ctx, cart.ID, itemID, req.Quantity); err != nil {
		return nil, err
	}

	util.CartMutationsTotal.WithLabelValues("update").Inc()
	return s.store.GetOrCreateCart(ctx, user.ID)
}

// RemoveItem removes a cart item owned by the caller.
func (s *CartService) RemoveItem(ctx context.Context, email string, itemID int64) (*models.Cart, error) {
	ctx, span := util.StartSpan(ctx, "CartService.RemoveItem")
	defer span.End()

	user, err := s.requireUser(ctx, email)
	if err != nil {
		return nil, err
	}
	cart, err := s.store.GetOrCreateCart(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	item, err := s.store.GetCartItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.CartID != cart.ID {
		return nil, errs.Forbidden("FORBIDDEN", "cart item belongs to another user")
	}

	if err := s.store.RemoveCartItemTx(ctx, cart.ID, itemID); err != nil {
		return nil, err
	}

	util.CartMutationsTotal.WithLabelValues("remove").Inc()
	return s.store.GetOrCreateCart(ctx, user.ID)
}

// ClearCart empties the cart and zeros its totals.
func (s *CartService) ClearCart(ctx context.Context, email string) (*models.Cart, error) {
	ctx, span := util.StartSpan(ctx, "CartService.ClearCart")
	defer span.End()

	user, err := s.requireUser(ctx, email)
	if err != nil {
		return nil, err
	}
	cart, err := s.store.GetOrCreateCart(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.store.ClearCartTx(ctx, cart.ID); err != nil {
		return nil, err
	}

	util.CartMutationsTotal.WithLabelValues("clear").Inc()
	return s.store.GetOrCreateCart(ctx, user.ID)
}

func (s *CartService) requireUser(ctx context.Context, email string) (*models.User, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, errs.NotFound("USER_NOT_FOUND", "user not found")
	}
	return user, nil
}
