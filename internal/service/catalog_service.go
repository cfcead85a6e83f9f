package service

import (
	"context"
	"fmt"
	"mime/multipart"

	"go.uber.org/zap"

	"eshop-service/internal/errs"
	"eshop-service/internal/imagestore"
	"eshop-service/internal/models"
	"eshop-service/internal/redisclient"
	"eshop-service/internal/store"
	"eshop-service/internal/util"
)

// CatalogService handles product and category management
type CatalogService struct {
	store  *store.Store
	redis  *redisclient.Client
	images *imagestore.Store
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store *store.Store, redis *redisclient.Client, images *imagestore.Store) *CatalogService {
	return &CatalogService{
		store:  store,
		redis:  redis,
		images: images,
		logger: util.GetLogger(),
	}
}

// ProductRequest is the create/update payload for a product
type ProductRequest struct {
	Title        string `form:"title" json:"title" binding:"required"`
	Description  string `form:"description" json:"description"`
	MrpPrice     int64  `form:"mrpPrice" json:"mrpPrice" binding:"required,min=1"`
	SellingPrice int64  `form:"sellingPrice" json:"sellingPrice" binding:"required,min=1"`
	Color        string `form:"color" json:"color"`
	Brand        string `form:"brand" json:"brand"`
	Category     string `form:"category" json:"category" binding:"required"`
	Quantity     int    `form:"quantity" json:"quantity" binding:"min=0"`
}

// CategoryRequest is the create/update payload for a category
type CategoryRequest struct {
	Name string `form:"name" json:"name" binding:"required"`
}

// GetProduct serves a product, preferring the Redis cache.
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.GetProduct")
	defer span.End()

	cached, err := s.redis.GetCachedProduct(ctx, id)
	if err != nil {
		s.logger.Warn("Product cache read failed", zap.Int64("product_id", id), zap.Error(err))
	}
	if cached != nil {
		return cached, nil
	}

	product, err := s.store.GetProductByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		return nil, errs.NotFound("PRODUCT_NOT_FOUND", "product not found")
	}

	if err := s.redis.CacheProduct(ctx, product); err != nil {
		s.logger.Warn("Product cache write failed", zap.Int64("product_id", id), zap.Error(err))
	}
	return product, nil
}

// ListProducts returns a filtered, paginated product page.
func (s *CatalogService) ListProducts(ctx context.Context, f store.ProductFilter) (*store.ProductPage, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ListProducts")
	defer span.End()

	return s.store.ListProducts(ctx, f)
}

// SearchProducts performs substring search over title and category name.
func (s *CatalogService) SearchProducts(ctx context.Context, query string) ([]models.Product, error) {
	return s.store.SearchProducts(ctx, query)
}

// ListCategories returns every category.
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.store.ListCategories(ctx)
}

// CreateProduct creates a product under the named category, storing
// any uploaded images.
func (s *CatalogService) CreateProduct(ctx context.Context, req *ProductRequest, files []*multipart.FileHeader) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateProduct")
	defer span.End()

	category, err := s.resolveCategory(ctx, req.Category)
	if err != nil {
		return nil, err
	}
	if req.SellingPrice > req.MrpPrice {
		return nil, errs.Validation("INVALID_PRICE", "selling price cannot exceed MRP")
	}

	urls, err := s.images.SaveAll(imagestore.KindProduct, files)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		Title:           req.Title,
		Description:     req.Description,
		MrpPrice:        req.MrpPrice,
		SellingPrice:    req.SellingPrice,
		DiscountPercent: discountPercent(req.MrpPrice, req.SellingPrice),
		Color:           req.Color,
		Brand:           req.Brand,
		CategoryID:      category.ID,
		CategoryName:    category.Name,
		Quantity:        req.Quantity,
		Images:          urls,
	}
	if err := s.store.CreateProduct(ctx, product); err != nil {
		for _, u := range urls {
			s.images.Remove(u)
		}
		return nil, err
	}

	s.logger.Info("Product created", zap.Int64("product_id", product.ID), zap.String("title", product.Title))
	return product, nil
}

// UpdateProduct updates a product. New images, when present, replace
// the existing set.
func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, req *ProductRequest, files []*multipart.FileHeader) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.UpdateProduct")
	defer span.End()

	product, err := s.store.GetProductByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		return nil, errs.NotFound("PRODUCT_NOT_FOUND", "product not found")
	}

	category, err := s.resolveCategory(ctx, req.Category)
	if err != nil {
		return nil, err
	}
	if req.SellingPrice > req.MrpPrice {
		return nil, errs.Validation("INVALID_PRICE", "selling price cannot exceed MRP")
	}

	replaceImages := len(files) > 0
	if replaceImages {
		old := product.Images
		urls, err := s.images.SaveAll(imagestore.KindProduct, files)
		if err != nil {
			return nil, err
		}
		product.Images = urls
		for _, u := range old {
			s.images.Remove(u)
		}
	}

	product.Title = req.Title
	product.Description = req.Description
	product.MrpPrice = req.MrpPrice
	product.SellingPrice = req.SellingPrice
	product.DiscountPercent = discountPercent(req.MrpPrice, req.SellingPrice)
	product.Color = req.Color
	product.Brand = req.Brand
	product.CategoryID = category.ID
	product.CategoryName = category.Name
	product.Quantity = req.Quantity

	if err := s.store.UpdateProduct(ctx, product, replaceImages); err != nil {
		return nil, err
	}
	if err := s.redis.InvalidateProduct(ctx, id); err != nil {
		s.logger.Warn("Product cache invalidation failed", zap.Int64("product_id", id), zap.Error(err))
	}
	return product, nil
}

// UpdateProductStock patches the on-hand quantity.
func (s *CatalogService) UpdateProductStock(ctx context.Context, id int64, quantity int) error {
	if quantity < 0 {
		return errs.Validation("INVALID_QUANTITY", "quantity cannot be negative")
	}
	if err := s.store.UpdateProductStock(ctx, id, quantity); err != nil {
		return err
	}
	if err := s.redis.InvalidateProduct(ctx, id); err != nil {
		s.logger.Warn("Product cache invalidation failed", zap.Int64("product_id", id), zap.Error(err))
	}
	return nil
}

// DeleteProduct removes a product and evicts it from carts, wishlists
// and the cache.
func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.DeleteProduct")
	defer span.End()

	product, err := s.store.GetProductByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		return errs.NotFound("PRODUCT_NOT_FOUND", "product not found")
	}

	if err := s.store.DeleteProductTx(ctx, id); err != nil {
		return err
	}
	if err := s.redis.InvalidateProduct(ctx, id); err != nil {
		s.logger.Warn("Product cache invalidation failed", zap.Int64("product_id", id), zap.Error(err))
	}
	for _, u := range product.Images {
		s.images.Remove(u)
	}
	s.logger.Info("Product deleted", zap.Int64("product_id", id))
	return nil
}

// CreateCategory creates a category with an optional image.
func (s *CatalogService) CreateCategory(ctx context.Context, req *CategoryRequest, file *multipart.FileHeader) (*models.Category, error) {
	cat := &models.Category{Name: req.Name}
	if file != nil {
		url, err := s.images.Save(imagestore.KindCategory, file)
		if err != nil {
			return nil, err
		}
		cat.ImageURL = url
	}
	if err := s.store.CreateCategory(ctx, cat); err != nil {
		if cat.ImageURL != "" {
			s.images.Remove(cat.ImageURL)
		}
		return nil, err
	}
	return cat, nil
}

// UpdateCategory renames a category and optionally replaces its image.
func (s *CatalogService) UpdateCategory(ctx context.Context, id int64, req *CategoryRequest, file *multipart.FileHeader) (*models.Category, error) {
	cat, err := s.store.GetCategoryByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load category: %w", err)
	}
	if cat == nil {
		return nil, errs.NotFound("CATEGORY_NOT_FOUND", "category not found")
	}

	cat.Name = req.Name
	if file != nil {
		old := cat.ImageURL
		url, err := s.images.Save(imagestore.KindCategory, file)
		if err != nil {
			return nil, err
		}
		cat.ImageURL = url
		if old != "" {
			s.images.Remove(old)
		}
	}
	if err := s.store.UpdateCategory(ctx, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

// DeleteCategory removes a category and all of its products, evicting
// them from every cart and wishlist.
func (s *CatalogService) DeleteCategory(ctx context.Context, id int64) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.DeleteCategory")
	defer span.End()

	cat, err := s.store.GetCategoryByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load category: %w", err)
	}
	if cat == nil {
		return errs.NotFound("CATEGORY_NOT_FOUND", "category not found")
	}

	if err := s.store.DeleteCategoryTx(ctx, id); err != nil {
		return err
	}
	if cat.ImageURL != "" {
		s.images.Remove(cat.ImageURL)
	}
	s.logger.Info("Category deleted", zap.Int64("category_id", id), zap.String("name", cat.Name))
	return nil
}

func (s *CatalogService) resolveCategory(ctx context.Context, name string) (*models.Category, error) {
	category, err := s.store.GetCategoryByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load category: %w", err)
	}
	if category == nil {
		return nil, errs.Validation("CATEGORY_NOT_FOUND", "unknown category")
	}
	return category, nil
}

func discountPercent(mrp, selling int64) int {
	if mrp <= 0 {
		return 0
	}
	return int((mrp - selling) * 100 / mrp)
}
