package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"eshop-service/internal/errs"
	"eshop-service/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PageSize is fixed for product listings; page index is zero-based.
const PageSize = 10

// ProductFilter is the catalog filter surface.
type ProductFilter struct {
	Category    string
	Brand       string
	Color       string
	MinPrice    *int64
	MaxPrice    *int64
	MinDiscount *int
	Quantity    *int
	Sort        string // "price_low", "price_high" or empty
	Page        int
}

// ProductPage is one page of a filtered listing.
type ProductPage struct {
	Items      []models.Product `json:"content"`
	Page       int              `json:"pageNumber"`
	PageSize   int              `json:"pageSize"`
	Total      int64            `json:"totalElements"`
	TotalPages int              `json:"totalPages"`
}

const productColumns = `p.id, p.title, p.description, p.mrp_price, p.selling_price,
	p.discount_percent, p.color, p.brand, p.category_id, c.name AS category_name,
	p.quantity, p.created_at, p.updated_at`

// CreateCategory persists a category with a unique name.
func (s *Store) CreateCategory(ctx context.Context, cat *models.Category) error {
	err := s.db.GetContext(ctx, &cat.ID, `
		INSERT INTO categories (name, image_url) VALUES ($1, $2) RETURNING id`,
		cat.Name, cat.ImageURL)
	if err != nil && errs.IsUniqueViolation(err, "") {
		return errs.Validation("CATEGORY_EXISTS", "a category with this name already exists")
	}
	return err
}

// UpdateCategory persists name/image changes.
func (s *Store) UpdateCategory(ctx context.Context, cat *models.Category) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE categories SET name = $1, image_url = $2 WHERE id = $3",
		cat.Name, cat.ImageURL, cat.ID)
	return err
}

// GetCategoryByID retrieves a category.
func (s *Store) GetCategoryByID(ctx context.Context, id int64) (*models.Category, error) {
	var cat models.Category
	err := s.db.GetContext(ctx, &cat, "SELECT * FROM categories WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// GetCategoryByName retrieves a category by its unique name.
func (s *Store) GetCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	var cat models.Category
	err := s.db.GetContext(ctx, &cat, "SELECT * FROM categories WHERE name = $1", name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// ListCategories returns all categories.
func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	err := s.db.SelectContext(ctx, &cats, "SELECT * FROM categories ORDER BY name")
	return cats, err
}

// DeleteCategoryTx removes a category, its products, and every cart and
// wishlist reference to those products. Affected carts get their totals
// recomputed inside the same transaction.
func (s *Store) DeleteCategoryTx(ctx context.Context, categoryID int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var productIDs []int64
		if err := tx.SelectContext(ctx, &productIDs,
			"SELECT id FROM products WHERE category_id = $1", categoryID); err != nil {
			return fmt.Errorf("list category products: %w", err)
		}

		if len(productIDs) > 0 {
			var cartIDs []int64
			if err := tx.SelectContext(ctx, &cartIDs,
				"SELECT DISTINCT cart_id FROM cart_items WHERE product_id = ANY($1)",
				pq.Array(productIDs)); err != nil {
				return fmt.Errorf("list affected carts: %w", err)
			}

			if _, err := tx.ExecContext(ctx,
				"DELETE FROM cart_items WHERE product_id = ANY($1)", pq.Array(productIDs)); err != nil {
				return fmt.Errorf("evict cart items: %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM wishlist_products WHERE product_id = ANY($1)", pq.Array(productIDs)); err != nil {
				return fmt.Errorf("evict wishlist entries: %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM product_images WHERE product_id = ANY($1)", pq.Array(productIDs)); err != nil {
				return fmt.Errorf("delete product images: %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM products WHERE category_id = $1", categoryID); err != nil {
				return fmt.Errorf("delete category products: %w", err)
			}

			for _, cartID := range cartIDs {
				if err := recalculateCartTx(ctx, tx, cartID); err != nil {
					return err
				}
			}
		}

		res, err := tx.ExecContext(ctx, "DELETE FROM categories WHERE id = $1", categoryID)
		if err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return errs.NotFound("NOT_FOUND", "category not found")
		}
		return nil
	})
}

// CreateProduct persists a product and its ordered image URLs.
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, p, `
			INSERT INTO products (title, description, mrp_price, selling_price,
				discount_percent, color, brand, category_id, quantity)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, created_at, updated_at`,
			p.Title, p.Description, p.MrpPrice, p.SellingPrice,
			p.DiscountPercent, p.Color, p.Brand, p.CategoryID, p.Quantity)
		if err != nil {
			return fmt.Errorf("insert product: %w", err)
		}
		return replaceProductImagesTx(ctx, tx, p.ID, p.Images)
	})
}

// UpdateProduct persists product changes. Images are replaced only when
// a new list is provided.
func (s *Store) UpdateProduct(ctx context.Context, p *models.Product, replaceImages bool) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE products
			SET title = $1, description = $2, mrp_price = $3, selling_price = $4,
			    discount_percent = $5, color = $6, brand = $7, category_id = $8,
			    quantity = $9, updated_at = NOW()
			WHERE id = $10`,
			p.Title, p.Description, p.MrpPrice, p.SellingPrice,
			p.DiscountPercent, p.Color, p.Brand, p.CategoryID, p.Quantity, p.ID)
		if err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return errs.NotFound("NOT_FOUND", "product not found")
		}
		if replaceImages {
			return replaceProductImagesTx(ctx, tx, p.ID, p.Images)
		}
		return nil
	})
}

// UpdateProductStock sets the on-hand quantity directly (admin patch).
func (s *Store) UpdateProductStock(ctx context.Context, productID int64, quantity int) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE products SET quantity = $1, updated_at = NOW() WHERE id = $2",
		quantity, productID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.NotFound("NOT_FOUND", "product not found")
	}
	return nil
}

// DeleteProductTx removes a product and evicts it from carts and
// wishlists, recomputing affected cart totals.
func (s *Store) DeleteProductTx(ctx context.Context, productID int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var cartIDs []int64
		if err := tx.SelectContext(ctx, &cartIDs,
			"SELECT DISTINCT cart_id FROM cart_items WHERE product_id = $1", productID); err != nil {
			return fmt.Errorf("list affected carts: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			"DELETE FROM cart_items WHERE product_id = $1", productID); err != nil {
			return fmt.Errorf("evict cart items: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM wishlist_products WHERE product_id = $1", productID); err != nil {
			return fmt.Errorf("evict wishlist entries: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM product_images WHERE product_id = $1", productID); err != nil {
			return fmt.Errorf("delete product images: %w", err)
		}

		res, err := tx.ExecContext(ctx, "DELETE FROM products WHERE id = $1", productID)
		if err != nil {
			return fmt.Errorf("delete product: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return errs.NotFound("NOT_FOUND", "product not found")
		}

		for _, cartID := range cartIDs {
			if err := recalculateCartTx(ctx, tx, cartID); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetProductByID retrieves a product with its category name and images.
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	err := s.db.GetContext(ctx, &p, fmt.Sprintf(`
		SELECT %s FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1`, productColumns), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadImages(ctx, []*models.Product{&p}); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProducts applies the filter surface and returns a fixed-size page.
func (s *Store) ListProducts(ctx context.Context, f ProductFilter) (*ProductPage, error) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, val interface{}) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Category != "" {
		add("c.name = $%d", f.Category)
	}
	if f.Brand != "" {
		add("p.brand = $%d", f.Brand)
	}
	if f.Color != "" {
		add("p.color = $%d", f.Color)
	}
	if f.MinPrice != nil {
		add("p.selling_price >= $%d", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add("p.selling_price <= $%d", *f.MaxPrice)
	}
	if f.MinDiscount != nil {
		add("p.discount_percent >= $%d", *f.MinDiscount)
	}
	if f.Quantity != nil {
		add("p.quantity = $%d", *f.Quantity)
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	orderBy := "ORDER BY p.id"
	switch f.Sort {
	case "price_low":
		orderBy = "ORDER BY p.selling_price ASC, p.id"
	case "price_high":
		orderBy = "ORDER BY p.selling_price DESC, p.id"
	}

	var total int64
	countQuery := fmt.Sprintf(`
		SELECT COUNT(*) FROM products p
		JOIN categories c ON c.id = p.category_id %s`, where)
	if err := s.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	page := f.Page
	if page < 0 {
		page = 0
	}
	args = append(args, PageSize, page*PageSize)
	query := fmt.Sprintf(`
		SELECT %s FROM products p
		JOIN categories c ON c.id = p.category_id
		%s %s LIMIT $%d OFFSET $%d`,
		productColumns, where, orderBy, len(args)-1, len(args))

	products := []models.Product{}
	if err := s.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	refs := make([]*models.Product, len(products))
	for i := range products {
		refs[i] = &products[i]
	}
	if err := s.loadImages(ctx, refs); err != nil {
		return nil, err
	}

	totalPages := int((total + PageSize - 1) / PageSize)
	return &ProductPage{
		Items:      products,
		Page:       page,
		PageSize:   PageSize,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

// SearchProducts is a case-insensitive substring match against product
// title or category name; the result is unpaged.
func (s *Store) SearchProducts(ctx context.Context, query string) ([]models.Product, error) {
	pattern := "%" + query + "%"
	products := []models.Product{}
	err := s.db.SelectContext(ctx, &products, fmt.Sprintf(`
		SELECT %s FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.title ILIKE $1 OR c.name ILIKE $1
		ORDER BY p.id`, productColumns), pattern)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}

	refs := make([]*models.Product, len(products))
	for i := range products {
		refs[i] = &products[i]
	}
	if err := s.loadImages(ctx, refs); err != nil {
		return nil, err
	}
	return products, nil
}

func replaceProductImagesTx(ctx context.Context, tx *sqlx.Tx, productID int64, urls []string) error {
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM product_images WHERE product_id = $1", productID); err != nil {
		return fmt.Errorf("clear product images: %w", err)
	}
	for i, url := range urls {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO product_images (product_id, position, url) VALUES ($1, $2, $3)`,
			productID, i, url); err != nil {
			return fmt.Errorf("insert product image: %w", err)
		}
	}
	return nil
}

func (s *Store) loadImages(ctx context.Context, products []*models.Product) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]int64, len(products))
	byID := make(map[int64]*models.Product, len(products))
	for i, p := range products {
		ids[i] = p.ID
		byID[p.ID] = p
		p.Images = []string{}
	}

	rows := []struct {
		ProductID int64  `db:"product_id"`
		URL       string `db:"url"`
	}{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT product_id, url FROM product_images
		WHERE product_id = ANY($1)
		ORDER BY product_id, position`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load product images: %w", err)
	}

	for _, row := range rows {
		p := byID[row.ProductID]
		p.Images = append(p.Images, row.URL)
	}
	return nil
}
